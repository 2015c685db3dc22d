package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/soundmatch/internal/models"
)

const (
	yandexBaseURL   = "https://api.music.yandex.net"
	yandexSearchURL = "https://music.yandex.com/search?text="
	yandexTrackURL  = "https://music.yandex.ru"
	// yandexStubDuration is reported by synthesized search-page records.
	yandexStubDuration = "3:45"
)

// YandexTrack is one track from the Yandex Music search API.
type YandexTrack struct {
	ID         yandexID `json:"id"`
	Title      string   `json:"title"`
	DurationMS int64    `json:"durationMs"`
	Artists    []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Albums []struct {
		ID    yandexID `json:"id"`
		Title string   `json:"title"`
		Year  int      `json:"year"`
	} `json:"albums"`
}

// yandexID accepts Yandex ids encoded as either numbers or strings.
type yandexID string

func (id *yandexID) UnmarshalJSON(data []byte) error {
	*id = yandexID(strings.Trim(string(data), `"`))
	return nil
}

// YandexService covers Yandex Music.
//
// Without partner API access, [YandexService.Search] synthesizes a single
// low-fidelity record linking to the Yandex search page. [YandexService.Resolve]
// makes a best-effort call to the real search API for single-result lookups.
type YandexService struct {
	client
	tokens TokenProvider
}

// NewYandexService creates a Yandex adapter. tokens may be nil, in which case
// Resolve calls the API unauthenticated.
func NewYandexService(tokens TokenProvider, opts Options) *YandexService {
	return &YandexService{client: newClient(models.Yandex, yandexBaseURL, opts), tokens: tokens}
}

func (y *YandexService) Platform() models.Platform { return models.Yandex }

// Search returns one synthesized record pointing at the search page, or nothing for an empty query.
func (y *YandexService) Search(_ context.Context, q models.Query) Result {
	text := q.Text()
	if text == "" {
		return y.found(nil)
	}

	t := models.NewTrack(models.Yandex, q.Song, q.Artist)
	t.Duration = models.DurationFromText(yandexStubDuration)
	t.LowFidelity = true
	return y.found([]models.Track{t.WithURL(models.Yandex, yandexSearchURL+url.PathEscape(text))})
}

// Resolve queries the Yandex Music search API and returns the first track
// credited to q.Artist, when one is given.
func (y *YandexService) Resolve(ctx context.Context, q models.Query) Result {
	text := q.Text()
	if text == "" {
		return y.found(nil)
	}

	header := http.Header{}
	if token, err := bearer(ctx, y.tokens); err == nil {
		header.Set("Authorization", "OAuth "+token)
	} else {
		y.logger.Debug("resolving without token", "err", err)
	}

	params := url.Values{
		"text":             {text},
		"type":             {"track"},
		"page":             {"0"},
		"playlist-in-best": {"true"},
	}

	var response struct {
		Result struct {
			Tracks struct {
				Results []YandexTrack `json:"results"`
			} `json:"tracks"`
		} `json:"result"`
	}
	if err := y.getJSON(ctx, "/search", params, header, &response); err != nil {
		return y.fail("resolve", err)
	}

	for _, yt := range response.Result.Tracks.Results {
		if matchesArtist(q.Artist, yt.artistNames()...) {
			return y.found([]models.Track{yt.ToTrack()})
		}
	}
	return y.found(nil)
}

func (yt YandexTrack) artistNames() []string {
	names := make([]string, len(yt.Artists))
	for i, a := range yt.Artists {
		names[i] = a.Name
	}
	return names
}

func (yt YandexTrack) ToTrack() models.Track {
	t := models.NewTrack(models.Yandex, yt.Title, strings.Join(yt.artistNames(), ", "))
	t.ID = string(yt.ID)
	t.Duration = models.DurationFromMillis(yt.DurationMS)

	link := fmt.Sprintf("%s/track/%s", yandexTrackURL, yt.ID)
	if len(yt.Albums) > 0 {
		album := yt.Albums[0]
		t.Album = album.Title
		if album.Year > 0 {
			t.Year = strconv.Itoa(album.Year)
		}
		link = fmt.Sprintf("%s/album/%s/track/%s", yandexTrackURL, album.ID, yt.ID)
	}
	return t.WithURL(models.Yandex, link)
}
