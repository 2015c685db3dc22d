package services

import (
	"context"
	"net/url"
	"strconv"

	"github.com/desertthunder/soundmatch/internal/models"
)

const (
	appleBaseURL      = "https://itunes.apple.com"
	defaultAppleLimit = 10
)

// ITunesResult is one song from the iTunes Search API.
type ITunesResult struct {
	TrackID         int64  `json:"trackId"`
	TrackName       string `json:"trackName"`
	ArtistName      string `json:"artistName"`
	CollectionName  string `json:"collectionName"`
	ReleaseDate     string `json:"releaseDate"`
	TrackTimeMillis int64  `json:"trackTimeMillis"`
	TrackViewURL    string `json:"trackViewUrl"`
	PreviewURL      string `json:"previewUrl"`
	ArtworkURL100   string `json:"artworkUrl100"`
}

// AppleService searches the public iTunes catalog. No credentials are needed.
type AppleService struct {
	client
	limit int
}

func NewAppleService(limit int, opts Options) *AppleService {
	if limit <= 0 {
		limit = defaultAppleLimit
	}
	return &AppleService{client: newClient(models.Apple, appleBaseURL, opts), limit: limit}
}

func (a *AppleService) Platform() models.Platform { return models.Apple }

func (a *AppleService) Search(ctx context.Context, q models.Query) Result {
	params := url.Values{
		"term":   {q.Text()},
		"media":  {"music"},
		"entity": {"song"},
		"limit":  {strconv.Itoa(a.limit)},
	}

	var response struct {
		ResultCount int            `json:"resultCount"`
		Results     []ITunesResult `json:"results"`
	}
	if err := a.getJSON(ctx, "/search", params, nil, &response); err != nil {
		return a.fail("search", err)
	}

	tracks := make([]models.Track, 0, len(response.Results))
	for _, r := range response.Results {
		if !matchesArtist(q.Artist, r.ArtistName) {
			continue
		}
		tracks = append(tracks, r.ToTrack())
	}
	return a.found(tracks)
}

func (r ITunesResult) ToTrack() models.Track {
	t := models.NewTrack(models.Apple, r.TrackName, r.ArtistName)
	if r.TrackID != 0 {
		t.ID = strconv.FormatInt(r.TrackID, 10)
	}
	t.Album = r.CollectionName
	if len(r.ReleaseDate) >= 4 {
		t.Year = r.ReleaseDate[:4]
	}
	t.Duration = models.DurationFromMillis(r.TrackTimeMillis)
	t.PreviewURL = r.PreviewURL
	t.ThumbnailURL = r.ArtworkURL100
	return t.WithURL(models.Apple, r.TrackViewURL)
}
