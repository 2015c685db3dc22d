// YouTube Data API v3 adapter.
//
// Search results carry no duration, so a second /videos call fetches
// contentDetails for every returned video in one batch.
package services

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/shared"
)

const (
	youtubeBaseURL  = "https://www.googleapis.com/youtube/v3"
	youtubeWatchURL = "https://www.youtube.com/watch?v="
	// youtubeMusicCategory is the videoCategoryId for Music.
	youtubeMusicCategory = "10"
	defaultYouTubeLimit  = 10
)

var isoDuration = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

type youtubeThumbnail struct {
	URL string `json:"url"`
}

// YouTubeSearchItem is one /search result.
type YouTubeSearchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		ChannelTitle string `json:"channelTitle"`
		Thumbnails   struct {
			Default youtubeThumbnail `json:"default"`
			High    youtubeThumbnail `json:"high"`
		} `json:"thumbnails"`
	} `json:"snippet"`
}

// YouTubeService searches music videos with an API key.
type YouTubeService struct {
	client
	apiKey string
}

// NewYouTubeService creates a YouTube adapter.
func NewYouTubeService(apiKey string, opts Options) *YouTubeService {
	return &YouTubeService{
		client: newClient(models.YouTube, youtubeBaseURL, opts),
		apiKey: apiKey,
	}
}

func (y *YouTubeService) Platform() models.Platform { return models.YouTube }

// Search finds music-category videos for q. Titles and artists come from the
// query when given, otherwise from the video title and channel.
func (y *YouTubeService) Search(ctx context.Context, q models.Query) Result {
	if y.apiKey == "" {
		return y.fail("search", fmt.Errorf("%w: youtube api key", shared.ErrMissingCredentials))
	}

	params := url.Values{
		"part":            {"snippet"},
		"q":               {q.Text()},
		"type":            {"video"},
		"videoCategoryId": {youtubeMusicCategory},
		"maxResults":      {strconv.Itoa(defaultYouTubeLimit)},
		"key":             {y.apiKey},
	}

	var response struct {
		Items []YouTubeSearchItem `json:"items"`
	}
	if err := y.getJSON(ctx, "/search", params, nil, &response); err != nil {
		return y.fail("search", err)
	}

	var items []YouTubeSearchItem
	for _, item := range response.Items {
		if item.ID.VideoID == "" || !matchesArtist(q.Artist, item.Snippet.Title, item.Snippet.ChannelTitle) {
			continue
		}
		items = append(items, item)
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID.VideoID
	}
	durations := y.Durations(ctx, ids)

	tracks := make([]models.Track, 0, len(items))
	for _, item := range items {
		title := q.Song
		if title == "" {
			title, _, _ = strings.Cut(item.Snippet.Title, "-")
		}
		artist := q.Artist
		if artist == "" {
			artist = item.Snippet.ChannelTitle
		}

		t := models.NewTrack(models.YouTube, title, artist)
		t.ID = item.ID.VideoID
		t.Duration = models.DurationFromText(durations[item.ID.VideoID])
		t.ThumbnailURL = item.Snippet.Thumbnails.Default.URL
		if t.ThumbnailURL == "" {
			t.ThumbnailURL = item.Snippet.Thumbnails.High.URL
		}
		tracks = append(tracks, t.WithURL(models.YouTube, youtubeWatchURL+item.ID.VideoID))
	}
	return y.found(tracks)
}

// Durations maps each video id to its "m:ss" length, or "Unknown" when the
// lookup fails or the token cannot be parsed.
func (y *YouTubeService) Durations(ctx context.Context, ids []string) map[string]string {
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		out[id] = models.UnknownValue
	}
	if len(ids) == 0 {
		return out
	}

	params := url.Values{
		"part": {"contentDetails"},
		"id":   {strings.Join(ids, ",")},
		"key":  {y.apiKey},
	}

	var response struct {
		Items []struct {
			ID             string `json:"id"`
			ContentDetails struct {
				Duration string `json:"duration"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := y.getJSON(ctx, "/videos", params, nil, &response); err != nil {
		y.logger.Warn("duration lookup failed", "op", "videos", "err", err)
		return out
	}

	for _, item := range response.Items {
		out[item.ID] = ParseISODuration(item.ContentDetails.Duration)
	}
	return out
}

// ParseISODuration converts a token like PT4M33S into "4:33". Hours fold into
// minutes, so PT1H2M3S becomes "62:03". Anything else yields "Unknown".
func ParseISODuration(token string) string {
	m := isoDuration.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil || (m[1] == "" && m[2] == "" && m[3] == "") {
		return models.UnknownValue
	}

	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	return fmt.Sprintf("%d:%02d", hours*60+minutes, seconds)
}
