// Spotify Web API adapter.
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/shared"
)

const (
	spotifyBaseURL      = "https://api.spotify.com/v1"
	spotifyTrackURL     = "https://open.spotify.com/track/"
	defaultSpotifyLimit = 10
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int64           `json:"duration_ms"`
	Popularity   int             `json:"popularity"`
	PreviewURL   string          `json:"preview_url"`
	ExternalURLs externalURLs    `json:"external_urls"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Genres []string       `json:"genres"`
	Images []SpotifyImage `json:"images"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	Images      []SpotifyImage `json:"images"`
}

// AudioFeatures holds the subset of /audio-features used for mood labelling.
type AudioFeatures struct {
	ID           string  `json:"id"`
	Valence      float64 `json:"valence"`
	Energy       float64 `json:"energy"`
	Danceability float64 `json:"danceability"`
	Tempo        float64 `json:"tempo"`
	Key          int     `json:"key"`
	Mode         int     `json:"mode"`
}

// AudioAnalysis holds the track-level section of /audio-analysis.
type AudioAnalysis struct {
	Track struct {
		Duration float64 `json:"duration"`
		Tempo    float64 `json:"tempo"`
		Key      int     `json:"key"`
		Mode     int     `json:"mode"`
		Loudness float64 `json:"loudness"`
	} `json:"track"`
}

// RecommendationRequest describes a /recommendations call.
type RecommendationRequest struct {
	SeedArtists []string
	SeedGenres  []string
	// Targets holds audio-feature parameters such as target_valence or min_tempo.
	Targets map[string]float64
	Limit   int
}

func (r RecommendationRequest) values(market string) url.Values {
	params := url.Values{}
	if len(r.SeedArtists) > 0 {
		params.Set("seed_artists", strings.Join(r.SeedArtists, ","))
	}
	if len(r.SeedGenres) > 0 {
		params.Set("seed_genres", strings.Join(r.SeedGenres, ","))
	}
	for k, v := range r.Targets {
		params.Set(k, strconv.FormatFloat(v, 'f', -1, 64))
	}
	params.Set("limit", strconv.Itoa(r.Limit))
	if market != "" {
		params.Set("market", market)
	}
	return params
}

// SpotifyService searches and browses the Spotify catalog with an app token.
type SpotifyService struct {
	client
	tokens TokenProvider
	market string
}

// NewSpotifyService creates a Spotify adapter. market defaults to "US".
func NewSpotifyService(tokens TokenProvider, market string, opts Options) *SpotifyService {
	if market == "" {
		market = "US"
	}
	return &SpotifyService{
		client: newClient(models.Spotify, spotifyBaseURL, opts),
		tokens: tokens,
		market: market,
	}
}

func (s *SpotifyService) Platform() models.Platform { return models.Spotify }

// Authenticate checks that an app token can be obtained.
func (s *SpotifyService) Authenticate(ctx context.Context) error {
	_, err := bearer(ctx, s.tokens)
	return err
}

func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	token, err := bearer(ctx, s.tokens)
	if err != nil {
		return err
	}
	header := http.Header{"Authorization": {"Bearer " + token}}
	return s.getJSON(ctx, endpoint, params, header, result)
}

// Search runs a track search built from q, post-filtered by q.Artist.
func (s *SpotifyService) Search(ctx context.Context, q models.Query) Result {
	text := q.Text()
	if q.Year != "" {
		text += " year:" + q.Year
	}

	items, err := s.SearchTracks(ctx, text, defaultSpotifyLimit)
	if err != nil {
		return s.fail("search", err)
	}

	tracks := make([]models.Track, 0, len(items))
	for _, item := range items {
		names := make([]string, len(item.Artists))
		for i, a := range item.Artists {
			names[i] = a.Name
		}
		if !matchesArtist(q.Artist, names...) {
			continue
		}
		tracks = append(tracks, item.ToTrack())
	}
	return s.found(tracks)
}

// SearchTracks returns raw track items for a free-text query.
func (s *SpotifyService) SearchTracks(ctx context.Context, text string, limit int) ([]SpotifyTrack, error) {
	params := url.Values{
		"q":     {text},
		"type":  {"track"},
		"limit": {strconv.Itoa(limit)},
	}

	var response struct {
		Tracks struct {
			Items []SpotifyTrack `json:"items"`
		} `json:"tracks"`
	}
	if err := s.doRequest(ctx, "/search", params, &response); err != nil {
		return nil, err
	}
	return response.Tracks.Items, nil
}

// SearchArtist resolves an artist name to its best match.
func (s *SpotifyService) SearchArtist(ctx context.Context, name string) (*SpotifyArtist, error) {
	params := url.Values{"q": {name}, "type": {"artist"}, "limit": {"1"}}

	var response struct {
		Artists struct {
			Items []SpotifyArtist `json:"items"`
		} `json:"artists"`
	}
	if err := s.doRequest(ctx, "/search", params, &response); err != nil {
		return nil, err
	}
	if len(response.Artists.Items) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrArtistNotFound, name)
	}
	return &response.Artists.Items[0], nil
}

// ArtistTopTracks returns an artist's most popular tracks in the configured market.
func (s *SpotifyService) ArtistTopTracks(ctx context.Context, artistID string) ([]SpotifyTrack, error) {
	var response struct {
		Tracks []SpotifyTrack `json:"tracks"`
	}
	endpoint := fmt.Sprintf("/artists/%s/top-tracks", url.PathEscape(artistID))
	if err := s.doRequest(ctx, endpoint, url.Values{"market": {s.market}}, &response); err != nil {
		return nil, err
	}
	return response.Tracks, nil
}

// RelatedArtists returns artists Spotify considers similar.
func (s *SpotifyService) RelatedArtists(ctx context.Context, artistID string) ([]SpotifyArtist, error) {
	var response struct {
		Artists []SpotifyArtist `json:"artists"`
	}
	endpoint := fmt.Sprintf("/artists/%s/related-artists", url.PathEscape(artistID))
	if err := s.doRequest(ctx, endpoint, nil, &response); err != nil {
		return nil, err
	}
	return response.Artists, nil
}

// Recommendations calls /recommendations with the given seeds and audio-feature targets.
func (s *SpotifyService) Recommendations(ctx context.Context, req RecommendationRequest) ([]SpotifyTrack, error) {
	var response struct {
		Tracks []SpotifyTrack `json:"tracks"`
	}
	if err := s.doRequest(ctx, "/recommendations", req.values(s.market), &response); err != nil {
		return nil, err
	}
	return response.Tracks, nil
}

// AudioFeatures fetches /audio-features for a track.
func (s *SpotifyService) AudioFeatures(ctx context.Context, trackID string) (*AudioFeatures, error) {
	var features AudioFeatures
	if err := s.doRequest(ctx, "/audio-features/"+url.PathEscape(trackID), nil, &features); err != nil {
		return nil, err
	}
	return &features, nil
}

// AudioAnalysis fetches /audio-analysis for a track.
func (s *SpotifyService) AudioAnalysis(ctx context.Context, trackID string) (*AudioAnalysis, error) {
	var analysis AudioAnalysis
	if err := s.doRequest(ctx, "/audio-analysis/"+url.PathEscape(trackID), nil, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// ToTrack maps a Spotify track to a [models.Track].
func (st SpotifyTrack) ToTrack() models.Track {
	names := make([]string, len(st.Artists))
	for i, a := range st.Artists {
		names[i] = a.Name
	}

	t := models.NewTrack(models.Spotify, st.Name, strings.Join(names, ", "))
	t.ID = st.ID
	t.Album = st.Album.Name
	if t.Album == "" {
		t.Album = models.UnknownValue
	}
	t.Year = models.UnknownValue
	if year, _, _ := strings.Cut(st.Album.ReleaseDate, "-"); year != "" {
		t.Year = year
	}
	t.Duration = models.DurationFromMillis(st.DurationMS)
	t.Popularity = st.Popularity
	t.PreviewURL = st.PreviewURL
	if len(st.Album.Images) > 0 {
		t.ThumbnailURL = st.Album.Images[0].URL
	}

	link := st.ExternalURLs.Spotify
	if link == "" && st.ID != "" {
		link = spotifyTrackURL + st.ID
	}
	return t.WithURL(models.Spotify, link)
}
