package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/services"
	"github.com/desertthunder/soundmatch/internal/shared"
)

// AudioCatalog supplies popularity and audio features for identified songs.
// [*services.SpotifyService] implements it.
type AudioCatalog interface {
	SearchTracks(ctx context.Context, text string, limit int) ([]services.SpotifyTrack, error)
	AudioFeatures(ctx context.Context, trackID string) (*services.AudioFeatures, error)
	AudioAnalysis(ctx context.Context, trackID string) (*services.AudioAnalysis, error)
}

// HistoryStore is the append side of the listening history.
type HistoryStore interface {
	HistoryReader
	Append(ctx context.Context, rec models.HistoryRecord) (*models.HistoryRecord, error)
}

// IdentifyResult describes an identified song.
//
// Found is false when no platform returned a match; that is an outcome, not an error.
type IdentifyResult struct {
	Query       models.Query          `json:"query"`
	Match       Match                 `json:"match"`
	Recognition *services.Recognition `json:"recognition,omitempty"`
	SpotifyID   string                `json:"spotify_id,omitempty"`
	SpotifyURL  string                `json:"spotify_url,omitempty"`
	Popularity  int                   `json:"popularity,omitempty"`
	Mood        string                `json:"mood,omitempty"`
	Tempo       float64               `json:"tempo,omitempty"`
	Key         int                   `json:"key,omitempty"`
	Saved       bool                  `json:"saved"`
}

// Found reports whether any platform matched.
func (r IdentifyResult) Found() bool {
	return r.Match.Found || r.SpotifyID != ""
}

// Identifier resolves a title and artist (or an audio sample) to a track,
// enriches it with audio features, and records it in the user's history.
type Identifier struct {
	search     *SearchEngine
	catalog    AudioCatalog
	history    HistoryStore
	recognizer services.Recognizer
	timeout    time.Duration
	logger     *log.Logger
}

// NewIdentifier wires the identify flow. catalog, history and recognizer are optional.
func NewIdentifier(search *SearchEngine, catalog AudioCatalog, history HistoryStore, recognizer services.Recognizer, timeout time.Duration, logger *log.Logger) *Identifier {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Identifier{
		search:     search,
		catalog:    catalog,
		history:    history,
		recognizer: recognizer,
		timeout:    timeout,
		logger:     logger,
	}
}

// MoodLabel describes a track's mood from its valence.
func MoodLabel(f services.AudioFeatures) string {
	switch {
	case f.Valence > 0.7:
		return "Happy & Energetic"
	case f.Valence > 0.6:
		return "Positive"
	default:
		return "Neutral"
	}
}

// IdentifyAudio recognizes a sample and then runs [Identifier.Identify] on the result.
func (i *Identifier) IdentifyAudio(ctx context.Context, progress chan<- ProgressUpdate, userID, filename string, audio []byte) (*IdentifyResult, error) {
	if i.recognizer == nil {
		return nil, fmt.Errorf("%w: audio recognition not configured", shared.ErrServiceUnavailable)
	}

	sendProgress(progress, stepUpdate(Recognize, "Analyzing audio...", nil))
	rec, err := i.recognizer.Recognize(ctx, filename, audio)
	if err != nil {
		return nil, err
	}

	result, err := i.Identify(ctx, progress, userID, rec.Title, rec.Artist)
	if err != nil {
		return nil, err
	}
	result.Recognition = rec
	return result, nil
}

// Identify looks up title and artist with the first-match priority, adds
// popularity and mood from the audio catalog, and appends the song to
// userID's history. Enrichment and history failures are logged, not returned.
func (i *Identifier) Identify(ctx context.Context, progress chan<- ProgressUpdate, userID, title, artist string) (*IdentifyResult, error) {
	title, artist = strings.TrimSpace(title), strings.TrimSpace(artist)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", shared.ErrMissingArgument)
	}

	q := models.Query{Song: title, Artist: artist}
	result := &IdentifyResult{Query: q, Match: i.search.FirstMatch(ctx, progress, q)}

	if i.catalog != nil {
		i.enrich(ctx, progress, result)
	}

	sourceURL := result.SpotifyURL
	if sourceURL == "" {
		sourceURL = result.Match.Track.URL()
	}

	if i.history != nil && userID != "" && result.Found() {
		_, err := i.history.Append(ctx, models.HistoryRecord{
			UserID:    userID,
			Title:     title,
			Artist:    artist,
			SourceURL: sourceURL,
		})
		if err != nil {
			i.logger.Warn("failed to save history", "user", userID, "err", err)
		} else {
			result.Saved = true
			sendProgress(progress, stepUpdate(SaveHistory, "Saved to history", nil))
		}
	}
	return result, nil
}

func (i *Identifier) enrich(ctx context.Context, progress chan<- ProgressUpdate, result *IdentifyResult) {
	ctx, cancel := withTimeout(ctx, i.timeout)
	defer cancel()

	tracks, err := i.catalog.SearchTracks(ctx, result.Query.Text(), 1)
	if err != nil || len(tracks) == 0 {
		if err != nil {
			i.logger.Warn("catalog lookup failed", "op", "enrich", "err", err)
		}
		return
	}

	st := tracks[0]
	result.SpotifyID = st.ID
	result.SpotifyURL = st.ToTrack().URL()
	result.Popularity = st.Popularity

	if features, err := i.catalog.AudioFeatures(ctx, st.ID); err == nil {
		result.Mood = MoodLabel(*features)
		result.Tempo = features.Tempo
		result.Key = features.Key
	} else {
		i.logger.Warn("audio features failed", "op", "enrich", "err", err)
	}

	if analysis, err := i.catalog.AudioAnalysis(ctx, st.ID); err == nil {
		if analysis.Track.Tempo > 0 {
			result.Tempo = analysis.Track.Tempo
		}
		result.Key = analysis.Track.Key
	} else {
		i.logger.Warn("audio analysis failed", "op", "enrich", "err", err)
	}

	sendProgress(progress, stepUpdate(Enrich, fmt.Sprintf("Popularity %d/100", result.Popularity), result))
}
