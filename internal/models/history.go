package models

import "time"

// HistoryWindow is how many recent records feed a [SignalSet].
const HistoryWindow = 20

// HistoryRecord is one entry in a user's append-only listening history.
type HistoryRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"song_title"`
	Artist    string    `json:"artist"`
	Genre     string    `json:"genre,omitempty"`
	SourceURL string    `json:"source_url,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SignalSet summarizes recent history into ranked seeds for recommendations.
type SignalSet struct {
	TopArtists []string `json:"top_artists"`
	TopGenres  []string `json:"top_genres"`
}

// IsEmpty reports whether there is nothing to personalize with.
func (s SignalSet) IsEmpty() bool {
	return len(s.TopArtists) == 0 && len(s.TopGenres) == 0
}

// Count pairs a name with how often it occurs.
type Count struct {
	Name  string `json:"name"`
	Plays int    `json:"plays"`
}

// ListeningStats aggregates a user's full history.
type ListeningStats struct {
	UserID     string  `json:"user_id"`
	Total      int     `json:"total"`
	TopArtists []Count `json:"top_artists"`
	TopGenres  []Count `json:"top_genres"`
}
