package models

import "strings"

// Query is the canonical search intent. Absent fields are empty strings.
type Query struct {
	Song     string   `json:"song,omitempty"`
	Artist   string   `json:"artist,omitempty"`
	Year     string   `json:"year,omitempty"`
	Platform Platform `json:"platform,omitempty"`
}

// Fields returns only the keys present in q.
func (q Query) Fields() map[string]string {
	fields := make(map[string]string, 4)
	if q.Song != "" {
		fields["song"] = q.Song
	}
	if q.Artist != "" {
		fields["artist"] = q.Artist
	}
	if q.Year != "" {
		fields["year"] = q.Year
	}
	if q.Platform != "" {
		fields["platform"] = string(q.Platform)
	}
	return fields
}

// Text joins song and artist into a free-text search term.
func (q Query) Text() string {
	return strings.TrimSpace(q.Song + " " + q.Artist)
}

// IsEmpty reports whether q has neither a song nor an artist.
func (q Query) IsEmpty() bool {
	return q.Text() == ""
}
