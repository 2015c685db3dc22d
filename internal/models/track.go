package models

import (
	"maps"
	"slices"
	"strings"
)

// Track is the canonical record produced by every provider adapter.
//
// Title and Artist are always set, possibly to [UnknownValue]; everything else is optional.
type Track struct {
	ID           string              `json:"id,omitempty"`
	Title        string              `json:"title"`
	Artist       string              `json:"artist"`
	Album        string              `json:"album,omitempty"`
	Year         string              `json:"year,omitempty"`
	Duration     Duration            `json:"duration"`
	Source       Platform            `json:"source_platform"`
	URLs         map[Platform]string `json:"urls,omitempty"`
	Popularity   int                 `json:"popularity,omitempty"`
	PreviewURL   string              `json:"preview_url,omitempty"`
	ThumbnailURL string              `json:"thumbnail_url,omitempty"`
	Confidence   float64             `json:"confidence,omitempty"`
	// LowFidelity marks synthesized records that point at a search page rather than a track.
	LowFidelity bool `json:"low_fidelity,omitempty"`
}

// NewTrack builds a track from source, defaulting blank title and artist to [UnknownValue].
func NewTrack(source Platform, title, artist string) Track {
	return Track{
		Title:  orUnknown(title),
		Artist: orUnknown(artist),
		Source: source,
		URLs:   map[Platform]string{},
	}
}

// WithURL returns a copy of t with the link for platform p recorded.
// The receiver's URLs map is left untouched.
func (t Track) WithURL(p Platform, url string) Track {
	if url == "" {
		return t
	}
	urls := maps.Clone(t.URLs)
	if urls == nil {
		urls = map[Platform]string{}
	}
	urls[p] = url
	t.URLs = urls
	return t
}

// URL returns the link on the track's own platform.
func (t Track) URL() string {
	return t.URLs[t.Source]
}

// Key is the case-insensitive identity used for de-duplication.
func (t Track) Key() string {
	return DedupKey(t.Title, t.Artist)
}

// DedupKey joins the lowercased title and artist with a NUL byte, which neither field can contain.
func DedupKey(title, artist string) string {
	return strings.ToLower(title) + "\x00" + strings.ToLower(artist)
}

// Keyed is implemented by records that can be de-duplicated.
type Keyed interface {
	Key() string
}

// Dedupe drops every record whose key was already seen, keeping the first occurrence and input order.
func Dedupe[T Keyed](items []T) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := item.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return slices.Clip(out)
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return UnknownValue
	}
	return s
}
