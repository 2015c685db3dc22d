// Package query parses search expressions such as
//
//	song:"Shape of You" artist:"Ed Sheeran" year:2017 platform:spot
//
// into a [models.Query]. Parsing never fails: fields missing from the input
// are absent from the result, and checking that a song was given is left to callers.
package query

import (
	"regexp"
	"strings"

	"github.com/desertthunder/soundmatch/internal/models"
)

var (
	songPattern     = regexp.MustCompile(`(?i)song:"([^"]+)"`)
	artistPattern   = regexp.MustCompile(`(?i)artist:"([^"]+)"`)
	yearPattern     = regexp.MustCompile(`(?i)year:(\d{4})`)
	platformPattern = regexp.MustCompile(`(?i)platform:(?:"([^"]+)"|(\w+))`)
)

// aliases maps shorthand platform names to their canonical form.
var aliases = map[string]models.Platform{
	"spot":         models.Spotify,
	"yt":           models.YouTube,
	"ym":           models.Yandex,
	"yandex music": models.Yandex,
}

// Parse extracts the canonical fields from raw.
func Parse(raw string) models.Query {
	var q models.Query

	if m := songPattern.FindStringSubmatch(raw); m != nil {
		q.Song = m[1]
	}
	if m := artistPattern.FindStringSubmatch(raw); m != nil {
		q.Artist = m[1]
	}
	if m := yearPattern.FindStringSubmatch(raw); m != nil {
		q.Year = m[1]
	}
	if m := platformPattern.FindStringSubmatch(raw); m != nil {
		value := m[1]
		if value == "" {
			value = m[2]
		}
		q.Platform = NormalizePlatform(value)
	}

	return q
}

// NormalizePlatform resolves known aliases; other values pass through lowercased.
func NormalizePlatform(value string) models.Platform {
	v := strings.ToLower(strings.TrimSpace(value))
	if p, ok := aliases[v]; ok {
		return p
	}
	return models.Platform(v)
}

// ParseOrText parses raw as an expression, falling back to treating the whole
// input as a song title when it contains no recognised field.
func ParseOrText(raw string) models.Query {
	q := Parse(raw)
	if q == (models.Query{}) {
		q.Song = strings.TrimSpace(raw)
	}
	return q
}
