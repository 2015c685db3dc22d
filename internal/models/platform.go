package models

import "strings"

// Platform identifies the service a record came from.
type Platform string

const (
	Spotify    Platform = "spotify"
	YouTube    Platform = "youtube"
	Yandex     Platform = "yandex"
	Apple      Platform = "apple"
	SoundCloud Platform = "soundcloud"
	Unknown    Platform = "unknown"
)

// Platforms lists every known platform.
var Platforms = []Platform{Spotify, YouTube, Yandex, Apple, SoundCloud}

// ParsePlatform maps a case-insensitive name to a known [Platform], or [Unknown].
func ParsePlatform(s string) Platform {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if p.Known() {
		return p
	}
	return Unknown
}

// Known reports whether p is one of [Platforms].
func (p Platform) Known() bool {
	switch p {
	case Spotify, YouTube, Yandex, Apple, SoundCloud:
		return true
	default:
		return false
	}
}

// DisplayName is the human-facing name of the platform.
func (p Platform) DisplayName() string {
	switch p {
	case Spotify:
		return "Spotify"
	case YouTube:
		return "YouTube"
	case Yandex:
		return "Yandex Music"
	case Apple:
		return "Apple Music"
	case SoundCloud:
		return "SoundCloud"
	default:
		return "Unknown"
	}
}

func (p Platform) String() string { return string(p) }
