package tasks

import (
	"maps"
	"strings"
)

// moodProfile pairs audio-feature request parameters with seed genres.
type moodProfile struct {
	targets map[string]float64
	genres  []string
}

var moodOrder = []string{"happy", "sad", "energetic", "chill", "romantic", "focus", "party", "workout"}

var moodProfiles = map[string]moodProfile{
	"happy": {
		targets: map[string]float64{"target_valence": 0.8, "target_energy": 0.7, "target_danceability": 0.6},
		genres:  []string{"pop", "dance"},
	},
	"sad": {
		targets: map[string]float64{"target_valence": 0.2, "target_energy": 0.3, "min_acousticness": 0.3},
		genres:  []string{"blues", "folk"},
	},
	"energetic": {
		targets: map[string]float64{"target_energy": 0.9, "target_danceability": 0.8, "min_tempo": 120},
		genres:  []string{"electronic", "rock"},
	},
	"chill": {
		targets: map[string]float64{"target_valence": 0.5, "target_energy": 0.4, "max_loudness": -8},
		genres:  []string{"indie", "alternative"},
	},
	"romantic": {
		targets: map[string]float64{"target_valence": 0.6, "target_energy": 0.4, "min_acousticness": 0.2},
		genres:  []string{"r-n-b", "soul"},
	},
	"focus": {
		targets: map[string]float64{"max_valence": 0.6, "max_energy": 0.5, "min_instrumentalness": 0.3},
		genres:  []string{"ambient", "classical"},
	},
	"party": {
		targets: map[string]float64{"target_energy": 0.9, "target_danceability": 0.9, "min_tempo": 120},
		genres:  []string{"dance", "hip-hop"},
	},
	"workout": {
		targets: map[string]float64{"target_energy": 0.95, "min_tempo": 130, "target_danceability": 0.7},
		genres:  []string{"electronic", "hip-hop"},
	},
}

var defaultMoodGenres = []string{"pop", "rock"}

// genreSeeds maps free-text genre fragments to provider seed genres. Order matters:
// the first fragment contained in a genre wins.
var genreSeeds = []struct {
	fragment, seed string
}{
	{"pop", "pop"},
	{"rock", "rock"},
	{"hip-hop", "hip-hop"},
	{"rap", "hip-hop"},
	{"country", "country"},
	{"jazz", "jazz"},
	{"blues", "blues"},
	{"classical", "classical"},
	{"electronic", "electronic"},
	{"dance", "dance"},
	{"r&b", "r-n-b"},
	{"soul", "soul"},
	{"reggae", "reggae"},
	{"metal", "metal"},
	{"punk", "punk"},
	{"indie", "indie"},
	{"alternative", "alternative"},
	{"folk", "folk"},
	{"acoustic", "acoustic"},
}

// Moods lists the moods with a tuned profile.
func Moods() []string {
	return append([]string(nil), moodOrder...)
}

// ValidMood reports whether mood has a tuned profile. Unknown moods still run
// with no feature targets and the default genres.
func ValidMood(mood string) bool {
	_, ok := moodProfiles[strings.ToLower(strings.TrimSpace(mood))]
	return ok
}

// MoodTargets returns a copy of the audio-feature parameters for mood, empty when unknown.
func MoodTargets(mood string) map[string]float64 {
	p, ok := moodProfiles[strings.ToLower(strings.TrimSpace(mood))]
	if !ok {
		return map[string]float64{}
	}
	return maps.Clone(p.targets)
}

// MoodGenres returns the seed genres for mood, or pop and rock when unknown.
func MoodGenres(mood string) []string {
	p, ok := moodProfiles[strings.ToLower(strings.TrimSpace(mood))]
	if !ok {
		return append([]string(nil), defaultMoodGenres...)
	}
	return append([]string(nil), p.genres...)
}

// SeedGenres maps each genre to the first seed whose fragment it contains,
// dropping unmatched genres and repeats while keeping first-seen order.
func SeedGenres(genres []string) []string {
	seen := map[string]bool{}
	var seeds []string
	for _, g := range genres {
		lower := strings.ToLower(g)
		for _, entry := range genreSeeds {
			if !strings.Contains(lower, entry.fragment) {
				continue
			}
			if !seen[entry.seed] {
				seen[entry.seed] = true
				seeds = append(seeds, entry.seed)
			}
			break
		}
	}
	return seeds
}
