package tasks

import (
	"github.com/desertthunder/soundmatch/internal/models"
)

const fallbackTrackURL = "https://open.spotify.com/track/"

var fallbackCatalog = []struct {
	id, title, artist string
}{
	{"7qiZfU4dY1lWllzX7mPBI3", "Shape of You", "Ed Sheeran"},
	{"0VjIjW4GlULA3EkoBOIsMf", "Blinding Lights", "The Weeknd"},
	{"4ZtFanR9U6ndgddUvNcjcG", "Good 4 U", "Olivia Rodrigo"},
	{"463CkQjx2Zk1yXoBuierM9", "Levitating", "Dua Lipa"},
	{"5PjdY0CKGZdEuoNab3yDmX", "Stay", "The Kid LAROI & Justin Bieber"},
}

// Fallback returns the fixed set of popular tracks, each scored 65-85.
func Fallback(rng RandomSource, mood string) []models.Recommendation {
	reason := "Popular recommendation"
	if mood != "" {
		reason += " for " + mood + " mood"
	}

	recs := make([]models.Recommendation, len(fallbackCatalog))
	for i, f := range fallbackCatalog {
		t := models.NewTrack(models.Spotify, f.title, f.artist).WithURL(models.Spotify, fallbackTrackURL+f.id)
		t.ID = f.id
		recs[i] = models.Recommendation{
			Track:      t,
			MatchScore: fallbackScoring.draw(rng),
			Reason:     reason,
		}
	}
	return recs
}
