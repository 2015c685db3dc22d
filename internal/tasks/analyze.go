package tasks

import (
	"cmp"
	"slices"
	"strings"

	"github.com/desertthunder/soundmatch/internal/models"
)

const (
	maxSignalArtists = 5
	maxSignalGenres  = 3
)

// Analyze reduces the most recent [models.HistoryWindow] records into ranked
// artists and genres. Counts are ordered by frequency, with ties keeping the
// order in which values first appear. Records without a genre only count
// toward artists.
func Analyze(records []models.HistoryRecord) models.SignalSet {
	if len(records) > models.HistoryWindow {
		records = records[:models.HistoryWindow]
	}

	artists := make([]string, 0, len(records))
	genres := make([]string, 0, len(records))
	for _, r := range records {
		if a := strings.TrimSpace(r.Artist); a != "" {
			artists = append(artists, a)
		}
		if g := strings.TrimSpace(r.Genre); g != "" {
			genres = append(genres, g)
		}
	}

	return models.SignalSet{
		TopArtists: names(countStable(artists), maxSignalArtists),
		TopGenres:  names(countStable(genres), maxSignalGenres),
	}
}

// countStable tallies values, ordering by descending count and then first appearance.
func countStable(values []string) []models.Count {
	index := make(map[string]int, len(values))
	var counts []models.Count
	for _, v := range values {
		if i, ok := index[v]; ok {
			counts[i].Plays++
			continue
		}
		index[v] = len(counts)
		counts = append(counts, models.Count{Name: v, Plays: 1})
	}

	slices.SortStableFunc(counts, func(a, b models.Count) int {
		return cmp.Compare(b.Plays, a.Plays)
	})
	return counts
}

func names(counts []models.Count, n int) []string {
	out := make([]string, 0, min(len(counts), n))
	for _, c := range counts[:min(len(counts), n)] {
		out = append(out, c.Name)
	}
	return out
}
