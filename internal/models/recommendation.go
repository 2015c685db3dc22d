package models

import (
	"cmp"
	"slices"
)

// MaxRecommendations caps a merged recommendation list.
const MaxRecommendations = 10

// Recommendation is a [Track] ranked for a user.
//
// MatchScore is a 0-100 heuristic; scores from different strategies are not calibrated against each other.
type Recommendation struct {
	Track
	MatchScore int    `json:"match_score"`
	Reason     string `json:"reason"`
}

// ClampScore bounds n to 0..100.
func ClampScore(n int) int {
	return min(max(n, 0), 100)
}

// Rank de-duplicates recs keeping first occurrence, orders them by
// descending score and truncates to limit. Equal scores keep input order.
func Rank(recs []Recommendation, limit int) []Recommendation {
	out := Dedupe(recs)
	slices.SortStableFunc(out, func(a, b Recommendation) int {
		return cmp.Compare(b.MatchScore, a.MatchScore)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
