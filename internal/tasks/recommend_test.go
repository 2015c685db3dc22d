package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/services"
	"github.com/desertthunder/soundmatch/internal/shared"
	tu "github.com/desertthunder/soundmatch/internal/testing"
)

func edSheeranCatalog() *tu.MockCatalog {
	return &tu.MockCatalog{
		Artists: map[string]services.SpotifyArtist{
			"Ed Sheeran": {ID: "a1", Name: "Ed Sheeran"},
		},
		TopTracks: map[string][]services.SpotifyTrack{
			"a1": {
				tu.SpotifyTrack("t1", "Perfect", "Ed Sheeran"),
				tu.SpotifyTrack("t2", "Shape of You", "Ed Sheeran"),
				tu.SpotifyTrack("t3", "Photograph", "Ed Sheeran"),
				tu.SpotifyTrack("t4", "Castle on the Hill", "Ed Sheeran"),
			},
			"a2": {tu.SpotifyTrack("r1", "Someone You Loved", "Lewis Capaldi")},
			"a3": {tu.SpotifyTrack("r2", "Let It Go", "James Bay")},
		},
		Related: map[string][]services.SpotifyArtist{
			"a1": {{ID: "a2", Name: "Lewis Capaldi"}, {ID: "a3", Name: "James Bay"}, {ID: "a4", Name: "Passenger"}},
		},
		Recs: []services.SpotifyTrack{
			tu.SpotifyTrack("g1", "shape of you", "ED SHEERAN"),
			tu.SpotifyTrack("g2", "Bad Habits", "Ed Sheeran"),
			tu.SpotifyTrack("g3", "Levitating", "Dua Lipa"),
		},
	}
}

func titles(recs []models.Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Title
	}
	return out
}

func assertFallback(t *testing.T, recs []models.Recommendation, mood string) {
	t.Helper()
	if len(recs) != len(fallbackCatalog) {
		t.Fatalf("expected %d fallback recommendations, got %d", len(fallbackCatalog), len(recs))
	}
	want := "Popular recommendation"
	if mood != "" {
		want += " for " + mood + " mood"
	}
	for _, r := range recs {
		if r.Reason != want {
			t.Errorf("expected reason %q, got %q", want, r.Reason)
		}
	}
}

func TestRecommender_Recommend(t *testing.T) {
	ctx := context.Background()
	signals := models.SignalSet{TopArtists: []string{"Ed Sheeran"}, TopGenres: []string{"pop"}}

	t.Run("merges strategies keeping the first duplicate", func(t *testing.T) {
		r := NewRecommender(edSheeranCatalog(), nil, tu.FixedRandom(0), time.Second, nil)
		recs := r.Recommend(ctx, nil, signals, "happy")

		want := []string{"Perfect", "Shape of You", "Photograph", "Someone You Loved", "Let It Go", "Bad Habits", "Levitating"}
		if !slices.Equal(titles(recs), want) {
			t.Fatalf("got %v, want %v", titles(recs), want)
		}

		shape := recs[1]
		if shape.Reason != "Popular track by Ed Sheeran" || shape.ID != "t2" {
			t.Errorf("expected the artist strategy's copy, got %+v", shape)
		}
		if recs[3].Reason != "Similar to Ed Sheeran" {
			t.Errorf("unexpected related reason %q", recs[3].Reason)
		}
		if recs[5].Reason != "Based on pop genres" {
			t.Errorf("unexpected genre reason %q", recs[5].Reason)
		}
	})

	t.Run("sorts by descending score", func(t *testing.T) {
		r := NewRecommender(edSheeranCatalog(), nil, tu.FixedRandom(0), time.Second, nil)
		recs := r.Recommend(ctx, nil, signals, "")

		for i := 1; i < len(recs); i++ {
			if recs[i].MatchScore > recs[i-1].MatchScore {
				t.Fatalf("scores not descending at %d: %v", i, recs)
			}
		}
		if recs[0].MatchScore != 70 {
			t.Errorf("expected artist top-track score 70 at minimum jitter, got %d", recs[0].MatchScore)
		}
	})

	t.Run("scores stay within strategy bounds", func(t *testing.T) {
		for _, rng := range []RandomSource{tu.FixedRandom(0), tu.FixedRandom(1000), NewRandom(42)} {
			r := NewRecommender(edSheeranCatalog(), nil, rng, time.Second, nil)
			for _, rec := range r.Recommend(ctx, nil, signals, "happy") {
				var lo, hi int
				switch {
				case strings.HasPrefix(rec.Reason, "Popular track"):
					lo, hi = 70, 95
				case strings.HasPrefix(rec.Reason, "Similar to"):
					lo, hi = 65, 85
				case strings.HasPrefix(rec.Reason, "Based on"):
					lo, hi = 65, 95
				case strings.HasPrefix(rec.Reason, "Perfect for"):
					lo, hi = 75, 95
				default:
					t.Fatalf("unexpected reason %q", rec.Reason)
				}
				if rec.MatchScore < lo || rec.MatchScore > hi {
					t.Errorf("%s: score %d outside [%d, %d]", rec.Reason, rec.MatchScore, lo, hi)
				}
			}
		}
	})

	t.Run("equal seeds give equal scores", func(t *testing.T) {
		a := NewRecommender(edSheeranCatalog(), nil, NewRandom(7), time.Second, nil).Recommend(ctx, nil, signals, "chill")
		b := NewRecommender(edSheeranCatalog(), nil, NewRandom(7), time.Second, nil).Recommend(ctx, nil, signals, "chill")
		if len(a) != len(b) {
			t.Fatalf("length mismatch %d != %d", len(a), len(b))
		}
		for i := range a {
			if a[i].MatchScore != b[i].MatchScore || a[i].Title != b[i].Title {
				t.Errorf("position %d differs: %+v vs %+v", i, a[i], b[i])
			}
		}
	})

	t.Run("truncates to the top ten", func(t *testing.T) {
		catalog := &tu.MockCatalog{}
		for i := range 12 {
			catalog.Recs = append(catalog.Recs, tu.SpotifyTrack(fmt.Sprint(i), fmt.Sprintf("Song %d", i), "Band"))
		}
		r := NewRecommender(catalog, nil, tu.FixedRandom(3), time.Second, nil)

		recs := r.Recommend(ctx, nil, models.SignalSet{TopGenres: []string{"rock"}}, "")
		if len(recs) != models.MaxRecommendations {
			t.Errorf("expected %d recommendations, got %d", models.MaxRecommendations, len(recs))
		}
	})

	t.Run("mood strategy seeds with the top artist", func(t *testing.T) {
		catalog := edSheeranCatalog()
		r := NewRecommender(catalog, nil, tu.FixedRandom(0), time.Second, nil)
		r.Recommend(ctx, nil, models.SignalSet{TopArtists: []string{"Ed Sheeran"}}, "happy")

		reqs := catalog.RecommendationRequests()
		if len(reqs) != 1 {
			t.Fatalf("expected 1 recommendation request, got %d", len(reqs))
		}
		req := reqs[0]
		if !slices.Equal(req.SeedArtists, []string{"a1"}) || len(req.SeedGenres) != 0 {
			t.Errorf("unexpected seeds %+v", req)
		}
		if req.Limit != 8 || req.Targets["target_valence"] != 0.8 {
			t.Errorf("unexpected mood request %+v", req)
		}
	})

	t.Run("mood strategy falls back to mood genres", func(t *testing.T) {
		catalog := edSheeranCatalog()
		r := NewRecommender(catalog, nil, tu.FixedRandom(0), time.Second, nil)
		r.Recommend(ctx, nil, models.SignalSet{TopArtists: []string{"Nobody"}}, "sad")

		reqs := catalog.RecommendationRequests()
		if len(reqs) != 1 || !slices.Equal(reqs[0].SeedGenres, []string{"blues", "folk"}) {
			t.Errorf("expected blues and folk seeds, got %+v", reqs)
		}
	})

	t.Run("genre strategy merges mood targets", func(t *testing.T) {
		catalog := edSheeranCatalog()
		r := NewRecommender(catalog, nil, tu.FixedRandom(0), time.Second, nil)
		r.Recommend(ctx, nil, models.SignalSet{TopGenres: []string{"Indie Rock", "pop", "jazz", "metal"}}, "energetic")

		var genre *services.RecommendationRequest
		for _, req := range catalog.RecommendationRequests() {
			if req.Limit == 10 {
				genre = &req
			}
		}
		if genre == nil {
			t.Fatal("expected a genre request")
		}
		if !slices.Equal(genre.SeedGenres, []string{"rock", "pop", "jazz"}) {
			t.Errorf("unexpected seeds %v", genre.SeedGenres)
		}
		if genre.Targets["min_tempo"] != 120 {
			t.Errorf("expected mood targets, got %v", genre.Targets)
		}
	})

	t.Run("token failure uses fallback", func(t *testing.T) {
		catalog := edSheeranCatalog()
		catalog.AuthErr = shared.ErrAuthFailed
		r := NewRecommender(catalog, nil, tu.FixedRandom(0), time.Second, nil)

		progress := make(chan ProgressUpdate, 1)
		assertFallback(t, r.Recommend(ctx, progress, signals, "happy"), "happy")
		if u := <-progress; u.Phase != UseFallback {
			t.Errorf("expected a fallback update, got %+v", u)
		}
	})

	t.Run("empty merge uses fallback", func(t *testing.T) {
		r := NewRecommender(&tu.MockCatalog{}, nil, tu.FixedRandom(0), time.Second, nil)
		assertFallback(t, r.Recommend(ctx, nil, signals, ""), "")
	})

	t.Run("strategy panic uses fallback", func(t *testing.T) {
		catalog := edSheeranCatalog()
		catalog.PanicOn = "Recommendations"
		r := NewRecommender(catalog, nil, tu.FixedRandom(0), time.Second, nil)
		assertFallback(t, r.Recommend(ctx, nil, signals, "party"), "party")
	})

	t.Run("missing catalog uses fallback", func(t *testing.T) {
		r := NewRecommender(nil, nil, nil, time.Second, nil)
		assertFallback(t, r.Recommend(ctx, nil, signals, ""), "")
	})

	t.Run("strategy errors are tolerated", func(t *testing.T) {
		catalog := edSheeranCatalog()
		catalog.RecsErr = shared.ErrRateLimited
		r := NewRecommender(catalog, nil, tu.FixedRandom(0), time.Second, nil)

		recs := r.Recommend(ctx, nil, signals, "happy")
		if len(recs) != 5 || recs[0].Title != "Perfect" {
			t.Errorf("expected the artist strategy alone, got %v", titles(recs))
		}
	})
}

func TestRecommender_ForUser(t *testing.T) {
	ctx := context.Background()

	t.Run("no history", func(t *testing.T) {
		r := NewRecommender(edSheeranCatalog(), &tu.MemoryHistory{}, tu.FixedRandom(0), time.Second, nil)
		if _, _, err := r.ForUser(ctx, nil, "u1", ""); !errors.Is(err, shared.ErrNoHistory) {
			t.Errorf("expected ErrNoHistory, got %v", err)
		}
	})

	t.Run("history read failure", func(t *testing.T) {
		r := NewRecommender(edSheeranCatalog(), &tu.MemoryHistory{Err: errors.New("disk")}, tu.FixedRandom(0), time.Second, nil)
		if _, _, err := r.ForUser(ctx, nil, "u1", ""); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("recommends from signals", func(t *testing.T) {
		history := &tu.MemoryHistory{}
		for _, rec := range []models.HistoryRecord{
			{UserID: "u1", Title: "Perfect", Artist: "Ed Sheeran", Genre: "pop"},
			{UserID: "u1", Title: "Photograph", Artist: "Ed Sheeran", Genre: "pop"},
			{UserID: "u2", Title: "Other", Artist: "Someone", Genre: "metal"},
		} {
			if _, err := history.Append(ctx, rec); err != nil {
				t.Fatal(err)
			}
		}

		r := NewRecommender(edSheeranCatalog(), history, tu.FixedRandom(0), time.Second, nil)
		recs, signals, err := r.ForUser(ctx, nil, "u1", "")
		if err != nil {
			t.Fatalf("unexpected error %v", err)
		}
		if !slices.Equal(signals.TopArtists, []string{"Ed Sheeran"}) || !slices.Equal(signals.TopGenres, []string{"pop"}) {
			t.Errorf("unexpected signals %+v", signals)
		}
		if len(recs) == 0 || recs[0].Title != "Perfect" {
			t.Errorf("unexpected recommendations %v", titles(recs))
		}
	})
}

func TestFallback(t *testing.T) {
	recs := Fallback(NewRandom(1), "")
	assertFallback(t, recs, "")

	for _, r := range recs {
		if r.MatchScore < 65 || r.MatchScore > 85 {
			t.Errorf("%s: score %d outside [65, 85]", r.Title, r.MatchScore)
		}
		if r.Source != models.Spotify || !strings.HasPrefix(r.URL(), fallbackTrackURL) {
			t.Errorf("%s: unexpected link %q", r.Title, r.URL())
		}
	}

	if got := Fallback(tu.FixedRandom(100), "chill"); got[0].MatchScore != 85 || got[0].Reason != "Popular recommendation for chill mood" {
		t.Errorf("unexpected top fallback %+v", got[0])
	}
}
