package tasks

import (
	"slices"
	"testing"
)

func TestSeedGenres(t *testing.T) {
	tests := []struct {
		name   string
		genres []string
		want   []string
	}{
		{"direct", []string{"pop", "rock"}, []string{"pop", "rock"}},
		{"substring", []string{"Indie Rock", "K-Pop"}, []string{"rock", "pop"}},
		{"first table entry wins", []string{"pop rock"}, []string{"pop"}},
		{"rap maps to hip-hop", []string{"gangsta rap", "hip-hop"}, []string{"hip-hop"}},
		{"r&b", []string{"Contemporary R&B"}, []string{"r-n-b"}},
		{"unmatched dropped", []string{"polka", "jazz fusion"}, []string{"jazz"}},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SeedGenres(tt.genres); !slices.Equal(got, tt.want) {
				t.Errorf("SeedGenres(%v) = %v, want %v", tt.genres, got, tt.want)
			}
		})
	}
}

func TestMoods(t *testing.T) {
	t.Run("every listed mood is valid", func(t *testing.T) {
		for _, m := range Moods() {
			if !ValidMood(m) {
				t.Errorf("%s should be valid", m)
			}
			if len(MoodTargets(m)) == 0 || len(MoodGenres(m)) != 2 {
				t.Errorf("%s is missing targets or genres", m)
			}
		}
	})

	t.Run("lookup ignores case and space", func(t *testing.T) {
		if !ValidMood("  Happy ") {
			t.Error("expected Happy to be valid")
		}
		if got := MoodTargets("HAPPY")["target_valence"]; got != 0.8 {
			t.Errorf("expected target_valence 0.8, got %v", got)
		}
	})

	t.Run("unknown mood", func(t *testing.T) {
		if ValidMood("grumpy") {
			t.Error("grumpy should not be valid")
		}
		if len(MoodTargets("grumpy")) != 0 {
			t.Error("expected no targets")
		}
		if got := MoodGenres("grumpy"); !slices.Equal(got, []string{"pop", "rock"}) {
			t.Errorf("expected default genres, got %v", got)
		}
	})

	t.Run("targets are copies", func(t *testing.T) {
		MoodTargets("sad")["target_valence"] = 1
		if MoodTargets("sad")["target_valence"] != 0.2 {
			t.Error("profile was mutated through a returned map")
		}
	})
}
