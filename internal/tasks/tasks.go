package tasks

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/services"
)

// DefaultTimeout bounds a single provider call when no timeout is configured.
const DefaultTimeout = 8 * time.Second

// RandomSource supplies score jitter. [*rand.Rand] satisfies it.
type RandomSource interface {
	IntN(n int) int
}

// NewRandom returns a seeded source; equal seeds yield equal jitter.
func NewRandom(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// scoring is a base match score with an inclusive jitter range.
type scoring struct {
	base, lo, hi int
}

var (
	artistTopScoring = scoring{80, -10, 15}
	relatedScoring   = scoring{70, -5, 15}
	genreScoring     = scoring{75, -10, 20}
	moodScoring      = scoring{85, -10, 10}
	fallbackScoring  = scoring{70, -5, 15}
)

// draw returns base plus a uniform value in [lo, hi], clamped to 0..100.
func (s scoring) draw(r RandomSource) int {
	return models.ClampScore(s.base + s.lo + r.IntN(s.hi-s.lo+1))
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}

// guard runs fn, converting a panic into a failed [services.Result].
func guard(p models.Platform, fn func() services.Result) (res services.Result) {
	defer func() {
		if r := recover(); r != nil {
			res = services.Result{Platform: p, Err: fmt.Errorf("provider panic: %v", r)}
		}
	}()
	return fn()
}
