package tasks

import (
	"context"
	"strings"
	"time"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	appmetrics "github.com/desertthunder/soundmatch/internal/metrics"
	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/services"
	"github.com/desertthunder/soundmatch/internal/shared"
)

// FirstMatchOrder is the priority in which [SearchEngine.FirstMatch] tries platforms.
var FirstMatchOrder = []models.Platform{models.Yandex, models.Spotify, models.Apple, models.YouTube}

// Match is the single result of a first-match lookup.
type Match struct {
	Track    models.Track    `json:"track"`
	Platform models.Platform `json:"platform"`
	Found    bool            `json:"found"`
}

// SearchEngine fans a query out to providers and merges what comes back.
type SearchEngine struct {
	providers []services.Provider
	timeout   time.Duration
	logger    *log.Logger
}

// NewSearchEngine creates an engine over providers. Their order is the
// fan-out order and therefore the de-duplication priority.
func NewSearchEngine(providers []services.Provider, timeout time.Duration, logger *log.Logger) *SearchEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SearchEngine{providers: providers, timeout: timeout, logger: logger}
}

// Providers returns the providers a query selects: all of them, or only the
// one matching q.Platform when it is set.
func (e *SearchEngine) Providers(platform models.Platform) []services.Provider {
	if platform == "" {
		return e.providers
	}
	var selected []services.Provider
	for _, p := range e.providers {
		if p.Platform() == platform {
			selected = append(selected, p)
		}
	}
	return selected
}

func (e *SearchEngine) provider(platform models.Platform) services.Provider {
	for _, p := range e.providers {
		if p.Platform() == platform {
			return p
		}
	}
	return nil
}

// call runs fn under the per-provider timeout and records its outcome.
func (e *SearchEngine) call(ctx context.Context, platform models.Platform, fn func(context.Context) services.Result) services.Result {
	ctx, cancel := withTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	res := guard(platform, func() services.Result { return fn(ctx) })
	if res.Platform == "" {
		res.Platform = platform
	}
	appmetrics.ObserveProvider(string(platform), res.Outcome().String(), time.Since(start))

	if res.Err != nil {
		e.logger.Debug("provider failed", "platform", platform, "err", res.Err)
	}
	return res
}

// SearchAll queries the selected providers concurrently and returns their
// tracks concatenated in provider order, tagged with their source and
// de-duplicated by title and artist. An empty slice means no results.
func (e *SearchEngine) SearchAll(ctx context.Context, progress chan<- ProgressUpdate, q models.Query) []models.Track {
	selected := e.Providers(q.Platform)
	results := make([]services.Result, len(selected))

	var g errgroup.Group
	for i, p := range selected {
		g.Go(func() error {
			results[i] = e.call(ctx, p.Platform(), func(ctx context.Context) services.Result {
				return p.Search(ctx, q)
			})
			sendProgress(progress, providerUpdate(SearchProviders, i+1, len(selected), results[i]))
			return nil
		})
	}
	_ = g.Wait()

	var all []models.Track
	for _, res := range results {
		for _, t := range res.Tracks {
			t.Source = res.Platform
			t.Confidence = Confidence(q, t)
			all = append(all, t)
		}
	}
	return models.Dedupe(all)
}

// FirstMatch tries providers one at a time in [FirstMatchOrder] and returns
// the first track found. Providers implementing [services.Resolver] are
// asked to resolve instead of search.
func (e *SearchEngine) FirstMatch(ctx context.Context, progress chan<- ProgressUpdate, q models.Query) Match {
	for i, platform := range FirstMatchOrder {
		p := e.provider(platform)
		if p == nil {
			continue
		}

		lookup := p.Search
		if r, ok := p.(services.Resolver); ok {
			lookup = r.Resolve
		}

		res := e.call(ctx, platform, func(ctx context.Context) services.Result { return lookup(ctx, q) })
		sendProgress(progress, providerUpdate(ResolveProvider, i+1, len(FirstMatchOrder), res))

		if t, ok := res.First(); ok {
			t.Source = platform
			t.Confidence = Confidence(q, t)
			return Match{Track: t, Platform: platform, Found: true}
		}
	}
	return Match{Platform: models.Unknown}
}

// Confidence scores how closely t matches q with Jaro-Winkler similarity
// over the lowercased "song artist" strings.
func Confidence(q models.Query, t models.Track) float64 {
	want := strings.ToLower(q.Text())
	if want == "" {
		return 0
	}
	var got string
	if q.Artist == "" {
		got = strings.ToLower(t.Title)
	} else {
		got = strings.ToLower(t.Title + " " + t.Artist)
	}
	return strutil.Similarity(want, got, metrics.NewJaroWinkler())
}
