package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	appmetrics "github.com/desertthunder/soundmatch/internal/metrics"
	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/services"
	"github.com/desertthunder/soundmatch/internal/shared"
)

const (
	maxArtistStrategies = 3
	artistTopTracks     = 3
	relatedArtists      = 2
	genreLimit          = 10
	moodLimit           = 8
	maxSeedGenres       = 3
	moodSeedGenres      = 2
)

// Catalog is the primary provider the recommendation strategies browse.
// [*services.SpotifyService] implements it.
type Catalog interface {
	Authenticate(ctx context.Context) error
	SearchArtist(ctx context.Context, name string) (*services.SpotifyArtist, error)
	ArtistTopTracks(ctx context.Context, artistID string) ([]services.SpotifyTrack, error)
	RelatedArtists(ctx context.Context, artistID string) ([]services.SpotifyArtist, error)
	Recommendations(ctx context.Context, req services.RecommendationRequest) ([]services.SpotifyTrack, error)
}

// HistoryReader reads a user's most recent history, newest first.
type HistoryReader interface {
	Recent(ctx context.Context, userID string, limit int) ([]models.HistoryRecord, error)
}

// candidate is an unscored track emitted by a strategy.
type candidate struct {
	track   services.SpotifyTrack
	scoring scoring
	reason  string
}

// strategy is one independent recommendation source.
type strategy struct {
	name string
	run  func(ctx context.Context) []candidate
}

// Recommender merges artist, genre and mood strategies into one ranked list,
// falling back to popular picks whenever the live pipeline cannot deliver.
type Recommender struct {
	catalog Catalog
	history HistoryReader
	timeout time.Duration
	logger  *log.Logger

	mu   sync.Mutex
	rand RandomSource
}

// NewRecommender creates a recommender. catalog may be nil, in which case
// every request is served from the fallback set.
func NewRecommender(catalog Catalog, history HistoryReader, rng RandomSource, timeout time.Duration, logger *log.Logger) *Recommender {
	if rng == nil {
		rng = NewRandom(uint64(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Recommender{catalog: catalog, history: history, rand: rng, timeout: timeout, logger: logger}
}

// ForUser analyzes userID's recent history and recommends from it. It
// returns [shared.ErrNoHistory] when there is nothing to personalize with.
func (r *Recommender) ForUser(ctx context.Context, progress chan<- ProgressUpdate, userID, mood string) ([]models.Recommendation, models.SignalSet, error) {
	if r.history == nil {
		return nil, models.SignalSet{}, fmt.Errorf("%w: history store not configured", shared.ErrServiceUnavailable)
	}

	records, err := r.history.Recent(ctx, userID, models.HistoryWindow)
	if err != nil {
		return nil, models.SignalSet{}, fmt.Errorf("failed to read history: %w", err)
	}
	if len(records) == 0 {
		return nil, models.SignalSet{}, shared.ErrNoHistory
	}

	signals := Analyze(records)
	return r.Recommend(ctx, progress, signals, mood), signals, nil
}

// Recommend always returns a non-empty list of at most
// [models.MaxRecommendations]. Token failure, an empty merge or a panic in
// any strategy routes to [Fallback].
func (r *Recommender) Recommend(ctx context.Context, progress chan<- ProgressUpdate, signals models.SignalSet, mood string) (recs []models.Recommendation) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("recommendation pipeline panicked", "panic", p)
			recs = r.fallback(progress, mood, "pipeline error")
		}
	}()

	if r.catalog == nil {
		return r.fallback(progress, mood, "catalog not configured")
	}

	authCtx, cancel := withTimeout(ctx, r.timeout)
	err := r.catalog.Authenticate(authCtx)
	cancel()
	if err != nil {
		r.logger.Warn("catalog token unavailable", "err", err)
		return r.fallback(progress, mood, "catalog unavailable")
	}

	strategies := r.strategies(signals, mood)
	batches := make([][]candidate, len(strategies))

	var g errgroup.Group
	for i, s := range strategies {
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("%s strategy panic: %v", s.name, p)
				}
			}()
			batches[i] = s.run(ctx)
			appmetrics.StrategyTracksTotal.WithLabelValues(strings.Fields(s.name)[0]).Add(float64(len(batches[i])))
			sendProgress(progress, strategyUpdate(i+1, len(strategies), s.name, len(batches[i])))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.logger.Error("recommendation strategy failed", "err", err)
		return r.fallback(progress, mood, "strategy error")
	}

	recs = models.Rank(r.score(batches), models.MaxRecommendations)
	if len(recs) == 0 {
		return r.fallback(progress, mood, "no live results")
	}
	appmetrics.RecommendationsTotal.WithLabelValues("live").Inc()
	return recs
}

// strategies lists the applicable strategies in execution order: one per top
// artist (up to three), then genre, then mood.
func (r *Recommender) strategies(signals models.SignalSet, mood string) []strategy {
	var out []strategy
	for _, artist := range signals.TopArtists[:min(len(signals.TopArtists), maxArtistStrategies)] {
		out = append(out, strategy{
			name: "artist " + artist,
			run:  func(ctx context.Context) []candidate { return r.byArtist(ctx, artist) },
		})
	}
	if len(signals.TopGenres) > 0 {
		out = append(out, strategy{
			name: "genre",
			run:  func(ctx context.Context) []candidate { return r.byGenre(ctx, signals.TopGenres, mood) },
		})
	}
	if strings.TrimSpace(mood) != "" {
		out = append(out, strategy{
			name: "mood",
			run:  func(ctx context.Context) []candidate { return r.byMood(ctx, mood, signals.TopArtists) },
		})
	}
	return out
}

// score assigns match scores in strategy order so a seeded source is reproducible.
func (r *Recommender) score(batches [][]candidate) []models.Recommendation {
	r.mu.Lock()
	defer r.mu.Unlock()

	var recs []models.Recommendation
	for _, batch := range batches {
		for _, c := range batch {
			recs = append(recs, models.Recommendation{
				Track:      recommendedTrack(c.track),
				MatchScore: c.scoring.draw(r.rand),
				Reason:     c.reason,
			})
		}
	}
	return recs
}

func (r *Recommender) byArtist(ctx context.Context, name string) []candidate {
	var out []candidate

	artist, err := r.lookupArtist(ctx, name)
	if err != nil {
		r.logger.Warn("artist lookup failed", "op", "artist", "artist", name, "err", err)
		return nil
	}

	top, err := r.topTracks(ctx, artist.ID)
	if err != nil {
		r.logger.Warn("top tracks failed", "op", "artist", "artist", name, "err", err)
	}
	for _, t := range top[:min(len(top), artistTopTracks)] {
		out = append(out, candidate{t, artistTopScoring, "Popular track by " + name})
	}

	rctx, cancel := withTimeout(ctx, r.timeout)
	related, err := r.catalog.RelatedArtists(rctx, artist.ID)
	cancel()
	if err != nil {
		r.logger.Warn("related artists failed", "op", "artist", "artist", name, "err", err)
		return out
	}

	for _, rel := range related[:min(len(related), relatedArtists)] {
		tracks, err := r.topTracks(ctx, rel.ID)
		if err != nil || len(tracks) == 0 {
			continue
		}
		out = append(out, candidate{tracks[0], relatedScoring, "Similar to " + name})
	}
	return out
}

func (r *Recommender) byGenre(ctx context.Context, genres []string, mood string) []candidate {
	seeds := SeedGenres(genres)
	if len(seeds) == 0 {
		return nil
	}

	req := services.RecommendationRequest{
		SeedGenres: seeds[:min(len(seeds), maxSeedGenres)],
		Limit:      genreLimit,
	}
	if mood != "" {
		req.Targets = MoodTargets(mood)
	}

	tracks, err := r.recommendations(ctx, req)
	if err != nil {
		r.logger.Warn("genre recommendations failed", "op", "genre", "err", err)
		return nil
	}

	reason := fmt.Sprintf("Based on %s genres", strings.Join(genres, ", "))
	out := make([]candidate, len(tracks))
	for i, t := range tracks {
		out[i] = candidate{t, genreScoring, reason}
	}
	return out
}

func (r *Recommender) byMood(ctx context.Context, mood string, topArtists []string) []candidate {
	req := services.RecommendationRequest{Targets: MoodTargets(mood), Limit: moodLimit}

	if len(topArtists) > 0 {
		if artist, err := r.lookupArtist(ctx, topArtists[0]); err == nil {
			req.SeedArtists = []string{artist.ID}
		}
	}
	if len(req.SeedArtists) == 0 {
		genres := MoodGenres(mood)
		req.SeedGenres = genres[:min(len(genres), moodSeedGenres)]
	}

	tracks, err := r.recommendations(ctx, req)
	if err != nil {
		r.logger.Warn("mood recommendations failed", "op", "mood", "mood", mood, "err", err)
		return nil
	}

	reason := fmt.Sprintf("Perfect for %s mood", mood)
	out := make([]candidate, len(tracks))
	for i, t := range tracks {
		out[i] = candidate{t, moodScoring, reason}
	}
	return out
}

func (r *Recommender) lookupArtist(ctx context.Context, name string) (*services.SpotifyArtist, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	artist, err := r.catalog.SearchArtist(ctx, name)
	if err == nil && artist == nil {
		err = fmt.Errorf("%w: %s", shared.ErrArtistNotFound, name)
	}
	return artist, err
}

func (r *Recommender) topTracks(ctx context.Context, artistID string) ([]services.SpotifyTrack, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	return r.catalog.ArtistTopTracks(ctx, artistID)
}

func (r *Recommender) recommendations(ctx context.Context, req services.RecommendationRequest) ([]services.SpotifyTrack, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	return r.catalog.Recommendations(ctx, req)
}

func (r *Recommender) fallback(progress chan<- ProgressUpdate, mood, why string) []models.Recommendation {
	r.logger.Warn("serving fallback recommendations", "reason", why)
	sendProgress(progress, fallbackUpdate(why))
	appmetrics.RecommendationsTotal.WithLabelValues("fallback").Inc()

	r.mu.Lock()
	defer r.mu.Unlock()
	return Fallback(r.rand, mood)
}

// recommendedTrack maps a catalog track, crediting only its first artist.
func recommendedTrack(st services.SpotifyTrack) models.Track {
	t := st.ToTrack()
	if len(st.Artists) > 0 {
		t.Artist = models.NewTrack(models.Spotify, "", st.Artists[0].Name).Artist
	}
	return t
}
