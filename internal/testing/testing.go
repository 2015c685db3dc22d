// package testing contains shared test doubles for providers, catalogs and history stores
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/services"
	"github.com/desertthunder/soundmatch/internal/shared"
)

// MockProvider is a [services.Provider] that returns a canned result and counts calls.
type MockProvider struct {
	platform models.Platform
	result   services.Result
	delay    time.Duration
	panics   bool
	calls    atomic.Int32
}

// NewMockProvider returns a provider that finds tracks.
func NewMockProvider(p models.Platform, tracks ...models.Track) *MockProvider {
	return &MockProvider{platform: p, result: services.Result{Platform: p, Tracks: tracks}}
}

// NewFailingProvider returns a provider whose every search fails with err.
func NewFailingProvider(p models.Platform, err error) *MockProvider {
	return &MockProvider{platform: p, result: services.Result{Platform: p, Err: err}}
}

// NewPanickingProvider returns a provider that panics on search.
func NewPanickingProvider(p models.Platform) *MockProvider {
	return &MockProvider{platform: p, panics: true}
}

// WithDelay makes Search wait d or until the context is done.
func (m *MockProvider) WithDelay(d time.Duration) *MockProvider {
	m.delay = d
	return m
}

func (m *MockProvider) Platform() models.Platform { return m.platform }

func (m *MockProvider) Search(ctx context.Context, q models.Query) services.Result {
	m.calls.Add(1)
	if m.panics {
		panic("mock provider panic")
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return services.Result{Platform: m.platform, Err: ctx.Err()}
		}
	}
	return m.result
}

// Calls returns how many times Search or Resolve ran.
func (m *MockProvider) Calls() int { return int(m.calls.Load()) }

// MockResolver is a [MockProvider] that also implements [services.Resolver].
type MockResolver struct {
	*MockProvider
	resolved services.Result
}

// NewMockResolver returns a provider whose Resolve yields tracks while Search yields search.
func NewMockResolver(p models.Platform, search []models.Track, tracks ...models.Track) *MockResolver {
	return &MockResolver{
		MockProvider: NewMockProvider(p, search...),
		resolved:     services.Result{Platform: p, Tracks: tracks},
	}
}

func (m *MockResolver) Resolve(ctx context.Context, q models.Query) services.Result {
	m.calls.Add(1)
	return m.resolved
}

// FixedRandom always draws the same value, capped to the requested range.
type FixedRandom int

func (f FixedRandom) IntN(n int) int {
	return min(max(int(f), 0), n-1)
}

// MockCatalog is an in-memory recommendation and audio catalog.
type MockCatalog struct {
	AuthErr   error
	Artists   map[string]services.SpotifyArtist
	TopTracks map[string][]services.SpotifyTrack
	Related   map[string][]services.SpotifyArtist
	Recs      []services.SpotifyTrack
	RecsErr   error
	Search    []services.SpotifyTrack
	Features  *services.AudioFeatures
	Analysis  *services.AudioAnalysis
	PanicOn   string

	mu       sync.Mutex
	Requests []services.RecommendationRequest
}

func (m *MockCatalog) maybePanic(op string) {
	if m.PanicOn == op {
		panic("mock catalog panic in " + op)
	}
}

func (m *MockCatalog) Authenticate(context.Context) error { return m.AuthErr }

func (m *MockCatalog) SearchArtist(_ context.Context, name string) (*services.SpotifyArtist, error) {
	m.maybePanic("SearchArtist")
	a, ok := m.Artists[name]
	if !ok {
		return nil, shared.ErrArtistNotFound
	}
	return &a, nil
}

func (m *MockCatalog) ArtistTopTracks(_ context.Context, id string) ([]services.SpotifyTrack, error) {
	m.maybePanic("ArtistTopTracks")
	return m.TopTracks[id], nil
}

func (m *MockCatalog) RelatedArtists(_ context.Context, id string) ([]services.SpotifyArtist, error) {
	return m.Related[id], nil
}

func (m *MockCatalog) Recommendations(_ context.Context, req services.RecommendationRequest) ([]services.SpotifyTrack, error) {
	m.maybePanic("Recommendations")
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	return m.Recs, m.RecsErr
}

// RecommendationRequests returns a copy of every request received.
func (m *MockCatalog) RecommendationRequests() []services.RecommendationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]services.RecommendationRequest(nil), m.Requests...)
}

func (m *MockCatalog) SearchTracks(context.Context, string, int) ([]services.SpotifyTrack, error) {
	return m.Search, nil
}

func (m *MockCatalog) AudioFeatures(context.Context, string) (*services.AudioFeatures, error) {
	if m.Features == nil {
		return nil, shared.ErrTrackNotFound
	}
	return m.Features, nil
}

func (m *MockCatalog) AudioAnalysis(context.Context, string) (*services.AudioAnalysis, error) {
	if m.Analysis == nil {
		return nil, shared.ErrTrackNotFound
	}
	return m.Analysis, nil
}

// SpotifyTrack builds a catalog track with one artist.
func SpotifyTrack(id, title, artist string) services.SpotifyTrack {
	return services.SpotifyTrack{ID: id, Name: title, Artists: []services.SpotifyArtist{{Name: artist}}}
}

// MemoryHistory is an in-memory history store, newest record last.
type MemoryHistory struct {
	mu      sync.Mutex
	Records []models.HistoryRecord
	Err     error
}

func (m *MemoryHistory) Append(_ context.Context, rec models.HistoryRecord) (*models.HistoryRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = shared.GenerateID()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	m.Records = append(m.Records, rec)
	return &rec, nil
}

func (m *MemoryHistory) Recent(_ context.Context, userID string, limit int) ([]models.HistoryRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.HistoryRecord
	for i := len(m.Records) - 1; i >= 0 && len(out) < limit; i-- {
		if m.Records[i].UserID == userID {
			out = append(out, m.Records[i])
		}
	}
	return out, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
