package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/desertthunder/soundmatch/internal/metrics"
	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/repositories"
	"github.com/desertthunder/soundmatch/internal/services"
	"github.com/desertthunder/soundmatch/internal/shared"
	"github.com/desertthunder/soundmatch/internal/tasks"
	tu "github.com/desertthunder/soundmatch/internal/testing"
)

type stubRecognizer struct{}

func (stubRecognizer) Recognize(_ context.Context, filename string, _ []byte) (*services.Recognition, error) {
	if !services.SupportedAudio(filename) {
		return nil, shared.ErrUnsupportedFormat
	}
	return &services.Recognition{Title: "Hello", Artist: "Adele"}, nil
}

func newTestServer(t *testing.T) (*Server, *repositories.HistoryRepository) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	history := repositories.NewHistoryRepository(db)

	hello := models.NewTrack(models.Spotify, "Hello", "Adele").WithURL(models.Spotify, "https://open.spotify.com/track/h")
	engine := tasks.NewSearchEngine([]services.Provider{
		tu.NewMockProvider(models.Spotify, hello),
		tu.NewMockProvider(models.Apple,
			models.NewTrack(models.Apple, "hello", "adele"),
			models.NewTrack(models.Apple, "Someone Like You", "Adele"),
		),
	}, time.Second, nil)

	catalog := &tu.MockCatalog{
		Artists:   map[string]services.SpotifyArtist{"Adele": {ID: "a1", Name: "Adele"}},
		TopTracks: map[string][]services.SpotifyTrack{"a1": {tu.SpotifyTrack("t1", "Skyfall", "Adele")}},
	}

	reg := prometheus.NewRegistry()
	metrics.Register(reg)

	srv := New(Options{
		Search:      engine,
		Recommender: tasks.NewRecommender(catalog, history, tu.FixedRandom(0), time.Second, nil),
		Identifier:  tasks.NewIdentifier(engine, nil, history, stubRecognizer{}, time.Second, nil),
		History:     history,
		Gatherer:    reg,
	})
	return srv, history
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestServer(t *testing.T) {
	t.Run("Health", func(t *testing.T) {
		srv, _ := newTestServer(t)
		rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if rec.Header().Get(RequestIDHeader) == "" {
			t.Error("expected a request ID header")
		}
	})

	t.Run("RequestIDPassthrough", func(t *testing.T) {
		srv, _ := newTestServer(t)
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "abc-123")

		if got := do(t, srv, req).Header().Get(RequestIDHeader); got != "abc-123" {
			t.Errorf("expected abc-123, got %q", got)
		}
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		srv, _ := newTestServer(t)
		rec := do(t, srv, httptest.NewRequest(http.MethodDelete, "/api/search", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Search", func(t *testing.T) {
		srv, _ := newTestServer(t)
		rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/search?q="+url.QueryEscape(`song:"Hello" artist:"Adele"`), nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		body := decode[SearchResponse](t, rec)
		if body.Query.Song != "Hello" || body.Query.Artist != "Adele" {
			t.Errorf("unexpected query %+v", body.Query)
		}
		if body.Count != 2 || body.Results[0].Source != models.Spotify {
			t.Errorf("expected deduped results led by spotify, got %+v", body.Results)
		}
	})

	t.Run("SearchPlainTextAndPlatform", func(t *testing.T) {
		srv, _ := newTestServer(t)
		rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/search?q=Hello&platform=apple", nil))

		body := decode[SearchResponse](t, rec)
		if body.Count != 2 || body.Results[0].Source != models.Apple {
			t.Errorf("expected only apple results, got %+v", body.Results)
		}
	})

	t.Run("SearchNoResults", func(t *testing.T) {
		srv, _ := newTestServer(t)
		rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/search?song=Hello&platform=deezer", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"results":[]`) {
			t.Errorf("expected an empty results array, got %s", rec.Body)
		}
	})

	t.Run("SearchMissingQuery", func(t *testing.T) {
		srv, _ := newTestServer(t)
		rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/search", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("IdentifySavesHistory", func(t *testing.T) {
		srv, history := newTestServer(t)
		rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/identify?user=u1&title=Hello&artist=Adele", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		body := decode[IdentifyResponse](t, rec)
		if !body.Found || body.Result.Match.Platform != models.Spotify || !body.Result.Saved {
			t.Errorf("unexpected identify response %+v", body.Result)
		}

		records, err := history.Recent(context.Background(), "u1", 10)
		if err != nil || len(records) != 1 || records[0].SourceURL != "https://open.spotify.com/track/h" {
			t.Errorf("unexpected history %+v %v", records, err)
		}
	})

	t.Run("IdentifyMissingTitle", func(t *testing.T) {
		srv, _ := newTestServer(t)
		rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/identify?user=u1", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("IdentifyAudio", func(t *testing.T) {
		srv, _ := newTestServer(t)

		upload := func(filename string) *httptest.ResponseRecorder {
			var body bytes.Buffer
			mw := multipart.NewWriter(&body)
			part, _ := mw.CreateFormFile("audio", filename)
			part.Write([]byte("fake audio"))
			mw.WriteField("user", "u1")
			mw.Close()

			req := httptest.NewRequest(http.MethodPost, "/api/identify", &body)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			return do(t, srv, req)
		}

		rec := upload("clip.mp3")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		body := decode[IdentifyResponse](t, rec)
		if !body.Found || body.Result.Recognition == nil || body.Result.Recognition.Title != "Hello" {
			t.Errorf("unexpected response %+v", body.Result)
		}

		if rec := upload("notes.txt"); rec.Code != http.StatusUnsupportedMediaType {
			t.Errorf("expected 415 for unsupported audio, got %d", rec.Code)
		}
	})

	t.Run("RecommendWithoutHistory", func(t *testing.T) {
		srv, _ := newTestServer(t)
		rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/recommend?user=nobody", nil))

		if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "no_history") {
			t.Errorf("expected no_history 404, got %d: %s", rec.Code, rec.Body)
		}
	})

	t.Run("Recommend", func(t *testing.T) {
		srv, history := newTestServer(t)
		if _, err := history.Append(context.Background(), models.HistoryRecord{UserID: "u1", Title: "Hello", Artist: "Adele"}); err != nil {
			t.Fatal(err)
		}

		rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/recommend?user=u1&mood=Happy", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
		}
		body := decode[RecommendResponse](t, rec)
		if body.Mood != "happy" || len(body.Signals.TopArtists) != 1 {
			t.Errorf("unexpected signals %+v", body)
		}
		if len(body.Recommendations) == 0 || body.Recommendations[0].Title != "Skyfall" {
			t.Errorf("unexpected recommendations %+v", body.Recommendations)
		}
	})

	t.Run("RecommendMissingUser", func(t *testing.T) {
		srv, _ := newTestServer(t)
		if rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/recommend", nil)); rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("History", func(t *testing.T) {
		srv, _ := newTestServer(t)

		payload := `{"user_id":"u1","song_title":"Hello","artist":"Adele","genre":"soul"}`
		rec := do(t, srv, httptest.NewRequest(http.MethodPost, "/api/history", strings.NewReader(payload)))
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
		}
		saved := decode[models.HistoryRecord](t, rec)
		if saved.ID == "" || saved.Genre != "soul" {
			t.Errorf("unexpected saved record %+v", saved)
		}

		rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/history?user=u1&limit=5", nil))
		records := decode[[]models.HistoryRecord](t, rec)
		if len(records) != 1 || records[0].Title != "Hello" {
			t.Errorf("unexpected history %+v", records)
		}

		rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/stats?user=u1", nil))
		stats := decode[models.ListeningStats](t, rec)
		if stats.Total != 1 || len(stats.TopGenres) != 1 || stats.TopGenres[0].Name != "soul" {
			t.Errorf("unexpected stats %+v", stats)
		}
	})

	t.Run("HistoryValidation", func(t *testing.T) {
		srv, _ := newTestServer(t)
		tests := []struct {
			name   string
			req    *http.Request
			status int
		}{
			{"bad json", httptest.NewRequest(http.MethodPost, "/api/history", strings.NewReader("{")), http.StatusBadRequest},
			{"missing title", httptest.NewRequest(http.MethodPost, "/api/history", strings.NewReader(`{"user_id":"u1"}`)), http.StatusBadRequest},
			{"missing user", httptest.NewRequest(http.MethodGet, "/api/history", nil), http.StatusBadRequest},
			{"bad limit", httptest.NewRequest(http.MethodGet, "/api/history?user=u1&limit=-1", nil), http.StatusBadRequest},
			{"empty list", httptest.NewRequest(http.MethodGet, "/api/history?user=u9", nil), http.StatusOK},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if rec := do(t, srv, tt.req); rec.Code != tt.status {
					t.Errorf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body)
				}
			})
		}
	})

	t.Run("Metrics", func(t *testing.T) {
		srv, _ := newTestServer(t)
		do(t, srv, httptest.NewRequest(http.MethodGet, "/api/search?q=Hello", nil))

		rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		for _, want := range []string{"soundmatch_http_requests_total", "soundmatch_provider_requests_total"} {
			if !strings.Contains(rec.Body.String(), want) {
				t.Errorf("metrics missing %s", want)
			}
		}
	})

	t.Run("Unconfigured", func(t *testing.T) {
		srv := New(Options{Gatherer: prometheus.NewRegistry()})
		for _, path := range []string{"/api/search?q=x", "/api/identify?title=x", "/api/recommend?user=u", "/api/history?user=u", "/api/stats?user=u"} {
			if rec := do(t, srv, httptest.NewRequest(http.MethodGet, path, nil)); rec.Code != http.StatusServiceUnavailable {
				t.Errorf("%s: expected 503, got %d", path, rec.Code)
			}
		}
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(shared.NewLogger(nil))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "internal_error") {
		t.Errorf("expected a 500 JSON error, got %d: %s", rec.Code, rec.Body)
	}
}

func TestBasicRouter(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := NewBasicRouter()
	r.Use(mw("first"), mw("second"))
	r.Handle(http.MethodGet, "/x", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "handler")
	}))
	r.Handle(http.MethodPost, "/x", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	do(t, r, httptest.NewRequest(http.MethodGet, "/x", nil))
	if strings.Join(order, ",") != "first,second,handler" {
		t.Errorf("unexpected middleware order %v", order)
	}
	if rec := do(t, r, httptest.NewRequest(http.MethodPost, "/x", nil)); rec.Code != http.StatusCreated {
		t.Errorf("expected POST handler, got %d", rec.Code)
	}
}
