package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/soundmatch/internal/models"
)

func TestYandexService(t *testing.T) {
	ctx := context.Background()

	t.Run("Search Synthesizes Search Page Record", func(t *testing.T) {
		svc := NewYandexService(nil, Options{BaseURL: "http://127.0.0.1:0"})

		res := svc.Search(ctx, models.Query{Song: "Shape of You", Artist: "Ed Sheeran"})
		if len(res.Tracks) != 1 {
			t.Fatalf("expected 1 record, got %d", len(res.Tracks))
		}
		tr := res.Tracks[0]
		if !tr.LowFidelity {
			t.Error("expected low-fidelity marker")
		}
		if tr.URL() != "https://music.yandex.com/search?text=Shape%20of%20You%20Ed%20Sheeran" {
			t.Errorf("unexpected URL %s", tr.URL())
		}
		if tr.Duration.String() != "3:45" {
			t.Errorf("expected stub duration 3:45, got %s", tr.Duration)
		}

		only := svc.Search(ctx, models.Query{Artist: "Queen"})
		if only.Tracks[0].Title != models.UnknownValue {
			t.Errorf("expected Unknown title, got %s", only.Tracks[0].Title)
		}

		if empty := svc.Search(ctx, models.Query{}); empty.Outcome() != OutcomeEmpty {
			t.Errorf("expected empty outcome for empty query, got %v", empty.Outcome())
		}
	})

	t.Run("Resolve", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/search" {
				t.Errorf("expected /search, got %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "OAuth ya-token" {
				t.Errorf("expected OAuth header, got %q", got)
			}
			q := r.URL.Query()
			if q.Get("type") != "track" || q.Get("page") != "0" || q.Get("playlist-in-best") != "true" {
				t.Errorf("unexpected params %v", q)
			}
			w.Write([]byte(`{"result":{"tracks":{"results":[
				{"id":33311009,"title":"Believer","durationMs":204000,
				 "artists":[{"name":"Imagine Dragons"}],"albums":[{"id":4022893,"title":"Evolve","year":2017}]}
			]}}}`))
		}))
		defer server.Close()

		svc := NewYandexService(StaticToken("ya-token"), Options{BaseURL: server.URL})
		res := svc.Resolve(ctx, models.Query{Song: "Believer"})
		tr, ok := res.First()
		if !ok {
			t.Fatalf("expected a track, got %v", res.Err)
		}
		if tr.Title != "Believer" || tr.Artist != "Imagine Dragons" || tr.Year != "2017" || tr.LowFidelity {
			t.Errorf("unexpected track %+v", tr)
		}
		if tr.URL() != "https://music.yandex.ru/album/4022893/track/33311009" {
			t.Errorf("unexpected URL %s", tr.URL())
		}
	})

	t.Run("Resolve Skips Other Artists", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"result":{"tracks":{"results":[
				{"id":1001,"title":"Hello","durationMs":251000,"artists":[{"name":"Lionel Richie"}]}
			]}}}`))
		}))
		defer server.Close()

		svc := NewYandexService(nil, Options{BaseURL: server.URL})
		res := svc.Resolve(ctx, models.Query{Song: "Hello", Artist: "Adele"})
		if res.Outcome() != OutcomeEmpty {
			t.Errorf("expected no match for another artist, got %+v", res.Tracks)
		}

		res = svc.Resolve(ctx, models.Query{Song: "Hello", Artist: "lionel"})
		if tr, ok := res.First(); !ok || tr.Artist != "Lionel Richie" {
			t.Errorf("expected the Lionel Richie track, got %+v", res.Tracks)
		}
	})

	t.Run("Resolve Failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "" {
				t.Error("expected unauthenticated request")
			}
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		res := NewYandexService(nil, Options{BaseURL: server.URL}).Resolve(ctx, models.Query{Song: "x"})
		if res.Outcome() != OutcomeFailed {
			t.Errorf("expected failed outcome, got %v", res.Outcome())
		}
	})
}
