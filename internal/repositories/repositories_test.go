package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(context.Background(), db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// seed appends records one minute apart, oldest first.
func seed(t *testing.T, repo *HistoryRepository, records ...models.HistoryRecord) {
	t.Helper()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, rec := range records {
		rec.Timestamp = base.Add(time.Duration(i) * time.Minute)
		if _, err := repo.Append(context.Background(), rec); err != nil {
			t.Fatalf("failed to append record: %v", err)
		}
	}
}

func play(user, title, artist, genre string) models.HistoryRecord {
	return models.HistoryRecord{UserID: user, Title: title, Artist: artist, Genre: genre}
}

func TestHistoryRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Append", func(t *testing.T) {
		repo := NewHistoryRepository(setupTestDB(t))
		fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		repo.now = func() time.Time { return fixed }

		rec, err := repo.Append(ctx, models.HistoryRecord{
			UserID:    "u1",
			Title:     " Hello ",
			Artist:    "Adele",
			SourceURL: "https://open.spotify.com/track/x",
		})
		if err != nil {
			t.Fatalf("failed to append: %v", err)
		}
		if rec.ID == "" {
			t.Error("record ID should be set after append")
		}
		if rec.Title != "Hello" || !rec.Timestamp.Equal(fixed) {
			t.Errorf("unexpected record %+v", rec)
		}

		got, err := repo.Get(ctx, rec.ID)
		if err != nil {
			t.Fatalf("failed to get record: %v", err)
		}
		if got.SourceURL != rec.SourceURL || got.Artist != "Adele" || !got.Timestamp.Equal(fixed) {
			t.Errorf("expected %+v, got %+v", rec, got)
		}
	})

	t.Run("AppendDefaultsArtist", func(t *testing.T) {
		repo := NewHistoryRepository(setupTestDB(t))
		rec, err := repo.Append(ctx, play("u1", "Untitled", "", ""))
		if err != nil {
			t.Fatalf("failed to append: %v", err)
		}
		if rec.Artist != models.UnknownValue {
			t.Errorf("expected Unknown artist, got %q", rec.Artist)
		}
	})

	t.Run("AppendValidation", func(t *testing.T) {
		repo := NewHistoryRepository(setupTestDB(t))
		for _, rec := range []models.HistoryRecord{play("", "Song", "A", ""), play("u1", " ", "A", "")} {
			if _, err := repo.Append(ctx, rec); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput for %+v, got %v", rec, err)
			}
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		repo := NewHistoryRepository(setupTestDB(t))
		if _, err := repo.Get(ctx, "missing"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("Recent", func(t *testing.T) {
		repo := NewHistoryRepository(setupTestDB(t))
		seed(t, repo,
			play("u1", "First", "A", "rock"),
			play("u2", "Other", "B", "pop"),
			play("u1", "Second", "A", "rock"),
			play("u1", "Third", "C", "pop"),
		)

		got, err := repo.Recent(ctx, "u1", 2)
		if err != nil {
			t.Fatalf("failed to read recent: %v", err)
		}
		if len(got) != 2 || got[0].Title != "Third" || got[1].Title != "Second" {
			t.Errorf("expected newest first, got %+v", got)
		}

		none, err := repo.Recent(ctx, "nobody", models.HistoryWindow)
		if err != nil || len(none) != 0 {
			t.Errorf("expected no records, got %+v %v", none, err)
		}
	})

	t.Run("RecentSameTimestamp", func(t *testing.T) {
		repo := NewHistoryRepository(setupTestDB(t))
		fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		repo.now = func() time.Time { return fixed }
		for _, title := range []string{"one", "two", "three"} {
			if _, err := repo.Append(ctx, play("u1", title, "A", "")); err != nil {
				t.Fatal(err)
			}
		}

		got, err := repo.Recent(ctx, "u1", 10)
		if err != nil || len(got) != 3 || got[0].Title != "three" {
			t.Errorf("expected insertion order to break ties, got %+v %v", got, err)
		}
	})

	t.Run("ListByArtist", func(t *testing.T) {
		repo := NewHistoryRepository(setupTestDB(t))
		seed(t, repo,
			play("u1", "Hello", "Adele", "soul"),
			play("u1", "Perfect", "Ed Sheeran", "pop"),
			play("u2", "Skyfall", "Adele", "soul"),
		)

		got, err := repo.List(ctx, HistoryFilter{Artist: "adele"})
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(got) != 2 || got[0].Title != "Skyfall" {
			t.Errorf("unexpected records %+v", got)
		}

		all, err := repo.List(ctx, HistoryFilter{})
		if err != nil || len(all) != 3 {
			t.Errorf("expected 3 records, got %d %v", len(all), err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		repo := NewHistoryRepository(setupTestDB(t))
		seed(t, repo, play("u1", "A", "X", ""), play("u1", "B", "X", ""), play("u2", "C", "Y", ""))

		n, err := repo.Clear(ctx, "u1")
		if err != nil || n != 2 {
			t.Fatalf("expected 2 removed, got %d %v", n, err)
		}
		rest, _ := repo.List(ctx, HistoryFilter{})
		if len(rest) != 1 || rest[0].UserID != "u2" {
			t.Errorf("unexpected remaining records %+v", rest)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		repo := NewHistoryRepository(setupTestDB(t))
		seed(t, repo,
			play("u1", "1", "Zed", "jazz"),
			play("u1", "2", "Amy", "blues"),
			play("u1", "3", "Amy", "jazz"),
			play("u1", "4", "Zed", ""),
			play("u1", "5", "Bo", "rock"),
			play("u1", "6", "Cy", "pop"),
			play("u1", "7", "Di", "pop"),
			play("u1", "8", "Ed", "pop"),
			play("u1", "9", "Fu", "soul"),
			play("u2", "x", "Amy", "jazz"),
		)

		stats, err := repo.Stats(ctx, "u1")
		if err != nil {
			t.Fatalf("failed to compute stats: %v", err)
		}
		if stats.Total != 9 {
			t.Errorf("expected 9 plays, got %d", stats.Total)
		}

		wantArtists := []models.Count{{Name: "Zed", Plays: 2}, {Name: "Amy", Plays: 2}, {Name: "Bo", Plays: 1}, {Name: "Cy", Plays: 1}, {Name: "Di", Plays: 1}}
		if len(stats.TopArtists) != len(wantArtists) {
			t.Fatalf("expected %d artists, got %+v", len(wantArtists), stats.TopArtists)
		}
		for i, want := range wantArtists {
			if stats.TopArtists[i] != want {
				t.Errorf("artist %d: expected %+v, got %+v", i, want, stats.TopArtists[i])
			}
		}

		wantGenres := []models.Count{{Name: "pop", Plays: 3}, {Name: "jazz", Plays: 2}, {Name: "blues", Plays: 1}}
		if len(stats.TopGenres) != len(wantGenres) {
			t.Fatalf("expected %d genres, got %+v", len(wantGenres), stats.TopGenres)
		}
		for i, want := range wantGenres {
			if stats.TopGenres[i] != want {
				t.Errorf("genre %d: expected %+v, got %+v", i, want, stats.TopGenres[i])
			}
		}
	})

	t.Run("StatsEmpty", func(t *testing.T) {
		repo := NewHistoryRepository(setupTestDB(t))
		stats, err := repo.Stats(ctx, "nobody")
		if err != nil {
			t.Fatalf("failed to compute stats: %v", err)
		}
		if stats.Total != 0 || len(stats.TopArtists) != 0 || stats.TopGenres == nil {
			t.Errorf("unexpected stats %+v", stats)
		}
	})
}
