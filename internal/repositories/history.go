package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/shared"
)

const (
	statsArtists = 5
	statsGenres  = 3
)

// HistoryFilter narrows [HistoryRepository.List]. Zero values match everything.
type HistoryFilter struct {
	UserID string
	Artist string
	Limit  int
}

// HistoryRepository stores the user_history table.
type HistoryRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewHistoryRepository creates a HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db, now: time.Now}
}

// Append inserts rec with a generated ID. A zero timestamp is set to now.
func (r *HistoryRepository) Append(ctx context.Context, rec models.HistoryRecord) (*models.HistoryRecord, error) {
	rec.UserID = strings.TrimSpace(rec.UserID)
	rec.Title = strings.TrimSpace(rec.Title)
	rec.Artist = strings.TrimSpace(rec.Artist)
	rec.Genre = strings.TrimSpace(rec.Genre)

	if rec.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", shared.ErrInvalidInput)
	}
	if rec.Title == "" {
		return nil, fmt.Errorf("%w: song title is required", shared.ErrInvalidInput)
	}
	if rec.Artist == "" {
		rec.Artist = models.UnknownValue
	}

	rec.ID = shared.GenerateID()
	if rec.Timestamp.IsZero() {
		rec.Timestamp = r.now()
	}
	rec.Timestamp = rec.Timestamp.UTC()

	query := `
		INSERT INTO user_history (id, user_id, song_title, artist, genre, source_url, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.UserID,
		rec.Title,
		rec.Artist,
		rec.Genre,
		rec.SourceURL,
		rec.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert history record: %w", err)
	}
	return &rec, nil
}

// Recent returns up to limit of userID's records, newest first.
func (r *HistoryRepository) Recent(ctx context.Context, userID string, limit int) ([]models.HistoryRecord, error) {
	return r.List(ctx, HistoryFilter{UserID: userID, Limit: limit})
}

// List returns records matching filter, newest first.
func (r *HistoryRepository) List(ctx context.Context, filter HistoryFilter) ([]models.HistoryRecord, error) {
	query := `
		SELECT id, user_id, song_title, artist, genre, source_url, timestamp
		FROM user_history
		WHERE 1 = 1
	`
	args := []any{}

	if filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}
	if filter.Artist != "" {
		query += " AND artist = ? COLLATE NOCASE"
		args = append(args, filter.Artist)
	}

	query += " ORDER BY timestamp DESC, rowid DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return collect(rows, scanHistory)
}

// Get retrieves a record by ID.
func (r *HistoryRepository) Get(ctx context.Context, id string) (*models.HistoryRecord, error) {
	query := `
		SELECT id, user_id, song_title, artist, genre, source_url, timestamp
		FROM user_history
		WHERE id = ?
	`
	rec, err := scanHistory(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: history record %s", shared.ErrTrackNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Clear deletes every record for userID and returns how many were removed.
func (r *HistoryRepository) Clear(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM user_history WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// Stats aggregates userID's whole history: total plays, the top artists and
// the top non-empty genres. Ties go to whichever was first played.
func (r *HistoryRepository) Stats(ctx context.Context, userID string) (*models.ListeningStats, error) {
	stats := &models.ListeningStats{UserID: userID}

	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM user_history WHERE user_id = ?", userID).Scan(&stats.Total)
	if err != nil {
		return nil, fmt.Errorf("failed to count history: %w", err)
	}

	if stats.TopArtists, err = r.top(ctx, "artist", userID, statsArtists); err != nil {
		return nil, err
	}
	if stats.TopGenres, err = r.top(ctx, "genre", userID, statsGenres); err != nil {
		return nil, err
	}
	return stats, nil
}

// top groups userID's rows by column, which must be a trusted column name.
func (r *HistoryRepository) top(ctx context.Context, column, userID string, limit int) ([]models.Count, error) {
	query := fmt.Sprintf(`
		SELECT %[1]s, COUNT(*) AS plays
		FROM user_history
		WHERE user_id = ? AND %[1]s != ''
		GROUP BY %[1]s
		ORDER BY plays DESC, MIN(timestamp) ASC, MIN(rowid) ASC
		LIMIT ?
	`, column)

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank %s: %w", column, err)
	}
	counts, err := collect(rows, func(s rowScanner) (models.Count, error) {
		var c models.Count
		if err := s.Scan(&c.Name, &c.Plays); err != nil {
			return c, fmt.Errorf("failed to scan %s count: %w", column, err)
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []models.Count{}
	}
	return counts, nil
}

func scanHistory(s rowScanner) (models.HistoryRecord, error) {
	var rec models.HistoryRecord
	err := s.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Artist, &rec.Genre, &rec.SourceURL, &rec.Timestamp)
	if err == sql.ErrNoRows {
		return rec, err
	}
	if err != nil {
		return rec, fmt.Errorf("failed to scan history record: %w", err)
	}
	return rec, nil
}
