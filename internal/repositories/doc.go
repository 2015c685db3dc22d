// Package repositories implements SQLite persistence for listening history.
//
// Key Implementations:
//   - [HistoryRepository] : append-only per-user history with newest-first reads and aggregate stats
//
// The schema is owned by the migrations in internal/shared; run [shared.RunMigrations] before use.
package repositories
