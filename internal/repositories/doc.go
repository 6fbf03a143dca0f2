// Package repositories implements SQLite persistence for export history.
//
// [HistoryRepository] stores one row per export run (start and finish time, output directory,
// page count, succeeded and failed counts, and any listing error) and one row per playlist
// outcome within a run. It implements the exporter's recorder interface so runs are recorded
// while they execute; the history commands read the same tables.
//
// Access tokens are never written to the database.
//
// Tables are created by the embedded migrations in the shared package ([shared.RunMigrations]).
package repositories
