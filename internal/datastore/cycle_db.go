package datastore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Cycle statuses recorded in the cycle_history table.
const (
	CycleStatusStarted   = "STARTED"
	CycleStatusCompleted = "COMPLETED"
	CycleStatusSkipped   = "SKIPPED"
	CycleStatusAborted   = "ABORTED"
)

// CycleHistoryEntry represents a record in the cycle_history table.
type CycleHistoryEntry struct {
	ID             int64
	CycleID        string
	StartTime      time.Time
	EndTime        sql.NullTime
	Status         string
	ChangedCount   int
	FirstSeenCount int
	FailedCount    int
}

// CycleDB wraps the SQL database connection for poll-cycle history.
type CycleDB struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewCycleDB initializes a new CycleDB connection and ensures the schema is set up.
func NewCycleDB(dataSourceName string, logger zerolog.Logger) (*CycleDB, error) {
	dbLogger := logger.With().Str("component", "CycleDB").Logger()

	dbDir := filepath.Dir(dataSourceName)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cycle database directory %s: %w", dbDir, err)
	}

	dbInstance, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("sql.Open failed for %s: %w", dataSourceName, err)
	}

	db := &CycleDB{
		db:     dbInstance,
		logger: dbLogger,
	}

	if err := db.InitSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	dbLogger.Info().Str("path", dataSourceName).Msg("Cycle database initialized and schema verified")
	return db, nil
}

// Close closes the database connection.
func (d *CycleDB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// InitSchema creates the cycle_history table if it doesn't already exist.
func (d *CycleDB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS cycle_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cycle_id TEXT UNIQUE,
		start_time DATETIME NOT NULL,
		end_time DATETIME,
		status TEXT NOT NULL,
		changed_count INTEGER DEFAULT 0,
		first_seen_count INTEGER DEFAULT 0,
		failed_count INTEGER DEFAULT 0
	);
	`
	if _, err := d.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create cycle_history table: %w", err)
	}
	return nil
}

// RecordCycleStart inserts a new record with status STARTED and returns its row ID.
func (d *CycleDB) RecordCycleStart(cycleID string, startTime time.Time) (int64, error) {
	query := `INSERT INTO cycle_history (cycle_id, start_time, status) VALUES (?, ?, ?)`
	result, err := d.db.Exec(query, cycleID, startTime, CycleStatusStarted)
	if err != nil {
		return 0, fmt.Errorf("failed to insert cycle start record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	d.logger.Debug().Int64("db_id", id).Str("cycle_id", cycleID).Msg("Recorded cycle start")
	return id, nil
}

// RecordCycleEnd updates an existing cycle record with completion details.
func (d *CycleDB) RecordCycleEnd(dbID int64, endTime time.Time, status string, changed, firstSeen, failed int) error {
	query := `UPDATE cycle_history SET end_time = ?, status = ?, changed_count = ?, first_seen_count = ?, failed_count = ? WHERE id = ?`
	if _, err := d.db.Exec(query, endTime, status, changed, firstSeen, failed, dbID); err != nil {
		return fmt.Errorf("failed to update cycle completion for ID %d: %w", dbID, err)
	}
	return nil
}

// GetRecentCycles returns up to limit most recent cycle entries, newest first.
func (d *CycleDB) GetRecentCycles(limit int) ([]CycleHistoryEntry, error) {
	query := `SELECT id, cycle_id, start_time, end_time, status, changed_count, first_seen_count, failed_count
		FROM cycle_history ORDER BY start_time DESC LIMIT ?`
	rows, err := d.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent cycles: %w", err)
	}
	defer rows.Close()

	var entries []CycleHistoryEntry
	for rows.Next() {
		var e CycleHistoryEntry
		if err := rows.Scan(&e.ID, &e.CycleID, &e.StartTime, &e.EndTime, &e.Status, &e.ChangedCount, &e.FirstSeenCount, &e.FailedCount); err != nil {
			return nil, fmt.Errorf("failed to scan cycle history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
