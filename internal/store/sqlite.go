// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"econdash/internal/errors"
	"econdash/internal/models"
)

const sqliteDateLayout = "2006-01-02"

// SQLiteStore implements EventStore using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	mu        sync.RWMutex
	syncTimes map[string]time.Time
}

// NewSQLiteStore creates a new SQLite-based event store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:        db,
		syncTimes: make(map[string]time.Time),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- One row per release; key is derived from currency, date, time and event
	CREATE TABLE IF NOT EXISTS events (
		key TEXT PRIMARY KEY,
		id TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		time TEXT NOT NULL DEFAULT '',
		currency TEXT NOT NULL,
		importance TEXT NOT NULL DEFAULT 'unknown',
		event TEXT NOT NULL,
		actual TEXT NOT NULL DEFAULT '',
		forecast TEXT NOT NULL DEFAULT '',
		previous TEXT NOT NULL DEFAULT '',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_events_currency_date ON events(currency, date);
	CREATE INDEX IF NOT EXISTS idx_events_date ON events(date);

	-- Sync status table
	CREATE TABLE IF NOT EXISTS sync_status (
		data_type TEXT PRIMARY KEY,
		last_sync DATETIME NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveEvents upserts releases. A release already stored under the same
// currency, date, time and event is replaced.
func (s *SQLiteStore) SaveEvents(ctx context.Context, events []models.EventRecord) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO events (key, id, date, time, currency, importance, event, actual, forecast, previous, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, e := range events {
		_, err := stmt.ExecContext(ctx,
			EventID(e), e.ID, e.Date.Format(sqliteDateLayout), e.Time,
			strings.ToUpper(e.Currency), e.Importance.String(), e.Event,
			e.Actual, e.Forecast, e.Previous, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// LoadEvents retrieves releases ordered by date, time, currency and event.
func (s *SQLiteStore) LoadEvents(ctx context.Context, filter EventFilter) ([]models.EventRecord, error) {
	query := "SELECT key, id, date, time, currency, importance, event, actual, forecast, previous FROM events WHERE 1=1"
	args := []interface{}{}

	if len(filter.Currencies) > 0 {
		query += " AND currency IN (" + placeholders(len(filter.Currencies)) + ")"
		for _, c := range filter.Currencies {
			args = append(args, strings.ToUpper(c))
		}
	}
	if !filter.From.IsZero() {
		query += " AND date >= ?"
		args = append(args, filter.From.Format(sqliteDateLayout))
	}
	if !filter.To.IsZero() {
		query += " AND date <= ?"
		args = append(args, filter.To.Format(sqliteDateLayout))
	}
	if len(filter.Importance) > 0 {
		query += " AND importance IN (" + placeholders(len(filter.Importance)) + ")"
		for _, imp := range filter.Importance {
			args = append(args, imp.String())
		}
	}

	query += " ORDER BY date ASC, time ASC, currency ASC, event ASC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query events: %v", errors.ErrDatabaseError, err)
	}
	defer rows.Close()

	var events []models.EventRecord
	for rows.Next() {
		var e models.EventRecord
		var key, date, importance string
		if err := rows.Scan(&key, &e.ID, &date, &e.Time, &e.Currency, &importance, &e.Event, &e.Actual, &e.Forecast, &e.Previous); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Date, err = time.Parse(sqliteDateLayout, date)
		if err != nil {
			return nil, errors.NewDataError("event", key, fmt.Sprintf("bad date %q", date), err)
		}
		if e.ID == "" {
			e.ID = key
		}
		e.Importance = models.ParseImportance(importance)
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}

	return events, nil
}

// Load returns every stored release.
func (s *SQLiteStore) Load(ctx context.Context) ([]models.EventRecord, error) {
	return s.LoadEvents(ctx, EventFilter{})
}

// Currencies returns the distinct currency codes present, sorted.
func (s *SQLiteStore) Currencies(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT currency FROM events ORDER BY currency`)
	if err != nil {
		return nil, fmt.Errorf("failed to query currencies: %w", err)
	}
	defer rows.Close()

	var currencies []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan currency: %w", err)
		}
		currencies = append(currencies, c)
	}

	return currencies, rows.Err()
}

// CountEvents returns the number of stored releases.
func (s *SQLiteStore) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

// GetLastSync returns the last sync time for a data type.
func (s *SQLiteStore) GetLastSync(dataType string) time.Time {
	s.mu.RLock()
	if t, ok := s.syncTimes[dataType]; ok {
		s.mu.RUnlock()
		return t
	}
	s.mu.RUnlock()

	var lastSync time.Time
	err := s.db.QueryRow(`
		SELECT last_sync FROM sync_status WHERE data_type = ?
	`, dataType).Scan(&lastSync)
	if err != nil {
		return time.Time{}
	}

	s.mu.Lock()
	s.syncTimes[dataType] = lastSync
	s.mu.Unlock()

	return lastSync
}

// SetLastSync sets the last sync time for a data type.
func (s *SQLiteStore) SetLastSync(dataType string, t time.Time) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO sync_status (data_type, last_sync, updated_at)
		VALUES (?, ?, ?)
	`, dataType, t, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set last sync: %w", err)
	}

	s.mu.Lock()
	s.syncTimes[dataType] = t
	s.mu.Unlock()

	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
