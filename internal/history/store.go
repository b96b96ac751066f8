package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Action names the kind of catalog change an event records.
type Action string

const (
	ActionImport  Action = "import"
	ActionNewPart Action = "new"
	ActionMigrate Action = "migrate"
)

// Event is one ledger row.
type Event struct {
	ID           int64
	RunID        string
	Action       Action
	PartNumber   string
	Manufacturer string
	Category     string
	Library      string
	Version      string
	Source       string
	Files        int
	CreatedAt    time.Time
}

// Store is an open ledger.
type Store struct {
	db   *sql.DB
	path string
}

const (
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	eventColumns = "id, run_id, action, part_number, manufacturer, category, library, version, source, files, created_at"
)

// Open initializes or connects to the ledger at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history: database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append writes events in one transaction and assigns their IDs. Events
// without a CreatedAt are stamped with the current time.
func (s *Store) Append(ctx context.Context, events ...*Event) error {
	if len(events) == 0 {
		return nil
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin history tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		now := time.Now().UTC()
		for _, ev := range events {
			if strings.TrimSpace(ev.RunID) == "" {
				return errors.New("history: event without run id")
			}
			created := ev.CreatedAt
			if created.IsZero() {
				created = now
			}
			res, err := tx.ExecContext(ctx,
				`INSERT INTO events (run_id, action, part_number, manufacturer, category, library, version, source, files, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				ev.RunID, string(ev.Action), ev.PartNumber, ev.Manufacturer, ev.Category,
				ev.Library, ev.Version, ev.Source, ev.Files, created.UTC().Format(time.RFC3339Nano),
			)
			if err != nil {
				return fmt.Errorf("insert history event: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("history event id: %w", err)
			}
			ev.ID = id
			ev.CreatedAt = created
		}
		return tx.Commit()
	})
}

// Record opens the ledger at path, appends events, and closes it again. An
// empty path means history is disabled and nothing is written.
func Record(ctx context.Context, path string, events ...*Event) error {
	if strings.TrimSpace(path) == "" || len(events) == 0 {
		return nil
	}
	store, err := Open(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Append(ctx, events...)
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	PartNumber string
	Action     Action
	Limit      int
}

// List returns matching events, newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Event, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.PartNumber != "" {
		clauses = append(clauses, "part_number = ?")
		args = append(args, filter.PartNumber)
	}
	if filter.Action != "" {
		clauses = append(clauses, "action = ?")
		args = append(args, string(filter.Action))
	}
	query := `SELECT ` + eventColumns + ` FROM events`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func scanEvent(scanner interface{ Scan(dest ...any) error }) (Event, error) {
	var (
		ev         Event
		action     string
		createdRaw string
	)
	if err := scanner.Scan(
		&ev.ID,
		&ev.RunID,
		&action,
		&ev.PartNumber,
		&ev.Manufacturer,
		&ev.Category,
		&ev.Library,
		&ev.Version,
		&ev.Source,
		&ev.Files,
		&createdRaw,
	); err != nil {
		return Event{}, fmt.Errorf("scan history event: %w", err)
	}
	ev.Action = Action(action)
	if ts, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		ev.CreatedAt = ts
	}
	return ev, nil
}

// isBusy reports whether err is SQLite's BUSY or LOCKED condition,
// including their extended codes.
func isBusy(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

// retryOnBusy runs op until it succeeds, fails with a non-busy error, or the
// attempt budget runs out. Backoff doubles up to busyRetryMaxBackoff.
func retryOnBusy(ctx context.Context, op func() error) error {
	backoff := busyRetryInitialBackoff
	for attempt := 1; ; attempt++ {
		err := op()
		if err == nil || !isBusy(err) || attempt == busyRetryAttempts {
			return err
		}
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff = min(backoff*2, busyRetryMaxBackoff)
	}
}
