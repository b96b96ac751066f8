package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"partcat/internal/history"

	_ "modernc.org/sqlite"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(context.Background(), filepath.Join(t.TempDir(), ".partcat", "history.db"))
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestAppendAndList(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first := &history.Event{RunID: "run-1", Action: history.ActionImport, PartNumber: "XYZ123", Category: "IC", Library: "Extern_IC", Version: "1.2.0", Files: 4}
	second := &history.Event{RunID: "run-1", Action: history.ActionImport, PartNumber: "TLP292(TPL,E", Category: "Opto", Library: "Extern_Opto", Files: 5}
	if err := store.Append(ctx, first, second); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if first.ID == 0 || second.ID <= first.ID {
		t.Fatalf("ids not assigned in order: %d, %d", first.ID, second.ID)
	}
	if first.CreatedAt.IsZero() {
		t.Fatal("CreatedAt not stamped")
	}

	migrated := &history.Event{RunID: "run-2", Action: history.ActionMigrate, Library: "Extern_IC", CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	if err := store.Append(ctx, migrated); err != nil {
		t.Fatalf("Append: %v", err)
	}

	all, err := store.List(ctx, history.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}
	if all[0].Action != history.ActionMigrate || !all[0].CreatedAt.Equal(migrated.CreatedAt) {
		t.Fatalf("newest event = %+v", all[0])
	}

	byPart, err := store.List(ctx, history.Filter{PartNumber: "XYZ123"})
	if err != nil {
		t.Fatalf("List by part: %v", err)
	}
	if len(byPart) != 1 || byPart[0].Files != 4 || byPart[0].Version != "1.2.0" {
		t.Fatalf("by part = %+v", byPart)
	}

	limited, err := store.List(ctx, history.Filter{Action: history.ActionImport, Limit: 1})
	if err != nil {
		t.Fatalf("List limited: %v", err)
	}
	if len(limited) != 1 || limited[0].PartNumber != "TLP292(TPL,E" {
		t.Fatalf("limited = %+v", limited)
	}
}

func TestAppendRejectsMissingRunID(t *testing.T) {
	store := openStore(t)
	err := store.Append(context.Background(), &history.Event{Action: history.ActionNewPart, PartNumber: "A"})
	if err == nil {
		t.Fatal("expected error for event without run id")
	}
	events, err := store.List(context.Background(), history.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("failed append left %d rows", len(events))
	}
}

func TestReopenKeepsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := history.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Append(ctx, &history.Event{RunID: "r", Action: history.ActionNewPart, PartNumber: "BLANK1"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	store.Close()

	reopened, err := history.Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	events, err := reopened.List(ctx, history.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 1 || events[0].PartNumber != "BLANK1" {
		t.Fatalf("events after reopen = %+v", events)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := history.Open(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestRecordSkipsEmptyPath(t *testing.T) {
	if err := history.Record(context.Background(), "", &history.Event{RunID: "r"}); err != nil {
		t.Fatalf("Record with empty path: %v", err)
	}
}

func TestRecordWritesAndCloses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()
	ev := &history.Event{RunID: "r", Action: history.ActionMigrate, Library: "Extern_IC"}
	if err := history.Record(ctx, path, ev); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if ev.ID == 0 {
		t.Fatal("expected event id to be assigned")
	}
	store, err := history.Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	events, err := store.List(ctx, history.Filter{Action: history.ActionMigrate})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(events) != 1 || events[0].Library != "Extern_IC" {
		t.Fatalf("events = %+v", events)
	}
}

func TestOpenRejectsNewerLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 42"); err != nil {
		t.Fatalf("stamp version: %v", err)
	}
	db.Close()

	if _, err := history.Open(context.Background(), path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}
