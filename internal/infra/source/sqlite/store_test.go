package sqlite_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	sqldocs "reefmap/docs/schema/sql"
	"reefmap/internal/infra/source/sqlite"
	sourcecore "reefmap/internal/source/core"
)

func writeExport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer func() { _ = db.Close() }()
	if _, err := db.Exec(sqldocs.SQLite); err != nil {
		t.Fatalf("create table: %v", err)
	}
	insert := `INSERT INTO observations VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`
	if _, err := db.Exec(insert, 7, 2013, "T01", "Poc", "Pocillopora",
		1.5, 2.5, 0.0, 10.0, 10.0, 10.0, "growth", "A", 0, 0); err != nil {
		t.Fatalf("insert row: %v", err)
	}
	if _, err := db.Exec(insert, 7, 2014, "T01", "Poc", "Pocillopora",
		1.5, 2.5, 0.0, nil, nil, nil, "death", "D", 0, 1); err != nil {
		t.Fatalf("insert row: %v", err)
	}
	return path
}

func TestLoadExport(t *testing.T) {
	store, err := sqlite.New(writeExport(t))
	if err != nil {
		t.Fatalf("new sqlite source: %v", err)
	}
	defer func() { _ = store.Close() }()
	if store.Driver() != sourcecore.DriverSQLite {
		t.Fatalf("driver = %s", store.Driver())
	}

	doc, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(doc.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(doc.Records))
	}
	first, second := doc.Records[0], doc.Records[1]
	if first.Year != 2013 || !first.Diam1.Present || first.Diam1.Value != 10 {
		t.Fatalf("unexpected first record %+v", first)
	}
	if second.Diam1.Present {
		t.Fatalf("NULL diameter must decode as absent: %+v", second)
	}
	if !second.Died || second.Status != "D" {
		t.Fatalf("death row lost flags: %+v", second)
	}
}

func TestLoadEmptyExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if _, err := db.Exec(sqldocs.SQLite); err != nil {
		t.Fatalf("create table: %v", err)
	}
	_ = db.Close()

	store, err := sqlite.New(path)
	if err != nil {
		t.Fatalf("new sqlite source: %v", err)
	}
	defer func() { _ = store.Close() }()
	if _, err := store.Load(context.Background()); !errors.Is(err, sourcecore.ErrNoDataset) {
		t.Fatalf("expected ErrNoDataset, got %v", err)
	}
}
