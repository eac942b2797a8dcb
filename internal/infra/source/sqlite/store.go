// Package sqlite implements the dataset source over the ETL's sqlite export.
// The export is read-only input: one observations table, same row contract as
// the JSON records array. Envelope metadata is derived downstream.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"reefmap/internal/parse"
	"reefmap/internal/source/core"
)

// Store reads raw records from a sqlite dataset file.
type Store struct {
	db   *sql.DB
	path string
}

// New opens the sqlite export at path.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite source: path required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return &Store{db: db, path: path}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverSQLite }

const selectObservations = `SELECT colony_id, year, transect, genus, genus_name,
	x, y, z, diam1, diam2, height, fate, status, recruit, died
	FROM observations ORDER BY colony_id, year`

// Load reads every observation row into the raw record stream.
func (s *Store) Load(ctx context.Context) (parse.Document, error) {
	rows, err := s.db.QueryContext(ctx, selectObservations)
	if err != nil {
		return parse.Document{}, fmt.Errorf("select observations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var doc parse.Document
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return parse.Document{}, fmt.Errorf("scan observation: %w", err)
		}
		doc.Records = append(doc.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return parse.Document{}, fmt.Errorf("iterate observations: %w", err)
	}
	if len(doc.Records) == 0 {
		return parse.Document{}, core.ErrNoDataset
	}
	return doc, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (parse.RawRecord, error) {
	var rec parse.RawRecord
	var transect, genus, genusName, fate, status sql.NullString
	var x, y, z sql.NullFloat64
	var diam1, diam2, height sql.NullFloat64
	var recruit, died sql.NullBool
	if err := row.Scan(&rec.ColonyID, &rec.Year, &transect, &genus, &genusName,
		&x, &y, &z, &diam1, &diam2, &height, &fate, &status, &recruit, &died); err != nil {
		return parse.RawRecord{}, err
	}
	rec.Transect = transect.String
	rec.Genus = genus.String
	rec.GenusName = genusName.String
	rec.Fate = fate.String
	rec.Status = status.String
	rec.X, rec.Y, rec.Z = x.Float64, y.Float64, z.Float64
	rec.Diam1 = optFrom(diam1)
	rec.Diam2 = optFrom(diam2)
	rec.Height = optFrom(height)
	rec.Recruit = recruit.Valid && recruit.Bool
	rec.Died = died.Valid && died.Bool
	return rec, nil
}

func optFrom(v sql.NullFloat64) parse.OptFloat {
	return parse.OptFloat{Value: v.Float64, Present: v.Valid}
}
