// Package postgres implements the dataset source over the survey database,
// for deployments that skip the static file and read the ETL's table
// directly. Access is strictly read-only.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"reefmap/internal/parse"
	"reefmap/internal/source/core"
)

// Store reads raw records from a postgres observations table.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the survey database.
func New(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres source: dsn required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverPostgres }

const selectObservations = `SELECT colony_id, year, transect, genus, genus_name,
	x, y, z, diam1, diam2, height, fate, status, recruit, died
	FROM observations ORDER BY colony_id, year`

// Load reads every observation row into the raw record stream.
func (s *Store) Load(ctx context.Context) (parse.Document, error) {
	rows, err := s.pool.Query(ctx, selectObservations)
	if err != nil {
		return parse.Document{}, fmt.Errorf("select observations: %w", err)
	}
	defer rows.Close()

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

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

func scanRecord(rows pgx.Rows) (parse.RawRecord, error) {
	var rec parse.RawRecord
	var transect, genus, genusName, fate, status *string
	var diam1, diam2, height *float64
	var recruit, died *bool
	if err := rows.Scan(&rec.ColonyID, &rec.Year, &transect, &genus, &genusName,
		&rec.X, &rec.Y, &rec.Z, &diam1, &diam2, &height, &fate, &status, &recruit, &died); err != nil {
		return parse.RawRecord{}, err
	}
	rec.Transect = deref(transect)
	rec.Genus = deref(genus)
	rec.GenusName = deref(genusName)
	rec.Fate = deref(fate)
	rec.Status = deref(status)
	rec.Diam1 = optFrom(diam1)
	rec.Diam2 = optFrom(diam2)
	rec.Height = optFrom(height)
	rec.Recruit = recruit != nil && *recruit
	rec.Died = died != nil && *died
	return rec, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optFrom(v *float64) parse.OptFloat {
	if v == nil {
		return parse.OptFloat{}
	}
	return parse.OptFloat{Value: *v, Present: true}
}
