// Package parse converts raw ETL records into normalized domain observations.
// Individual field failures never reject a record: every malformed or
// sentinel-coded numeric maps to an absent value, which is the uniform
// failure mode for measurements.
package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"reefmap/pkg/domain"
)

// OptFloat is a nullable numeric field as emitted by the ETL. A value may
// arrive as a JSON number, as null, as an omitted key, or as one of the field
// codes used on the datasheets ("na", "unknown", "dead"). Anything that is
// not a finite number decodes as absent.
type OptFloat struct {
	Value   float64
	Present bool
}

// Sentinel field codes that mean "no measurement". Matched case-insensitively
// after trimming.
var sentinelCodes = map[string]struct{}{
	"na":             {},
	"n/a":            {},
	"not applicable": {},
	"unknown":        {},
	"unk":            {},
	"dead":           {},
}

// UnmarshalJSON implements json.Unmarshaler. It never returns an error for a
// value of the wrong shape; the field simply stays absent.
func (f *OptFloat) UnmarshalJSON(data []byte) error {
	f.Value, f.Present = 0, false
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		if !math.IsNaN(num) && !math.IsInf(num, 0) {
			f.Value, f.Present = num, true
		}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if _, ok := sentinelCodes[s]; ok {
		return nil
	}
	if num, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(num) && !math.IsInf(num, 0) {
		f.Value, f.Present = num, true
	}
	return nil
}

// Ptr returns the value as a pointer, nil when absent.
func (f OptFloat) Ptr() *float64 {
	if !f.Present {
		return nil
	}
	v := f.Value
	return &v
}

// RawRecord is one per-colony-per-year row as stored in the dataset file.
type RawRecord struct {
	ColonyID  int      `json:"colony_id"`
	Year      int      `json:"year"`
	Transect  string   `json:"transect"`
	Genus     string   `json:"genus"`
	GenusName string   `json:"genus_name"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Z         float64  `json:"z"`
	Diam1     OptFloat `json:"diam1"`
	Diam2     OptFloat `json:"diam2"`
	Height    OptFloat `json:"height"`
	Fate      string   `json:"fate"`
	Status    string   `json:"status"`
	Recruit   bool     `json:"recruit"`
	Died      bool     `json:"died"`
}

// Document is the dataset envelope: optional metadata plus the flat record
// array. When Meta is nil the metadata is derived from the records.
type Document struct {
	Meta    *RawMeta    `json:"meta"`
	Records []RawRecord `json:"records"`
}

// RawMeta mirrors domain.DatasetMeta with unnormalized genus codes.
type RawMeta struct {
	Name      string   `json:"name"`
	YearMin   int      `json:"year_min"`
	YearMax   int      `json:"year_max"`
	Colonies  int      `json:"colonies"`
	Genera    []string `json:"genera"`
	Transects []string `json:"transects"`
}

// genusTable maps full names and abbreviations onto canonical codes.
var genusTable = map[string]domain.Genus{
	"poc":         domain.GenusPocillopora,
	"pocillopora": domain.GenusPocillopora,
	"acr":         domain.GenusAcropora,
	"acropora":    domain.GenusAcropora,
	"por":         domain.GenusPorites,
	"porites":     domain.GenusPorites,
	"mil":         domain.GenusMillepora,
	"millepora":   domain.GenusMillepora,
}

// defaultGenus is the documented fallback for unrecognized genus codes. The
/// leniency is deliberate: field sheets occasionally carry ad-hoc codes, and
// dropping the whole record would lose the colony's timeline. Callers see the
// substitution through Result.GenusFallback.
const defaultGenus = domain.GenusPocillopora

// NormalizeGenus resolves a raw genus code or full name to its canonical
// form. ok is false when the fallback was applied.
func NormalizeGenus(code string) (domain.Genus, bool) {
	if g, found := genusTable[strings.ToLower(strings.TrimSpace(code))]; found {
		return g, true
	}
	return defaultGenus, false
}

func normalizeTransect(code string) domain.Transect {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "T01", "T1", "1":
		return domain.TransectT01
	case "T02", "T2", "2":
		return domain.TransectT02
	}
	return domain.Transect(strings.TrimSpace(code))
}

// Result is the successful outcome of parsing one record. GenusFallback
// carries the original code when the genus lookup fell back to the default,
// so the leniency stays visible to callers and tests.
type Result struct {
	Observation   domain.Observation
	GenusFallback string
}

// SkipError reports a record the parser rejected outright. Only structural
// problems (unusable identity fields) skip a record; bad measurements never do.
type SkipError struct {
	Reason string
}

func (e SkipError) Error() string {
	return fmt.Sprintf("record skipped: %s", e.Reason)
}

// Record parses one raw record. It returns a SkipError only when the record
// has no usable identity (colony id or year missing); every field-level
// problem is absorbed into absent values.
func Record(raw RawRecord) (Result, error) {
	if raw.ColonyID <= 0 {
		return Result{}, SkipError{Reason: fmt.Sprintf("invalid colony id %d", raw.ColonyID)}
	}
	if raw.Year <= 0 {
		return Result{}, SkipError{Reason: fmt.Sprintf("invalid year %d for colony %d", raw.Year, raw.ColonyID)}
	}

	genus, known := NormalizeGenus(raw.Genus)

	obs := domain.Observation{
		ColonyID:  raw.ColonyID,
		Year:      raw.Year,
		Transect:  normalizeTransect(raw.Transect),
		Genus:     genus,
		GenusName: strings.TrimSpace(raw.GenusName),
		X:         raw.X,
		Y:         raw.Y,
		Z:         raw.Z,
		Diam1:     raw.Diam1.Ptr(),
		Diam2:     raw.Diam2.Ptr(),
		Height:    raw.Height.Ptr(),
		Fate:      strings.TrimSpace(raw.Fate),
		Recruit:   raw.Recruit,
		Died:      raw.Died,
		Alive:     isAlive(raw),
	}
	obs.GeoDiam = geoDiam(raw.Diam1, raw.Diam2)
	obs.Volume = volumeProxy(raw.Diam1, raw.Diam2, raw.Height)

	res := Result{Observation: obs}
	if !known {
		res.GenusFallback = strings.TrimSpace(raw.Genus)
	}
	return res, nil
}

func isAlive(raw RawRecord) bool {
	if raw.Died {
		return false
	}
	switch strings.ToUpper(strings.TrimSpace(raw.Status)) {
	case "D", "DEAD":
		return false
	}
	return true
}

// geoDiam derives sqrt(diam1*diam2), absent unless both diameters are
// present and non-negative.
func geoDiam(d1, d2 OptFloat) *float64 {
	if !d1.Present || !d2.Present || d1.Value < 0 || d2.Value < 0 {
		return nil
	}
	v := math.Sqrt(d1.Value * d2.Value)
	return &v
}

// volumeProxy derives the ellipsoid approximation diam1*diam2*height/6,
// absent unless all three measurements are present and non-negative.
func volumeProxy(d1, d2, h OptFloat) *float64 {
	if !d1.Present || !d2.Present || !h.Present {
		return nil
	}
	if d1.Value < 0 || d2.Value < 0 || h.Value < 0 {
		return nil
	}
	v := d1.Value * d2.Value * h.Value / 6
	return &v
}

// Skip records one rejected input row for the parse report.
type Skip struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

/// Report summarizes a dataset parse: how many records survived, how many
// were skipped and why, and how often the genus fallback fired.
type Report struct {
	Records        int    `json:"records"`
	Skipped        []Skip `json:"skipped,omitempty"`
	GenusFallbacks int    `json:"genus_fallbacks"`
}

// Dataset parses a full document into a domain dataset. Metadata is taken
// from the envelope when present, otherwise derived from the surviving
// observations.
func Dataset(doc Document) (domain.Dataset, Report) {
	var report Report
	observations := make([]domain.Observation, 0, len(doc.Records))
	for i, raw := range doc.Records {
		res, err := Record(raw)
		if err != nil {
			var skip SkipError
			reason := err.Error()
			if errors.As(err, &skip) {
				reason = skip.Reason
			}
			report.Skipped = append(report.Skipped, Skip{Index: i, Reason: reason})
			continue
		}
		if res.GenusFallback != "" {
			report.GenusFallbacks++
		}
		observations = append(observations, res.Observation)
	}
	report.Records = len(observations)

	ds := domain.Dataset{Observations: observations}
	if doc.Meta != nil {
		ds.Meta = normalizeMeta(*doc.Meta)
	} else {
		ds.Meta = DeriveMeta(observations)
	}
	return ds, report
}

// DatasetJSON decodes and parses a JSON dataset document.
func DatasetJSON(data []byte) (domain.Dataset, Report, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Dataset{}, Report{}, fmt.Errorf("decode dataset: %w", err)
	}
	ds, report := Dataset(doc)
	return ds, report, nil
}

func normalizeMeta(raw RawMeta) domain.DatasetMeta {
	meta := domain.DatasetMeta{
		Name:     raw.Name,
		YearMin:  raw.YearMin,
		YearMax:  raw.YearMax,
		Colonies: raw.Colonies,
	}
	seen := make(map[domain.Genus]struct{})
	for _, g := range raw.Genera {
		canonical, _ := NormalizeGenus(g)
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		meta.Genera = append(meta.Genera, canonical)
	}
	if len(meta.Genera) == 0 {
		meta.Genera = domain.Genera()
	}
	for _, t := range raw.Transects {
		meta.Transects = append(meta.Transects, normalizeTransect(t))
	}
	if len(meta.Transects) == 0 {
		meta.Transects = domain.Transects()
	}
	return meta
}

// DeriveMeta computes envelope metadata from an observation list, for
// sources that deliver bare record streams (sqlite, postgres).
func DeriveMeta(observations []domain.Observation) domain.DatasetMeta {
	meta := domain.DatasetMeta{Name: "reef survey"}
	genera := make(map[domain.Genus]struct{})
	transects := make(map[domain.Transect]struct{})
	colonies := make(map[int]struct{})
	for _, obs := range observations {
		if meta.YearMin == 0 || obs.Year < meta.YearMin {
			meta.YearMin = obs.Year
		}
		if obs.Year > meta.YearMax {
			meta.YearMax = obs.Year
		}
		genera[obs.Genus] = struct{}{}
		transects[obs.Transect] = struct{}{}
		colonies[obs.ColonyID] = struct{}{}
	}
	meta.Colonies = len(colonies)
	for _, g := range domain.Genera() {
		if _, ok := genera[g]; ok {
			meta.Genera = append(meta.Genera, g)
		}
	}
	for _, t := range domain.Transects() {
		if _, ok := transects[t]; ok {
			meta.Transects = append(meta.Transects, t)
		}
	}
	return meta
}
