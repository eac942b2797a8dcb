// Package domain defines the core entities and value types shared across
// reefmap: per-year colony observations, aggregated colony timelines, and the
// dataset envelope produced by the survey ETL.
package domain

import "sort"

// Genus is the canonical 3-letter code for a coral genus tracked by the survey.
type Genus string

// Canonical genus codes. The parser normalizes full names and common
// abbreviations onto these four values.
const (
	// GenusPocillopora identifies Pocillopora colonies.
	GenusPocillopora Genus = "Poc"
	// GenusAcropora identifies Acropora colonies.
	GenusAcropora Genus = "Acr"
	// GenusPorites identifies Porites colonies.
	GenusPorites Genus = "Por"
	// GenusMillepora identifies Millepora colonies.
	GenusMillepora Genus = "Mil"
)

// Genera lists every canonical genus in display order.
func Genera() []Genus {
	return []Genus{GenusPocillopora, GenusAcropora, GenusPorites, GenusMillepora}
}

// Transect identifies the survey transect a colony belongs to.
type Transect string

// Survey transect codes.
const (
	TransectT01 Transect = "T01"
	TransectT02 Transect = "T02"
)

// Transects lists every known transect code.
func Transects() []Transect {
	return []Transect{TransectT01, TransectT02}
}

// SizeMetric selects which derived size proxy a computation operates on. The
// upstream analyses mix both metrics, so every consumer takes it as an
// explicit parameter.
type SizeMetric string

const (
	// MetricGeoDiam selects the geometric-mean diameter, sqrt(diam1*diam2).
	MetricGeoDiam SizeMetric = "geomean"
	// MetricVolume selects the ellipsoid volume proxy, diam1*diam2*height/6.
	MetricVolume SizeMetric = "volume"
)

// Observation is one colony's measurement in one survey year. Numeric fields
// are pointers because field codes such as "not measured" map to absence, not
// zero. Growth is filled in by the aggregation second pass once the prior
// year's size is known; everything else is immutable after parsing.
type Observation struct {
	ColonyID  int      `json:"colony_id"`
	Year      int      `json:"year"`
	Transect  Transect `json:"transect"`
	Genus     Genus    `json:"genus"`
	GenusName string   `json:"genus_name,omitempty"`
	X         float64  `json:"x"`
	Y         float64  `json:"y"`
	Z         float64  `json:"z"`
	Diam1     *float64 `json:"diam1,omitempty"`
	Diam2     *float64 `json:"diam2,omitempty"`
	Height    *float64 `json:"height,omitempty"`
	GeoDiam   *float64 `json:"geo_diam,omitempty"`
	Volume    *float64 `json:"volume,omitempty"`
	Fate      string   `json:"fate,omitempty"`
	Recruit   bool     `json:"recruit"`
	Died      bool     `json:"died"`
	Alive     bool     `json:"alive"`
	Growth    *float64 `json:"growth,omitempty"`
}

// Size returns the observation's value for the chosen metric, or nil when the
// underlying measurements were absent.
func (o Observation) Size(metric SizeMetric) *float64 {
	if metric == MetricVolume {
		return o.Volume
	}
	return o.GeoDiam
}

// Colony aggregates every observation for one colony id. Observations are
// sorted ascending by year. Position is fixed at the first recorded
// coordinates; colonies do not move between survey years.
type Colony struct {
	ID           int           `json:"id"`
	Transect     Transect      `json:"transect"`
	Genus        Genus         `json:"genus"`
	X            float64       `json:"x"`
	Y            float64       `json:"y"`
	Z            float64       `json:"z"`
	Observations []Observation `json:"observations"`
	RecruitYear  int           `json:"recruit_year"`
	DeathYear    *int          `json:"death_year,omitempty"`
	Lifespan     int           `json:"lifespan"`
	MaxDiameter  float64       `json:"max_diameter"`
	MaxVolume    float64       `json:"max_volume"`
}

// ObservationIn returns the colony's observation for the given year.
func (c Colony) ObservationIn(year int) (Observation, bool) {
	idx := sort.Search(len(c.Observations), func(i int) bool {
		return c.Observations[i].Year >= year
	})
	if idx < len(c.Observations) && c.Observations[idx].Year == year {
		return c.Observations[idx], true
	}
	return Observation{}, false
}

// FirstYear returns the year of the colony's earliest observation.
func (c Colony) FirstYear() int {
	if len(c.Observations) == 0 {
		return 0
	}
	return c.Observations[0].Year
}

// LastYear returns the year of the colony's latest observation.
func (c Colony) LastYear() int {
	if len(c.Observations) == 0 {
		return 0
	}
	return c.Observations[len(c.Observations)-1].Year
}

// MaxSize returns the colony's maximum observed value for the chosen metric,
// 0 when no observation carries a present size.
func (c Colony) MaxSize(metric SizeMetric) float64 {
	if metric == MetricVolume {
		return c.MaxVolume
	}
	return c.MaxDiameter
}

// DatasetMeta describes the dataset envelope emitted by the ETL.
type DatasetMeta struct {
	Name      string     `json:"name"`
	YearMin   int        `json:"year_min"`
	YearMax   int        `json:"year_max"`
	Colonies  int        `json:"colonies"`
	Genera    []Genus    `json:"genera"`
	Transects []Transect `json:"transects"`
}

// Years expands the metadata year range into an ascending year list.
func (m DatasetMeta) Years() []int {
	if m.YearMax < m.YearMin {
		return nil
	}
	years := make([]int, 0, m.YearMax-m.YearMin+1)
	for y := m.YearMin; y <= m.YearMax; y++ {
		years = append(years, y)
	}
	return years
}

// Dataset is the fully parsed dataset: envelope metadata plus the flat
// observation list, before colony aggregation.
type Dataset struct {
	Meta         DatasetMeta   `json:"meta"`
	Observations []Observation `json:"observations"`
}

// SurvivalEvent is a duration-to-death-or-censoring record derived from one
// colony, consumed by the Kaplan-Meier estimator. Event is true for an
// observed death and false for right-censoring at the end of the series.
type SurvivalEvent struct {
	Duration int   `json:"duration"`
	Event    bool  `json:"event"`
	Genus    Genus `json:"genus"`
}
