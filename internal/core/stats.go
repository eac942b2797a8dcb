package core

import (
	"math"
	"sort"

	"reefmap/pkg/domain"
)

// PopulationCell is the per-(year,genus) population breakdown.
type PopulationCell struct {
	Count    int `json:"count"`
	Recruits int `json:"recruits"`
	Deaths   int `json:"deaths"`
}

// PopulationYear is one row of the population-by-year table.
type PopulationYear struct {
	Year   int                             `json:"year"`
	Genera map[domain.Genus]PopulationCell `json:"genera"`
}

/// PopulationByYear counts, for each requested (year, genus) pair: colonies
// with an alive observation in that year, colonies whose first observation
// falls in that year (recruits), and colonies whose death year equals that
// year (deaths).
func PopulationByYear(colonies []domain.Colony, years []int, genera []domain.Genus) []PopulationYear {
	wanted := make(map[domain.Genus]struct{}, len(genera))
	for _, g := range genera {
		wanted[g] = struct{}{}
	}

	rows := make([]PopulationYear, 0, len(years))
	for _, year := range years {
		row := PopulationYear{Year: year, Genera: make(map[domain.Genus]PopulationCell, len(genera))}
		for _, g := range genera {
			row.Genera[g] = PopulationCell{}
		}
		for _, colony := range colonies {
			if _, ok := wanted[colony.Genus]; !ok {
				continue
			}
			cell := row.Genera[colony.Genus]
			if obs, ok := colony.ObservationIn(year); ok && obs.Alive {
				cell.Count++
			}
			if colony.FirstYear() == year {
				cell.Recruits++
			}
			if colony.DeathYear != nil && *colony.DeathYear == year {
				cell.Deaths++
			}
			row.Genera[colony.Genus] = cell
		}
		rows = append(rows, row)
	}
	return rows
}

// MeanSize averages the chosen metric across colonies with a present, alive
// observation in the given year. The empty set yields 0, not NaN.
func MeanSize(colonies []domain.Colony, year int, metric domain.SizeMetric) float64 {
	var sum float64
	var n int
	for _, colony := range colonies {
		obs, ok := colony.ObservationIn(year)
		if !ok || !obs.Alive {
			continue
		}
		if size := obs.Size(metric); size != nil {
			sum += *size
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// SizeBin is one half-open histogram bin [Lo, Hi). The final bin is closed
// above so the maximum value is counted.
type SizeBin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// SizeFrequency bins the strictly positive values into binCount
// logarithmically spaced bins between their minimum and maximum. Values <= 0
// are excluded before binning; an empty (or all non-positive) input yields an
// empty histogram.
func SizeFrequency(values []float64, binCount int) []SizeBin {
	if binCount <= 0 {
		return nil
	}
	positive := make([]float64, 0, len(values))
	for _, v := range values {
		if v > 0 {
			positive = append(positive, v)
		}
	}
	if len(positive) == 0 {
		return nil
	}

	lo, hi := positive[0], positive[0]
	for _, v := range positive[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	logLo := math.Log10(lo)
	step := (math.Log10(hi) - logLo) / float64(binCount)

	bins := make([]SizeBin, binCount)
	for i := range bins {
		bins[i].Lo = math.Pow(10, logLo+float64(i)*step)
		bins[i].Hi = math.Pow(10, logLo+float64(i+1)*step)
	}

	for _, v := range positive {
		idx := binCount - 1
		if step > 0 {
			idx = int((math.Log10(v) - logLo) / step)
			if idx < 0 {
				idx = 0
			}
			if idx > binCount-1 {
				idx = binCount - 1
			}
		}
		bins[idx].Count++
	}
	return bins
}

// SurvivalPoint is one step of a Kaplan-Meier curve.
type SurvivalPoint struct {
	Time     int     `json:"time"`
	Survival float64 `json:"survival"`
}

// KaplanMeier estimates the survival step function from censored duration
// data. The curve begins at (0, 1) and steps down only at durations with one
// or more deaths; durations with only censoring shrink the at-risk pool
// without emitting a point. When the event list is inconsistent (more events
// than individuals remain at risk) the at-risk count is clamped to the deaths
// at that step, so the factor bottoms out at 0 instead of dividing by zero.
func KaplanMeier(events []domain.SurvivalEvent) []SurvivalPoint {
	sorted := make([]domain.SurvivalEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Duration < sorted[j].Duration })

	curve := []SurvivalPoint{{Time: 0, Survival: 1.0}}
	atRisk := len(sorted)
	survival := 1.0

	for i := 0; i < len(sorted); {
		t := sorted[i].Duration
		deaths, censored := 0, 0
		for ; i < len(sorted) && sorted[i].Duration == t; i++ {
			if sorted[i].Event {
				deaths++
			} else {
				censored++
			}
		}
		if deaths > 0 {
			n := atRisk
			if n < deaths {
				n = deaths
			}
			survival *= float64(n-deaths) / float64(n)
			curve = append(curve, SurvivalPoint{Time: t, Survival: survival})
		}
		atRisk -= deaths + censored
	}
	return curve
}

// SurvivalEvents derives one duration/event record per colony: duration is
// the lifespan, the event flag marks an observed death, and colonies still
// alive at the end of the series are right-censored.
func SurvivalEvents(colonies []domain.Colony) []domain.SurvivalEvent {
	events := make([]domain.SurvivalEvent, 0, len(colonies))
	for _, colony := range colonies {
		events = append(events, domain.SurvivalEvent{
			Duration: colony.Lifespan,
			Event:    colony.DeathYear != nil,
			Genus:    colony.Genus,
		})
	}
	return events
}

// SurvivalByGenus computes one Kaplan-Meier curve per requested genus.
func SurvivalByGenus(colonies []domain.Colony, genera []domain.Genus) map[domain.Genus][]SurvivalPoint {
	byGenus := make(map[domain.Genus][]domain.SurvivalEvent)
	for _, ev := range SurvivalEvents(colonies) {
		byGenus[ev.Genus] = append(byGenus[ev.Genus], ev)
	}
	curves := make(map[domain.Genus][]SurvivalPoint, len(genera))
	for _, g := range genera {
		curves[g] = KaplanMeier(byGenus[g])
	}
	return curves
}
