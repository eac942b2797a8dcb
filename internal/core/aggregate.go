// Package core holds the colony aggregation and statistics engine: the pure
// transforms between parsed observations and the derived views the dashboard
// renders.
package core

import (
	"math"
	"sort"

	"reefmap/pkg/domain"
)

// BuildColonies groups observations by colony id, sorts each group ascending
// by year, and derives the colony-level fields. Growth rates are filled in
// with the default geometric-mean metric; use AttachGrowth to recompute with
// a different metric.
func BuildColonies(observations []domain.Observation) []domain.Colony {
	byID := make(map[int][]domain.Observation)
	order := make([]int, 0)
	for _, obs := range observations {
		if _, seen := byID[obs.ColonyID]; !seen {
			order = append(order, obs.ColonyID)
		}
		byID[obs.ColonyID] = append(byID[obs.ColonyID], obs)
	}
	sort.Ints(order)

	colonies := make([]domain.Colony, 0, len(order))
	for _, id := range order {
		group := byID[id]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Year < group[j].Year })
		colony := buildColony(id, dedupeYears(group))
		AttachGrowth(&colony, domain.MetricGeoDiam)
		colonies = append(colonies, colony)
	}
	return colonies
}

// dedupeYears keeps the first observation per year. Duplicate years violate
// the dataset contract; the earliest row wins rather than corrupting the
// sorted-unique invariant downstream.
func dedupeYears(group []domain.Observation) []domain.Observation {
	out := group[:0]
	lastYear := 0
	for _, obs := range group {
		if len(out) > 0 && obs.Year == lastYear {
			continue
		}
		out = append(out, obs)
		lastYear = obs.Year
	}
	return out
}

func buildColony(id int, group []domain.Observation) domain.Colony {
	first := group[0]
	colony := domain.Colony{
		ID:           id,
		Transect:     first.Transect,
		Genus:        first.Genus,
		X:            first.X,
		Y:            first.Y,
		Z:            first.Z,
		Observations: group,
	}

	colony.RecruitYear = first.Year
	for _, obs := range group {
		// An explicit recruit flag marks the true recruitment event even when
		// earlier (pre-settlement) rows exist for the id.
		if obs.Recruit {
			colony.RecruitYear = obs.Year
			break
		}
	}

	for _, obs := range group {
		if !obs.Alive {
			year := obs.Year
			colony.DeathYear = &year
			break
		}
	}

	if colony.DeathYear != nil {
		colony.Lifespan = *colony.DeathYear - colony.RecruitYear
	} else {
		// Right-censored: the colony outlived the series.
		colony.Lifespan = group[len(group)-1].Year - colony.RecruitYear
	}

	for _, obs := range group {
		if obs.GeoDiam != nil && *obs.GeoDiam > colony.MaxDiameter {
			colony.MaxDiameter = *obs.GeoDiam
		}
		if obs.Volume != nil && *obs.Volume > colony.MaxVolume {
			colony.MaxVolume = *obs.Volume
		}
	}
	return colony
}

// AttachGrowth computes per-observation growth rates for one colony as the
// log ratio of consecutive sizes under the chosen metric. The rate is absent
// whenever either size is absent or the prior size is not strictly positive;
// absent years are skipped, never interpolated across.
func AttachGrowth(colony *domain.Colony, metric domain.SizeMetric) {
	for i := range colony.Observations {
		colony.Observations[i].Growth = nil
		if i == 0 {
			continue
		}
		cur := colony.Observations[i].Size(metric)
		prev := colony.Observations[i-1].Size(metric)
		// Both sizes must be strictly positive: a zero prior divides by zero
		// and a zero current logs to -Inf, neither is a usable rate.
		if cur == nil || prev == nil || *prev <= 0 || *cur <= 0 {
			continue
		}
		rate := math.Log(*cur / *prev)
		colony.Observations[i].Growth = &rate
	}
}

// GrowthRates collects every present growth rate across the collection under
// the chosen metric, without mutating the input colonies.
func GrowthRates(colonies []domain.Colony, metric domain.SizeMetric) []float64 {
	var rates []float64
	for _, colony := range colonies {
		for i := 1; i < len(colony.Observations); i++ {
			cur := colony.Observations[i].Size(metric)
			prev := colony.Observations[i-1].Size(metric)
			if cur == nil || prev == nil || *prev <= 0 || *cur <= 0 {
				continue
			}
			rates = append(rates, math.Log(*cur / *prev))
		}
	}
	return rates
}
