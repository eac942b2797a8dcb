package core

import (
	"github.com/aclements/go-moremath/stats"

	"reefmap/pkg/domain"
)

// GenusSummary condenses one genus' alive sizes for a single year.
type GenusSummary struct {
	Genus   domain.Genus `json:"genus"`
	Count   int          `json:"count"`
	Mean    float64      `json:"mean"`
	GeoMean float64      `json:"geo_mean"`
	Median  float64      `json:"median"`
	Max     float64      `json:"max"`
}

// SummarizeYear computes per-genus size summaries for the given year under
// the chosen metric. Genera with no qualifying observations report zeros,
// matching the empty-set convention of MeanSize.
func SummarizeYear(colonies []domain.Colony, year int, metric domain.SizeMetric, genera []domain.Genus) []GenusSummary {
	sizes := make(map[domain.Genus][]float64, len(genera))
	for _, colony := range colonies {
		obs, ok := colony.ObservationIn(year)
		if !ok || !obs.Alive {
			continue
		}
		if size := obs.Size(metric); size != nil {
			sizes[colony.Genus] = append(sizes[colony.Genus], *size)
		}
	}

	out := make([]GenusSummary, 0, len(genera))
	for _, g := range genera {
		xs := sizes[g]
		summary := GenusSummary{Genus: g, Count: len(xs)}
		if len(xs) > 0 {
			summary.Mean = stats.Mean(xs)
			summary.GeoMean = stats.GeoMean(xs)
			sample := stats.Sample{Xs: xs}
			summary.Median = sample.Quantile(0.5)
			_, summary.Max = sample.Bounds()
		}
		out = append(out, summary)
	}
	return out
}
