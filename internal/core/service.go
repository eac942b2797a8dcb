package core

import (
	"context"
	"fmt"
	"time"

	"reefmap/internal/view"
	"reefmap/pkg/domain"
)

// Service owns the loaded dataset, the aggregated colonies, and the single
// view state instance for the running application. All queries are pure over
// the immutable colony collection; only the view state mutates.
type Service struct {
	meta     domain.DatasetMeta
	colonies []domain.Colony
	byID     map[int]int
	view     *view.FilterState
	animator *view.Animator

	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger installs the service logger.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics installs the operation metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer installs the operation tracer.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// NewService aggregates the dataset into colonies and wires the view state
// and animator. animationInterval controls the play cadence.
func NewService(ds domain.Dataset, animationInterval time.Duration, opts ...Option) *Service {
	s := &Service{
		meta:     ds.Meta,
		colonies: BuildColonies(ds.Observations),
		logger:   noopLogger{},
		metrics:  noopMetrics{},
		tracer:   noopTracer{},
	}
	s.byID = make(map[int]int, len(s.colonies))
	for i, c := range s.colonies {
		s.byID[c.ID] = i
	}
	s.view = view.NewFilterState(ds.Meta)
	s.animator = view.NewAnimator(s.view, animationInterval)
	for _, opt := range opts {
		opt(s)
	}
	s.logger.Infof("dataset %q: %d observations, %d colonies, years %d-%d",
		ds.Meta.Name, len(ds.Observations), len(s.colonies), ds.Meta.YearMin, ds.Meta.YearMax)
	return s
}

// Meta returns the dataset envelope metadata.
func (s *Service) Meta() domain.DatasetMeta { return s.meta }

// View returns the application's filter state instance.
func (s *Service) View() *view.FilterState { return s.view }

// Animator returns the animation driver for the view state.
func (s *Service) Animator() *view.Animator { return s.animator }

// Close stops the animation driver. Must be called on teardown.
func (s *Service) Close() {
	s.animator.Stop()
}

func (s *Service) observe(ctx context.Context, op string) func(err error) {
	ctx, span := s.tracer.Start(ctx, op)
	start := time.Now()
	return func(err error) {
		span.End(err)
		s.metrics.Observe(ctx, op, err == nil, time.Since(start))
	}
}

// ErrColonyNotFound is returned when a colony id does not exist in the
// dataset.
type ErrColonyNotFound struct {
	ID int
}

func (e ErrColonyNotFound) Error() string {
	return fmt.Sprintf("colony %d not found", e.ID)
}

// Colony returns one colony timeline by id.
func (s *Service) Colony(ctx context.Context, id int) (domain.Colony, error) {
	done := s.observe(ctx, "colony")
	idx, ok := s.byID[id]
	if !ok {
		err := ErrColonyNotFound{ID: id}
		done(err)
		return domain.Colony{}, err
	}
	done(nil)
	return s.colonies[idx], nil
}

// Colonies returns the colonies passing the current filters under the chosen
// metric.
func (s *Service) Colonies(ctx context.Context, metric domain.SizeMetric) []domain.Colony {
	done := s.observe(ctx, "colonies")
	snap := s.view.Snapshot()
	out := make([]domain.Colony, 0, len(s.colonies))
	for _, colony := range s.colonies {
		if view.Matches(colony, snap, metric) {
			out = append(out, colony)
		}
	}
	done(nil)
	return out
}

// Mark is one render-ready scatter-map point: a filtered colony's fixed
// position, its size in the displayed year, and its display attributes. The
// renderer draws marks verbatim.
type Mark struct {
	ColonyID int          `json:"colony_id"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	Genus    domain.Genus `json:"genus"`
	Size     float64      `json:"size"`
	Alive    bool         `json:"alive"`
	Selected bool         `json:"selected"`
	Fate     string       `json:"fate,omitempty"`
	Growth   *float64     `json:"growth,omitempty"`
}

// Marks returns the scatter-map marks for the given year (0 means the view's
// current year) under the chosen metric. Only colonies observed in that year
// produce a mark.
func (s *Service) Marks(ctx context.Context, year int, metric domain.SizeMetric) []Mark {
	done := s.observe(ctx, "marks")
	snap := s.view.Snapshot()
	if year == 0 {
		year = snap.CurrentYear
	}
	marks := make([]Mark, 0, len(s.colonies))
	for _, colony := range s.colonies {
		if !view.Matches(colony, snap, metric) {
			continue
		}
		obs, ok := colony.ObservationIn(year)
		if !ok {
			continue
		}
		mark := Mark{
			ColonyID: colony.ID,
			X:        colony.X,
			Y:        colony.Y,
			Genus:    colony.Genus,
			Alive:    obs.Alive,
			Selected: snap.IsSelected(colony.ID),
			Fate:     obs.Fate,
			Growth:   obs.Growth,
		}
		if size := obs.Size(metric); size != nil {
			mark.Size = *size
		}
		marks = append(marks, mark)
	}
	done(nil)
	return marks
}

// Population returns the population-by-year table over the view's active
// year range and genera.
func (s *Service) Population(ctx context.Context) []PopulationYear {
	done := s.observe(ctx, "population")
	snap := s.view.Snapshot()
	years := make([]int, 0, snap.YearMax-snap.YearMin+1)
	for y := snap.YearMin; y <= snap.YearMax; y++ {
		years = append(years, y)
	}
	rows := PopulationByYear(s.colonies, years, snap.SelectedGenera())
	done(nil)
	return rows
}

// MeanSizeFor averages the chosen metric over alive observations in the
// given year.
func (s *Service) MeanSizeFor(ctx context.Context, year int, metric domain.SizeMetric) float64 {
	done := s.observe(ctx, "mean_size")
	mean := MeanSize(s.colonies, year, metric)
	done(nil)
	return mean
}

// SizeFrequencyFor bins the present alive sizes in the given year into a
// log-scale histogram.
func (s *Service) SizeFrequencyFor(ctx context.Context, year int, metric domain.SizeMetric, bins int) []SizeBin {
	done := s.observe(ctx, "size_frequency")
	var values []float64
	for _, colony := range s.colonies {
		if obs, ok := colony.ObservationIn(year); ok && obs.Alive {
			if size := obs.Size(metric); size != nil {
				values = append(values, *size)
			}
		}
	}
	hist := SizeFrequency(values, bins)
	done(nil)
	return hist
}

// Survival computes one Kaplan-Meier curve per active genus.
func (s *Service) Survival(ctx context.Context) map[domain.Genus][]SurvivalPoint {
	done := s.observe(ctx, "survival")
	curves := SurvivalByGenus(s.colonies, s.view.Snapshot().SelectedGenera())
	done(nil)
	return curves
}

// Summary computes per-genus size summaries for the given year.
func (s *Service) Summary(ctx context.Context, year int, metric domain.SizeMetric) []GenusSummary {
	done := s.observe(ctx, "summary")
	out := SummarizeYear(s.colonies, year, metric, s.view.Snapshot().SelectedGenera())
	done(nil)
	return out
}
