// Package view holds the dashboard's filter state and the animation driver
// that advances the displayed year. The state is an explicitly owned object:
// one instance is constructed at startup and passed to whoever needs it,
// never reached through package globals.
package view

import (
	"sync"

	"reefmap/pkg/domain"
)

// Snapshot is an immutable copy of the filter state, safe to hand to query
// functions while the state keeps mutating.
type Snapshot struct {
	Genera      map[domain.Genus]bool    `json:"genera"`
	Transects   map[domain.Transect]bool `json:"transects"`
	YearMin     int                      `json:"year_min"`
	YearMax     int                      `json:"year_max"`
	CurrentYear int                      `json:"current_year"`
	MinSize     float64                  `json:"min_size"`
	MaxSize     float64                  `json:"max_size"`
	Selected    []int                    `json:"selected,omitempty"`
}

// SelectedGenera lists the active genera in canonical order.
func (s Snapshot) SelectedGenera() []domain.Genus {
	out := make([]domain.Genus, 0, len(s.Genera))
	for _, g := range domain.Genera() {
		if s.Genera[g] {
			out = append(out, g)
		}
	}
	return out
}

// IsSelected reports whether the colony id is in the selection list.
func (s Snapshot) IsSelected(id int) bool {
	for _, sel := range s.Selected {
		if sel == id {
			return true
		}
	}
	return false
}

// FilterState is the thin, mutable view selection. Setters store what they
// are given; range validation is the caller's concern. The only internal
// adjustment is clamping the current year into the year range, which the
// animation contract depends on. All methods are safe for concurrent use
// because the animator mutates the state from its own goroutine.
type FilterState struct {
	mu   sync.Mutex
	meta domain.DatasetMeta
	cur  Snapshot
}

// NewFilterState builds an everything-selected state spanning the dataset's
// full year range.
func NewFilterState(meta domain.DatasetMeta) *FilterState {
	s := &FilterState{meta: meta}
	s.cur = allSelected(meta)
	return s
}

func allSelected(meta domain.DatasetMeta) Snapshot {
	snap := Snapshot{
		Genera:      make(map[domain.Genus]bool, len(meta.Genera)),
		Transects:   make(map[domain.Transect]bool, len(meta.Transects)),
		YearMin:     meta.YearMin,
		YearMax:     meta.YearMax,
		CurrentYear: meta.YearMin,
		MinSize:     0,
		MaxSize:     0,
	}
	for _, g := range meta.Genera {
		snap.Genera[g] = true
	}
	for _, t := range meta.Transects {
		snap.Transects[t] = true
	}
	return snap
}

// Snapshot returns a deep copy of the current selection.
func (f *FilterState) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneSnapshot(f.cur)
}

func cloneSnapshot(s Snapshot) Snapshot {
	out := s
	out.Genera = make(map[domain.Genus]bool, len(s.Genera))
	for g, on := range s.Genera {
		out.Genera[g] = on
	}
	out.Transects = make(map[domain.Transect]bool, len(s.Transects))
	for t, on := range s.Transects {
		out.Transects[t] = on
	}
	out.Selected = append([]int(nil), s.Selected...)
	return out
}

// ToggleGenus flips one genus in or out of the active set.
func (f *FilterState) ToggleGenus(g domain.Genus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cur.Genera[g] = !f.cur.Genera[g]
}

// ToggleTransect flips one transect in or out of the active set.
func (f *FilterState) ToggleTransect(t domain.Transect) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cur.Transects[t] = !f.cur.Transects[t]
}

// SetYearRange narrows or widens the displayed year range and clamps the
// current year back inside it.
func (f *FilterState) SetYearRange(min, max int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cur.YearMin, f.cur.YearMax = min, max
	f.cur.CurrentYear = clampYear(f.cur.CurrentYear, min, max)
}

// SetCurrentYear moves the displayed year, clamped into the active range.
func (f *FilterState) SetCurrentYear(year int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cur.CurrentYear = clampYear(year, f.cur.YearMin, f.cur.YearMax)
}

// CurrentYear returns the displayed year.
func (f *FilterState) CurrentYear() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cur.CurrentYear
}

// AdvanceYear steps the displayed year forward, wrapping to the range
// minimum past the maximum, and returns the new year. Used by the animator.
func (f *FilterState) AdvanceYear() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cur.CurrentYear = NextYear(f.cur.CurrentYear, f.cur.YearMin, f.cur.YearMax)
	return f.cur.CurrentYear
}

// SetSizeBounds stores the size filter verbatim. A zero MaxSize means
// unbounded.
func (f *FilterState) SetSizeBounds(min, max float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cur.MinSize, f.cur.MaxSize = min, max
}

// SelectColonies replaces the selection list. The reference UI passes zero
// or one id; longer lists are honored all the same.
func (f *FilterState) SelectColonies(ids []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cur.Selected = append([]int(nil), ids...)
}

// Reset restores the everything-selected, full-range, no-selection state.
func (f *FilterState) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cur = allSelected(f.meta)
}

func clampYear(year, min, max int) int {
	if year < min {
		return min
	}
	if year > max {
		return max
	}
	return year
}

// Matches reports whether a colony passes the snapshot's genus, transect and
// size filters. Year filtering is per-query (a colony is drawn only in years
// it was observed), so it is not part of this predicate.
func Matches(colony domain.Colony, snap Snapshot, metric domain.SizeMetric) bool {
	if !snap.Genera[colony.Genus] {
		return false
	}
	if !snap.Transects[colony.Transect] {
		return false
	}
	size := colony.MaxSize(metric)
	if size < snap.MinSize {
		return false
	}
	if snap.MaxSize > 0 && size > snap.MaxSize {
		return false
	}
	return true
}
