package view_test

import (
	"testing"

	"reefmap/internal/view"
	"reefmap/pkg/domain"
)

func meta() domain.DatasetMeta {
	return domain.DatasetMeta{
		Name: "test", YearMin: 2011, YearMax: 2020,
		Genera: domain.Genera(), Transects: domain.Transects(),
	}
}

func TestNewFilterStateSelectsEverything(t *testing.T) {
	snap := view.NewFilterState(meta()).Snapshot()
	for _, g := range domain.Genera() {
		if !snap.Genera[g] {
			t.Fatalf("genus %s not selected initially", g)
		}
	}
	for _, tr := range domain.Transects() {
		if !snap.Transects[tr] {
			t.Fatalf("transect %s not selected initially", tr)
		}
	}
	if snap.YearMin != 2011 || snap.YearMax != 2020 || snap.CurrentYear != 2011 {
		t.Fatalf("unexpected initial years %+v", snap)
	}
	if len(snap.Selected) != 0 || snap.MinSize != 0 || snap.MaxSize != 0 {
		t.Fatalf("unexpected initial selection/bounds %+v", snap)
	}
}

func TestToggleAndReset(t *testing.T) {
	s := view.NewFilterState(meta())
	s.ToggleGenus(domain.GenusAcropora)
	s.ToggleGenus(domain.GenusPorites)
	s.ToggleGenus(domain.GenusPorites)
	s.SetYearRange(2015, 2018)
	s.SelectColonies([]int{42})

	snap := s.Snapshot()
	if snap.Genera[domain.GenusAcropora] {
		t.Fatalf("toggled genus still active")
	}
	if !snap.Genera[domain.GenusPorites] {
		t.Fatalf("double toggle must restore genus")
	}
	if !snap.IsSelected(42) || snap.IsSelected(7) {
		t.Fatalf("selection wrong: %+v", snap.Selected)
	}

	s.Reset()
	snap = s.Snapshot()
	if !snap.Genera[domain.GenusAcropora] || snap.YearMin != 2011 || snap.YearMax != 2020 {
		t.Fatalf("reset incomplete: %+v", snap)
	}
	if len(snap.Selected) != 0 {
		t.Fatalf("reset kept selection %v", snap.Selected)
	}
}

func TestYearClamping(t *testing.T) {
	s := view.NewFilterState(meta())
	s.SetCurrentYear(2017)
	s.SetYearRange(2012, 2015)
	if got := s.CurrentYear(); got != 2015 {
		t.Fatalf("narrowing range must clamp current year, got %d", got)
	}
	s.SetCurrentYear(1990)
	if got := s.CurrentYear(); got != 2012 {
		t.Fatalf("current year must clamp to range min, got %d", got)
	}
}

func TestSelectColoniesReplaces(t *testing.T) {
	s := view.NewFilterState(meta())
	s.SelectColonies([]int{1, 2})
	s.SelectColonies([]int{3})
	snap := s.Snapshot()
	if len(snap.Selected) != 1 || snap.Selected[0] != 3 {
		t.Fatalf("selection must replace, got %v", snap.Selected)
	}
	s.SelectColonies(nil)
	if len(s.Snapshot().Selected) != 0 {
		t.Fatalf("empty selection must clear")
	}
}

func TestMatchesPredicate(t *testing.T) {
	s := view.NewFilterState(meta())
	colony := domain.Colony{
		ID: 1, Genus: domain.GenusPocillopora, Transect: domain.TransectT01,
		MaxDiameter: 12,
	}
	if !view.Matches(colony, s.Snapshot(), domain.MetricGeoDiam) {
		t.Fatalf("unfiltered colony must match")
	}
	s.SetSizeBounds(0, 10)
	if view.Matches(colony, s.Snapshot(), domain.MetricGeoDiam) {
		t.Fatalf("colony above max size must not match")
	}
	s.SetSizeBounds(0, 0)
	s.ToggleTransect(domain.TransectT01)
	if view.Matches(colony, s.Snapshot(), domain.MetricGeoDiam) {
		t.Fatalf("colony on toggled-off transect must not match")
	}
}
