package core_test

import (
	"math"
	"testing"

	"reefmap/internal/core"
	"reefmap/pkg/domain"
)

func fp(v float64) *float64 { return &v }

func obs(id, year int, genus domain.Genus, geo *float64, alive bool) domain.Observation {
	return domain.Observation{
		ColonyID: id, Year: year, Transect: domain.TransectT01,
		Genus: genus, GeoDiam: geo, Alive: alive,
	}
}

func TestBuildColoniesSortsAndDerives(t *testing.T) {
	observations := []domain.Observation{
		obs(7, 2014, domain.GenusPocillopora, fp(12), true),
		obs(7, 2013, domain.GenusPocillopora, fp(10), true),
		obs(7, 2015, domain.GenusPocillopora, nil, false),
	}
	colonies := core.BuildColonies(observations)
	if len(colonies) != 1 {
		t.Fatalf("expected 1 colony, got %d", len(colonies))
	}
	c := colonies[0]
	for i := 1; i < len(c.Observations); i++ {
		if c.Observations[i].Year <= c.Observations[i-1].Year {
			t.Fatalf("observations not strictly ascending by year: %+v", c.Observations)
		}
	}
	if c.RecruitYear != 2013 {
		t.Fatalf("recruit year = %d, want 2013", c.RecruitYear)
	}
	if c.DeathYear == nil || *c.DeathYear != 2015 {
		t.Fatalf("death year = %v, want 2015", c.DeathYear)
	}
	if c.Lifespan != 2 {
		t.Fatalf("lifespan = %d, want 2", c.Lifespan)
	}
	if c.MaxDiameter != 12 {
		t.Fatalf("max diameter = %g, want 12", c.MaxDiameter)
	}
}

func TestGrowthRateScenario(t *testing.T) {
	observations := []domain.Observation{
		obs(7, 2013, domain.GenusPocillopora, fp(10), true),
		obs(7, 2014, domain.GenusPocillopora, fp(12), true),
	}
	colonies := core.BuildColonies(observations)
	g := colonies[0].Observations[1].Growth
	if g == nil {
		t.Fatalf("growth absent")
	}
	if math.Abs(*g-math.Log(1.2)) > 1e-12 {
		t.Fatalf("growth = %g, want ln(1.2)", *g)
	}
	if colonies[0].Observations[0].Growth != nil {
		t.Fatalf("first observation must have no growth rate")
	}
}

func TestGrowthSkipsAbsentAndZeroSizes(t *testing.T) {
	observations := []domain.Observation{
		obs(1, 2010, domain.GenusPorites, fp(5), true),
		obs(1, 2011, domain.GenusPorites, nil, true),
		obs(1, 2012, domain.GenusPorites, fp(8), true),
		obs(1, 2013, domain.GenusPorites, fp(0), true),
		obs(1, 2014, domain.GenusPorites, fp(4), true),
	}
	colonies := core.BuildColonies(observations)
	c := colonies[0]
	// 2011: current absent. 2012: prior absent, no interpolation across 2010.
	// 2013: current size zero. 2014: prior size zero.
	for _, i := range []int{1, 2, 3, 4} {
		if c.Observations[i].Growth != nil {
			t.Fatalf("year %d growth = %v, want absent", c.Observations[i].Year, *c.Observations[i].Growth)
		}
	}
}

func TestGrowthMetricIsExplicit(t *testing.T) {
	o1 := obs(1, 2010, domain.GenusAcropora, fp(10), true)
	o1.Volume = fp(100)
	o2 := obs(1, 2011, domain.GenusAcropora, fp(20), true)
	o2.Volume = fp(400)
	colonies := core.BuildColonies([]domain.Observation{o1, o2})
	c := &colonies[0]
	if math.Abs(*c.Observations[1].Growth-math.Log(2)) > 1e-12 {
		t.Fatalf("geomean growth = %g, want ln(2)", *c.Observations[1].Growth)
	}
	core.AttachGrowth(c, domain.MetricVolume)
	if math.Abs(*c.Observations[1].Growth-math.Log(4)) > 1e-12 {
		t.Fatalf("volume growth = %g, want ln(4)", *c.Observations[1].Growth)
	}
}

func TestRecruitFlagWinsOverFirstObservation(t *testing.T) {
	early := obs(3, 2012, domain.GenusMillepora, nil, true)
	flagged := obs(3, 2013, domain.GenusMillepora, fp(2), true)
	flagged.Recruit = true
	colonies := core.BuildColonies([]domain.Observation{early, flagged})
	if colonies[0].RecruitYear != 2013 {
		t.Fatalf("recruit year = %d, want flagged 2013", colonies[0].RecruitYear)
	}
}

func TestSingleDeadObservationScenario(t *testing.T) {
	dead := obs(9, 2015, domain.GenusPorites, nil, false)
	colonies := core.BuildColonies([]domain.Observation{dead})
	c := colonies[0]
	if c.DeathYear == nil || *c.DeathYear != 2015 {
		t.Fatalf("death year = %v, want 2015", c.DeathYear)
	}
	if c.RecruitYear != 2015 || c.Lifespan != 0 {
		t.Fatalf("recruit=%d lifespan=%d, want 2015/0", c.RecruitYear, c.Lifespan)
	}
	if c.MaxDiameter != 0 || c.MaxVolume != 0 {
		t.Fatalf("max sizes = %g/%g, want 0", c.MaxDiameter, c.MaxVolume)
	}
}

func TestCensoredLifespan(t *testing.T) {
	observations := []domain.Observation{
		obs(4, 2016, domain.GenusAcropora, fp(1), true),
		obs(4, 2019, domain.GenusAcropora, fp(3), true),
	}
	colonies := core.BuildColonies(observations)
	c := colonies[0]
	if c.DeathYear != nil {
		t.Fatalf("unexpected death year %v", *c.DeathYear)
	}
	if c.Lifespan != 3 {
		t.Fatalf("censored lifespan = %d, want 3", c.Lifespan)
	}
}

func TestDuplicateYearsCollapse(t *testing.T) {
	observations := []domain.Observation{
		obs(5, 2014, domain.GenusPorites, fp(6), true),
		obs(5, 2014, domain.GenusPorites, fp(7), true),
	}
	colonies := core.BuildColonies(observations)
	if len(colonies[0].Observations) != 1 {
		t.Fatalf("duplicate year not collapsed: %+v", colonies[0].Observations)
	}
	if *colonies[0].Observations[0].GeoDiam != 6 {
		t.Fatalf("first row must win, got %g", *colonies[0].Observations[0].GeoDiam)
	}
}
