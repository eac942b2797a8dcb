package view_test

import (
	"testing"
	"time"

	"reefmap/internal/view"
)

func TestNextYearAdvancesAndWraps(t *testing.T) {
	cases := []struct {
		cur, min, max, want int
	}{
		{2011, 2011, 2020, 2012},
		{2019, 2011, 2020, 2020},
		{2020, 2011, 2020, 2011}, // wrap
		{1999, 2011, 2020, 2011}, // below range
		{2025, 2011, 2020, 2011}, // above range
		{2015, 2015, 2015, 2015}, // degenerate range
		{2015, 2018, 2016, 2018}, // inverted range collapses to min
	}
	for _, tc := range cases {
		if got := view.NextYear(tc.cur, tc.min, tc.max); got != tc.want {
			t.Fatalf("NextYear(%d,%d,%d) = %d, want %d", tc.cur, tc.min, tc.max, got, tc.want)
		}
	}
}

func TestAnimatorAdvancesState(t *testing.T) {
	s := view.NewFilterState(meta())
	a := view.NewAnimator(s, 5*time.Millisecond)
	ticks := make(chan int, 64)
	a.OnTick(func(year int) {
		select {
		case ticks <- year:
		default:
		}
	})

	a.Play()
	if !a.Playing() {
		t.Fatalf("animator not playing after Play")
	}
	select {
	case year := <-ticks:
		if year != 2012 {
			t.Fatalf("first tick advanced to %d, want 2012", year)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no tick within deadline")
	}
	a.Stop()
	if a.Playing() {
		t.Fatalf("animator still playing after Stop")
	}
	// Stop must be idempotent.
	a.Stop()
}

func TestAnimatorPlayTwiceIsNoop(t *testing.T) {
	s := view.NewFilterState(meta())
	a := view.NewAnimator(s, time.Hour)
	a.Play()
	a.Play()
	a.Stop()
	if a.Playing() {
		t.Fatalf("expected stopped animator")
	}
}
