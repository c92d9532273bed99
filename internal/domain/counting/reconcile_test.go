package counting

import (
	"testing"

	"stocktake/internal/core/id"
	"stocktake/internal/core/types"
)

func TestRemainingExpectedDistributesParAcrossAreas(t *testing.T) {
	// Bar counts 6 vodka and completes; Storage should expect 10-6 = 4.
	s := newTestSession("Bar", "Storage")
	vodka := id.New()
	par := types.NewQuantityFromInt(10)

	mustRecord(t, s, s.Areas[0].ID, vodka, 6, 0)
	if _, err := s.CompleteArea(s.Areas[0].ID); err != nil {
		t.Fatalf("CompleteArea() error: %v", err)
	}

	got := RemainingExpected(s, vodka, par, s.Areas[1].ID)
	if want := types.NewQuantityFromInt(4); got != want {
		t.Errorf("remainingExpected = %s, want %s", got, want)
	}
}

func TestRemainingExpectedFloorsAtZero(t *testing.T) {
	s := newTestSession("Bar", "Storage")
	gin := id.New()
	par := types.NewQuantityFromInt(5)

	mustRecord(t, s, s.Areas[0].ID, gin, 8, 0)
	if _, err := s.CompleteArea(s.Areas[0].ID); err != nil {
		t.Fatalf("CompleteArea() error: %v", err)
	}

	if got := RemainingExpected(s, gin, par, s.Areas[1].ID); got != 0 {
		t.Errorf("remainingExpected = %s, want 0 (floored)", got)
	}
}

func TestRemainingExpectedZeroPar(t *testing.T) {
	s := newTestSession()
	if got := RemainingExpected(s, id.New(), 0, s.Areas[0].ID); got != 0 {
		t.Errorf("remainingExpected with zero par = %s, want 0", got)
	}
	if got := RemainingExpected(s, id.New(), -types.QuantityOne, s.Areas[0].ID); got != 0 {
		t.Errorf("remainingExpected with negative par = %s, want 0", got)
	}
}

func TestRemainingExpectedIgnoresOpenAreas(t *testing.T) {
	// Only completed areas count against the par level.
	s := newTestSession("Bar", "Cellar", "Storage")
	rum := id.New()
	par := types.NewQuantityFromInt(12)

	mustRecord(t, s, s.Areas[0].ID, rum, 5, 0)
	mustRecord(t, s, s.Areas[1].ID, rum, 4, 0)

	// Nothing completed yet: full par remains.
	if got := RemainingExpected(s, rum, par, s.Areas[2].ID); got != par {
		t.Errorf("remainingExpected = %s, want full par %s", got, par)
	}

	if _, err := s.CompleteArea(s.Areas[0].ID); err != nil {
		t.Fatalf("CompleteArea() error: %v", err)
	}
	if got, want := RemainingExpected(s, rum, par, s.Areas[2].ID), types.NewQuantityFromInt(7); got != want {
		t.Errorf("remainingExpected = %s, want %s", got, want)
	}
}

func TestRemainingExpectedExcludesActiveAreaInReview(t *testing.T) {
	// A completed active area is excluded from the sum so review mode shows
	// the figure that was live during its count.
	s := newTestSession("Bar", "Storage")
	whiskey := id.New()
	par := types.NewQuantityFromInt(10)

	mustRecord(t, s, s.Areas[0].ID, whiskey, 6, 0)
	if _, err := s.CompleteArea(s.Areas[0].ID); err != nil {
		t.Fatalf("CompleteArea() error: %v", err)
	}
	mustRecord(t, s, s.Areas[1].ID, whiskey, 3, 0)
	if _, err := s.CompleteArea(s.Areas[1].ID); err != nil {
		t.Fatalf("CompleteArea() error: %v", err)
	}

	// Reviewing Bar: Storage's 3 are subtracted, Bar's own 6 are not.
	if got, want := RemainingExpected(s, whiskey, par, s.Areas[0].ID), types.NewQuantityFromInt(7); got != want {
		t.Errorf("review remainingExpected(Bar) = %s, want %s", got, want)
	}
	// Reviewing Storage: Bar's 6 are subtracted.
	if got, want := RemainingExpected(s, whiskey, par, s.Areas[1].ID), types.NewQuantityFromInt(4); got != want {
		t.Errorf("review remainingExpected(Storage) = %s, want %s", got, want)
	}
}

func TestRemainingExpectedMonotonicNonIncreasing(t *testing.T) {
	s := newTestSession("A", "B", "C", "D")
	tequila := id.New()
	par := types.NewQuantityFromInt(20)
	activeID := s.Areas[3].ID

	counts := []int64{3, 0, 9}
	prev := RemainingExpected(s, tequila, par, activeID)

	for i, n := range counts {
		if n > 0 {
			mustRecord(t, s, s.Areas[i].ID, tequila, n, 0)
		}
		if _, err := s.CompleteArea(s.Areas[i].ID); err != nil {
			t.Fatalf("CompleteArea(%d) error: %v", i, err)
		}
		got := RemainingExpected(s, tequila, par, activeID)
		if got > prev {
			t.Errorf("remainingExpected increased after area %d: %s > %s", i, got, prev)
		}
		if got < 0 {
			t.Errorf("remainingExpected went negative: %s", got)
		}
		prev = got
	}

	if want := types.NewQuantityFromInt(8); prev != want {
		t.Errorf("final remainingExpected = %s, want %s", prev, want)
	}
}

func TestRemainingExpectedWithPartialUnits(t *testing.T) {
	s := newTestSession("Bar", "Storage")
	vermouth := id.New()
	par := types.NewQuantityFromInt(5)

	// 2.7 bottles counted behind the bar.
	mustRecord(t, s, s.Areas[0].ID, vermouth, 2, 7*types.QuantityTenth)
	if _, err := s.CompleteArea(s.Areas[0].ID); err != nil {
		t.Fatalf("CompleteArea() error: %v", err)
	}

	got := RemainingExpected(s, vermouth, par, s.Areas[1].ID)
	want := types.NewQuantityFromInt(2) + 3*types.QuantityTenth
	if got != want {
		t.Errorf("remainingExpected = %s, want %s", got, want)
	}
}
