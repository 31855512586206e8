// Package testutil provides shared test helpers and synthetic fixtures.
package testutil

import (
	"math"
	"testing"

	"github.com/banshee-data/diffusion.report/internal/msd"
	"github.com/banshee-data/diffusion.report/internal/units"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertClose fails the test unless got is within rel relative tolerance
// of want.
func AssertClose(t *testing.T, got, want, rel float64) {
	t.Helper()
	if !Close(got, want, rel) {
		t.Errorf("got %g, want %g (rel tol %g)", got, want, rel)
	}
}

// Close reports |got-want| <= rel·|want|, treating two NaNs as equal.
func Close(got, want, rel float64) bool {
	if math.IsNaN(got) || math.IsNaN(want) {
		return math.IsNaN(got) && math.IsNaN(want)
	}
	if got == want {
		return true
	}
	return math.Abs(got-want) <= rel*math.Abs(want)
}

// ArrheniusD evaluates D0·exp(−Q/(R·T)) with the standard gas constant.
func ArrheniusD(d0, q, temperature float64) float64 {
	return d0 * math.Exp(-q/(units.GasConstant*temperature))
}

// MSDSeries returns a noise-free 1 ns total-MSD series (1001 samples, one per
// picosecond) whose slope corresponds to diffusivity d in three dimensions.
func MSDSeries(temperature float64, species string, d float64) msd.Series {
	return msd.Linear(temperature, species, 6*d, 0, 0, 1e-9, 1001)
}
