package testutil

import (
	"math"
	"testing"
)

func TestClose(t *testing.T) {
	tests := []struct {
		got, want, rel float64
		ok             bool
	}{
		{1, 1, 0, true},
		{1.0000001, 1, 1e-6, true},
		{1.1, 1, 1e-6, false},
		{math.NaN(), math.NaN(), 0, true},
		{math.NaN(), 1, 1, false},
		{0, 0, 0, true},
	}
	for _, tt := range tests {
		if got := Close(tt.got, tt.want, tt.rel); got != tt.ok {
			t.Errorf("Close(%v, %v, %v) = %v, want %v", tt.got, tt.want, tt.rel, got, tt.ok)
		}
	}
}

func TestMSDSeries(t *testing.T) {
	s := MSDSeries(600, "Mg", 1e-10)
	if s.Len() != 1001 {
		t.Fatalf("Len() = %d", s.Len())
	}
	AssertClose(t, s.Samples[1000].MSD, 6e-19, 1e-9)
	AssertClose(t, s.Span(), 1e-9, 1e-12)
}

func TestArrheniusD(t *testing.T) {
	AssertClose(t, ArrheniusD(1e-5, 0, 500), 1e-5, 0)
	if ArrheniusD(1e-5, 80000, 600) >= ArrheniusD(1e-5, 80000, 700) {
		t.Error("D should increase with temperature")
	}
}
