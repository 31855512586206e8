package dsa

import "math"

// Window is a temperature interval where the ratio lies inside the bounds.
// A clipped edge coincides with the end of the temperature grid, so the
// true boundary lies beyond the swept range.
type Window struct {
	Start        float64
	End          float64
	StartClipped bool
	EndClipped   bool
}

// WindowBoundaries locates the windows of ratio(T) on an ascending
// temperature grid. Between neighbouring grid points log10(ratio) is
// interpolated linearly in T, so boundaries fall where the interpolant
// crosses log10 of either bound. Non-positive or non-finite ratios count as
// outside. An empty result means no window on the grid.
func WindowBoundaries(temps, ratios []float64, b Bounds) []Window {
	n := len(temps)
	if n == 0 || len(ratios) != n {
		return nil
	}

	lo, hi := math.Log10(b.Lower), math.Log10(b.Upper)
	logs := make([]float64, n)
	ok := make([]bool, n)
	for i, r := range ratios {
		if r > 0 && !math.IsInf(r, 0) {
			logs[i] = math.Log10(r)
			ok[i] = true
		}
	}
	inside := func(i int) bool { return ok[i] && logs[i] > lo && logs[i] < hi }

	if n == 1 {
		if inside(0) {
			return []Window{{Start: temps[0], End: temps[0], StartClipped: true, EndClipped: true}}
		}
		return nil
	}

	var (
		windows []Window
		open    bool
	)
	// extend appends the part [f0, f1] (fractions of interval i) to the
	// current window or starts a new one.
	extend := func(i int, f0, f1 float64) {
		start := at(temps, i, f0)
		end := at(temps, i, f1)
		if open && f0 == 0 {
			windows[len(windows)-1].End = end
		} else {
			windows = append(windows, Window{Start: start, End: end, StartClipped: i == 0 && f0 == 0 && inside(0)})
		}
		open = f1 == 1
	}

	for i := 0; i < n-1; i++ {
		if !ok[i] || !ok[i+1] {
			// Cannot interpolate; keep only the finite inside endpoint.
			if inside(i) {
				extend(i, 0, 0)
			}
			open = false
			if inside(i + 1) {
				extend(i, 1, 1)
			}
			continue
		}
		f0, f1, hit := insideFractions(logs[i], logs[i+1], lo, hi)
		if !hit {
			open = false
			continue
		}
		extend(i, f0, f1)
	}

	if len(windows) > 0 {
		last := &windows[len(windows)-1]
		last.EndClipped = open && inside(n-1)
	}
	return windows
}

// insideFractions returns the sub-interval [f0, f1] of [0, 1] where the
// linear interpolant from a to b lies strictly between lo and hi.
func insideFractions(a, b, lo, hi float64) (f0, f1 float64, ok bool) {
	d := b - a
	if d == 0 {
		if a > lo && a < hi {
			return 0, 1, true
		}
		return 0, 0, false
	}
	fLo := (lo - a) / d
	fHi := (hi - a) / d
	if d < 0 {
		fLo, fHi = fHi, fLo
	}
	f0 = math.Max(0, fLo)
	f1 = math.Min(1, fHi)
	if f0 >= f1 {
		return 0, 0, false
	}
	return f0, f1, true
}

func at(temps []float64, i int, f float64) float64 {
	switch f {
	case 0:
		return temps[i]
	case 1:
		return temps[i+1]
	}
	return temps[i] + f*(temps[i+1]-temps[i])
}
