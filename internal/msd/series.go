// Package msd turns mean-squared-displacement time series into diffusivity
// estimates: transient trimming and acceptance checks, the Einstein-relation
// fit, and interdiffusion combination of per-species estimates.
package msd

// Sample is one MSD observation. Time is in seconds and MSD in m².
type Sample struct {
	Time float64
	MSD  float64
}

// Series is an MSD time series for a single (temperature, species) pair.
// Samples are ordered by strictly increasing Time.
type Series struct {
	Temperature float64 // kelvin
	Species     string
	Samples     []Sample
}

// Len returns the number of samples.
func (s Series) Len() int { return len(s.Samples) }

// Span returns the time covered by the series, last minus first sample.
func (s Series) Span() float64 {
	if len(s.Samples) < 2 {
		return 0
	}
	return s.Samples[len(s.Samples)-1].Time - s.Samples[0].Time
}

// Columns splits the samples into parallel time and MSD slices.
func (s Series) Columns() (times, msds []float64) {
	times = make([]float64, len(s.Samples))
	msds = make([]float64, len(s.Samples))
	for i, p := range s.Samples {
		times[i] = p.Time
		msds[i] = p.MSD
	}
	return times, msds
}

// Linear builds a noise-free series msd(t) = slope·t + offset sampled at n
// evenly spaced times in [start, end]. It is used for synthetic checks.
func Linear(temperature float64, species string, slope, offset, start, end float64, n int) Series {
	s := Series{Temperature: temperature, Species: species, Samples: make([]Sample, n)}
	step := 0.0
	if n > 1 {
		step = (end - start) / float64(n-1)
	}
	for i := range s.Samples {
		t := start + float64(i)*step
		s.Samples[i] = Sample{Time: t, MSD: slope*t + offset}
	}
	return s
}
