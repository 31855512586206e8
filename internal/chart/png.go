// Package chart renders Arrhenius and DSA ratio plots: PNG via gonum/plot
// for reports, HTML via go-echarts for interactive inspection.
package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/diffusion.report/internal/arrhenius"
	"github.com/banshee-data/diffusion.report/internal/dsa"
	"github.com/banshee-data/diffusion.report/internal/msd"
)

const (
	width  = 10 * vg.Inch
	height = 6 * vg.Inch
)

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func legendTopRight(p *plot.Plot) {
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
}

func writePNG(w io.Writer, p *plot.Plot) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// ArrheniusPNG plots ln D against 1000/T: the estimates of fit.Species
// (used ones filled, excluded ones hollow), the fitted line over the
// calibration range and curve temperatures, and a ±1σ band.
func ArrheniusPNG(w io.Writer, fit arrhenius.Fit, estimates []msd.Estimate, curve []arrhenius.Point) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Arrhenius fit: %s (Q = %.1f kJ/mol, R² = %.4f)", fit.Species, fit.QkJPerMol(), fit.R2)
	p.X.Label.Text = "1000/T (1/K)"
	p.Y.Label.Text = "ln D (m²/s)"

	_, decisions := arrhenius.Select(estimates, arrhenius.Options{Species: fit.Species})
	var used, excluded plotter.XYs
	for _, d := range decisions {
		e := d.Estimate
		if d.Reason == arrhenius.ExcludedSpecies || !(e.D > 0) || !(e.Temperature > 0) {
			continue
		}
		pt := plotter.XY{X: 1000 / e.Temperature, Y: math.Log(e.D)}
		if d.Used() {
			used = append(used, pt)
		} else {
			excluded = append(excluded, pt)
		}
	}

	temps := []float64{fit.TMin, fit.TMax}
	for _, c := range curve {
		temps = append(temps, c.Temperature)
	}
	sort.Float64s(temps)
	pts, err := arrhenius.Extrapolate(fit, temps)
	if err != nil {
		return err
	}
	var line, upper, lower plotter.XYs
	for _, pt := range pts {
		x := 1000 / pt.Temperature
		y := math.Log(pt.D)
		line = append(line, plotter.XY{X: x, Y: y})
		if finite(pt.LnDStderr) {
			upper = append(upper, plotter.XY{X: x, Y: y + pt.LnDStderr})
			lower = append(lower, plotter.XY{X: x, Y: y - pt.LnDStderr})
		}
	}

	fitLine, err := plotter.NewLine(line)
	if err != nil {
		return err
	}
	fitLine.Color = color.RGBA{R: 200, A: 255}
	fitLine.Width = vg.Points(1.5)
	p.Add(fitLine)
	p.Legend.Add("fit", fitLine)

	if len(upper) > 1 {
		for i, band := range []plotter.XYs{upper, lower} {
			l, err := plotter.NewLine(band)
			if err != nil {
				return err
			}
			l.Color = color.RGBA{R: 200, A: 255}
			l.Width = vg.Points(0.75)
			l.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
			p.Add(l)
			if i == 0 {
				p.Legend.Add("±1σ", l)
			}
		}
	}

	if len(used) > 0 {
		s, err := plotter.NewScatter(used)
		if err != nil {
			return err
		}
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(3)
		p.Add(s)
		p.Legend.Add("used", s)
	}
	if len(excluded) > 0 {
		s, err := plotter.NewScatter(excluded)
		if err != nil {
			return err
		}
		s.GlyphStyle.Shape = draw.RingGlyph{}
		s.GlyphStyle.Radius = vg.Points(3)
		p.Add(s)
		p.Legend.Add("excluded", s)
	}

	legendTopRight(p)
	p.Add(plotter.NewGrid())
	return writePNG(w, p)
}

// RatioPNG plots log10(τ_diff/τ_wait) against temperature for every
// scenario, with the window bounds as horizontal lines. Non-finite ratios
// are left out.
func RatioPNG(w io.Writer, sw *dsa.Sweep, b dsa.Bounds) error {
	if len(sw.Temperatures) == 0 {
		return dsa.ErrNoTemperatures
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("DSA timescale ratio: %s", sw.Species)
	p.X.Label.Text = "T (K)"
	p.Y.Label.Text = "log10(τ_diff/τ_wait)"

	colors := generateColors(len(sw.Scenarios))
	for i, rows := range sw.Results {
		var pts plotter.XYs
		for _, r := range rows {
			if r.Ratio > 0 && finite(r.Ratio) {
				pts = append(pts, plotter.XY{X: r.Temperature, Y: math.Log10(r.Ratio)})
			}
		}
		if len(pts) == 0 {
			continue
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		l.Color = colors[i]
		l.Width = vg.Points(1)
		p.Add(l)
		if len(sw.Scenarios) <= 12 {
			p.Legend.Add(ScenarioLabel(sw.Scenarios[i]), l)
		}
	}

	lo, hi := sw.Temperatures[0], sw.Temperatures[len(sw.Temperatures)-1]
	for _, bound := range []float64{b.Lower, b.Upper} {
		l, err := plotter.NewLine(plotter.XYs{{X: lo, Y: math.Log10(bound)}, {X: hi, Y: math.Log10(bound)}})
		if err != nil {
			return err
		}
		l.Color = color.Gray{Y: 80}
		l.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}
		p.Add(l)
	}

	legendTopRight(p)
	p.Add(plotter.NewGrid())
	return writePNG(w, p)
}

// ScenarioLabel is a short legend label for a scenario.
func ScenarioLabel(s dsa.Scenario) string {
	return fmt.Sprintf("ρ=%.0e L_c=%.3gnm L_t=%.3gµm f=%.3g", s.RhoM, s.LCapture*1e9, s.LTravel*1e6, s.FPipe)
}

// generateColors spreads n colours evenly around the hue circle.
func generateColors(n int) []color.Color {
	out := make([]color.Color, n)
	for i := range out {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.45)
		out[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return out
}

func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	to := func(t float64) uint8 {
		switch {
		case t < 0:
			t++
		case t > 1:
			t--
		}
		var v float64
		switch {
		case t < 1.0/6:
			v = p + (q-p)*6*t
		case t < 0.5:
			v = q
		case t < 2.0/3:
			v = p + (q-p)*(2.0/3-t)*6
		default:
			v = p
		}
		return uint8(math.Round(v * 255))
	}
	return to(h + 1.0/3), to(h), to(h - 1.0/3)
}
