package chart

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/diffusion.report/internal/dsa"
)

// missing is how echarts marks a gap in a line series.
const missing = "-"

// RatioHTML renders one interactive line chart per sweep on a single page.
func RatioHTML(w io.Writer, b dsa.Bounds, sweeps ...*dsa.Sweep) error {
	page := components.NewPage()
	for _, sw := range sweeps {
		page.AddCharts(ratioLine(sw, b))
	}
	return page.Render(w)
}

func ratioLine(sw *dsa.Sweep, b dsa.Bounds) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "DSA ratio", Width: "1100px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("DSA ratio: %s", sw.Species),
			Subtitle: fmt.Sprintf("scenarios=%d window=(%g, %g)", len(sw.Scenarios), b.Lower, b.Upper),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(len(sw.Scenarios) <= 12), Type: "scroll", Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "T (K)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "log10(τ_diff/τ_wait)", NameLocation: "middle", NameGap: 40}),
	)

	x := make([]string, len(sw.Temperatures))
	for i, t := range sw.Temperatures {
		x[i] = strconv.FormatFloat(t, 'f', -1, 64)
	}
	line.SetXAxis(x)

	for i, rows := range sw.Results {
		data := make([]opts.LineData, len(rows))
		for j, r := range rows {
			if r.Ratio > 0 && finite(r.Ratio) {
				data[j] = opts.LineData{Value: math.Log10(r.Ratio)}
			} else {
				data[j] = opts.LineData{Value: missing}
			}
		}
		line.AddSeries(ScenarioLabel(sw.Scenarios[i]), data)
	}

	for _, bound := range []struct {
		name string
		v    float64
	}{{"lower bound", b.Lower}, {"upper bound", b.Upper}} {
		data := make([]opts.LineData, len(x))
		for j := range data {
			data[j] = opts.LineData{Value: math.Log10(bound.v), Symbol: "none"}
		}
		line.AddSeries(bound.name, data,
			charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed", Color: "#555"}))
	}
	return line
}
