package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/linkage/internal/mechanism"
	"github.com/san-kum/linkage/internal/sim"
)

const (
	DefaultPlotWidth  = 60
	DefaultPlotHeight = 12
)

// ReactionPlot charts two components of one support against time, the
// first in green and the second in red.
func ReactionPlot(res *sim.Result, first, second mechanism.Component, width, height int) string {
	if len(res.Samples) < 2 {
		return ""
	}
	return asciigraph.PlotMany(
		[][]float64{res.Series(first), res.Series(second)},
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red),
		asciigraph.SeriesLegends(first.Label(), second.Label()),
		asciigraph.Caption("Reactions at "+first.Support()+" (N) vs time "+timeSpan(res)),
	)
}

// ReactionPlots renders the D chart followed by the E chart.
func ReactionPlots(res *sim.Result, width, height int) string {
	d := ReactionPlot(res, mechanism.Dx, mechanism.Dy, width, height)
	e := ReactionPlot(res, mechanism.Ex, mechanism.Ey, width, height)
	if d == "" {
		return ""
	}
	return strings.Join([]string{d, e}, "\n\n")
}

func timeSpan(res *sim.Result) string {
	ts := res.Times
	return fmt.Sprintf("[%g s, %g s]", ts[0], ts[len(ts)-1])
}
