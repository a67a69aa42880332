package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/san-kum/linkage/internal/analysis"
	"github.com/san-kum/linkage/internal/mechanism"
	"github.com/san-kum/linkage/internal/sim"
)

var (
	green  = color.RGBA{G: 160, A: 255}
	red    = color.RGBA{R: 220, A: 255}
	marker = color.RGBA{R: 40, G: 40, B: 40, A: 255}
)

// PlotOptions sizes the image plots, in inches.
type PlotOptions struct {
	Format string
	Width  float64
	Height float64
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Format: "png", Width: 6, Height: 4}
}

// ReactionPlot draws two components of one support against time, the
// first in green and the second in red. Crossings of either component are
// marked on the time axis.
func ReactionPlot(res *sim.Result, first, second mechanism.Component, cs []analysis.Crossing) (*plot.Plot, error) {
	if len(res.Samples) < 2 {
		return nil, fmt.Errorf("need at least 2 samples to plot, got %d", len(res.Samples))
	}

	p := plot.New()
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Reactions at " + first.Support() + " (N)"
	p.Add(plotter.NewGrid())

	for _, s := range []struct {
		c     mechanism.Component
		color color.Color
	}{{first, green}, {second, red}} {
		line, err := plotter.NewLine(series(res, s.c))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.c.Label(), err)
		}
		line.LineStyle.Color = s.color
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(s.c.Label(), line)
	}

	var pts plotter.XYs
	for _, c := range cs {
		if c.Target == first.Label() || c.Target == second.Label() {
			pts = append(pts, plotter.XY{X: c.Time, Y: 0})
		}
	}
	if len(pts) > 0 {
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = marker
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(3)
		p.Add(sc)
	}

	return p, nil
}

func series(res *sim.Result, c mechanism.Component) plotter.XYs {
	pts := make(plotter.XYs, len(res.Samples))
	for i, s := range res.Samples {
		pts[i].X = s.T
		pts[i].Y = s.Get(c)
	}
	return pts
}

// WritePlot encodes p in the given format (png, svg, pdf, ...).
func WritePlot(w io.Writer, p *plot.Plot, opts PlotOptions) error {
	wt, err := p.WriterTo(vg.Length(opts.Width)*vg.Inch, vg.Length(opts.Height)*vg.Inch, opts.Format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// SavePlots writes reactions_d.<format> and reactions_e.<format> into dir
// and returns their paths.
func SavePlots(dir string, res *sim.Result, cs []analysis.Crossing, opts PlotOptions) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create directory: %w", err)
	}

	figures := []struct {
		name          string
		first, second mechanism.Component
	}{
		{"reactions_d", mechanism.Dx, mechanism.Dy},
		{"reactions_e", mechanism.Ex, mechanism.Ey},
	}

	paths := make([]string, 0, len(figures))
	for _, fig := range figures {
		p, err := ReactionPlot(res, fig.first, fig.second, cs)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, fig.name+"."+opts.Format)
		if err := p.Save(vg.Length(opts.Width)*vg.Inch, vg.Length(opts.Height)*vg.Inch, path); err != nil {
			return nil, fmt.Errorf("cannot write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
