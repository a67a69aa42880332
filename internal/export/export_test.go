package export

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/linkage/internal/analysis"
	"github.com/san-kum/linkage/internal/mechanism"
	"github.com/san-kum/linkage/internal/rootfind"
	"github.com/san-kum/linkage/internal/sim"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func referenceRun(t *testing.T) (*sim.Result, []analysis.Crossing) {
	t.Helper()
	l := mechanism.NewLinkage()
	res, err := sim.New(l).Run(context.Background(), sim.DefaultGrid())
	require.NoError(t, err)
	cs, err := analysis.FindCrossings(context.Background(), rootfind.NewBisection(),
		analysis.ReactionTargets(l, mechanism.Ex, mechanism.Ey), res.Times, rootfind.DefaultParams())
	require.NoError(t, err)
	return res, cs
}

func TestReactionPlot(t *testing.T) {
	res, cs := referenceRun(t)

	p, err := ReactionPlot(res, mechanism.Ex, mechanism.Ey, cs)
	require.NoError(t, err)
	assert.Equal(t, "Time (s)", p.X.Label.Text)
	assert.Equal(t, "Reactions at E (N)", p.Y.Label.Text)

	var buf bytes.Buffer
	require.NoError(t, WritePlot(&buf, p, DefaultPlotOptions()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestReactionPlotTooFewSamples(t *testing.T) {
	_, err := ReactionPlot(&sim.Result{Samples: make([]sim.Sample, 1)}, mechanism.Dx, mechanism.Dy, nil)
	assert.Error(t, err)
}

func TestWritePlotSVG(t *testing.T) {
	res, _ := referenceRun(t)
	p, err := ReactionPlot(res, mechanism.Dx, mechanism.Dy, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePlot(&buf, p, PlotOptions{Format: "svg", Width: 4, Height: 3}))
	assert.Contains(t, buf.String(), "<svg")
}

func TestSavePlots(t *testing.T) {
	res, cs := referenceRun(t)
	dir := filepath.Join(t.TempDir(), "plots")

	paths, err := SavePlots(dir, res, cs, DefaultPlotOptions())
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "reactions_d.png"), paths[0])
	assert.Equal(t, filepath.Join(dir, "reactions_e.png"), paths[1])

	for _, path := range paths {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, pngMagic), path)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	res, _ := referenceRun(t)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, res.Samples))
	assert.True(t, strings.HasPrefix(buf.String(), "time,omega1,omega2,dx,dy,ex,ey\n"))

	samples, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, res.Samples, samples)
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("time,omega1,omega2,dx,dy,ex,ey\n0,1,2,x,4,5,6\n"))
	assert.ErrorContains(t, err, "column dx")

	_, err = ReadCSV(strings.NewReader("time,omega1\n0,1\n"))
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	res, cs := referenceRun(t)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, Document{
		ID:        "reference_0011aabb",
		Params:    mechanism.DefaultParams(),
		Grid:      res.Grid,
		Solver:    rootfind.DefaultParams(),
		Crossings: cs,
		Samples:   Rows(res.Samples),
	}))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "reference_0011aabb", doc.ID)
	assert.Equal(t, 0.06, doc.Params.AB)
	assert.Len(t, doc.Samples, 21)
	assert.Len(t, doc.Crossings, 3)
	assert.Equal(t, 1e-8, doc.Solver.Tol)
}

func TestWriteJSONEmptyCrossings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, Document{}))
	assert.Contains(t, buf.String(), `"crossings": []`)
	assert.NotContains(t, buf.String(), "metrics")
}
