package viz

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/san-kum/linkage/internal/analysis"
	"github.com/san-kum/linkage/internal/sim"
)

// WriteTable prints one row per sample: time, disk and arm speeds, and the
// four reaction components.
func WriteTable(w io.Writer, res *sim.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, HeaderStyle.Render("t (s)")+"\tω1 (rad/s)\tω2 (rad/s)\tDx (N)\tDy (N)\tEx (N)\tEy (N)\t")
	for _, s := range res.Samples {
		fmt.Fprintf(tw, "%.2f\t%.2f\t%.2f\t%.4f\t%.4f\t%.4f\t%.4f\t\n",
			s.T, s.Omega1, s.Omega2, s.Dx, s.Dy, s.Ex, s.Ey)
	}
	return tw.Flush()
}

// WriteCrossings prints the refined zero-crossings, or a note when none
// were found.
func WriteCrossings(w io.Writer, cs []analysis.Crossing) error {
	if len(cs) == 0 {
		_, err := fmt.Fprintln(w, Subtle.Render("no sign changes on the grid"))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tBRACKET\tTIME (s)\tVALUE\tITER\tSTATUS")
	for _, c := range cs {
		status := "converged"
		if !c.Converged {
			status = "budget exhausted"
		}
		fmt.Fprintf(tw, "%s\t[%.2f, %.2f]\t%.8f\t%.2e\t%d\t%s\n",
			c.Target, c.Bracket.A, c.Bracket.B, c.Time, c.Value, c.Iterations, status)
	}
	return tw.Flush()
}

// WriteMetrics prints metrics sorted by name, with the instant of those
// listed in times.
func WriteMetrics(w io.Writer, metrics, times map[string]float64) error {
	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, name := range names {
		if at, ok := times[name]; ok {
			fmt.Fprintf(tw, "%s\t%.4f\tat t = %.2f s\n", name, metrics[name], at)
			continue
		}
		fmt.Fprintf(tw, "%s\t%.4f\t\n", name, metrics[name])
	}
	return tw.Flush()
}
