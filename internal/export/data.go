package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/linkage/internal/analysis"
	"github.com/san-kum/linkage/internal/mechanism"
	"github.com/san-kum/linkage/internal/rootfind"
	"github.com/san-kum/linkage/internal/sim"
)

// CSVHeader names the columns written by WriteCSV.
var CSVHeader = []string{"time", "omega1", "omega2", "dx", "dy", "ex", "ey"}

type Row struct {
	T      float64 `json:"t"`
	Omega1 float64 `json:"omega1"`
	Omega2 float64 `json:"omega2"`
	Dx     float64 `json:"dx"`
	Dy     float64 `json:"dy"`
	Ex     float64 `json:"ex"`
	Ey     float64 `json:"ey"`
}

func Rows(samples []sim.Sample) []Row {
	rows := make([]Row, len(samples))
	for i, s := range samples {
		rows[i] = Row{T: s.T, Omega1: s.Omega1, Omega2: s.Omega2, Dx: s.Dx, Dy: s.Dy, Ex: s.Ex, Ey: s.Ey}
	}
	return rows
}

// Document is the JSON form of a run.
type Document struct {
	ID        string              `json:"id,omitempty"`
	Params    mechanism.Params    `json:"params"`
	Grid      sim.Grid            `json:"grid"`
	Solver    rootfind.Params     `json:"solver"`
	Crossings []analysis.Crossing `json:"crossings"`
	Metrics   map[string]float64  `json:"metrics,omitempty"`
	Samples   []Row               `json:"samples"`
}

func WriteJSON(w io.Writer, doc Document) error {
	if doc.Crossings == nil {
		doc.Crossings = []analysis.Crossing{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteCSV writes one row per sample. Values use the shortest exact
// representation so ReadCSV returns identical floats.
func WriteCSV(w io.Writer, samples []sim.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, s := range samples {
		record := []string{
			formatFloat(s.T),
			formatFloat(s.Omega1),
			formatFloat(s.Omega2),
			formatFloat(s.Dx),
			formatFloat(s.Dy),
			formatFloat(s.Ex),
			formatFloat(s.Ey),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadCSV(r io.Reader) ([]sim.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(CSVHeader)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("missing csv header")
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		var v [7]float64
		for j, field := range rec {
			f, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %s: %w", i+1, CSVHeader[j], err)
			}
			v[j] = f
		}
		samples = append(samples, sim.Sample{
			T:         v[0],
			Omega1:    v[1],
			Omega2:    v[2],
			Reactions: mechanism.Reactions{Dx: v[3], Dy: v[4], Ex: v[5], Ey: v[6]},
		})
	}
	return samples, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
