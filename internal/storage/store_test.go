package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/linkage/internal/analysis"
	"github.com/san-kum/linkage/internal/mechanism"
	"github.com/san-kum/linkage/internal/rootfind"
	"github.com/san-kum/linkage/internal/sim"
)

func sampleRun(t *testing.T) Run {
	t.Helper()
	l := mechanism.NewLinkage()
	s := sim.New(l)
	res, err := s.Run(context.Background(), sim.Grid{Start: 0, Duration: 1.0, Dt: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	res.Metrics["peak_ex"] = 50.05

	return Run{
		Preset: "reference",
		Params: l.Params(),
		Solver: rootfind.DefaultParams(),
		Result: res,
		Crossings: []analysis.Crossing{
			{Target: "Ex", Bracket: rootfind.Bracket{A: 0, B: 0.5}, Time: 0.1965, Iterations: 25, Converged: true},
		},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	run := sampleRun(t)
	runID, err := st.Save(run)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if !strings.HasPrefix(runID, "reference_") || len(runID) != len("reference_")+8 {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Preset != "reference" {
		t.Errorf("expected preset 'reference', got '%s'", meta.Preset)
	}
	if meta.Params != mechanism.DefaultParams() {
		t.Errorf("params not preserved: %+v", meta.Params)
	}
	if meta.Grid.Dt != 0.5 || meta.Samples != 3 {
		t.Errorf("expected 3 samples at dt 0.5, got %d at %f", meta.Samples, meta.Grid.Dt)
	}
	if meta.Metrics["peak_ex"] != 50.05 {
		t.Errorf("expected peak_ex 50.05, got %f", meta.Metrics["peak_ex"])
	}
	if len(meta.Crossings) != 1 || meta.Crossings[0].Target != "Ex" {
		t.Errorf("crossings not preserved: %+v", meta.Crossings)
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	for i, s := range samples {
		if s != run.Result.Samples[i] {
			t.Errorf("sample %d: got %+v, want %+v", i, s, run.Result.Samples[i])
		}
	}
}

func TestStoreLoadResult(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(sampleRun(t))
	if err != nil {
		t.Fatal(err)
	}

	meta, res, err := st.LoadResult(runID)
	if err != nil {
		t.Fatalf("load result failed: %v", err)
	}
	if meta.ID != runID {
		t.Errorf("expected id %s, got %s", runID, meta.ID)
	}
	if len(res.Times) != 3 || res.Times[2] != 1.0 {
		t.Errorf("unexpected times %v", res.Times)
	}
	if res.Series(mechanism.Ex)[0] != mechanism.NewLinkage().Ex(0) {
		t.Error("series not rebuilt from csv")
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		// later saves get earlier timestamps
		ts := base.Add(time.Duration(3-i) * time.Minute)
		st.now = func() time.Time { return ts }
		id, err := st.Save(sampleRun(t))
		if err != nil {
			t.Fatalf("save failed: %v", err)
		}
		ids = append(ids, id)
	}

	// unreadable runs are skipped
	if err := os.MkdirAll(filepath.Join(tmpDir, "broken"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i, want := range []string{ids[2], ids[1], ids[0]} {
		if runs[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, runs[i].ID)
		}
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	run := sampleRun(t)
	run.Preset = ""
	runID, err := st.Save(run)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "custom_") {
		t.Errorf("expected custom prefix, got %s", runID)
	}

	runDir := filepath.Join(tmpDir, runID)
	for _, name := range []string{"metadata.json", "reactions.csv"} {
		if _, err := os.Stat(filepath.Join(runDir, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestStoreErrors(t *testing.T) {
	st := New(t.TempDir())

	if _, err := st.Save(Run{}); err == nil {
		t.Error("expected error for nil result")
	}
	if _, err := st.Load("missing"); err == nil {
		t.Error("expected error for missing run")
	}
	if _, err := st.LoadSamples("missing"); err == nil {
		t.Error("expected error for missing samples")
	}
}
