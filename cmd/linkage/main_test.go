package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/linkage/internal/config"
	"github.com/san-kum/linkage/internal/storage"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	// flag variables are package level; reset the ones tests depend on
	preset, configFile, pngDir, outPath = "", "", "", ""
	noSave, noPlot, trace = false, false, false

	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestNewLogger(t *testing.T) {
	if _, err := newLogger("debug"); err != nil {
		t.Fatalf("debug level rejected: %v", err)
	}
	if _, err := newLogger("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestRunStoresRun(t *testing.T) {
	dir := t.TempDir()
	png := filepath.Join(dir, "png")

	if err := execute(t, "run", "--no-plot", "--data", dir, "--png", png, "--preset", "heavy_disk"); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	runs, err := storage.New(dir).List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].Preset != "heavy_disk" || runs[0].Params.Mass != 6.0 {
		t.Errorf("preset not applied: %+v", runs[0])
	}
	if runs[0].Samples != 21 {
		t.Errorf("expected 21 samples, got %d", runs[0].Samples)
	}

	for _, name := range []string{"reactions_d.png", "reactions_e.png"} {
		if _, err := os.Stat(filepath.Join(png, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	out := filepath.Join(dir, "run.json")
	if err := execute(t, "export-json", runs[0].ID, "--data", dir, "--out", out); err != nil {
		t.Fatalf("export-json failed: %v", err)
	}
	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		t.Errorf("export-json wrote nothing: %v", err)
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "linkage.yaml")
	if err := os.WriteFile(cfgPath, []byte("grid:\n  dt: 0.5\nsolver:\n  tol: 1.0e-6\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "effective.yaml")
	if err := execute(t, "config", "init", out, "--config", cfgPath, "--tol", "1e-10"); err != nil {
		t.Fatalf("config init failed: %v", err)
	}

	cfg, err := config.Load(out)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Grid.Dt != 0.5 {
		t.Errorf("expected dt from file, got %f", cfg.Grid.Dt)
	}
	if cfg.Solver.Tol != 1e-10 {
		t.Errorf("expected tol from flag, got %g", cfg.Solver.Tol)
	}
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	tests := [][]string{
		{"run", "--data", dir, "--preset", "nope"},
		{"run", "--data", dir, "--dt", "0"},
		{"roots", "fz", "--data", dir},
		{"roots", "ex", "--a", "1", "--b", "2"},
		{"solve", "x +", "--data", dir},
		{"plot", "missing", "--data", dir},
		{"sweep", "--param", "gravity", "--data", dir},
		{"run", "--log-level", "loud", "--data", dir},
		{"optimize", "--data", dir},
		{"optimize", "--vary", "mass=1:2", "--data", dir},
		{"calibrate", "--at", "9", "--data", dir},
	}
	for _, args := range tests {
		if err := execute(t, args...); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestParseRange(t *testing.T) {
	name, vals, err := parseRange("mass=2:6:5")
	if err != nil {
		t.Fatal(err)
	}
	if name != "mass" {
		t.Errorf("expected mass, got %s", name)
	}
	want := []float64{2, 3, 4, 5, 6}
	if len(vals) != len(want) {
		t.Fatalf("expected %v, got %v", want, vals)
	}
	for i := range want {
		if vals[i] != want[i] {
			t.Errorf("value %d: expected %f, got %f", i, want[i], vals[i])
		}
	}

	for _, bad := range []string{"mass", "mass=1:2", "mass=a:2:3", "mass=1:b:3", "mass=1:2:0"} {
		if _, _, err := parseRange(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
