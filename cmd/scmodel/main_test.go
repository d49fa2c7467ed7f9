package main

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/scmodel/internal/config"
	"github.com/san-kum/scmodel/internal/experiment"
	"github.com/san-kum/scmodel/internal/storage"
)

func TestMaxRelDiff(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"equal", []float64{-1, -0.5}, []float64{-1, -0.5}, 0},
		{"relative", []float64{-1, -2}, []float64{-1.1, -2}, 0.1 / 1.1},
		{"zeros skipped", []float64{0, 4}, []float64{0, 5}, 0.2},
		{"length mismatch", []float64{1}, []float64{1, 2}, math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := maxRelDiff(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-12 && !(math.IsInf(got, 1) && math.IsInf(tt.want, 1)) {
				t.Errorf("maxRelDiff = %v, want %v", got, tt.want)
			}
		})
	}
}

func newModelCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	addModelFlags(cmd)
	return cmd
}

func TestLoadConfigPresetAndOverrides(t *testing.T) {
	cmd := newModelCmd()
	if err := cmd.ParseFlags([]string{"--preset", "quick", "-n", "7", "--reverse"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "quick" || cfg.Iterations != 7 || !cfg.ReverseOrder {
		t.Errorf("got name=%s iterations=%d reverse=%v", cfg.Name, cfg.Iterations, cfg.ReverseOrder)
	}
}

func TestLoadConfigFileWinsOverPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.toml")
	want := config.GetPreset("halo_baryons")
	want.Name = "from_file"
	if err := config.Save(path, want); err != nil {
		t.Fatal(err)
	}

	cmd := newModelCmd()
	if err := cmd.ParseFlags([]string{"--preset", "quick", "--config", path}); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "from_file" {
		t.Errorf("name = %s, want from_file", cfg.Name)
	}
}

func TestLoadConfigUnknownPreset(t *testing.T) {
	cmd := newModelCmd()
	if err := cmd.ParseFlags([]string{"--preset", "nope"}); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(cmd); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}

func TestLoadConfigFromStoredRun(t *testing.T) {
	dataDir = t.TempDir()
	stored := config.GetPreset("disk_halo")
	stored.Name = "stored"
	runID, err := storage.New(dataDir).Save(&experiment.Result{Name: "stored"}, stored)
	if err != nil {
		t.Fatal(err)
	}

	cmd := newModelCmd()
	if err := cmd.ParseFlags([]string{"--from", runID, "-n", "2"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "stored" || cfg.Iterations != 2 || len(cfg.Components) != len(stored.Components) {
		t.Errorf("got name=%s iterations=%d components=%d", cfg.Name, cfg.Iterations, len(cfg.Components))
	}

	cmd = newModelCmd()
	if err := cmd.ParseFlags([]string{"--from", "missing_run"}); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(cmd); !errors.Is(err, storage.ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestRemainingIterations(t *testing.T) {
	history := []experiment.IterationRecord{{Iteration: 1, Change: 2}, {Iteration: 2, Change: 1}}
	tests := []struct {
		name   string
		result experiment.Result
		tol    float64
		want   int
		wantOK bool
	}{
		{"estimate", experiment.Result{History: history, Metrics: map[string]float64{"convergence_factor": 0.5}}, 0.3, 2, true},
		{"no tolerance", experiment.Result{History: history, Metrics: map[string]float64{"convergence_factor": 0.5}}, 0, 0, false},
		{"converged", experiment.Result{History: history, Converged: true, Metrics: map[string]float64{"convergence_factor": 0.5}}, 0.3, 0, false},
		{"no factor", experiment.Result{History: history, Metrics: map[string]float64{}}, 0.3, 0, false},
		{"diverging", experiment.Result{History: history, Metrics: map[string]float64{"convergence_factor": 1.5}}, 0.3, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := remainingIterations(&tt.result, tt.tol)
			if ok != tt.wantOK || (ok && got != tt.want) {
				t.Errorf("remainingIterations = %d, %v; want %d, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
