package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/scmodel/internal/analysis"
	"github.com/san-kum/scmodel/internal/config"
	"github.com/san-kum/scmodel/internal/experiment"
)

const (
	metadataFile = "metadata.json"
	historyFile  = "history.csv"
	profileFile  = "profile.csv"
	configFile   = "config.yaml"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string                   `json:"id"`
	Name       string                   `json:"name"`
	Timestamp  time.Time                `json:"timestamp"`
	Iterations int                      `json:"iterations"`
	Converged  bool                     `json:"converged"`
	Components []string                 `json:"components"`
	Metrics    map[string]float64       `json:"metrics"`
	Masses     map[string]float64       `json:"masses,omitempty"`
	Probe      *experiment.ProbeMoments `json:"probe,omitempty"`
	Elapsed    time.Duration            `json:"elapsed"`
}

func newRunID(name string) string {
	return fmt.Sprintf("%s_%s", name, uuid.NewString()[:8])
}

// Save writes a run directory holding metadata, iteration history, the
// final profile and, when cfg is non-nil, the configuration that produced
// it.
func (s *Store) Save(result *experiment.Result, cfg *config.Config) (runID string, err error) {
	runID = newRunID(result.Name)
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(runDir)
			runID = ""
		}
	}()

	meta := RunMetadata{
		ID:         runID,
		Name:       result.Name,
		Timestamp:  time.Now(),
		Iterations: result.Iterations,
		Converged:  result.Converged,
		Components: result.Components,
		Metrics:    finite(result.Metrics),
		Masses:     finite(result.Masses),
		Probe:      finiteProbe(result.Probe),
		Elapsed:    result.Elapsed,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeHistory(filepath.Join(runDir, historyFile), result.History); err != nil {
		return "", err
	}
	if result.Profile != nil {
		if err := writeProfile(filepath.Join(runDir, profileFile), result.Profile, result.Components); err != nil {
			return "", err
		}
	}
	if cfg != nil {
		if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
			return "", err
		}
	}
	return runID, nil
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// finite drops NaN and Inf values, which JSON cannot encode.
func finite(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if isFinite(v) {
			out[k] = v
		}
	}
	return out
}

// finiteProbe returns a copy of p with non-finite moments set to zero.
func finiteProbe(p *experiment.ProbeMoments) *experiment.ProbeMoments {
	if p == nil {
		return nil
	}
	out := *p
	zero := func(v *float64) {
		if !isFinite(*v) {
			*v = 0
		}
	}
	zero(&out.Density)
	for i := range out.Velocity {
		zero(&out.Velocity[i])
	}
	for i := range out.Dispersion {
		zero(&out.Dispersion[i])
	}
	return &out
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeHistory(path string, history []experiment.IterationRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"iteration", "change", "central_potential", "probe_density", "elapsed_ms"}); err != nil {
		return err
	}
	for _, rec := range history {
		row := []string{
			strconv.Itoa(rec.Iteration),
			formatFloat(rec.Change),
			formatFloat(rec.CentralPotential),
			formatFloat(rec.ProbeDensity),
			strconv.FormatInt(rec.Elapsed.Milliseconds(), 10),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeProfile(path string, p *analysis.Profile, names []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"r", "potential", "vcirc", "total"}
	for i := range p.Components {
		name := fmt.Sprintf("component_%d", i)
		if i < len(names) {
			name = names[i]
		}
		header = append(header, "rho_"+name)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for k, r := range p.Radii {
		row := []string{
			formatFloat(r),
			formatFloat(p.Potential[k]),
			formatFloat(p.CircularVelocity[k]),
			formatFloat(p.Total[k]),
		}
		for _, comp := range p.Components {
			row = append(row, formatFloat(comp[k]))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) runPath(runID, file string) string {
	return filepath.Join(s.baseDir, runID, file)
}

func (s *Store) open(runID, file string) (*os.File, error) {
	f, err := os.Open(s.runPath(runID, file))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return f, err
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	f, err := s.open(runID, metadataFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var meta RunMetadata
	if err := json.NewDecoder(f).Decode(&meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadConfig returns the configuration stored with a run.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	if _, err := os.Stat(s.runPath(runID, configFile)); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return config.Load(s.runPath(runID, configFile))
}

func (s *Store) readCSV(runID, file string) ([][]string, error) {
	f, err := s.open(runID, file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func (s *Store) LoadHistory(runID string) ([]experiment.IterationRecord, error) {
	records, err := s.readCSV(runID, historyFile)
	if err != nil {
		return nil, err
	}

	history := make([]experiment.IterationRecord, 0, len(records))
	for i := 1; i < len(records); i++ {
		rec := records[i]
		if len(rec) < 5 {
			continue
		}
		it, err := strconv.Atoi(rec[0])
		if err != nil {
			continue
		}
		vals := make([]float64, 3)
		ok := true
		for j := range vals {
			if vals[j], err = strconv.ParseFloat(rec[j+1], 64); err != nil {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		ms, _ := strconv.ParseInt(rec[4], 10, 64)
		history = append(history, experiment.IterationRecord{
			Iteration:        it,
			Change:           vals[0],
			CentralPotential: vals[1],
			ProbeDensity:     vals[2],
			Elapsed:          time.Duration(ms) * time.Millisecond,
		})
	}
	return history, nil
}

// LoadProfile returns the stored profile and the component names taken
// from its header.
func (s *Store) LoadProfile(runID string) (*analysis.Profile, []string, error) {
	records, err := s.readCSV(runID, profileFile)
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 || len(records[0]) < 4 {
		return &analysis.Profile{}, nil, nil
	}

	header := records[0]
	names := make([]string, 0, len(header)-4)
	for _, h := range header[4:] {
		if len(h) > 4 && h[:4] == "rho_" {
			h = h[4:]
		}
		names = append(names, h)
	}

	p := &analysis.Profile{Components: make([][]float64, len(names))}
	for i := 1; i < len(records); i++ {
		rec := records[i]
		if len(rec) != len(header) {
			continue
		}
		vals := make([]float64, len(rec))
		ok := true
		for j, field := range rec {
			if vals[j], err = strconv.ParseFloat(field, 64); err != nil {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		p.Radii = append(p.Radii, vals[0])
		p.Potential = append(p.Potential, vals[1])
		p.CircularVelocity = append(p.CircularVelocity, vals[2])
		p.Total = append(p.Total, vals[3])
		for c := range names {
			p.Components[c] = append(p.Components[c], vals[4+c])
		}
	}
	return p, names, nil
}
