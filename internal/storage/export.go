package storage

import (
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/san-kum/scmodel/internal/analysis"
	"github.com/san-kum/scmodel/internal/experiment"
)

type ExportData struct {
	Metadata *RunMetadata                 `json:"metadata"`
	History  []experiment.IterationRecord `json:"history"`
	Profile  *analysis.Profile            `json:"profile,omitempty"`
}

// Export gathers everything stored for a run. A missing profile is not an
// error.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	history, err := s.LoadHistory(runID)
	if err != nil {
		return nil, err
	}
	profile, _, err := s.LoadProfile(runID)
	if err != nil && !errors.Is(err, ErrRunNotFound) {
		return nil, err
	}
	return &ExportData{Metadata: meta, History: history, Profile: profile}, nil
}

func WriteJSON(w io.Writer, data *ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func ExportJSON(path string, data *ExportData) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteJSON(f, data)
}

func ExportJSONStdout(data *ExportData) error {
	return WriteJSON(os.Stdout, data)
}
