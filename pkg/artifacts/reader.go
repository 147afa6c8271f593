package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fika/fika-prep/pkg/taxonomy"
)

var ErrNotGenerated = errors.New("artifacts not generated yet")

// Snapshot is a read-only view of the artifacts of the last completed run.
type Snapshot struct {
	BucketIndex  map[taxonomy.BucketKey][]taxonomy.Label
	LabelIndex   map[taxonomy.Label][]taxonomy.BucketKey
	ExcludeFinal []taxonomy.Label
	Unique       []taxonomy.Label
	Planner      map[string][]PlannerEntry
}

// Read loads the indices and planner index written by Writer.
func (w *Writer) Read() (Snapshot, error) {
	var snapshot Snapshot

	if err := readJSON(filepath.Join(w.dir, BucketIndexFileName), &snapshot.BucketIndex); err != nil {
		return Snapshot{}, err
	}
	if err := readJSON(filepath.Join(w.dir, LabelIndexFileName), &snapshot.LabelIndex); err != nil {
		return Snapshot{}, err
	}
	if err := readJSON(filepath.Join(w.PlannerDir(), PlannerIndexFileName), &snapshot.Planner); err != nil {
		return Snapshot{}, err
	}

	var err error
	if snapshot.ExcludeFinal, err = readList(filepath.Join(w.dir, ExcludeFinalFileName)); err != nil {
		return Snapshot{}, err
	}
	if snapshot.Unique, err = readList(filepath.Join(w.dir, UniqueFileName)); err != nil {
		return Snapshot{}, err
	}

	return snapshot, nil
}

func readJSON(path string, v interface{}) error {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotGenerated, path)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(content, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func readList(path string) ([]taxonomy.Label, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotGenerated, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var labels []taxonomy.Label
	for _, line := range strings.Split(string(content), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			labels = append(labels, line)
		}
	}
	return labels, nil
}
