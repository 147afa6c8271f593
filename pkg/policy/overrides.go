package policy

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fika/fika-prep/pkg/taxonomy"
)

const (
	WhitelistFileName = "whitelist.txt"
	BlacklistFileName = "blacklist.txt"
)

// Overrides are the operator-maintained label lists consulted by every theme.
type Overrides struct {
	Whitelist map[taxonomy.Label]struct{}
	Blacklist map[taxonomy.Label]struct{}
}

// NewOverrides builds overrides from plain label lists. Entries are normalized
// the same way vocabulary labels are.
func NewOverrides(whitelist, blacklist []taxonomy.Label) Overrides {
	return Overrides{Whitelist: labelSet(whitelist), Blacklist: labelSet(blacklist)}
}

func (o Overrides) Whitelisted(label taxonomy.Label) bool {
	_, ok := o.Whitelist[taxonomy.Normalize(label)]
	return ok
}

func (o Overrides) Blacklisted(label taxonomy.Label) bool {
	_, ok := o.Blacklist[taxonomy.Normalize(label)]
	return ok
}

// normalized rebuilds both sets with normalized keys, so literals built by
// callers match the same way loaded lists do.
func (o Overrides) normalized() Overrides {
	return Overrides{Whitelist: normalizeSet(o.Whitelist), Blacklist: normalizeSet(o.Blacklist)}
}

func normalizeSet(set map[taxonomy.Label]struct{}) map[taxonomy.Label]struct{} {
	labels := make([]taxonomy.Label, 0, len(set))
	for l := range set {
		labels = append(labels, l)
	}
	return labelSet(labels)
}

// LoadOverrides reads whitelist.txt and blacklist.txt from dir, creating them empty when absent.
func LoadOverrides(dir string) (Overrides, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Overrides{}, fmt.Errorf("failed to create planner directory: %w", err)
	}

	whitelist, err := readOrCreateList(filepath.Join(dir, WhitelistFileName))
	if err != nil {
		return Overrides{}, err
	}
	blacklist, err := readOrCreateList(filepath.Join(dir, BlacklistFileName))
	if err != nil {
		return Overrides{}, err
	}

	return NewOverrides(whitelist, blacklist), nil
}

func readOrCreateList(path string) ([]taxonomy.Label, error) {
	file, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", path, err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var labels []taxonomy.Label
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			labels = append(labels, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return labels, nil
}

func labelSet(labels []taxonomy.Label) map[taxonomy.Label]struct{} {
	set := make(map[taxonomy.Label]struct{}, len(labels))
	for _, l := range labels {
		set[taxonomy.Normalize(l)] = struct{}{}
	}
	return set
}
