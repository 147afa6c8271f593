package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fika/fika-prep/pkg/taxonomy"
)

var ErrVocabularyNotFound = errors.New("input vocabulary not found")

// ReadVocabulary reads one raw label per line. Labels are normalized, blank lines
// are skipped and duplicates keep their first position.
func ReadVocabulary(path string) ([]taxonomy.Label, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrVocabularyNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open vocabulary %s: %w", path, err)
	}
	defer file.Close()

	labels, err := parseVocabulary(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary %s: %w", path, err)
	}
	return labels, nil
}

func parseVocabulary(r io.Reader) ([]taxonomy.Label, error) {
	var labels []taxonomy.Label
	seen := make(map[taxonomy.Label]struct{})

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		label := taxonomy.Normalize(scanner.Text())
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return labels, nil
}
