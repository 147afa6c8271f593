package filestorage

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fika/fika-prep/pkg/checkpoint"
	"github.com/rs/zerolog/log"
)

// DefaultFileName is the checkpoint log name used when only a directory is configured.
const DefaultFileName = "_ai_assignments.jsonl"

// maxLineSize bounds a single JSONL entry; labels are short so this is generous.
const maxLineSize = 1 << 20

// Store is a JSON Lines checkpoint log. Every Append writes whole lines with
// O_APPEND and syncs before returning, so an interrupted write can only ever
// damage the final line.
type Store struct {
	mu   sync.Mutex
	path string
}

// New creates a file checkpoint store at path, creating parent directories.
// The file itself is created lazily by the first Append.
func New(path string) (*Store, error) {
	if path == "" {
		path = DefaultFileName
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	return &Store{path: path}, nil
}

// Path returns the log location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load(ctx context.Context) (checkpoint.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := checkpoint.State{}

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return state, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint log: %w", err)
	}
	defer f.Close()

	reader := bufio.NewReaderSize(f, 64*1024)

	lineNo := 0
	skipped := 0
	for {
		raw, oversized, err := readLine(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read checkpoint log: %w", err)
		}
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if oversized {
			skipped++
			log.Debug().Int("line", lineNo).Str("path", s.path).Msg("Skipping oversized checkpoint line")
			continue
		}

		line := bytes.TrimSpace(raw)
		if len(line) == 0 {
			continue
		}

		record, err := checkpoint.DecodeRecord(line)
		if err != nil {
			skipped++
			log.Debug().Err(err).Int("line", lineNo).Str("path", s.path).Msg("Skipping unreadable checkpoint line")
			continue
		}

		state.Apply(record)
	}

	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Str("path", s.path).Msg("Checkpoint log contained unreadable lines")
	}

	return state, nil
}

func (s *Store) Append(ctx context.Context, records []checkpoint.Record) error {
	if len(records) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, r := range records {
		data, err := checkpoint.EncodeRecord(r)
		if err != nil {
			return err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint log for append: %w", err)
	}
	defer f.Close()

	torn, err := endsWithoutNewline(f)
	if err != nil {
		return err
	}
	if torn {
		// A previous run died mid-line; start ours on a fresh one.
		if _, err := f.Write([]byte{'\n'}); err != nil {
			return fmt.Errorf("failed to terminate torn checkpoint line: %w", err)
		}
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to append checkpoint records: %w", err)
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync checkpoint log: %w", err)
	}

	return nil
}

func (s *Store) Close() error {
	return nil
}

// readLine returns the next line without its terminator. Lines longer than
// maxLineSize are consumed in full and reported as oversized with no content.
func readLine(r *bufio.Reader) ([]byte, bool, error) {
	var line []byte
	oversized := false
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return nil, false, err
		}
		if !oversized {
			if len(line)+len(chunk) > maxLineSize {
				oversized = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		if !isPrefix {
			return line, oversized, nil
		}
	}
}

func endsWithoutNewline(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("failed to stat checkpoint log: %w", err)
	}
	if info.Size() == 0 {
		return false, nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to inspect checkpoint log tail: %w", err)
	}
	return last[0] != '\n', nil
}
