package conversation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store persists chat history between sessions.
type Store interface {
	// Load returns the saved history, oldest first. A store with nothing
	// saved yet returns an empty history and a nil error.
	Load(ctx context.Context) ([]Turn, error)

	// Save replaces the saved history with turns.
	Save(ctx context.Context, turns []Turn) error
}

// FileStore keeps the history in a JSON file as an array of
// {"role": ..., "content": ...} objects indented with four spaces.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a FileStore backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file the store reads and writes.
func (s *FileStore) Path() string { return s.path }

// Load implements Store. A missing file yields an empty history.
func (s *FileStore) Load(_ context.Context) ([]Turn, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: read %q: %w", s.path, err)
	}
	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("conversation: decode %q: %w", s.path, err)
	}
	if turns == nil {
		turns = []Turn{}
	}
	return turns, nil
}

// Save implements Store. The file is written to a temporary sibling first and
// renamed into place so a crash never leaves a truncated history behind.
func (s *FileStore) Save(_ context.Context, turns []Turn) error {
	if turns == nil {
		turns = []Turn{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	if err := enc.Encode(turns); err != nil {
		return fmt.Errorf("conversation: encode history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("conversation: create %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("conversation: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("conversation: write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("conversation: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("conversation: replace %q: %w", s.path, err)
	}
	return nil
}
