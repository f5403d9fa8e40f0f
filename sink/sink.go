// Package sink provides destinations for generated modules.
package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrExists is returned by Dir when a module exists and Overwrite is false.
var ErrExists = errors.New("file already exists")

// OutputSink receives generated modules.
// Implementations must be safe for concurrent calls.
type OutputSink interface {
	// WriteFile stores content under a slash-separated relative path.
	WriteFile(ctx context.Context, path string, content []byte) error
}

// Dir writes modules below a directory of the local file system.
type Dir struct {
	// Root is the base directory for all writes.
	Root string

	// Mode is the file permission mode (default: 0644).
	Mode os.FileMode

	// Overwrite replaces existing modules. When false, writing to an
	// existing path fails with ErrExists.
	Overwrite bool
}

// NewDir returns a Dir writing below root that replaces existing modules.
func NewDir(root string) *Dir {
	return &Dir{Root: root, Mode: 0644, Overwrite: true}
}

// WriteFile writes content to path below Root through a temporary file and
// a rename, so readers never observe a partially written module. A module
// whose current content equals content is left untouched.
func (d *Dir) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := ValidatePath(path); err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	full := filepath.Join(d.Root, filepath.FromSlash(path))
	if d.Overwrite {
		if old, err := os.ReadFile(full); err == nil && bytes.Equal(old, content) {
			return nil
		}
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	mode := d.Mode
	if mode == 0 {
		mode = 0644
	}

	tmp, err := os.CreateTemp(dir, ".dsgen-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_, writeErr := tmp.Write(content)
	closeErr := tmp.Close()
	// Leftovers keep the .dsgen-*.tmp pattern.
	cleanup := func() { _ = os.Remove(tmpPath) }

	if writeErr != nil {
		cleanup()
		return fmt.Errorf("write temp file: %w", writeErr)
	}
	if closeErr != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", closeErr)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		cleanup()
		return fmt.Errorf("set file mode: %w", err)
	}
	if err := ctx.Err(); err != nil {
		cleanup()
		return err
	}

	if d.Overwrite {
		if err := os.Rename(tmpPath, full); err != nil {
			cleanup()
			return fmt.Errorf("rename temp file: %w", err)
		}
		return nil
	}

	// Link fails when the target exists, without a stat-then-rename race.
	err = os.Link(tmpPath, full)
	cleanup()
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %q", ErrExists, path)
	}
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

// Memory keeps modules in memory.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemory creates an empty Memory sink.
func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

// WriteFile stores a copy of content.
func (m *Memory) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := ValidatePath(path); err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = bytes.Clone(content)
	return nil
}

// Get returns a copy of the module at path, or nil.
func (m *Memory) Get(path string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return bytes.Clone(m.files[path])
}

// Paths returns the stored paths in lexical order.
func (m *Memory) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Stream writes every module to W, each preceded by a comment line naming
// its path. It backs `dsgen gen --out -`.
type Stream struct {
	mu sync.Mutex
	W  io.Writer
}

// WriteFile writes a path comment followed by content.
func (s *Stream) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := ValidatePath(path); err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.W, "// %s\n", path); err != nil {
		return err
	}
	_, err := s.W.Write(content)
	return err
}

// ValidatePath checks that p is a clean, relative, slash-separated path
// that stays below the sink root.
func ValidatePath(p string) error {
	if p == "" {
		return errors.New("path is empty")
	}
	if strings.HasPrefix(p, "/") || filepath.IsAbs(p) || hasDriveLetter(p) {
		return errors.New("absolute paths not allowed")
	}
	if strings.Contains(p, `\`) {
		return errors.New("backslash separators not allowed")
	}
	for _, elem := range strings.Split(p, "/") {
		if elem == ".." {
			return errors.New("path traversal not allowed")
		}
	}
	if cleaned := path.Clean(p); cleaned != p {
		return fmt.Errorf("path is not clean (expected %q, got %q)", cleaned, p)
	}
	if p == "." {
		return errors.New("path names the root")
	}
	return nil
}

func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
