package check

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/broady/dsgen"
	"github.com/broady/dsgen/decl"
	"github.com/broady/dsgen/scan"
)

type Cmd struct {
	Dirs []string `arg:"" help:"Service directories to validate."`

	out io.Writer
}

// Run validates every service.json and *.api file strictly, then runs the
// generator over each directory without writing its output.
func (c *Cmd) Run(ctx context.Context, logger *slog.Logger) error {
	w := c.out
	if w == nil {
		w = os.Stdout
	}

	invalid := 0
	for _, dir := range c.Dirs {
		n, err := checkDir(ctx, w, logger, dir)
		if err != nil {
			return err
		}
		invalid += n
	}
	if invalid > 0 {
		return fmt.Errorf("%d invalid descriptor(s)", invalid)
	}
	return nil
}

func checkDir(ctx context.Context, w io.Writer, logger *slog.Logger, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && (name == scan.ServiceFile || filepath.Ext(name) == scan.APIExtension) {
			files = append(files, name)
		}
	}
	sort.Strings(files)

	invalid := 0
	for _, name := range files {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return invalid, fmt.Errorf("read %s: %w", path, err)
		}
		if err := checkFile(name, data); err != nil {
			invalid++
			fmt.Fprintf(w, "✗ %s\n", path)
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(w, "    %s\n", line)
			}
			continue
		}
		fmt.Fprintf(w, "✓ %s\n", path)
	}
	if invalid > 0 {
		return invalid, nil
	}

	out, err := dsgen.Generate().WithLogger(logger).Apply(ctx, dir)
	switch {
	case err != nil:
		fmt.Fprintf(w, "✗ %s\n    %v\n", dir, err)
		return 1, nil
	case out == nil:
		fmt.Fprintf(w, "- %s: nothing to generate\n", dir)
	default:
		fmt.Fprintf(w, "✓ %s: %s, %d bytes\n", dir, out.Path, len(out.Source))
	}
	return 0, nil
}

func checkFile(name string, data []byte) error {
	if name == scan.ServiceFile {
		_, result := decl.ValidateServiceJSON(data)
		return result.Err()
	}

	fd, result := decl.ValidateJSON(data)
	if !result.IsValid {
		return result.Err()
	}
	_, err := decl.NormalizeFunction(fd)
	return err
}
