package dsgen

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/broady/dsgen/decl"
	"github.com/broady/dsgen/javascript"
	"github.com/broady/dsgen/jsast"
	"github.com/broady/dsgen/proxy"
	"github.com/broady/dsgen/scan"
	"github.com/broady/dsgen/sink"
)

// Transform turns service directories into generated modules.
type Transform struct {
	renderer    jsast.Renderer
	emitter     *proxy.Emitter
	logger      *slog.Logger
	fsys        fs.FS
	concurrency int
}

// Generate returns a Transform with the default JavaScript renderer that
// reads directories from the local file system one at a time.
func Generate() *Transform {
	return &Transform{
		renderer:    javascript.New(javascript.DefaultConfig()),
		emitter:     &proxy.Emitter{},
		concurrency: 1,
	}
}

// WithRenderer sets the renderer producing the module source.
func (t *Transform) WithRenderer(r jsast.Renderer) *Transform {
	if r != nil {
		t.renderer = r
	}
	return t
}

// WithLogger sets the logger. The default is slog.Default().
func (t *Transform) WithLogger(l *slog.Logger) *Transform {
	t.logger = l
	return t
}

// WithConcurrency sets how many directories are processed at once.
func (t *Transform) WithConcurrency(n int) *Transform {
	if n > 0 {
		t.concurrency = n
	}
	return t
}

// WithFS reads directories from fsys instead of the local file system.
// Directory names are then fs.FS paths.
func (t *Transform) WithFS(fsys fs.FS) *Transform {
	t.fsys = fsys
	return t
}

// WithHeader replaces the comment lines written at the top of each module.
func (t *Transform) WithHeader(lines ...string) *Transform {
	t.emitter = &proxy.Emitter{Header: lines}
	return t
}

func (t *Transform) log() *slog.Logger {
	if t.logger == nil {
		return slog.Default()
	}
	return t.logger
}

// Output is one generated module.
type Output struct {
	// Dir is the service directory the module was generated from.
	Dir string

	// Module is the module name the class name derives from.
	Module string

	// Path is the slash-separated path of the module relative to the
	// output root.
	Path string

	Source []byte
}

// Apply generates the module of one service directory. It returns nil, nil
// when the directory has nothing to generate.
func (t *Transform) Apply(ctx context.Context, dir string) (*Output, error) {
	return t.ApplyAs(ctx, dir, "")
}

// ApplyAs is like Apply but names the module after module, written to
// <module>.js, instead of deriving the name from the directory. An empty
// module behaves like Apply.
func (t *Transform) ApplyAs(ctx context.Context, dir, module string) (*Output, error) {
	logger := t.log()
	reader := &scan.Reader{FS: t.fsys, Logger: logger}
	decls, err := reader.Read(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("read declarations: %w", err)
	}
	if decls == nil {
		logger.Debug("no declarations, skipping directory", slog.String("dir", dir))
		return nil, nil
	}

	outPath := module + ".js"
	if module == "" {
		module, outPath, err = t.outputPath(dir, decls.Service)
		if err != nil {
			return nil, err
		}
	}

	m, err := t.emitter.Generate(module, decls.Service, decls.Endpoints)
	if err != nil {
		return nil, err
	}
	src, err := t.renderer.Render(m)
	if err != nil {
		return nil, fmt.Errorf("render with %s: %w", t.renderer.Name(), err)
	}

	return &Output{Dir: dir, Module: module, Path: outPath, Source: src}, nil
}

// outputPath derives the module name and output path of a directory.
func (t *Transform) outputPath(dir string, service *decl.ServiceDescriptor) (module, outPath string, err error) {
	if service.JSModule != "" {
		return ModulePath(service.JSModule)
	}

	name := path.Base(filepath.ToSlash(dir))
	if t.fsys == nil {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", "", fmt.Errorf("resolve directory: %w", err)
		}
		name = filepath.Base(abs)
	}
	if name == "." || name == "/" || name == "" {
		return "", "", fmt.Errorf("cannot derive a module name from directory %q", dir)
	}
	return name, name + ".js", nil
}

// ModulePath returns the module name and output path named by a $jsModule
// property: "lib/docs" and "lib/docs.js" both give module "docs" written to
// "lib/docs.js".
func ModulePath(jsModule string) (module, outPath string, err error) {
	p := path.Clean(strings.TrimLeft(filepath.ToSlash(jsModule), "/"))
	if !strings.HasSuffix(p, ".js") {
		p += ".js"
	}
	if err := sink.ValidatePath(p); err != nil {
		return "", "", fmt.Errorf("invalid $jsModule %q: %w", jsModule, err)
	}
	module = strings.TrimSuffix(path.Base(p), ".js")
	if module == "" {
		return "", "", fmt.Errorf("invalid $jsModule %q: empty module name", jsModule)
	}
	return module, p, nil
}

// Result is the outcome of one directory of a stream.
type Result struct {
	Dir string

	// Output is nil when the directory was skipped or failed.
	Output *Output
	Err    error
}

// Stream applies the transform to every directory received from in and
// sends one Result per directory. Up to the configured concurrency of
// directories are processed at once, so results may arrive out of order.
// The returned channel is closed once in is closed and drained, or ctx is
// done.
func (t *Transform) Stream(ctx context.Context, in <-chan string) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		var g errgroup.Group
		g.SetLimit(t.concurrency)
		defer g.Wait()

		for {
			var dir string
			var ok bool
			select {
			case <-ctx.Done():
				return
			case dir, ok = <-in:
				if !ok {
					return
				}
			}
			g.Go(func() error {
				o, err := t.Apply(ctx, dir)
				select {
				case out <- Result{Dir: dir, Output: o, Err: err}:
				case <-ctx.Done():
				}
				return nil
			})
		}
	}()
	return out
}

// Report summarizes a Run.
type Report struct {
	// Written lists the output paths of generated modules.
	Written []string

	// Skipped lists directories with nothing to generate.
	Skipped []string

	// Failed lists directories whose generation failed.
	Failed []string
}

// Run generates every directory of dirs and writes the modules to out. A
// directory that fails does not stop the others; the returned error joins
// the failures of all directories.
func (t *Transform) Run(ctx context.Context, dirs []string, out sink.OutputSink) (*Report, error) {
	logger := t.log()
	in := make(chan string)
	go func() {
		defer close(in)
		for _, d := range dirs {
			select {
			case in <- d:
			case <-ctx.Done():
				return
			}
		}
	}()

	report := &Report{}
	written := make(map[string]string)
	var errs []error
	fail := func(dir string, err error) {
		logger.Error("generation failed", slog.String("dir", dir), slog.Any("error", err))
		report.Failed = append(report.Failed, dir)
		errs = append(errs, fmt.Errorf("%s: %w", dir, err))
	}

	for r := range t.Stream(ctx, in) {
		switch {
		case r.Err != nil:
			fail(r.Dir, r.Err)
		case r.Output == nil:
			report.Skipped = append(report.Skipped, r.Dir)
		default:
			if prev, ok := written[r.Output.Path]; ok {
				fail(r.Dir, fmt.Errorf("output %s already generated from %s", r.Output.Path, prev))
				continue
			}
			if err := out.WriteFile(ctx, r.Output.Path, r.Output.Source); err != nil {
				fail(r.Dir, fmt.Errorf("write %s: %w", r.Output.Path, err))
				continue
			}
			written[r.Output.Path] = r.Dir
			report.Written = append(report.Written, r.Output.Path)
			logger.Info("generated", slog.String("dir", r.Dir), slog.String("path", r.Output.Path))
		}
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}

	sort.Strings(report.Written)
	sort.Strings(report.Skipped)
	sort.Strings(report.Failed)
	return report, errors.Join(errs...)
}
