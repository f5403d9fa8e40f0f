package gen

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/broady/dsgen"
	"github.com/broady/dsgen/internal/config"
	"github.com/broady/dsgen/internal/watch"
	"github.com/broady/dsgen/javascript"
	"github.com/broady/dsgen/sink"
)

// ExplicitLevel reports whether the log level was set on the command line,
// in which case the config file's log_level is ignored.
type ExplicitLevel bool

type Cmd struct {
	Dirs        []string `arg:"" optional:"" help:"Service directories (default: inputs of the config file)."`
	Out         string   `help:"Output directory, or - for stdout." short:"o"`
	Config      string   `help:"Config file (default: dsgen.yaml when present)." short:"c" type:"path"`
	Concurrency int      `help:"Directories generated at once."`
	NoOverwrite bool     `help:"Fail instead of replacing existing modules."`
	ESM         bool     `help:"Emit ES modules (export default) instead of CommonJS." name:"esm"`
	Watch       bool     `help:"Regenerate a directory when its files change." short:"w"`
}

func (c *Cmd) Run(ctx context.Context, logger *slog.Logger, level *slog.LevelVar, explicit ExplicitLevel) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	if !explicit {
		level.Set(cfg.Level())
	}
	if len(cfg.Inputs) == 0 {
		return errors.New("no service directories: pass them as arguments or list them in inputs")
	}

	transform := dsgen.Generate().
		WithRenderer(javascript.New(cfg.Renderer())).
		WithLogger(logger).
		WithConcurrency(cfg.Concurrency)
	if len(cfg.Header) > 0 {
		transform.WithHeader(cfg.Header...)
	}

	var out sink.OutputSink
	if cfg.Out == "-" {
		out = &sink.Stream{W: os.Stdout}
	} else {
		out = &sink.Dir{Root: cfg.Out, Mode: 0644, Overwrite: cfg.ShouldOverwrite()}
	}

	report, err := transform.Run(ctx, cfg.Inputs, out)
	if report != nil {
		logger.Info("generation finished",
			slog.Int("written", len(report.Written)),
			slog.Int("skipped", len(report.Skipped)),
			slog.Int("failed", len(report.Failed)))
	}
	if !c.Watch {
		return err
	}
	if err != nil {
		logger.Warn("initial generation failed, watching for fixes", slog.Any("error", err))
	}
	return c.watch(ctx, logger, cfg.Inputs, transform, out)
}

func (c *Cmd) watch(ctx context.Context, logger *slog.Logger, dirs []string, transform *dsgen.Transform, out sink.OutputSink) error {
	w, err := watch.New(logger, dirs...)
	if err != nil {
		return err
	}
	defer w.Close()

	logger.Info("watching for changes", slog.Any("dirs", dirs))
	return w.Run(ctx, func(ctx context.Context, dir string) {
		// Run logs failures.
		_, _ = transform.Run(ctx, []string{dir}, out)
	})
}

// config loads the config file, then applies the flags over it.
func (c *Cmd) config() (*config.Config, error) {
	path := c.Config
	if path == "" {
		if _, err := os.Stat(config.DefaultFile); err == nil {
			path = config.DefaultFile
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", config.DefaultFile, err)
		}
	}

	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if len(c.Dirs) > 0 {
		cfg.Inputs = c.Dirs
	}
	if c.Out != "" {
		cfg.Out = c.Out
	}
	if c.Concurrency > 0 {
		cfg.Concurrency = c.Concurrency
	}
	if c.NoOverwrite {
		overwrite := false
		cfg.Overwrite = &overwrite
	}
	if c.ESM {
		cfg.ModuleStyle = "esm"
	}
	return cfg, nil
}
