package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/broady/dsgen/cmd/dsgen/internal/check"
	"github.com/broady/dsgen/cmd/dsgen/internal/gen"
	"github.com/broady/dsgen/cmd/dsgen/internal/preview"
	"github.com/broady/dsgen/internal/config"
)

type CLI struct {
	LogLevel string `help:"Log level (debug, info, warn, error). Overrides the config file."`

	Version VersionCmd  `cmd:"" help:"Print version information."`
	Gen     gen.Cmd     `cmd:"" help:"Generate proxy modules for service directories."`
	Check   check.Cmd   `cmd:"" help:"Validate service directories without generating files."`
	Preview preview.Cmd `cmd:"" help:"Serve generated modules over HTTP."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println(Version())
	return nil
}

func main() {
	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("dsgen"),
		kong.Description("Generate JavaScript proxy classes for data services."),
		kong.UsageOnError(),
	)

	level := new(slog.LevelVar)
	if cli.LogLevel != "" {
		level.Set(config.ParseLevel(cli.LogLevel))
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx.BindTo(ctx, (*context.Context)(nil))
	err := kctx.Run(logger, level, gen.ExplicitLevel(cli.LogLevel != ""))
	kctx.FatalIfErrorf(err)
}
