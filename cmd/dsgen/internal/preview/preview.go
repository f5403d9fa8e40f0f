package preview

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	handler "github.com/broady/dsgen/internal/preview"
	"github.com/broady/dsgen/javascript"
)

type Cmd struct {
	Root string `arg:"" optional:"" help:"Directory holding the service directories." default:"." type:"existingdir"`
	Addr string `help:"Address to listen on." default:"localhost:9000"`
	ESM  bool   `help:"Emit ES modules (export default) instead of CommonJS." name:"esm"`

	AllowOrigin []string `help:"Origins allowed to fetch modules from a browser (* for any)."`
}

func (c *Cmd) Run(ctx context.Context, logger *slog.Logger) error {
	cfg := javascript.DefaultConfig()
	if c.ESM {
		cfg.ModuleStyle = "esm"
	}

	h := handler.New(os.DirFS(c.Root), javascript.New(cfg), logger)
	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           handler.Logging(logger)(handler.CORS(c.AllowOrigin...)(h)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("preview listening", slog.String("addr", "http://"+c.Addr), slog.String("root", c.Root))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
