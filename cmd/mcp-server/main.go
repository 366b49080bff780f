// Command mcp-server serves the vector store tool set and the customer
// policies resource over stdin/stdout. Logs go to stderr; stdout carries only
// protocol lines.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/light-autom8/mcp-server-go/internal/app"
	"github.com/light-autom8/mcp-server-go/internal/config"
	"github.com/light-autom8/mcp-server-go/internal/logctx"
	"github.com/light-autom8/mcp-server-go/stdio"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mcp-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logctx.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("mcp-server.close", slog.String("err", err.Error()))
		}
	}()

	h := stdio.NewHandler(a.Engine, stdio.WithLogger(log))
	if err := h.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("mcp-server.stopped")
	return nil
}
