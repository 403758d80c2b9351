// Command keyara serves the Keyara rental assistant over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/sweetpotato0/keyara/config"
	"github.com/sweetpotato0/keyara/internal/bootstrap"
	"github.com/sweetpotato0/keyara/pkg/metrics"
	"github.com/sweetpotato0/keyara/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "keyara:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	app, err := bootstrap.New(ctx, cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		app.Logger.Info(fmt.Sprintf(format, args...))
	}))
	defer undo()
	if err != nil {
		app.Logger.Warn("failed to set GOMAXPROCS", "error", err)
	}

	srv := server.New(app.Generator,
		server.WithChain(app.Chain),
		server.WithMetrics(app.Metrics, metrics.Handler()),
		server.WithAllowedOrigins(cfg.AllowedOrigins...),
		server.WithShutdownTimeout(cfg.ShutdownTimeout),
	)
	return srv.Run(ctx, cfg.Addr())
}
