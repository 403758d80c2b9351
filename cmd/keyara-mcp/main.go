// Command keyara-mcp serves the Keyara tools over MCP on stdio.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/sweetpotato0/keyara/config"
	"github.com/sweetpotato0/keyara/internal/bootstrap"
	"github.com/sweetpotato0/keyara/mcp"
	"github.com/sweetpotato0/keyara/pkg/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "keyara-mcp:", err)
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

	// stdout carries the protocol.
	app, err := bootstrap.New(ctx, cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close(context.Background())

	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		app.Logger.Debug(fmt.Sprintf(format, args...))
	}))
	defer undo()
	if err != nil {
		app.Logger.Warn("failed to set GOMAXPROCS", "error", err)
	}

	server := mcp.NewServer(mcp.NewTools(app.Generator, app.Chain), mcp.Info{
		Name:    "keyara",
		Title:   "Keyara rental assistant",
		Version: version.BuildVersion,
	})
	return server.Run(ctx, &sdkmcp.StdioTransport{})
}
