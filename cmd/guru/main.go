package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mitchellh/cli"

	guruCLI "github.com/sakif/snippets-guru/internal/cli"
	"github.com/sakif/snippets-guru/internal/config"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	// Logs go to stderr so command output stays pipeable.
	logger := cfg.NewLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := guruCLI.NewApp(ctx, cfg, logger, guruCLI.Options{})
	if err != nil {
		logger.Error("failed to start", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close", slog.String("error", err.Error()))
		}
	}()

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	c := &cli.CLI{
		Name:     "guru",
		Args:     args[1:],
		Commands: guruCLI.Commands(app, ui),
	}

	exitCode, err := c.Run()
	if err != nil {
		logger.Error("command failed", slog.String("error", err.Error()))
		return 1
	}
	return exitCode
}
