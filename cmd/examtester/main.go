package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/examtester/internal/cli"
	"github.com/stemsi/examtester/internal/config"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Cancel on Ctrl-C ──────────────────────────────────────────────
	// A running attempt pauses and saves its remaining time.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ─── Run Command ───────────────────────────────────────────────────
	// Logger and session store are built once flags are parsed.
	if err := cli.Execute(ctx, cli.Options{Config: cfg}, nil); err != nil {
		stop()
		os.Exit(1)
	}
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
