// Command backtest replays a synthetic ITCH-like CSV event stream through a
// deterministic, single-threaded market-making pipeline and reports
// per-stage latency.
//
// Architecture:
//
//	main.go                — entry point: parses flags, loads the replay, runs the engine, writes dumps
//	internal/config        — CLI flags (pflag) + optional YAML overlay (viper)
//	internal/replay        — CSV replay loader
//	internal/lob           — pooled, index-linked limit order book
//	internal/signal        — heuristic queue-reactive quoter
//	internal/stoch         — OU parameter fit + Avellaneda-Stoikov quoter ("avs" mode)
//	internal/risk          — inventory/throttle/kill gate
//	internal/pnl           — inventory + realized PnL accumulator
//	internal/engine        — orchestrates the above, one event at a time
//	internal/timing        — per-stage latency sample buffers + percentile summary
//	internal/histogram     — fixed-edge microsecond latency histograms
//	internal/output        — results/latency/histogram CSV writers
//	internal/affinity      — best-effort core pinning
//	internal/nomalloc      — allocation tripwire armed once warmup completes
package main

import (
	"fmt"
	"log/slog"
	"os"

	"mm-backtest/internal/affinity"
	"mm-backtest/internal/config"
	"mm-backtest/internal/engine"
	"mm-backtest/internal/output"
	"mm-backtest/internal/replay"
	"mm-backtest/internal/risk"
)

// Exit codes mirror the original harness's contract exactly: scripts that
// drive this binary key off these values.
const (
	exitOK          = 0
	exitBadArgs     = 2
	exitReplayError = 3
	exitOutputError = 4
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.ParseFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitBadArgs
	}

	if cfg.Core >= 0 {
		info, err := affinity.PinToCore(cfg.Core)
		if err != nil {
			logger.Warn("core pin failed", "error", err)
		}
		fmt.Fprintf(os.Stderr, "[pin] %s\n", info)
	}

	events, err := replay.LoadCSV(cfg.Replay, cfg.MaxMsgs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay load error: %s\n", err)
		return exitReplayError
	}

	gate := risk.NewGate(logger)
	eng := engine.New(cfg, gate)

	result, err := eng.Run(events)
	if err != nil {
		logger.Error("run failed", "error", err)
		return exitOutputError
	}

	if err := output.WriteResultsCSV(cfg.Results, result.Rows); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitOutputError
	}
	if err := output.WriteLatencyCSV(cfg.Latency, result.Timers, cfg.Warmup, result.Processed); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitOutputError
	}
	if err := output.WriteHistogramCSV(cfg.Histo, result.Histograms); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitOutputError
	}

	fmt.Printf("End-to-end latency (post-warmup): p50=%.2f us p99=%.2f us\n", result.E2E.P50, result.E2E.P99)
	return exitOK
}
