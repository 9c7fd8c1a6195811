package boutsim

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/elo/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging initializes the global logger. When logFile is set, records
// are written to stdout and appended to the file. The returned func closes
// the file.
func SetupLogging(logFile, format string) (func(), error) {
	if logFile == "" {
		if err := logger.Init(logger.WithFormat(format)); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		return func() {}, nil
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithFormat(format), logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return func() { _ = file.Close() }, nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Elo Bout Simulator
==================

Registers synthetic competitors with hidden strengths, submits bouts whose
outcomes follow the Elo expected score of those strengths, then compares
the service leaderboard with the hidden order (Spearman rank correlation).

Usage:
  go run ./cmd/boutsim [options]

Options:
  -url string         Base URL of the service (default "http://localhost:9080")
  -competitors int    Number of competitors (default 50)
  -bouts int          Number of bouts (default 20000)
  -top int            Leaderboard entries to compare (default 50)
  -workers int        Concurrent HTTP workers (default CPU cores * 2)
  -spread float       Standard deviation of hidden strengths (default 200)
  -base float         Logistic scale used to sample outcomes (default 400)
  -ties float         Probability a bout is a tie (default 0)
  -seed uint          Seed for strengths and outcomes, 0 for random
  -sync               Rate bouts synchronously
  -timeout duration   HTTP request timeout (default 30s)
  -drain duration     Max wait for the bout queue to empty (default 1m)
  -min-correlation    Exit non-zero below this rank correlation (default 0)
  -output string      Write competitors and bouts as JSON
  -log string         Also append logs to this file
  -log-format string  text or json (default "text")
  -verbose            Log every failed request
  -help               Show this help message

Examples:
  go run ./cmd/boutsim -competitors 100 -bouts 50000 -top 100
  go run ./cmd/boutsim -seed 42 -sync -min-correlation 0.8
`)
}
