package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/elo/internal/boutsim"
	"github.com/okian/elo/pkg/logger"
)

// Default configuration constants.
const (
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultDrain      = time.Minute
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL        = flag.String("url", "http://localhost:9080", "Base URL of the service")
		competitors    = flag.Int("competitors", boutsim.DefaultCompetitors, "Number of competitors")
		bouts          = flag.Int("bouts", boutsim.DefaultBouts, "Number of bouts")
		topN           = flag.Int("top", boutsim.DefaultTopN, "Leaderboard entries to compare")
		workers        = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent HTTP workers")
		spread         = flag.Float64("spread", boutsim.DefaultSpread, "Standard deviation of hidden strengths")
		base           = flag.Float64("base", boutsim.DefaultBaseRating, "Logistic scale used to sample outcomes")
		ties           = flag.Float64("ties", 0, "Probability a bout is a tie")
		seed           = flag.Uint64("seed", 0, "Seed for strengths and outcomes, 0 for random")
		syncMode       = flag.Bool("sync", false, "Rate bouts synchronously")
		timeout        = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		drain          = flag.Duration("drain", defaultDrain, "Max wait for the bout queue to empty")
		minCorrelation = flag.Float64("min-correlation", 0, "Exit non-zero below this rank correlation")
		outputFile     = flag.String("output", "", "Write competitors and bouts as JSON")
		logFile        = flag.String("log", "", "Also append logs to this file")
		logFormat      = flag.String("log-format", "text", "text or json")
		verbose        = flag.Bool("verbose", false, "Log every failed request")
		help           = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		boutsim.ShowHelp(os.Stdout)
		return
	}

	closeLog, err := boutsim.SetupLogging(*logFile, *logFormat)
	if err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closeLog()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	stats, err := boutsim.Run(ctx, &boutsim.Config{
		BaseURL:      *baseURL,
		Competitors:  *competitors,
		Bouts:        *bouts,
		TopN:         *topN,
		Workers:      *workers,
		Timeout:      *timeout,
		DrainTimeout: *drain,
		Spread:       *spread,
		BaseRating:   *base,
		TieRate:      *ties,
		Seed:         *seed,
		Sync:         *syncMode,
		OutputFile:   *outputFile,
		Verbose:      *verbose,
	})
	if err != nil {
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		closeLog()
		os.Exit(1)
	}

	if stats.RankCorrelation < *minCorrelation {
		logger.Get().Error(ctx, "rank correlation below threshold",
			logger.Float64("got", stats.RankCorrelation),
			logger.Float64("want", *minCorrelation))
		closeLog()
		os.Exit(1)
	}
}
