package boutsim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/elo/pkg/logger"
)

const (
	directoryPermission = 0o750
	percentMultiplier   = 100
)

// Run executes a complete simulation and returns its statistics.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	cfg.withDefaults()
	log := logger.Get()
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting bout simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("competitors", cfg.Competitors),
		logger.Int("bouts", cfg.Bouts),
		logger.Int("workers", cfg.Workers),
		logger.Float64("spread", cfg.Spread),
		logger.Float64("tieRate", cfg.TieRate),
		logger.Bool("sync", cfg.Sync))

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)
	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	rng := newRand(cfg.Seed)
	comps := generateCompetitors(ctx, cfg.Competitors, cfg.Spread, rng)
	bouts := generateBouts(ctx, cfg, comps, rng, stats)

	if err := registerCompetitors(ctx, cfg, client, comps, stats); err != nil {
		return stats, fmt.Errorf("competitor registration failed: %w", err)
	}
	if err := submitBouts(ctx, cfg, client, bouts, stats); err != nil {
		return stats, fmt.Errorf("bout submission failed: %w", err)
	}

	if !cfg.Sync {
		log.Info(ctx, "waiting for queued bouts to be rated")
		if err := waitForDrain(ctx, cfg, client); err != nil {
			return stats, fmt.Errorf("queue drain failed: %w", err)
		}
		// Bouts already dequeued may still be in flight.
		time.Sleep(drainPollInterval)
	}

	leaderboard, err := getLeaderboard(ctx, client, min(cfg.TopN, cfg.Competitors), stats)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}
	if err := verifyLeaderboardOrder(leaderboard); err != nil {
		return stats, fmt.Errorf("leaderboard verification failed: %w", err)
	}

	strengths := make(map[string]float64, len(comps))
	for _, c := range comps {
		strengths[c.ID] = c.Strength
	}
	rho, err := rankCorrelation(leaderboard, strengths)
	if err != nil && !errors.Is(err, errTooFewEntries) {
		return stats, err
	}
	stats.RankCorrelation = rho

	if cfg.OutputFile != "" {
		if err := saveRun(ctx, cfg.OutputFile, comps, bouts); err != nil {
			log.Warn(ctx, "failed to save run", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)
	return stats, nil
}

// saveRun writes the competitors with their hidden strengths and the
// generated bouts as one JSON document.
func saveRun(ctx context.Context, filename string, comps []Competitor, bouts []Bout) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = file.Close() }()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	doc := struct {
		Competitors []Competitor `json:"competitors"`
		Bouts       []Bout       `json:"bouts"`
	}{comps, bouts}
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write run: %w", err)
	}

	logger.Get().Info(ctx, "run saved to file", logger.String("filename", filename))
	return nil
}

func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, boutsPerSecond float64
	if stats.BoutsSubmitted > 0 {
		successRate = float64(stats.BoutsSuccessful) / float64(stats.BoutsSubmitted) * percentMultiplier
	}
	if stats.Duration > 0 {
		boutsPerSecond = float64(stats.BoutsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("competitorsCreated", stats.CompetitorsCreated),
		logger.Int("boutsGenerated", stats.BoutsGenerated),
		logger.Int("boutsSuccessful", stats.BoutsSuccessful),
		logger.Int("boutsDuplicate", stats.BoutsDuplicate),
		logger.Int("boutsFailed", stats.BoutsFailed),
		logger.Int("ties", stats.Ties),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Float64("rankCorrelation", stats.RankCorrelation),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("boutsPerSecond", boutsPerSecond))
}
