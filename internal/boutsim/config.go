// Package boutsim drives a running rating service with synthetic bouts and
// checks that the resulting leaderboard recovers the hidden skill order.
package boutsim

import "time"

// HTTP status code constants.
const (
	StatusOK       = 200
	StatusCreated  = 201
	StatusAccepted = 202
	StatusConflict = 409
)

// Simulation defaults.
const (
	DefaultCompetitors = 50
	DefaultBouts       = 20_000
	DefaultSpread      = 200.0
	DefaultBaseRating  = 400.0
	DefaultTopN        = 50

	workerChannelMultiplier = 2
	drainPollInterval       = 100 * time.Millisecond
	defaultDrainTimeout     = time.Minute
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL      string        // Base URL of the service
	Competitors  int           // Number of synthetic competitors
	Bouts        int           // Number of bouts to submit
	TopN         int           // Leaderboard entries to fetch (capped by the server limit)
	Workers      int           // Concurrent HTTP workers
	Timeout      time.Duration // HTTP request timeout
	DrainTimeout time.Duration // How long to wait for the bout queue to empty
	Spread       float64       // Standard deviation of hidden strengths
	BaseRating   float64       // Logistic scale used to sample outcomes
	TieRate      float64       // Probability in [0,1) that a bout is a tie
	Seed         uint64        // Seed for strengths and outcomes
	Sync         bool          // Rate bouts synchronously (POST /bouts?sync=true)
	OutputFile   string        // Optional JSON dump of the generated bouts
	Verbose      bool          // Log every failed request
}

// Competitor is a synthetic competitor with a hidden true strength.
type Competitor struct {
	ID       string  `json:"id"`
	Strength float64 `json:"strength"`
}

// Bout is the request body of POST /bouts.
type Bout struct {
	BoutID      string `json:"bout_id"`
	CompetitorA string `json:"competitor_a"`
	CompetitorB string `json:"competitor_b"`
	Outcome     string `json:"outcome"`
	TS          string `json:"ts,omitempty"`
}

// Entry is a leaderboard row as returned by the service.
type Entry struct {
	Rank         int     `json:"rank"`
	CompetitorID string  `json:"competitor_id"`
	Rating       float64 `json:"rating"`
}

// AckResponse is the response body of POST /bouts.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats holds run statistics.
type Stats struct {
	CompetitorsCreated int
	CompetitorsExisted int
	CompetitorsFailed  int
	BoutsGenerated     int
	BoutsSubmitted     int
	BoutsSuccessful    int
	BoutsDuplicate     int
	BoutsFailed        int
	Ties               int
	LeaderboardEntries int
	RankCorrelation    float64
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}

func (c *Config) withDefaults() {
	if c.Competitors < 2 {
		c.Competitors = DefaultCompetitors
	}
	if c.Bouts < 1 {
		c.Bouts = DefaultBouts
	}
	if c.TopN < 1 {
		c.TopN = DefaultTopN
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = defaultDrainTimeout
	}
	if c.Spread <= 0 {
		c.Spread = DefaultSpread
	}
	if c.BaseRating <= 0 {
		c.BaseRating = DefaultBaseRating
	}
	if c.TieRate < 0 || c.TieRate >= 1 {
		c.TieRate = 0
	}
}
