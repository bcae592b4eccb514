package player

import "time"

// Config holds the scheduler's tunables. The numbers are defaults, not
// contracts; only their ordering matters (the fast tier is shorter than the
// steady tiers, backoff never shrinks below its floor, and everything stays
// inside the min/max envelope).
type Config struct {
	// Polling tiers.
	FastInterval     time.Duration // right after a detected track change
	PlayingInterval  time.Duration // steady state while playing
	PausedInterval   time.Duration // steady state while paused
	NoDeviceInterval time.Duration // no active device on the account
	PushInterval     time.Duration // baseline when a push channel is active

	// Global clamp applied to every tier.
	MinInterval time.Duration
	MaxInterval time.Duration

	// No-change growth: after NoChangeThreshold identical polls the interval
	// is multiplied by NoChangeFactor, capped per tier.
	NoChangeThreshold int
	NoChangeFactor    float64
	PlayingGrowthCap  time.Duration
	PausedGrowthCap   time.Duration

	// Rate-limit backoff.
	BackoffFloor     time.Duration
	BackoffCeiling   time.Duration
	BackoffJitterMax time.Duration
	BackoffGrace     time.Duration // extra wait after the window elapses

	// StateTTL is how long a fetched playback state stays cached.
	StateTTL time.Duration

	// FetchTimeout bounds a single remote fetch.
	FetchTimeout time.Duration
}

// DefaultConfig returns the default scheduler tuning.
func DefaultConfig() Config {
	return Config{
		FastInterval:     2 * time.Second,
		PlayingInterval:  5 * time.Second,
		PausedInterval:   15 * time.Second,
		NoDeviceInterval: 30 * time.Second,
		PushInterval:     30 * time.Second,

		MinInterval: time.Second,
		MaxInterval: 60 * time.Second,

		NoChangeThreshold: 3,
		NoChangeFactor:    1.5,
		PlayingGrowthCap:  15 * time.Second,
		PausedGrowthCap:   60 * time.Second,

		BackoffFloor:     30 * time.Second,
		BackoffCeiling:   5 * time.Minute,
		BackoffJitterMax: 5 * time.Second,
		BackoffGrace:     2 * time.Second,

		StateTTL:     4 * time.Second,
		FetchTimeout: 15 * time.Second,
	}
}
