package player

import (
	"time"

	"github.com/verseline/verseline/internal/spotify"
)

// changeKind classifies what one poll result changed relative to the
// previous one.
type changeKind int

const (
	changeNone changeKind = iota
	changeTrack
	changePlayState
	changeNoDevice
)

func (k changeKind) String() string {
	switch k {
	case changeTrack:
		return "track"
	case changePlayState:
		return "play-state"
	case changeNoDevice:
		return "no-device"
	default:
		return "none"
	}
}

// classifyChange compares two consecutive playback reports.
func classifyChange(prev, cur *spotify.PlaybackState) changeKind {
	if cur == nil || cur.Track == nil {
		return changeNoDevice
	}
	if prev == nil || prev.Track == nil || prev.Track.ID != cur.Track.ID {
		return changeTrack
	}
	if prev.IsPlaying != cur.IsPlaying {
		return changePlayState
	}
	return changeNone
}

// clamp keeps an interval inside the global envelope.
func (c Config) clamp(d time.Duration) time.Duration {
	if d < c.MinInterval {
		return c.MinInterval
	}
	if d > c.MaxInterval {
		return c.MaxInterval
	}
	return d
}

// baseline selects the steady-state tier. A push channel carries change
// notifications itself, so polling only backstops it at a larger interval.
func (c Config) baseline(playing, pushActive bool) time.Duration {
	if pushActive {
		return c.PushInterval
	}
	if playing {
		return c.PlayingInterval
	}
	return c.PausedInterval
}

func (c Config) growthCap(playing bool) time.Duration {
	if playing {
		return c.PlayingGrowthCap
	}
	return c.PausedGrowthCap
}

// nextInterval computes the cadence after one applied poll result. It is a
// pure function so the policy table can be asserted without timers. Returns
// the new interval and the new no-change counter.
func (c Config) nextInterval(cur time.Duration, kind changeKind, playing, pushActive bool, noChange int) (time.Duration, int) {
	switch kind {
	case changeTrack:
		return c.clamp(c.FastInterval), 0
	case changePlayState:
		return c.clamp(c.baseline(playing, pushActive)), 0
	case changeNoDevice:
		return c.clamp(c.NoDeviceInterval), 0
	}

	noChange++
	if noChange < c.NoChangeThreshold {
		return c.clamp(cur), noChange
	}

	// Enough identical polls: slow down, then start counting again.
	grown := time.Duration(float64(cur) * c.NoChangeFactor)
	if limit := c.growthCap(playing); grown > limit {
		grown = limit
	}
	return c.clamp(grown), 0
}

// backoffDelay computes the rate-limit backoff window. A server-suggested
// wait is honored but never below the floor; without a hint the delay grows
// exponentially with the consecutive rate-limit count, plus jitter, capped
// at the ceiling.
func (c Config) backoffDelay(retryAfter time.Duration, consecutive int, jitter time.Duration) time.Duration {
	if retryAfter > 0 {
		if retryAfter < c.BackoffFloor {
			return c.BackoffFloor
		}
		return retryAfter
	}

	delay := c.BackoffFloor
	for i := 1; i < consecutive; i++ {
		delay *= 2
		if delay >= c.BackoffCeiling {
			return c.BackoffCeiling
		}
	}

	delay += jitter
	if delay > c.BackoffCeiling {
		delay = c.BackoffCeiling
	}
	return delay
}
