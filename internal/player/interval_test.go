package player

import (
	"testing"
	"time"

	"github.com/verseline/verseline/internal/spotify"
)

func playbackState(trackID string, playing bool) *spotify.PlaybackState {
	return &spotify.PlaybackState{
		IsPlaying: playing,
		Track:     &spotify.Track{ID: trackID, Name: "t", DurationMs: 180000},
	}
}

func TestDefaultConfig_TierOrdering(t *testing.T) {
	cfg := DefaultConfig()

	// Relative ordering is the contract, not the literals.
	if cfg.FastInterval >= cfg.PlayingInterval {
		t.Error("track-change tier must be faster than the playing tier")
	}
	if cfg.PlayingInterval >= cfg.PausedInterval {
		t.Error("playing tier must be faster than the paused tier")
	}
	if cfg.PausedInterval > cfg.NoDeviceInterval {
		t.Error("paused tier must not be slower than the no-device tier")
	}
	if cfg.PushInterval <= cfg.PlayingInterval {
		t.Error("push-backstop baseline must be slower than poll-only playing cadence")
	}
	if cfg.MinInterval > cfg.FastInterval || cfg.MaxInterval < cfg.NoDeviceInterval {
		t.Error("tiers must fit the min/max envelope")
	}
}

func TestClassifyChange(t *testing.T) {
	a := playbackState("a", true)
	aPaused := playbackState("a", false)
	b := playbackState("b", true)

	cases := []struct {
		name      string
		prev, cur *spotify.PlaybackState
		want      changeKind
	}{
		{"no device", a, nil, changeNoDevice},
		{"first observation", nil, a, changeTrack},
		{"track change", a, b, changeTrack},
		{"pause", a, aPaused, changePlayState},
		{"resume", aPaused, a, changePlayState},
		{"steady", a, playbackState("a", true), changeNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyChange(tc.prev, tc.cur); got != tc.want {
				t.Errorf("classifyChange = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNextInterval_ChangeTiers(t *testing.T) {
	cfg := DefaultConfig()

	if got, n := cfg.nextInterval(cfg.PausedInterval, changeTrack, true, false, 2); got != cfg.FastInterval || n != 0 {
		t.Errorf("track change: (%s, %d), want (%s, 0)", got, n, cfg.FastInterval)
	}
	if got, _ := cfg.nextInterval(cfg.FastInterval, changePlayState, true, false, 0); got != cfg.PlayingInterval {
		t.Errorf("resume: %s, want %s", got, cfg.PlayingInterval)
	}
	if got, _ := cfg.nextInterval(cfg.FastInterval, changePlayState, false, false, 0); got != cfg.PausedInterval {
		t.Errorf("pause: %s, want %s", got, cfg.PausedInterval)
	}
	if got, _ := cfg.nextInterval(cfg.FastInterval, changeNoDevice, false, false, 0); got != cfg.NoDeviceInterval {
		t.Errorf("no device: %s, want %s", got, cfg.NoDeviceInterval)
	}
	if got, _ := cfg.nextInterval(cfg.FastInterval, changePlayState, true, true, 0); got != cfg.PushInterval {
		t.Errorf("push active: %s, want push baseline %s", got, cfg.PushInterval)
	}
}

func TestNextInterval_NoChangeGrowth(t *testing.T) {
	cfg := DefaultConfig()

	interval := cfg.PlayingInterval
	count := 0

	// Below the threshold nothing changes but the counter.
	for i := 1; i < cfg.NoChangeThreshold; i++ {
		var next time.Duration
		next, count = cfg.nextInterval(interval, changeNone, true, false, count)
		if next != interval {
			t.Fatalf("poll %d: interval changed to %s before threshold", i, next)
		}
		if count != i {
			t.Fatalf("poll %d: counter = %d, want %d", i, count, i)
		}
	}

	// At the threshold the interval grows and the counter resets.
	grown, count := cfg.nextInterval(interval, changeNone, true, false, count)
	if grown <= interval {
		t.Errorf("interval did not grow at threshold: %s", grown)
	}
	if count != 0 {
		t.Errorf("counter = %d after growth, want 0", count)
	}

	// Growth is capped by the playing tier's cap.
	capped, _ := cfg.nextInterval(cfg.PlayingGrowthCap, changeNone, true, false, cfg.NoChangeThreshold)
	if capped > cfg.PlayingGrowthCap {
		t.Errorf("interval %s exceeded the playing growth cap %s", capped, cfg.PlayingGrowthCap)
	}
}

func TestNextInterval_Clamped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FastInterval = cfg.MinInterval / 10

	if got, _ := cfg.nextInterval(cfg.MaxInterval, changeTrack, true, false, 0); got < cfg.MinInterval {
		t.Errorf("interval %s below the global minimum", got)
	}

	cfg = DefaultConfig()
	cfg.PausedGrowthCap = cfg.MaxInterval * 10
	if got, _ := cfg.nextInterval(cfg.MaxInterval, changeNone, false, false, cfg.NoChangeThreshold); got > cfg.MaxInterval {
		t.Errorf("interval %s above the global maximum", got)
	}
}

func TestBackoffDelay_FloorDominatesShortHint(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BackoffFloor = 30 * time.Second

	// Suggested wait of 5s with a 30s floor yields 30s.
	if got := cfg.backoffDelay(5*time.Second, 1, 0); got != 30*time.Second {
		t.Errorf("backoff = %s, want 30s (floor wins)", got)
	}

	// A hint above the floor is honored as-is.
	if got := cfg.backoffDelay(90*time.Second, 1, 0); got != 90*time.Second {
		t.Errorf("backoff = %s, want 90s (server hint wins)", got)
	}
}

func TestBackoffDelay_MonotonicGrowth(t *testing.T) {
	cfg := DefaultConfig()

	prev := time.Duration(0)
	for consecutive := 1; consecutive <= 10; consecutive++ {
		delay := cfg.backoffDelay(0, consecutive, 0)
		if delay < prev {
			t.Fatalf("backoff decreased at count %d: %s < %s", consecutive, delay, prev)
		}
		if delay < cfg.BackoffFloor {
			t.Fatalf("backoff %s below floor at count %d", delay, consecutive)
		}
		if delay > cfg.BackoffCeiling {
			t.Fatalf("backoff %s above ceiling at count %d", delay, consecutive)
		}
		prev = delay
	}

	if prev != cfg.BackoffCeiling {
		t.Errorf("repeated rate limits should reach the ceiling, got %s", prev)
	}
}

func TestBackoffDelay_JitterBounded(t *testing.T) {
	cfg := DefaultConfig()

	base := cfg.backoffDelay(0, 1, 0)
	jittered := cfg.backoffDelay(0, 1, cfg.BackoffJitterMax)
	if jittered < base || jittered > base+cfg.BackoffJitterMax {
		t.Errorf("jittered backoff %s outside [%s, %s]", jittered, base, base+cfg.BackoffJitterMax)
	}
}
