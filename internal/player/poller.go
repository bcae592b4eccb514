package player

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/verseline/verseline/internal/cache"
	"github.com/verseline/verseline/internal/spotify"
)

// playbackKey is the cache key for the playback state.
const playbackKey = "playback:state"

// Errors surfaced to direct callers of PlaybackState.
var (
	// ErrBackingOff means polling is suppressed until the rate-limit window
	// elapses.
	ErrBackingOff = errors.New("polling suppressed during rate-limit backoff")
	// ErrStopped means the poller was torn down.
	ErrStopped = errors.New("poller stopped")
)

// PlaybackClient is the remote player consumed by the poller.
type PlaybackClient interface {
	CurrentPlayback(ctx context.Context) (*spotify.PlaybackState, error)
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Seek(ctx context.Context, positionMs int64) error
}

// Poller is one session's playback scheduler. Construct once per
// authenticated session, Start it, and Stop it on logout. Two pollers must
// never run for the same session at once.
type Poller struct {
	cfg    Config
	client PlaybackClient
	cache  *cache.Cache[*spotify.PlaybackState]
	clock  Clock
	logger *log.Logger

	group singleflight.Group

	mu             sync.Mutex
	state          StateType
	interval       time.Duration
	noChangeCount  int
	rateLimitCount int
	backoffUntil   time.Time
	pushActive     bool
	seq            uint64 // issue-order sequence for fetches and push events
	appliedSeq     uint64 // highest sequence applied so far
	last           *spotify.PlaybackState
	rebasedAt      time.Time // clock time the last state was applied
	userErr        string
	callbacks      []func(*spotify.PlaybackState)

	wake     chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
}

// Option configures a Poller.
type Option func(*Poller)

// WithClock injects a virtual clock.
func WithClock(c Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// New creates a poller. It does not poll until Start is called.
func New(client PlaybackClient, cfg Config, logger *log.Logger, opts ...Option) *Poller {
	if logger == nil {
		logger = log.Default()
	}
	p := &Poller{
		cfg:      cfg,
		client:   client,
		cache:    cache.New[*spotify.PlaybackState](30 * time.Second),
		clock:    systemClock{},
		logger:   logger,
		state:    StateIdle,
		interval: cfg.FastInterval,
		wake:     make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start begins adaptive polling. The first poll happens immediately.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.state != StateIdle {
		p.mu.Unlock()
		return
	}
	p.state = StatePolling
	p.mu.Unlock()

	go p.loop()
}

// Stop tears the session down: the schedule halts, the cache is released,
// and any fetch that completes afterwards is discarded.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.state = StateStopped
		p.mu.Unlock()

		close(p.stopCh)
		p.cache.Close()
		p.logger.Debug("playback poller stopped")
	})
}

// OnUpdate registers a callback invoked after every applied state update,
// whether it arrived by poll or by push.
func (p *Poller) OnUpdate(fn func(*spotify.PlaybackState)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = append(p.callbacks, fn)
}

// State returns the scheduler state.
func (p *Poller) State() StateType {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Current returns the last applied playback state, which may be nil.
func (p *Poller) Current() *spotify.PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// UserError returns the user-facing error message, empty when healthy.
func (p *Poller) UserError() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userErr
}

// Position extrapolates the current track position in ms: the last reported
// progress plus wall-clock elapsed while playing, frozen while paused, and
// re-based on every applied update.
func (p *Poller) Position() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.last == nil || p.last.Track == nil {
		return 0
	}

	pos := p.last.ProgressMs
	if p.last.IsPlaying {
		pos += p.clock.Now().Sub(p.rebasedAt).Milliseconds()
	}
	if d := p.last.Track.DurationMs; d > 0 && pos > d {
		pos = d
	}
	if pos < 0 {
		pos = 0
	}
	return pos
}

// PlaybackState returns the playback state, serving a fresh cached value
// unless bypassCache is set. Concurrent callers share a single in-flight
// fetch. During backoff all fetching is suppressed.
func (p *Poller) PlaybackState(ctx context.Context, bypassCache bool) (*spotify.PlaybackState, error) {
	p.mu.Lock()
	switch p.state {
	case StateStopped:
		p.mu.Unlock()
		return nil, ErrStopped
	case StateBackoff:
		p.mu.Unlock()
		return nil, ErrBackingOff
	}
	p.mu.Unlock()

	if !bypassCache {
		if st, ok := p.cache.Get(playbackKey); ok {
			return st, nil
		}
	}

	st, err := p.fetch(ctx)
	if err != nil {
		p.handleFetchError(err)
		return nil, err
	}
	return st, nil
}

// ApplyPushEvent folds a push-origin state report through the same apply
// path as poll results, so downstream code never distinguishes the two.
func (p *Poller) ApplyPushEvent(st *spotify.PlaybackState) {
	p.apply(st, p.nextSeq(), false)
}

// SetPushActive records whether the low-overhead push channel is available,
// which moves the polling baseline to the backstop tier.
func (p *Poller) SetPushActive(active bool) {
	p.mu.Lock()
	p.pushActive = active
	p.mu.Unlock()
	p.notifyWake()
}

// Controls are fire-and-forget: the next scheduled poll reconciles the
// resulting state, no extra fetch is forced.

// TogglePlayback plays or pauses depending on the last known state.
func (p *Poller) TogglePlayback() {
	st := p.Current()
	playing := st != nil && st.IsPlaying
	p.fireAndForget("toggle playback", func(ctx context.Context) error {
		if playing {
			return p.client.Pause(ctx)
		}
		return p.client.Play(ctx)
	})
}

// SkipNext skips to the next track.
func (p *Poller) SkipNext() {
	p.fireAndForget("skip next", p.client.Next)
}

// SkipPrevious skips to the previous track.
func (p *Poller) SkipPrevious() {
	p.fireAndForget("skip previous", p.client.Previous)
}

// Seek moves the playhead to positionMs.
func (p *Poller) Seek(positionMs int64) {
	p.fireAndForget("seek", func(ctx context.Context) error {
		return p.client.Seek(ctx, positionMs)
	})
}

func (p *Poller) fireAndForget(name string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.FetchTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			p.logger.Warn("playback control failed", "control", name, "error", err)
			if errors.Is(err, spotify.ErrUnauthorized) {
				p.handleFetchError(err)
			}
		}
	}()
}

// loop runs the schedule until Stop. It polls once on entry so the first
// state arrives without waiting out a full interval.
func (p *Poller) loop() {
	p.pollOnce()
	for {
		p.mu.Lock()
		var wait time.Duration
		switch p.state {
		case StatePolling:
			wait = p.interval
		case StateBackoff:
			wait = p.backoffUntil.Sub(p.clock.Now()) + p.cfg.BackoffGrace
		default:
			// Idle after a fatal auth failure: park until teardown.
			p.mu.Unlock()
			<-p.stopCh
			return
		}
		p.mu.Unlock()
		if wait < 0 {
			wait = 0
		}

		select {
		case <-p.stopCh:
			return
		case <-p.wake:
			// Schedule inputs changed; recompute the wait.
			continue
		case <-p.clock.After(wait):
		}

		p.mu.Lock()
		if p.state == StateBackoff {
			if p.clock.Now().Before(p.backoffUntil) {
				p.mu.Unlock()
				continue
			}
			// Resume at the maximum tier, never the pre-backoff one.
			p.state = StatePolling
			p.interval = p.cfg.MaxInterval
			p.noChangeCount = 0
			p.logger.Info("rate-limit backoff elapsed, resuming polls", "interval", p.interval)
		}
		if p.state != StatePolling {
			p.mu.Unlock()
			continue
		}
		p.mu.Unlock()

		p.pollOnce()
	}
}

func (p *Poller) pollOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.FetchTimeout)
	defer cancel()

	if _, err := p.fetch(ctx); err != nil {
		p.handleFetchError(err)
	}
}

// fetch performs (or attaches to) the single in-flight remote fetch and
// applies its result in issue order.
func (p *Poller) fetch(ctx context.Context) (*spotify.PlaybackState, error) {
	type flight struct {
		state *spotify.PlaybackState
		seq   uint64
	}

	v, err, _ := p.group.Do(playbackKey, func() (interface{}, error) {
		seq := p.nextSeq()
		st, err := p.client.CurrentPlayback(ctx)
		if err != nil {
			return nil, err
		}
		return flight{state: st, seq: seq}, nil
	})
	if err != nil {
		return nil, err
	}

	f := v.(flight)
	p.apply(f.state, f.seq, true)
	return f.state, nil
}

// apply is the single state-update path for poll and push origins. Results
// older than the last applied sequence are dropped, so completions always
// land in issue order.
func (p *Poller) apply(st *spotify.PlaybackState, seq uint64, fromFetch bool) {
	p.mu.Lock()
	if p.state == StateStopped || seq <= p.appliedSeq {
		p.mu.Unlock()
		return
	}
	p.appliedSeq = seq

	kind := classifyChange(p.last, st)
	playing := st != nil && st.IsPlaying
	p.interval, p.noChangeCount = p.cfg.nextInterval(p.interval, kind, playing, p.pushActive, p.noChangeCount)
	p.last = st
	p.rebasedAt = p.clock.Now()
	if fromFetch {
		p.rateLimitCount = 0
	}
	p.userErr = ""

	// Written under p.mu so a completion racing Stop cannot slip an entry
	// into the released cache after the stopped check above.
	p.cache.Set(playbackKey, st, p.cfg.StateTTL)

	callbacks := make([]func(*spotify.PlaybackState), len(p.callbacks))
	copy(callbacks, p.callbacks)
	interval := p.interval
	p.mu.Unlock()

	p.logger.Debug("playback state applied",
		"change", kind, "playing", playing, "interval", interval, "seq", seq)

	for _, cb := range callbacks {
		cb(st)
	}
	p.notifyWake()
}

func (p *Poller) handleFetchError(err error) {
	var rl *spotify.RateLimitError
	switch {
	case errors.Is(err, spotify.ErrUnauthorized):
		p.mu.Lock()
		p.state = StateIdle
		p.userErr = "session expired — please re-authenticate"
		p.mu.Unlock()
		p.logger.Error("playback session expired, polling halted", "error", err)
		p.notifyWake()

	case errors.As(err, &rl):
		p.enterBackoff(rl.RetryAfter)

	default:
		// Transient network/server failure: keep the schedule, retry on the
		// next regular tick.
		p.logger.Warn("playback fetch failed, retrying on next tick", "error", err)
	}
}

func (p *Poller) enterBackoff(retryAfter time.Duration) {
	p.mu.Lock()
	p.rateLimitCount++

	var jitter time.Duration
	if p.cfg.BackoffJitterMax > 0 {
		jitter = time.Duration(rand.Int63n(int64(p.cfg.BackoffJitterMax))) //nolint:gosec
	}

	delay := p.cfg.backoffDelay(retryAfter, p.rateLimitCount, jitter)
	p.state = StateBackoff
	p.backoffUntil = p.clock.Now().Add(delay)
	p.userErr = "rate limited by the player, updates paused"
	count := p.rateLimitCount
	p.mu.Unlock()

	// A stale cached state must not mask the refresh needed after the
	// window elapses.
	p.cache.InvalidateByPrefix("playback:")

	p.logger.Warn("entering rate-limit backoff", "delay", delay, "consecutive", count)
	p.notifyWake()
}

func (p *Poller) nextSeq() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	return p.seq
}

func (p *Poller) notifyWake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}
