package ui

import (
	"time"

	"github.com/verseline/verseline/internal/player"
)

// Config contains TUI-specific configuration.
type Config struct {
	// Credential for the playback API, usually injected via environment.
	Token string `env:"VERSELINE_SPOTIFY_TOKEN"`

	// Optional secondary lyrics provider key.
	MusixmatchAPIKey string `env:"VERSELINE_MUSIXMATCH_API_KEY"`

	// For debugging the UI
	Debug   bool   `env:"VERSELINE_DEBUG"`
	LogFile string `env:"VERSELINE_LOGFILE"`
	HomeDir string `env:"HOME"`

	// RefreshRate is the display tick driving position extrapolation and
	// lyric resolution.
	RefreshRate time.Duration

	// SyncOffset shifts lyric timing relative to the reported position.
	SyncOffset time.Duration

	// Poller carries the scheduler tuning loaded from the config file.
	Poller player.Config
}
