// Package main provides the entry point for the verseline CLI application.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/verseline/verseline/internal/auth"
	"github.com/verseline/verseline/internal/lyrics"
	"github.com/verseline/verseline/internal/player"
	"github.com/verseline/verseline/internal/spotify"
	"github.com/verseline/verseline/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile  string
	refreshRate time.Duration
	syncOffset  time.Duration

	rootCmd = &cobra.Command{
		Use:   "verseline",
		Short: "Word-synced lyrics for your terminal",
		Long: paragraph(
			fmt.Sprintf("\nFollow %s for whatever is playing, right in your terminal.", keyword("word-synced lyrics")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: func(*cobra.Command, []string) error {
			return runTUI()
		},
	}
)

func validateOptions(cmd *cobra.Command) error {
	// grab config values from Viper
	refreshRate = viper.GetDuration("refresh-rate")
	syncOffset = viper.GetDuration("sync-offset")

	if refreshRate <= 0 {
		return errors.New("refresh-rate must be positive")
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) && !cmd.Flags().Changed("refresh-rate") {
		// Without a TTY there is no point rendering fast.
		refreshRate = time.Second
	}
	return nil
}

func pollerConfig() player.Config {
	cfg := player.DefaultConfig()
	if d := viper.GetDuration("poll.playing"); d > 0 {
		cfg.PlayingInterval = d
	}
	if d := viper.GetDuration("poll.paused"); d > 0 {
		cfg.PausedInterval = d
	}
	if d := viper.GetDuration("poll.no-device"); d > 0 {
		cfg.NoDeviceInterval = d
	}
	if d := viper.GetDuration("poll.min"); d > 0 {
		cfg.MinInterval = d
	}
	if d := viper.GetDuration("poll.max"); d > 0 {
		cfg.MaxInterval = d
	}
	return cfg
}

func runTUI() error {
	// Read environment to get credentials and debugging stuff.
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	if cfg.Token == "" {
		cfg.Token = viper.GetString("token")
	}
	if cfg.MusixmatchAPIKey == "" {
		cfg.MusixmatchAPIKey = viper.GetString("providers.musixmatch.api-key")
	}
	if cfg.Token == "" {
		return errors.New("no playback token; set VERSELINE_SPOTIFY_TOKEN or the token config key")
	}

	cfg.RefreshRate = refreshRate
	cfg.SyncOffset = syncOffset
	cfg.Poller = pollerConfig()

	logger := log.Default()

	client := spotify.NewClient(auth.NewStaticSource(cfg.Token), logger)
	poller := player.New(client, cfg.Poller, logger)
	poller.Start()
	defer poller.Stop()

	primary := lyrics.NewLRCLibClient(viper.GetString("providers.lrclib.url"))
	secondary := lyrics.NewMusixmatchClient(cfg.MusixmatchAPIKey, viper.GetString("providers.musixmatch.url"))
	source := lyrics.NewSource(primary, secondary, logger)
	defer source.Close()

	// Run Bubble Tea program.
	if _, err := ui.NewProgram(cfg, poller, source).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().DurationVarP(&refreshRate, "refresh-rate", "r", 100*time.Millisecond, "how often to redraw the lyric view")
	rootCmd.Flags().DurationVarP(&syncOffset, "sync-offset", "o", 0, "shift lyric timing forward or back")

	// Config bindings
	_ = viper.BindPFlag("refresh-rate", rootCmd.Flags().Lookup("refresh-rate"))
	_ = viper.BindPFlag("sync-offset", rootCmd.Flags().Lookup("sync-offset"))

	viper.SetDefault("refresh-rate", 100*time.Millisecond)
	viper.SetDefault("sync-offset", time.Duration(0))
	viper.SetDefault("providers.lrclib.url", "")
	viper.SetDefault("providers.musixmatch.url", "")
	viper.SetDefault("poll.playing", 5*time.Second)
	viper.SetDefault("poll.paused", 15*time.Second)
	viper.SetDefault("poll.no-device", 30*time.Second)
	viper.SetDefault("poll.min", time.Second)
	viper.SetDefault("poll.max", time.Minute)

	rootCmd.AddCommand(configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "verseline")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "verseline")}, dirs...)
	}

	if c := os.Getenv("VERSELINE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("verseline")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("verseline")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "verseline.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
