package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// setupLog redirects logging to a file when requested. Writing to stderr
// would corrupt the TUI, so without VERSELINE_LOGFILE logs are discarded.
func setupLog() (func() error, error) {
	logFile := os.Getenv("VERSELINE_LOGFILE")
	if logFile == "" {
		log.SetOutput(io.Discard)
		return func() error { return nil }, nil
	}

	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("error setting up logging: %w", err)
	}
	log.SetOutput(f)
	if os.Getenv("VERSELINE_DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
	}
	log.SetReportTimestamp(true)
	return f.Close, nil
}
