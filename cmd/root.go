// Package cmd implements the dispatchctl CLI: a cobra command tree that
// drives the dispatch engine against either a one-shot APDU script or the
// built-in scenario harness.
package cmd

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"

	// Persistent flags shared by every subcommand.
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dispatchctl",
	Short: "APDU dispatch engine simulator",
	Long: `dispatchctl v` + version + `

Drives the APDU dispatch engine (dispatch.Dispatcher) against a simulated
contact/contactless transport pair, without any physical reader or card.

This tool supports:
  - Running a simple APDU script against the dispatcher (run)
  - Listing the built-in demo application registry (apps)
  - Running the scenario harness and emitting a JSON+HTML report (test)`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug-level dispatcher tracing")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the dispatcher's injected trace logger, leveled by the
// persistent --verbose flag (spec.md §9: no process-wide logging
// singleton, so every caller constructs and injects its own instance).
func newLogger() *log.Logger {
	l := log.New(os.Stderr)
	if verbose {
		l.SetLevel(log.DebugLevel)
	} else {
		l.SetLevel(log.InfoLevel)
	}
	return l
}
