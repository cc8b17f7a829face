package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "plateau"
	version = "v1.0.0"
)

var (
	flagConfig  string
	flagVerbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Parameter-plateau explorer for backtest sweep results",
		Version: version,
		Long: `plateau indexes a grid of previously computed backtest results and lets a
researcher slice it: pick a strategy, pin all but two parameters, and view a
2D surface of Sharpe, Sortino, Calmar or max drawdown over the free axes.

The serve command exposes the analysis engine to the dashboard over JSON
REST and an interactive WebSocket; strategies and matrix are one-shot
equivalents for scripting.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Debug logging")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newStrategiesCmd())
	rootCmd.AddCommand(newMatrixCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging picks human console output on a terminal and structured JSON
// otherwise, so piped output stays machine-readable.
func setupLogging() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if flagVerbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}
