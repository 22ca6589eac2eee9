package main

import (
	"os"

	"github.com/spf13/cobra"

	"collectsim/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "collectsim",
	Short: "Adaptive debt-collection visit scheduling simulator",
	Long: "Collectsim simulates door-to-door debt collection against a hidden\n" +
		"debtor model and compares bandit visit policies with Monte Carlo\n" +
		"experiments and significance tests.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logging.Setup(logging.ParseLevel(rootFlags.logLevel), rootFlags.logFormat, os.Stderr)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(experimentCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.Version = version
}
