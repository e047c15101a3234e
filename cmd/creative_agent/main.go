// Package main provides the creative_agent CLI: compliance checks, format adaptation,
// batch export, AI-assisted creative generation and the editor API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logMode    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "creative_agent",
	Short: "Retail media creative compliance and adaptation",
	Long: "creative_agent checks creatives against retail media guidelines, adapts them across ad formats, " +
		"exports batches and drafts copy and variants with a remote model.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a JSON or YAML config file (flags override it)")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "Log mode: dev or prod (defaults to LOG_MODE)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed debug information")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
