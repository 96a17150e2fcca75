package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"vkscraper/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	quiet      bool
	verbose    bool
)

// rootCmd crawls when called without a subcommand
var rootCmd = &cobra.Command{
	Use:   "vkscraper",
	Short: "Download every photo from your VK dialogs",
	Long: `vkscraper walks the conversations of a VK account and saves every photo
attachment to disk, one directory per dialog.

Features:
  - Idempotent: files already on disk are never fetched again
  - Paged enumeration of dialogs and attachment history
  - Fixed delay between downloads and a request-rate cap for the API
  - Tokens kept in the system keychain or an encrypted file
  - Per-run JSON reports and an optional terminal dashboard`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || useTUI {
			return
		}
		switch cmd.Name() {
		case "version", "help", "completion":
			return
		}
		ui.PrintLogo()
	},
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.vkscraper.yaml or ~/.config/vkscraper/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "print only the final summary and errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "show structured logs instead of progress lines")

	rootCmd.SetVersionTemplate(`vkscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
