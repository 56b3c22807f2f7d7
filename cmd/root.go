// Package cmd defines and implements the CLI commands for the eprm
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pkaravel/eprm-crawler/internal/config"
	"github.com/pkaravel/eprm-crawler/internal/logging"
)

var (
	cfgFile string
	cfg     config.Config
)

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eprm",
		Short: "Crawler and document downloader for the environmental licensing portal",
		Long: `eprm crawls the environmental licensing portal's project listings,
extracts one structured record per project into per-tab JSON files, and
downloads every referenced document with bounded concurrency and
crash-resumable progress tracking.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			cfg = loaded
			logging.InitLogger(cfg.Logging.Development)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logging.L.Sync()
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newDownloadCmd())
	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
