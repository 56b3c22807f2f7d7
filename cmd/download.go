package cmd

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pkaravel/eprm-crawler/internal/download"
	"github.com/pkaravel/eprm-crawler/internal/inventory"
	"github.com/pkaravel/eprm-crawler/internal/logging"
	"github.com/pkaravel/eprm-crawler/internal/metrics"
	"github.com/pkaravel/eprm-crawler/internal/scrape"
)

// newDownloadCmd creates the 'download' subcommand: build the link
// inventory from the scraped tab files and download every document.
func newDownloadCmd() *cobra.Command {
	var (
		skipAuth    bool
		workers     int
		concurrency int
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Downloads every document referenced by the scraped records",
		Long: `Walks the scraped per-tab JSON files, collects every document link into
a category-partitioned inventory, and downloads each unique file with
bounded concurrency, retry/backoff, and a crash-resumable completed-set.
Re-running after an interruption skips already-completed work.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Flags override whatever the config file set.
			if cmd.Flags().Changed("workers") {
				cfg.Download.Workers = workers
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Download.Concurrency = concurrency
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Metrics.Addr = metricsAddr
			}
			return runDownload(cmd, skipAuth)
		},
	}

	cmd.Flags().BoolVar(&skipAuth, "no-auth", false, "skip browser authentication and download anonymously")
	cmd.Flags().IntVar(&workers, "workers", 1, "independent download workers")
	cmd.Flags().IntVar(&concurrency, "concurrency", 5, "concurrent requests per worker")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	return cmd
}

func runDownload(cmd *cobra.Command, skipAuth bool) error {
	logger := logging.L
	ctx := cmd.Context()

	metrics.Init()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(cfg.Metrics.Addr); err != nil {
				logger.Error("metrics endpoint failed", zap.Error(err))
			}
		}()
	}

	inv, err := inventory.FromDir(cfg.Download.InputDir, logger)
	if err != nil {
		return fmt.Errorf("build inventory: %w", err)
	}
	invPath := filepath.Join(cfg.Download.InputDir, cfg.Download.InventoryFile)
	if err := inv.Write(invPath); err != nil {
		return fmt.Errorf("write inventory: %w", err)
	}

	items := download.FromInventory(inv)
	logger.Info("inventory built",
		zap.Int("categories", len(inv)),
		zap.Int("links", inv.Size()),
		zap.Int("unique_items", len(items)),
		zap.String("file", invPath),
	)
	if len(items) == 0 {
		logger.Info("nothing to download")
		return nil
	}

	session, err := downloadSession(cmd, skipAuth, logger)
	if err != nil {
		return err
	}

	completed, err := download.LoadCompletedSet(cfg.Download.CompletedFile, cfg.Download.FlushEvery)
	if err != nil {
		return fmt.Errorf("load completed-set: %w", err)
	}
	defer func() {
		if err := completed.Close(); err != nil {
			logger.Error("completed-set close failed", zap.Error(err))
		}
	}()

	errlog, err := download.OpenErrorLog(cfg.Download.ErrorLogFile)
	if err != nil {
		return fmt.Errorf("open error log: %w", err)
	}
	defer errlog.Close()
	logger.Info("starting download run", zap.String("run_id", errlog.RunID))

	clients := func() *http.Client {
		if session == nil {
			return &http.Client{Timeout: cfg.Download.RequestTimeout}
		}
		return session.Client(cfg.Download.RequestTimeout)
	}

	summary, err := download.RunSharded(ctx, items, clients, cfg.Download, cfg.BaseURL, completed, errlog, logger)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	fmt.Printf("Download complete. Success: %d, Skipped: %d, Failed: %d\n",
		summary.Success, summary.Skipped, summary.Failed)
	return nil
}

// downloadSession authenticates through the browser unless disabled.
func downloadSession(cmd *cobra.Command, skipAuth bool, logger *zap.Logger) (*scrape.Session, error) {
	if skipAuth {
		return nil, nil
	}

	provider, err := scrape.NewChromeProvider(cfg.Session, cfg.BaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}
	defer provider.Close()

	session, err := provider.Authenticate(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return session, nil
}
