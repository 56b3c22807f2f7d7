package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pkaravel/eprm-crawler/internal/logging"
	"github.com/pkaravel/eprm-crawler/internal/scrape"
)

// newScrapeCmd creates the 'scrape' subcommand: authenticate, discover the
// listing tabs, and crawl each one into its JSON document.
func newScrapeCmd() *cobra.Command {
	var onlyTabs []string

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Crawls the portal listings into per-tab JSON files",
		Long: `Opens an interactive browser session against the portal, waits for the
operator to complete the login, then walks every listing tab: paginate the
listing, open each project's detail page, extract its panels, and write one
pretty-printed JSON document per tab.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScrape(cmd, onlyTabs)
		},
	}

	cmd.Flags().StringSliceVar(&onlyTabs, "tabs", nil, "crawl only these tab paths (default: all discovered)")
	return cmd
}

func runScrape(cmd *cobra.Command, onlyTabs []string) error {
	logger := logging.L
	ctx := cmd.Context()

	provider, err := scrape.NewChromeProvider(cfg.Session, cfg.BaseURL, logger)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer provider.Close()

	if _, err := provider.Authenticate(ctx); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	nav := scrape.NewBrowser(provider.Browser(), cfg.BaseURL, cfg.Scrape)

	tabs, err := discoverTabs(ctx, nav, logger)
	if err != nil {
		return err
	}
	if len(onlyTabs) > 0 {
		tabs = filterTabs(tabs, onlyTabs)
	}

	crawler := scrape.NewCrawler(nav, cfg.Scrape, logger)
	for _, tab := range tabs {
		logger.Info("scraping tab", zap.String("tab", tab.Path), zap.String("title", tab.Title))

		record, err := crawler.CrawlTab(ctx, tab.Path)
		if err != nil {
			logger.Error("tab crawl failed", zap.String("tab", tab.Path), zap.Error(err))
			continue
		}
		path, err := scrape.WriteTabFile(cfg.Scrape.OutputDir, tab.Path, record)
		if err != nil {
			logger.Error("tab write failed", zap.String("tab", tab.Path), zap.Error(err))
			continue
		}
		logger.Info("tab written",
			zap.String("tab", tab.Path),
			zap.String("file", path),
			zap.Int("projects", record.Len()),
		)
	}
	return nil
}

// discoverTabs loads the portal home page, collects the navigation tabs,
// checks them against the configured known set, and persists tabs.json.
func discoverTabs(ctx context.Context, nav *scrape.Browser, logger *zap.Logger) ([]scrape.Tab, error) {
	if err := nav.OpenHome(ctx); err != nil {
		return nil, fmt.Errorf("open portal home: %w", err)
	}
	html, err := nav.PageHTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read portal home: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse portal home: %w", err)
	}

	tabs := scrape.DiscoverTabs(doc, cfg.BaseURL)
	logger.Info("discovered tabs", zap.Int("count", len(tabs)))
	scrape.CheckKnownTabs(tabs, cfg.Scrape.KnownTabs, logger)

	if _, err := scrape.WriteTabsFile(cfg.Scrape.OutputDir, tabs); err != nil {
		return nil, fmt.Errorf("write tabs file: %w", err)
	}
	return tabs, nil
}

func filterTabs(tabs []scrape.Tab, wanted []string) []scrape.Tab {
	keep := make(map[string]struct{}, len(wanted))
	for _, w := range wanted {
		keep[strings.Trim(w, "/")] = struct{}{}
	}
	var out []scrape.Tab
	for _, t := range tabs {
		if _, ok := keep[t.Path]; ok {
			out = append(out, t)
		}
	}
	return out
}
