package scrape

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/pkaravel/eprm-crawler/internal/config"
	"github.com/pkaravel/eprm-crawler/internal/extract"
)

// hostRoot is where the listing rows' absolute-path detail links resolve.
const hostRoot = "https://eprm.ypen.gr"

// Crawler walks one listing tab at a time: page through the listing,
// collect project rows, open each detail page, and aggregate the extracted
// records into one document per tab.
type Crawler struct {
	nav       Navigator
	extractor *extract.Extractor
	cfg       config.ScrapeConfig
	logger    *zap.Logger
}

// NewCrawler wires a Crawler over a Navigator.
func NewCrawler(nav Navigator, cfg config.ScrapeConfig, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{
		nav:       nav,
		extractor: extract.NewExtractor(logger),
		cfg:       cfg,
		logger:    logger,
	}
}

// CrawlTab runs the full tab pipeline and returns the tab document: a
// mapping from project key to the project's panel records. Per-project
// failures are logged and skipped; a pagination failure returns whatever was
// collected so far.
func (c *Crawler) CrawlTab(ctx context.Context, tab string) (*extract.Record, error) {
	rows, total, err := c.collectRows(ctx, tab)
	if err != nil {
		return nil, err
	}

	if total != len(rows) {
		c.logger.Error("collected row count does not match reported total",
			zap.String("tab", tab),
			zap.Int("total", total),
			zap.Int("collected", len(rows)),
		)
	} else {
		c.logger.Info("collected all reported rows",
			zap.String("tab", tab),
			zap.Int("total", total),
		)
	}

	out := extract.NewRecord()
	for i, row := range rows {
		if i > 0 && i%100 == 0 {
			c.logger.Info("tab progress",
				zap.String("tab", tab),
				zap.Int("done", i),
				zap.Int("total", len(rows)),
			)
		}
		if err := ctx.Err(); err != nil {
			return out, fmt.Errorf("crawl tab %s: %w", tab, err)
		}

		key, record, err := c.scrapeProject(ctx, row)
		if err != nil {
			c.logger.Error("project scrape failed",
				zap.String("tab", tab),
				zap.String("url", row.URL),
				zap.Error(err),
			)
			continue
		}
		if n := out.Merge(record); n > 0 {
			c.logger.Warn("project key already present, overwritten",
				zap.String("tab", tab),
				zap.String("key", key),
			)
		}
	}
	return out, nil
}

// collectRows runs the pagination loop: open the tab, maximize the page
// size, then scrape pages until one comes back short. A zero total ends the
// tab immediately with no rows.
func (c *Crawler) collectRows(ctx context.Context, tab string) ([]ProjectRow, int, error) {
	if err := c.nav.OpenTab(ctx, tab); err != nil {
		return nil, 0, err
	}
	if err := c.nav.SetPageSize(ctx, c.cfg.PageSize); err != nil {
		return nil, 0, err
	}

	public := IsPublicTab(tab)
	var all []ProjectRow
	total := 0
	for {
		caption, err := c.nav.Caption(ctx)
		if err != nil {
			c.logger.Error("caption read failed, keeping collected rows",
				zap.String("tab", tab), zap.Error(err))
			return all, total, nil
		}
		info, err := ParseCaption(caption)
		if err != nil {
			c.logger.Error("caption parse failed, keeping collected rows",
				zap.String("tab", tab), zap.Error(err))
			return all, total, nil
		}
		total = info.Total
		if total == 0 {
			c.logger.Info("tab has no records", zap.String("tab", tab))
			return nil, 0, nil
		}
		c.logger.Info("listing page",
			zap.String("tab", tab),
			zap.Int("start", info.Start),
			zap.Int("end", info.End),
			zap.Int("total", info.Total),
		)

		html, err := c.nav.PageHTML(ctx)
		if err != nil {
			c.logger.Error("listing page read failed, keeping collected rows",
				zap.String("tab", tab),
				zap.Int("collected", len(all)),
				zap.Error(err))
			return all, total, nil
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			c.logger.Error("listing page parse failed, keeping collected rows",
				zap.String("tab", tab),
				zap.Int("collected", len(all)),
				zap.Error(err))
			return all, total, nil
		}

		rows := ParseListing(doc, public)
		all = append(all, rows...)

		if len(rows) < c.cfg.PageSize {
			return all, total, nil
		}
		if err := c.nav.NextPage(ctx); err != nil {
			c.logger.Error("pagination failed, keeping collected rows",
				zap.String("tab", tab), zap.Error(err))
			return all, total, nil
		}
	}
}

// scrapeProject opens one detail page and builds its record.
func (c *Crawler) scrapeProject(ctx context.Context, row ProjectRow) (string, *extract.Record, error) {
	pageURL := row.URL
	if strings.HasPrefix(pageURL, "/") {
		pageURL = hostRoot + pageURL
	}

	html, err := c.nav.OpenProject(ctx, pageURL)
	if err != nil {
		return "", nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", nil, fmt.Errorf("parse project page: %w", err)
	}

	key, record := BuildProjectRecord(doc, row.Pet, pageURL, c.extractor, c.logger)
	return key, record, nil
}
