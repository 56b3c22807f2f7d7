package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/pkaravel/eprm-crawler/internal/config"
)

// Navigator drives one tab's paginated listing UI. The crawl is strictly
// sequential within one browser session, so implementations need not be
// safe for concurrent use.
type Navigator interface {
	OpenTab(ctx context.Context, tab string) error
	SetPageSize(ctx context.Context, size int) error
	PageHTML(ctx context.Context) (string, error)
	Caption(ctx context.Context) (string, error)
	NextPage(ctx context.Context) error
	OpenProject(ctx context.Context, url string) (string, error)
}

// DataTables element handles on the listing pages.
const (
	pageSizeSelect  = `select[name="datatable-dummy_length"]`
	captionSelector = "#datatable-dummy_info"
	nextSelector    = "#datatable-dummy_next"
)

// Browser is the chromedp-backed Navigator. It shares the browser context
// established by the ChromeProvider so the crawl runs inside the
// authenticated session.
type Browser struct {
	browser context.Context
	baseURL string
	cfg     config.ScrapeConfig
}

// NewBrowser wraps an authenticated browser context in a Navigator.
func NewBrowser(browser context.Context, baseURL string, cfg config.ScrapeConfig) *Browser {
	return &Browser{
		browser: browser,
		baseURL: strings.TrimRight(baseURL, "/") + "/",
		cfg:     cfg,
	}
}

func (b *Browser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(b.browser, b.cfg.NavTimeout)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(runCtx, actions...) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}
}

// OpenHome loads the portal landing page with its navigation menus.
func (b *Browser) OpenHome(ctx context.Context) error {
	err := b.run(ctx,
		chromedp.Navigate(b.baseURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.WaitVisible("ul.nav", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("open portal home: %w", err)
	}
	return nil
}

// OpenTab navigates to the tab's listing page and waits for the table chrome.
func (b *Browser) OpenTab(ctx context.Context, tab string) error {
	err := b.run(ctx,
		chromedp.Navigate(b.baseURL+strings.TrimLeft(tab, "/")),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.WaitVisible(captionSelector, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("open tab %s: %w", tab, err)
	}
	return nil
}

// SetPageSize selects the page-size option and waits for the table to
// redraw with it.
func (b *Browser) SetPageSize(ctx context.Context, size int) error {
	value := fmt.Sprintf("%d", size)
	err := b.run(ctx,
		chromedp.SetValue(pageSizeSelect, value, chromedp.ByQuery),
		// DataTables redraws asynchronously after the change event.
		chromedp.Sleep(time.Second),
	)
	if err != nil {
		return fmt.Errorf("set page size %d: %w", size, err)
	}
	return nil
}

// PageHTML returns the rendered document of the current listing page.
func (b *Browser) PageHTML(ctx context.Context) (string, error) {
	var html string
	if err := b.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("page html: %w", err)
	}
	return html, nil
}

// Caption returns the localized "Showing X to Y of Z" text.
func (b *Browser) Caption(ctx context.Context) (string, error) {
	var caption string
	if err := b.run(ctx, chromedp.Text(captionSelector, &caption, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("listing caption: %w", err)
	}
	return caption, nil
}

// NextPage clicks the pager's next control and waits for the redraw.
func (b *Browser) NextPage(ctx context.Context) error {
	err := b.run(ctx,
		chromedp.Click(nextSelector, chromedp.ByQuery),
		chromedp.Sleep(time.Second),
	)
	if err != nil {
		return fmt.Errorf("next page: %w", err)
	}
	return nil
}

// OpenProject loads a project detail page and returns its rendered document
// once the panel group is present.
func (b *Browser) OpenProject(ctx context.Context, url string) (string, error) {
	var html string
	err := b.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.WaitVisible(".panel-group", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("open project %s: %w", url, err)
	}
	return html, nil
}
