// Package scrape drives the portal's listing tabs through a headless
// browser, builds one record per project detail page, and persists one JSON
// document per tab.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/pkaravel/eprm-crawler/internal/config"
)

// Session is an authenticated portal session: the cookies exported from the
// browser plus the user agent they were issued under. It is all an HTTP
// client needs to fetch detail pages and documents without the browser.
type Session struct {
	Jar       http.CookieJar
	UserAgent string
}

// Client builds an HTTP client bound to the session cookies.
func (s *Session) Client(timeout time.Duration) *http.Client {
	return &http.Client{
		Jar:     s.Jar,
		Timeout: timeout,
	}
}

// SessionProvider yields an authenticated session. Interactive steps such as
// the portal's captcha are completed by the operator in the driven browser;
// the provider only waits for them and exports the result.
type SessionProvider interface {
	Authenticate(ctx context.Context) (*Session, error)
	IsAuthenticated(ctx context.Context) bool
}

// loggedInMarker is present only when the navbar renders the account menu.
const loggedInMarker = "a.dropdown-toggle"

// ChromeProvider implements SessionProvider on a chromedp-driven browser.
// The same browser context also backs the Navigator, so the listing crawl
// reuses the session it established.
type ChromeProvider struct {
	cfg     config.SessionConfig
	baseURL string
	logger  *zap.Logger

	browser     context.Context
	allocCancel context.CancelFunc
	ctxCancel   context.CancelFunc
}

// NewChromeProvider starts a browser allocator. Headless is turned off for
// interactive logins so the operator can solve the captcha.
func NewChromeProvider(cfg config.SessionConfig, baseURL string, logger *zap.Logger) (*ChromeProvider, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL must be set")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browser, ctxCancel := chromedp.NewContext(allocCtx)

	return &ChromeProvider{
		cfg:         cfg,
		baseURL:     strings.TrimRight(baseURL, "/") + "/",
		logger:      logger,
		browser:     browser,
		allocCancel: allocCancel,
		ctxCancel:   ctxCancel,
	}, nil
}

// Close tears down the browser.
func (p *ChromeProvider) Close() {
	p.ctxCancel()
	p.allocCancel()
}

// Browser exposes the chromedp context backing the session.
func (p *ChromeProvider) Browser() context.Context {
	return p.browser
}

// IsAuthenticated loads a known members-only page and checks for the
// account dropdown.
func (p *ChromeProvider) IsAuthenticated(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(p.browser, 15*time.Second)
	defer cancel()

	var count int
	err := chromedp.Run(checkCtx,
		chromedp.Navigate(p.baseURL+"w1/view/"),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf("document.querySelectorAll(%q).length", loggedInMarker), &count),
	)
	if err != nil {
		p.logger.Warn("login check failed", zap.Error(err))
		return false
	}
	return count > 0
}

// Authenticate opens the login page and waits for the operator to finish the
// form (including the captcha), then exports the browser cookies into a jar.
func (p *ChromeProvider) Authenticate(ctx context.Context) (*Session, error) {
	if p.IsAuthenticated(ctx) {
		p.logger.Info("session already authenticated")
		return p.exportSession()
	}

	loginCtx, cancel := context.WithTimeout(p.browser, p.cfg.LoginTimeout)
	defer cancel()

	if err := chromedp.Run(loginCtx,
		chromedp.Navigate(p.baseURL+"user/login"),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("open login page: %w", err)
	}

	p.logger.Info("waiting for interactive login",
		zap.Duration("timeout", p.cfg.LoginTimeout))

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if p.IsAuthenticated(ctx) {
				p.logger.Info("login detected")
				return p.exportSession()
			}
		case <-loginCtx.Done():
			return nil, fmt.Errorf("login not completed: %w", loginCtx.Err())
		case <-ctx.Done():
			return nil, fmt.Errorf("authenticate canceled: %w", ctx.Err())
		}
	}
}

// exportSession copies every browser cookie into an http.CookieJar.
func (p *ChromeProvider) exportSession() (*Session, error) {
	exportCtx, cancel := context.WithTimeout(p.browser, 15*time.Second)
	defer cancel()

	var cookies []*network.Cookie
	err := chromedp.Run(exportCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("export cookies: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("build cookie jar: %w", err)
	}

	byHost := make(map[string][]*http.Cookie)
	for _, c := range cookies {
		byHost[c.Domain] = append(byHost[c.Domain], &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Path:   c.Path,
			Domain: c.Domain,
			Secure: c.Secure,
		})
	}
	for host, hostCookies := range byHost {
		u := &url.URL{Scheme: "https", Host: strings.TrimPrefix(host, ".")}
		jar.SetCookies(u, hostCookies)
	}

	p.logger.Info("session exported", zap.Int("cookies", len(cookies)))
	return &Session{Jar: jar, UserAgent: p.cfg.UserAgent}, nil
}
