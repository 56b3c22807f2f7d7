package download

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pkaravel/eprm-crawler/internal/config"
	"github.com/pkaravel/eprm-crawler/internal/metrics"
)

// errorPageThreshold is the body size under which a 200 response is
// inspected for a disguised error page.
const errorPageThreshold = 100

// Summary aggregates one run's outcomes.
type Summary struct {
	Success int
	Skipped int
	Failed  int
}

// Pipeline downloads work items with bounded concurrency, jittered delays,
// retry/backoff, and resumable progress. One Pipeline owns one HTTP client;
// the sharded runner builds one per worker.
type Pipeline struct {
	client    *http.Client
	baseURL   string
	cfg       config.DownloadConfig
	completed *CompletedSet
	errors    *ErrorLog
	logger    *zap.Logger

	bar *progressbar.ProgressBar

	// sleep is swapped out by tests to observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error

	dirMu sync.Mutex

	mu      sync.Mutex
	summary Summary
}

// NewPipeline wires a Pipeline. The completed set and error log may be
// shared with other pipelines; the client must not be.
func NewPipeline(client *http.Client, cfg config.DownloadConfig, baseURL string, completed *CompletedSet, errors *ErrorLog, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/") + "/",
		cfg:       cfg,
		completed: completed,
		errors:    errors,
		logger:    logger,
		sleep:     sleepCtx,
	}
}

// SetProgressBar shares a progress bar across pipelines.
func (p *Pipeline) SetProgressBar(bar *progressbar.ProgressBar) {
	p.bar = bar
}

// Run downloads every item not already in the completed set. It returns the
// outcome summary; item failures land in the error log, not in the error
// return, which only reports context cancellation.
func (p *Pipeline) Run(ctx context.Context, items []Item) (Summary, error) {
	if p.bar == nil {
		p.bar = progressbar.Default(int64(len(items)), "downloading")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Concurrency)

	for _, it := range items {
		if p.completed.Contains(it) {
			p.finish(metrics.OutcomeSkipped)
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.downloadOne(ctx, it)
			return ctx.Err()
		})
	}

	err := g.Wait()
	if flushErr := p.completed.Flush(); flushErr != nil {
		p.logger.Error("completed-set flush failed", zap.Error(flushErr))
	}

	p.mu.Lock()
	summary := p.summary
	p.mu.Unlock()
	if err != nil {
		return summary, fmt.Errorf("download run: %w", err)
	}
	return summary, nil
}

// downloadOne walks one item through the retry state machine. Terminal
// failures are logged and appended to the error log; they never abort the
// run.
func (p *Pipeline) downloadOne(ctx context.Context, it Item) {
	metrics.DownloadStarted()
	defer metrics.DownloadFinished()

	for attempt := 0; ; attempt++ {
		if err := p.sleep(ctx, p.jitter()); err != nil {
			return
		}

		outcome, retryable, rateLimited, err := p.attempt(ctx, it)
		if err == nil {
			p.finish(outcome)
			return
		}
		if !retryable || attempt >= p.cfg.MaxRetries {
			p.fail(it, attempt, err)
			return
		}

		metrics.ObserveRetry()
		p.logger.Warn("retrying download",
			zap.String("url", it.URL),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", p.cfg.MaxRetries),
			zap.Error(err),
		)
		if rateLimited {
			backoff := (1<<attempt)*time.Second + time.Duration(rand.Int63n(int64(time.Second)))
			if err := p.sleep(ctx, backoff); err != nil {
				return
			}
		}
	}
}

// attempt issues one request and classifies the result. It reports the
// outcome on success, and otherwise whether the error is retryable and
// whether it came from rate limiting (which adds exponential backoff).
func (p *Pipeline) attempt(ctx context.Context, it Item) (outcome string, retryable, rateLimited bool, err error) {
	fullURL := p.baseURL + strings.TrimLeft(it.URL, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", false, false, fmt.Errorf("build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, false, ctx.Err()
		}
		// Timeouts and transport errors retry without extra backoff.
		return "", true, false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		outcome, err := p.persist(it, resp)
		if err != nil {
			return "", true, false, err
		}
		return outcome, false, false, nil

	case resp.StatusCode == http.StatusTooManyRequests:
		return "", true, true, fmt.Errorf("rate limited (429)")

	case resp.StatusCode == http.StatusForbidden:
		return "", false, false, fmt.Errorf("access denied (403), session may need refresh")

	default:
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, errorPageThreshold))
		return "", true, false, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(preview)))
	}
}

// persist validates and writes a 200 response body. An existing file counts
// as success without a rewrite; either way the item enters the completed
// set only after the file is known good on disk.
func (p *Pipeline) persist(it Item, resp *http.Response) (string, error) {
	name := Sanitize(ResponseFilename(resp, p.baseURL+strings.TrimLeft(it.URL, "/")))
	if name == "" {
		name = Sanitize(fallbackName(it.URL))
	}
	if name == "" {
		return "", fmt.Errorf("no usable filename for %s", it.URL)
	}

	dir := filepath.Join(p.cfg.FilesDir, it.Category)
	p.dirMu.Lock()
	err := os.MkdirAll(dir, 0o755)
	p.dirMu.Unlock()
	if err != nil {
		return "", fmt.Errorf("create category dir: %w", err)
	}

	dest := filepath.Join(dir, name)
	if _, err := os.Stat(dest); err == nil {
		if err := p.completed.Add(it); err != nil {
			return "", err
		}
		return metrics.OutcomeSkipped, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if len(body) < errorPageThreshold {
		text := strings.ToLower(string(body))
		if strings.Contains(text, "error") || strings.Contains(text, "not found") {
			return "", fmt.Errorf("received error page: %.100s", strings.TrimSpace(string(body)))
		}
	}

	if err := os.WriteFile(dest, body, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	metrics.ObserveBytes(len(body))

	if err := p.completed.Add(it); err != nil {
		return "", err
	}
	p.logger.Debug("downloaded",
		zap.String("category", it.Category),
		zap.String("file", name),
		zap.Int("bytes", len(body)),
	)
	return metrics.OutcomeSuccess, nil
}

// fail records a terminal failure.
func (p *Pipeline) fail(it Item, attempts int, err error) {
	p.finish(metrics.OutcomeFailed)
	p.logger.Error("download failed",
		zap.String("category", it.Category),
		zap.String("url", it.URL),
		zap.Int("attempts", attempts+1),
		zap.Error(err),
	)
	if logErr := p.errors.Append("failed %s/%s after %d attempts: %v", it.Category, it.URL, attempts+1, err); logErr != nil {
		p.logger.Error("error log append failed", zap.Error(logErr))
	}
}

// finish updates the summary, the progress bar, and the periodic log line.
func (p *Pipeline) finish(outcome string) {
	metrics.ObserveDownload(outcome)
	if p.bar != nil {
		_ = p.bar.Add(1)
	}

	p.mu.Lock()
	switch outcome {
	case metrics.OutcomeSuccess:
		p.summary.Success++
	case metrics.OutcomeSkipped:
		p.summary.Skipped++
	default:
		p.summary.Failed++
	}
	s := p.summary
	p.mu.Unlock()

	if total := s.Success + s.Skipped + s.Failed; total > 0 && total%100 == 0 {
		p.logger.Info("download progress",
			zap.Int("success", s.Success),
			zap.Int("skipped", s.Skipped),
			zap.Int("failed", s.Failed),
		)
	}
}

// jitter picks a random pre-request delay inside the configured window.
func (p *Pipeline) jitter() time.Duration {
	window := p.cfg.MaxDelay - p.cfg.MinDelay
	if window <= 0 {
		return p.cfg.MinDelay
	}
	return p.cfg.MinDelay + time.Duration(rand.Int63n(int64(window)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
