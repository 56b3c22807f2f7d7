package download

import (
	"context"
	"fmt"
	"net/http"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pkaravel/eprm-crawler/internal/config"
)

// ClientFactory builds one HTTP client per worker so each shard gets its
// own connection pool over the shared session cookies.
type ClientFactory func() *http.Client

// RunSharded partitions the work by category across cfg.Workers independent
// pipelines. All shards consult the one completed set and error log, so an
// interrupted run resumes wherever any worker got to.
func RunSharded(ctx context.Context, items []Item, clients ClientFactory, cfg config.DownloadConfig, baseURL string, completed *CompletedSet, errors *ErrorLog, logger *zap.Logger) (Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	shards := Partition(items, cfg.Workers)
	bar := progressbar.Default(int64(len(items)), "downloading")

	pipelines := make([]*Pipeline, 0, len(shards))
	g, gctx := errgroup.WithContext(ctx)
	for i, shard := range shards {
		if len(shard) == 0 {
			continue
		}
		p := NewPipeline(clients(), cfg, baseURL, completed, errors, logger.With(zap.Int("worker", i)))
		p.SetProgressBar(bar)
		pipelines = append(pipelines, p)

		g.Go(func() error {
			_, err := p.Run(gctx, shard)
			return err
		})
	}

	err := g.Wait()

	var total Summary
	for _, p := range pipelines {
		p.mu.Lock()
		total.Success += p.summary.Success
		total.Skipped += p.summary.Skipped
		total.Failed += p.summary.Failed
		p.mu.Unlock()
	}
	logger.Info("download run finished",
		zap.Int("success", total.Success),
		zap.Int("skipped", total.Skipped),
		zap.Int("failed", total.Failed),
		zap.Int("completed_set", completed.Len()),
	)
	if err != nil {
		return total, fmt.Errorf("sharded download: %w", err)
	}
	return total, nil
}
