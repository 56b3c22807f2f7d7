// Package metrics exposes Prometheus collectors for the download pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	downloadsTotal       *prometheus.CounterVec
	downloadRetriesTotal prometheus.Counter
	downloadBytesTotal   prometheus.Counter
	activeDownloads      prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		downloadsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eprm_downloads_total",
				Help: "Total number of finished downloads, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		downloadRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "eprm_download_retries_total",
				Help: "Total number of download retry attempts.",
			},
		)

		downloadBytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "eprm_download_bytes_total",
				Help: "Total number of payload bytes written to disk.",
			},
		)

		activeDownloads = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "eprm_active_downloads",
				Help: "Number of downloads currently holding a slot.",
			},
		)
	})
}

// Download outcomes recorded on the downloads counter.
const (
	OutcomeSuccess = "success"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// ObserveDownload records one finished download.
func ObserveDownload(outcome string) {
	if downloadsTotal != nil {
		downloadsTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveRetry records one retry attempt.
func ObserveRetry() {
	if downloadRetriesTotal != nil {
		downloadRetriesTotal.Inc()
	}
}

// ObserveBytes records payload bytes written to disk.
func ObserveBytes(n int) {
	if downloadBytesTotal != nil {
		downloadBytesTotal.Add(float64(n))
	}
}

// DownloadStarted marks a slot acquisition.
func DownloadStarted() {
	if activeDownloads != nil {
		activeDownloads.Inc()
	}
}

// DownloadFinished releases a slot.
func DownloadFinished() {
	if activeDownloads != nil {
		activeDownloads.Dec()
	}
}

// Router builds the HTTP surface for scraping metrics during a run.
func Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Serve runs the metrics endpoint on addr until the server fails. Meant to
// be started on its own goroutine; an empty addr disables it.
func Serve(addr string) error {
	if addr == "" {
		return nil
	}
	return http.ListenAndServe(addr, Router())
}
