package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "https://eprm.ypen.gr/src/App/", cfg.BaseURL)
	require.Equal(t, "Scraped", cfg.Scrape.OutputDir)
	require.Equal(t, 100, cfg.Scrape.PageSize)
	require.Equal(t, 5, cfg.Download.Concurrency)
	require.Equal(t, 3, cfg.Download.MaxRetries)
	require.Equal(t, 500*time.Millisecond, cfg.Download.MinDelay)
	require.Equal(t, 2*time.Second, cfg.Download.MaxDelay)
	require.Equal(t, 60*time.Second, cfg.Download.RequestTimeout)
	require.Equal(t, 5, cfg.Download.FlushEvery)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scrape:
  output_dir: Out
download:
  concurrency: 2
  max_retries: 1
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "Out", cfg.Scrape.OutputDir)
	require.Equal(t, 2, cfg.Download.Concurrency)
	require.Equal(t, 1, cfg.Download.MaxRetries)
	require.Equal(t, 100, cfg.Scrape.PageSize, "unset keys keep their defaults")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
download:
  concurrency: 0
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateDelayWindow(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Download.MinDelay = 3 * time.Second
	cfg.Download.MaxDelay = time.Second
	require.Error(t, cfg.Validate())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
