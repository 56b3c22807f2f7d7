package scrape

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkaravel/eprm-crawler/internal/extract"
)

// TabFileName maps a tab path to its output file name, flattening path
// separators so nested tabs stay in one directory.
func TabFileName(tab string) string {
	return strings.ReplaceAll(strings.Trim(tab, "/"), "/", "_") + ".json"
}

// WriteTabFile persists one tab document: pretty-printed UTF-8 JSON with
// HTML escaping disabled so Greek text and URLs stay literal. Returns the
// written path.
func WriteTabFile(dir, tab string, record *extract.Record) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, TabFileName(tab))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create tab file: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(record); err != nil {
		f.Close()
		return "", fmt.Errorf("encode tab file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close tab file: %w", err)
	}
	return path, nil
}
