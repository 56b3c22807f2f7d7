package scrape

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Tab pairs a tab's relative path with its navigation label.
type Tab struct {
	Path  string
	Title string
}

// DiscoverTabs collects the listing tabs from the portal's navigation menus.
// The first nav is the account chrome and is skipped; fragment-only links
// and the base URL itself are not tabs.
func DiscoverTabs(doc *goquery.Document, baseURL string) []Tab {
	base := strings.TrimRight(baseURL, "/")

	seen := make(map[string]struct{})
	var tabs []Tab
	doc.Find("ul.nav").Each(func(i int, nav *goquery.Selection) {
		if i == 0 {
			return
		}
		nav.Find("li a").Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok || href == "" || href == "#" || strings.HasSuffix(href, "/#") {
				return
			}
			if href == base || href == base+"/" {
				return
			}

			path := href
			if strings.HasPrefix(path, base) {
				path = strings.TrimPrefix(path, base)
			}
			path = strings.Trim(path, "/")
			if path == "" {
				return
			}
			if _, dup := seen[path]; dup {
				return
			}
			seen[path] = struct{}{}
			tabs = append(tabs, Tab{Path: path, Title: strings.TrimSpace(a.Text())})
		})
	})
	return tabs
}

// CheckKnownTabs compares the discovered tab set against the configured one
// and logs an error on any difference. An empty known list disables the
// check.
func CheckKnownTabs(tabs []Tab, known []string, logger *zap.Logger) bool {
	if len(known) == 0 {
		return true
	}

	found := make([]string, 0, len(tabs))
	for _, t := range tabs {
		found = append(found, t.Path)
	}
	sort.Strings(found)

	want := append([]string(nil), known...)
	sort.Strings(want)

	if len(found) == len(want) {
		match := true
		for i := range found {
			if found[i] != want[i] {
				match = false
				break
			}
		}
		if match {
			logger.Info("discovered tabs match the known set", zap.Int("tabs", len(found)))
			return true
		}
	}

	logger.Error("discovered tabs differ from the known set",
		zap.Strings("discovered", found),
		zap.Strings("known", want),
	)
	return false
}

// WriteTabsFile persists the discovered tab map as tabs.json in the output
// directory, path → title, with literal Greek labels.
func WriteTabsFile(dir string, tabs []Tab) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, "tabs.json")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create tabs file: %w", err)
	}

	// encoding/json sorts map keys, so the file is stable between runs.
	m := make(map[string]string, len(tabs))
	for _, t := range tabs {
		m[t.Path] = t.Title
	}

	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(m); err != nil {
		f.Close()
		return "", fmt.Errorf("encode tabs file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close tabs file: %w", err)
	}
	return path, nil
}
