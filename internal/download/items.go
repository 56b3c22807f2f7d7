// Package download turns the link inventory into files on disk with bounded
// concurrency, retry/backoff, content validation, and crash-resumable
// progress tracking.
package download

import (
	"sort"
	"strings"

	"github.com/pkaravel/eprm-crawler/internal/extract"
	"github.com/pkaravel/eprm-crawler/internal/inventory"
)

// Item is one unit of download work.
type Item struct {
	Category string
	URL      string
}

// Key identifies an item in the completed-set.
func (it Item) Key() string {
	return it.Category + "/" + it.URL
}

// FromInventory flattens the inventory into per-category deduplicated work
// items. Blank URLs and the portal's no-file placeholder never become work.
// Categories are visited in sorted order and URLs in first-seen order, so
// the work list is stable across runs.
func FromInventory(inv inventory.Inventory) []Item {
	categories := make([]string, 0, len(inv))
	for category := range inv {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var items []Item
	for _, category := range categories {
		seen := make(map[string]struct{})
		for _, url := range inv[category] {
			url = strings.TrimSpace(url)
			if url == "" || url == extract.PlaceholderHref {
				continue
			}
			if _, dup := seen[url]; dup {
				continue
			}
			seen[url] = struct{}{}
			items = append(items, Item{Category: category, URL: url})
		}
	}
	return items
}

// Partition splits the items into n category-aligned shards: every item of
// one category lands in the same shard, so two workers never race on one
// category directory.
func Partition(items []Item, n int) [][]Item {
	if n <= 1 {
		return [][]Item{items}
	}

	byCategory := make(map[string][]Item)
	var order []string
	for _, it := range items {
		if _, ok := byCategory[it.Category]; !ok {
			order = append(order, it.Category)
		}
		byCategory[it.Category] = append(byCategory[it.Category], it)
	}

	shards := make([][]Item, n)
	for i, category := range order {
		shard := i % n
		shards[shard] = append(shards[shard], byCategory[category]...)
	}
	return shards
}
