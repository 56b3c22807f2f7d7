package scrape

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// captionRe matches the localized pagination caption, e.g.
// "Εμφανίζονται 1 Έως 100 Από 313". Thousands separators appear on large
// tabs and are stripped before parsing.
var captionRe = regexp.MustCompile(`([\d,]+) Έως ([\d,]+) Από ([\d,]+)`)

// PageInfo is the parsed pagination caption of one listing page.
type PageInfo struct {
	Start int
	End   int
	Total int
}

// ParseCaption extracts the start/end/total counters from the caption text.
func ParseCaption(caption string) (PageInfo, error) {
	m := captionRe.FindStringSubmatch(caption)
	if m == nil {
		return PageInfo{}, fmt.Errorf("unrecognized listing caption %q", caption)
	}
	var vals [3]int
	for i, raw := range m[1:] {
		n, err := strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
		if err != nil {
			return PageInfo{}, fmt.Errorf("parse caption number %q: %w", raw, err)
		}
		vals[i] = n
	}
	return PageInfo{Start: vals[0], End: vals[1], Total: vals[2]}, nil
}

// ProjectRow is one listing row: the detail-page link plus the metadata
// columns. Public tabs render only name, identifier, and status.
type ProjectRow struct {
	Name     string
	URL      string
	Pet      string
	Protocol string
	Date     string
	Status   string
}

// IsPublicTab reports whether the tab renders the reduced public listing.
func IsPublicTab(tab string) bool {
	return strings.Contains(tab, "_public")
}

// ParseListing extracts the project rows of one rendered listing page. Rows
// with too few cells or without a detail link are skipped, not fatal.
func ParseListing(doc *goquery.Document, public bool) []ProjectRow {
	var rows []ProjectRow
	doc.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		anchor := cells.Eq(0).Find("a").First()
		href, ok := anchor.Attr("href")
		if anchor.Length() == 0 || !ok {
			return
		}

		row := ProjectRow{
			Name: strings.TrimSpace(anchor.Text()),
			URL:  href,
		}
		switch {
		case public && cells.Length() >= 3:
			row.Pet = strings.TrimSpace(cells.Eq(1).Text())
			row.Status = strings.TrimSpace(cells.Eq(2).Text())
		case !public && cells.Length() >= 5:
			row.Pet = strings.TrimSpace(cells.Eq(1).Text())
			row.Protocol = strings.TrimSpace(cells.Eq(2).Text())
			row.Date = strings.TrimSpace(cells.Eq(3).Text())
			row.Status = strings.TrimSpace(cells.Eq(4).Text())
		default:
			return
		}
		rows = append(rows, row)
	})
	return rows
}
