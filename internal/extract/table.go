package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Table is the structured form of one HTML table: one header-keyed record
// per body row plus the deduplicated set of document links found in its
// cells.
type Table struct {
	Items []*Record `json:"items"`
	Links []string  `json:"links"`
}

// MarshalJSON keeps items/links ordering and literal URLs.
func (t *Table) MarshalJSON() ([]byte, error) {
	obj := NewRecord()
	obj.Set("items", t.Items)
	obj.Set("links", emptyAsList(t.Links))
	return obj.MarshalJSON()
}

// ExtractTable turns one table element into header-keyed row records. Column
// headers come from the header row when present; when it is missing or its
// width disagrees with the body, ordinal "Column N" headers are synthesized
// up to the widest row observed. A cell containing a real document link
// contributes the anchor's visible text as its value and the href to the
// link set. Returns nil when the table has no body rows.
func ExtractTable(table *goquery.Selection) *Table {
	rows := table.Find("tbody tr")
	if rows.Length() == 0 {
		return nil
	}

	var headers []string
	table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, strings.TrimSpace(th.Text()))
	})

	links := newLinkSet()
	var data [][]string
	maxCols := 0
	rows.Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, cellValue(td, links))
		})
		if len(cells) > maxCols {
			maxCols = len(cells)
		}
		data = append(data, cells)
	})

	if len(headers) != maxCols {
		headers = make([]string, 0, maxCols)
		for i := 0; i < maxCols; i++ {
			headers = append(headers, fmt.Sprintf("Column %d", i+1))
		}
	}

	items := make([]*Record, 0, len(data))
	for _, cells := range data {
		row := NewRecord()
		for i, h := range headers {
			if i < len(cells) {
				row.Set(h, cells[i])
			} else {
				row.Set(h, "")
			}
		}
		items = append(items, row)
	}

	return &Table{Items: items, Links: links.Links()}
}

// cellValue prefers the anchor text of a real document link over the plain
// cell text, collecting the href as a side effect.
func cellValue(td *goquery.Selection, links *linkSet) string {
	anchor := td.Find("a").First()
	if anchor.Length() > 0 {
		href, _ := anchor.Attr("href")
		if href != "" && href != PlaceholderHref {
			links.Add(href)
			return strings.TrimSpace(anchor.Text())
		}
	}
	return strings.TrimSpace(td.Text())
}
