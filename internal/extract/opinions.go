package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Opinions is the structured form of the opinions/publication table: one
// fixed five-column record per row plus the deduplicated document links
// behind the opinion and supplementary columns.
type Opinions struct {
	Items []*Record `json:"items"`
	Links []string  `json:"links"`
}

// MarshalJSON keeps items/links ordering and literal URLs.
func (o *Opinions) MarshalJSON() ([]byte, error) {
	obj := NewRecord()
	obj.Set("items", o.Items)
	obj.Set("links", emptyAsList(o.Links))
	return obj.MarshalJSON()
}

// Column names of the opinions table, fixed by the portal layout.
const (
	colService       = "Υπηρεσία"
	colEvaluation    = "Αξιολόγηση"
	colOpinion       = "Γνωμοδότηση"
	colProtocol      = "Αρ. Πρωτ. εγγράφου και ημερομηνία"
	colSupplementary = "Συμπληρωματικά στοιχεία"
)

// extractOpinions parses the opinions/publication table. Rows with fewer
// than the five expected cells are skipped. Returns nil when the panel has
// no body rows at all.
func extractOpinions(panel *goquery.Selection) *Opinions {
	rows := panel.Find("table tbody tr")
	if rows.Length() == 0 {
		return nil
	}

	links := newLinkSet()
	items := []*Record{}
	rows.Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 5 {
			return
		}
		row := NewRecord()
		row.Set(colService, strippedText(cells.Eq(0)))
		row.Set(colEvaluation, strippedText(cells.Eq(1)))
		row.Set(colOpinion, anchorText(cells.Eq(2), links))
		row.Set(colProtocol, strippedText(cells.Eq(3)))
		row.Set(colSupplementary, anchorText(cells.Eq(4), links))
		items = append(items, row)
	})

	return &Opinions{Items: items, Links: links.Links()}
}

// anchorText returns the visible text of the cell's anchor (empty when the
// cell has none) and collects its href unless it is the placeholder.
func anchorText(td *goquery.Selection, links *linkSet) string {
	anchor := td.Find("a").First()
	if anchor.Length() == 0 {
		return ""
	}
	if href, ok := anchor.Attr("href"); ok {
		links.Add(href)
	}
	return strings.TrimSpace(anchor.Text())
}
