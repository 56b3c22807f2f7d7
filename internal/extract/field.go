package extract

import "github.com/PuerkitoBio/goquery"

// Labels the portal is known to render without a value region. These are
// accepted silently instead of producing a warning per visit.
var silentMissingValueLabels = map[string]struct{}{
	"Έντυπο Δ11Έντυπο Δ11": {},
	"Παρατηρήσεις":         {},
	"":                     {},
}

// extractFieldValue turns one value region into a FieldValue. Exactly one of
// the three shapes is produced: a list when the region holds a plain-list
// marker, rows when it holds a table, free text otherwise. Document links
// found anywhere in the region are collected separately; the links component
// exists only when at least one real link was found.
func extractFieldValue(view *goquery.Selection) *FieldValue {
	if view.Find("ul.no-style").Length() > 0 {
		return extractListField(view)
	}
	if view.Find("table").Length() > 0 {
		return extractRowsField(view)
	}
	return extractTextField(view)
}

func extractListField(view *goquery.Selection) *FieldValue {
	var items []string
	links := newLinkSet()
	view.Find("li").Each(func(_ int, li *goquery.Selection) {
		items = append(items, strippedText(li))
		// List items carry at most one document link; only the first anchor
		// per item is collected.
		anchor := li.Find("a").First()
		if anchor.Length() > 0 {
			href, _ := anchor.Attr("href")
			links.Add(href)
		}
	})
	return ListValue(items, links.Links())
}

func extractRowsField(view *goquery.Selection) *FieldValue {
	var rows [][]string
	links := newLinkSet()
	view.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			cells = append(cells, strippedText(td))
			td.Find("a").Each(func(_ int, a *goquery.Selection) {
				href, _ := a.Attr("href")
				links.Add(href)
			})
		})
		rows = append(rows, cells)
	})
	return RowsValue(rows, links.Links())
}

func extractTextField(view *goquery.Selection) *FieldValue {
	links := newLinkSet()
	view.Find("a").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		links.Add(href)
	})
	return TextValue(strippedText(view), links.Links())
}
