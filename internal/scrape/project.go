package scrape

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/pkaravel/eprm-crawler/internal/extract"
)

// keySuffixRe captures the tab-segment portion of a detail-page URL after
// path separators have been flattened to underscores.
var keySuffixRe = regexp.MustCompile(`w\d+_.+`)

// ProjectKey synthesizes the record key for one project: the listing
// identifier joined with the URL suffix starting at the tab segment, falling
// back to the whole URL when no tab segment is present.
func ProjectKey(pet, url string) string {
	flat := strings.ReplaceAll(url, "/", "_")
	if suffix := keySuffixRe.FindString(flat); suffix != "" {
		return pet + "_" + suffix
	}
	return pet + "_" + url
}

// BuildProjectRecord extracts every panel of one rendered detail page, in
// document order, into a single mapping under the synthesized project key.
// Later panels overwrite earlier ones on exact key collision; collisions are
// counted so the operator can review duplicate panel identifiers.
func BuildProjectRecord(doc *goquery.Document, pet, pageURL string, extractor *extract.Extractor, logger *zap.Logger) (string, *extract.Record) {
	if logger == nil {
		logger = zap.NewNop()
	}
	key := ProjectKey(pet, pageURL)

	merged := extract.NewRecord()
	collisions := 0
	doc.Find("div.panel-default").Each(func(_ int, panel *goquery.Selection) {
		panelID, ok := panel.Attr("id")
		if !ok || panelID == "" {
			panelID = "no_id"
		}
		collisions += merged.Merge(extractor.Panel(panel, panelID, pageURL))
	})

	if collisions > 0 {
		logger.Warn("panel key collisions overwrote earlier values",
			zap.String("key", key),
			zap.String("url", pageURL),
			zap.Int("collisions", collisions),
		)
	}

	record := extract.NewRecord()
	record.Set(key, merged)
	return key, record
}
