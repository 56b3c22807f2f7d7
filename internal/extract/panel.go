package extract

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// PanelKind enumerates the extraction strategies a panel can dispatch to.
type PanelKind int

// Known panel kinds. Unknown identifiers fall back to the generic strategy.
const (
	PanelGeneric PanelKind = iota
	PanelLocation
	PanelOpinions
)

// KindOf maps a raw panel identifier to its extraction strategy.
func KindOf(panelID string) PanelKind {
	switch panelID {
	case "panel-location":
		return PanelLocation
	case "panel-opinions", "panel-publication":
		return PanelOpinions
	default:
		return PanelGeneric
	}
}

// opinionsKey is the fixed human-readable key the opinions table is stored
// under inside its panel mapping.
const opinionsKey = "Γνωμοδοτήσεις"

// Extractor runs panel extraction with structured warning/error logging.
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor builds an Extractor. A nil logger is replaced with a no-op.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Panel extracts one panel fragment and returns a mapping keyed by the panel
// identifier. Failures never escape the panel boundary: a panel that cannot
// be parsed contributes an empty mapping and an error log line carrying the
// panel identity and the owning page URL.
func (e *Extractor) Panel(panel *goquery.Selection, panelID, pageURL string) (result *Record) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panel extraction failed",
				zap.String("panel", panelID),
				zap.String("url", pageURL),
				zap.Any("panic", r),
			)
			result = NewRecord()
			result.Set(panelID, NewRecord())
		}
	}()

	result = NewRecord()
	switch KindOf(panelID) {
	case PanelLocation:
		result.Set(panelID, extractLocation(panel))
	case PanelOpinions:
		data := NewRecord()
		if opinions := extractOpinions(panel); opinions != nil {
			data.Set(opinionsKey, opinions)
		} else {
			data.Set(opinionsKey, NewRecord())
		}
		result.Set(panelID, data)
	default:
		result.Set(panelID, e.generic(panel, panelID, pageURL))
	}
	return result
}

// generic extracts an unrecognized panel: every table with body rows under
// table_{index}, then every form-group field in document order under its
// label (or text_{index} when unlabeled with non-empty text).
func (e *Extractor) generic(panel *goquery.Selection, panelID, pageURL string) *Record {
	data := NewRecord()

	tables := panel.Find("table")
	if tables.Length() > 1 {
		e.logger.Info("multiple tables in panel",
			zap.String("panel", panelID),
			zap.String("url", pageURL),
			zap.Int("tables", tables.Length()),
		)
	}
	tables.Each(func(j int, table *goquery.Selection) {
		if t := ExtractTable(table); t != nil {
			data.Set(fmt.Sprintf("table_%d", j), t)
		}
	})

	panel.Find(".form-group").Each(func(i int, group *goquery.Selection) {
		label := group.Find(".control-label").First()
		if label.Length() == 0 {
			if text := strippedText(group); text != "" {
				data.Set(fmt.Sprintf("text_%d", i), text)
			}
			return
		}

		labelText := strippedText(label)
		view := group.Find(".control-view").First()
		if view.Length() == 0 {
			if _, silent := silentMissingValueLabels[labelText]; !silent {
				e.logger.Warn("missing value region in form group",
					zap.String("panel", panelID),
					zap.String("url", pageURL),
					zap.String("label", labelText),
				)
			}
			return
		}

		data.Set(labelText, extractFieldValue(view))
	})

	return data
}
