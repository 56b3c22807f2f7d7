package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pkaravel/eprm-crawler/internal/geo"
)

// LocationPayload is the structured form of the location panel.
type LocationPayload struct {
	Coordinates               Coordinates `json:"coordinates"`
	LocationName              *string     `json:"location_name"`
	AdministrativeHierarchies [][]string  `json:"administrative_hierarchies"`
}

// Coordinates groups the parsed coordinate widget state.
type Coordinates struct {
	Type   *string           `json:"type"`
	Points []CoordinatePoint `json:"points"`
	Raw    *string           `json:"raw"`
}

// CoordinatePoint pairs one positional point label with its geographic and
// projected coordinates. Both systems are rendered as strings to preserve
// the portal's own precision.
type CoordinatePoint struct {
	Type   string     `json:"type"`
	EGSA87 Planar     `json:"EGSA87"`
	WGS84  Geographic `json:"WGS84"`
}

// Planar holds projected EGSA87 east/north values.
type Planar struct {
	X *string `json:"x"`
	Y *string `json:"y"`
}

// Geographic holds a WGS84 latitude (φ) / longitude (λ) pair.
type Geographic struct {
	Phi    *string `json:"φ"`
	Lambda *string `json:"λ"`
}

// The point type flag is embedded in an inline script, not a form control.
// The attribute name typo is the portal's, not ours.
var pointTypeRe = regexp.MustCompile(`var pointTYpe = "(\d)"`)

var pointRowIDRe = regexp.MustCompile(`point_data_row`)

var pointLabels = []string{"Αρχή", "Μέση", "Τέλος"}

// extractLocation parses the location panel: the raw coordinate string from
// the hidden map input, the linear/single flag, one labeled point per
// coordinate-row container (projected into EGSA87), the location name, and
// every administrative hierarchy path.
func extractLocation(panel *goquery.Selection) *LocationPayload {
	result := &LocationPayload{
		AdministrativeHierarchies: [][]string{},
	}
	result.Coordinates.Points = []CoordinatePoint{}

	if input := panel.Find("input#mapLatLng").First(); input.Length() > 0 {
		if raw, ok := input.Attr("value"); ok {
			result.Coordinates.Raw = &raw
		}
	}

	panel.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		m := pointTypeRe.FindStringSubmatch(script.Text())
		if m == nil {
			return true
		}
		kind := "single"
		if m[1] == "1" {
			kind = "linear"
		}
		result.Coordinates.Type = &kind
		return false
	})

	rawPairs := parseRawCoordinates(result.Coordinates.Raw)

	panel.Find("div[id]").Each(func(_ int, div *goquery.Selection) {
		id, _ := div.Attr("id")
		if !pointRowIDRe.MatchString(id) {
			return
		}
		i := len(result.Coordinates.Points)
		point := CoordinatePoint{Type: pointLabel(i)}
		if i < len(rawPairs) {
			lat, lng := rawPairs[i][0], rawPairs[i][1]
			point.WGS84 = Geographic{Phi: &lat, Lambda: &lng}
			point.EGSA87 = projectPair(lng, lat)
		}
		result.Coordinates.Points = append(result.Coordinates.Points, point)
	})

	if mapDiv := panel.Find("div#googlemap").First(); mapDiv.Length() > 0 {
		if view := firstAfter(panel, mapDiv, "div.control-view"); view != nil {
			name := strippedText(view)
			result.LocationName = &name
		}
	}

	panel.Find("ul.hidden-chained-location li").Each(func(_ int, li *goquery.Selection) {
		hierarchy := splitHierarchy(strippedText(li))
		if len(hierarchy) > 0 {
			result.AdministrativeHierarchies = append(result.AdministrativeHierarchies, hierarchy)
		}
	})

	return result
}

// parseRawCoordinates splits the hidden input's value into lat/lng pairs:
// dash-separated points, each point a comma-separated "lat,lng".
func parseRawCoordinates(raw *string) [][2]string {
	if raw == nil || *raw == "" {
		return nil
	}
	var pairs [][2]string
	for _, part := range strings.Split(*raw, "-") {
		if part == "" {
			continue
		}
		coords := strings.Split(part, ",")
		if len(coords) < 2 {
			continue
		}
		pairs = append(pairs, [2]string{coords[0], coords[1]})
	}
	return pairs
}

func pointLabel(i int) string {
	if i < len(pointLabels) {
		return pointLabels[i]
	}
	return "Point " + strconv.Itoa(i+1)
}

// projectPair projects a WGS84 lat/lng string pair into formatted EGSA87
// planar coordinates. Unparseable values leave the planar side null.
func projectPair(lng, lat string) Planar {
	lngV, errLng := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	latV, errLat := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if errLng != nil || errLat != nil {
		return Planar{}
	}
	x, y := geo.ToEGSA87(lngV, latV)
	xs := geo.FormatCoordinate(x)
	ys := geo.FormatCoordinate(y)
	return Planar{X: &xs, Y: &ys}
}

// firstAfter returns the first element matching selector that appears after
// marker in document order, nil when there is none. The panel fragments are
// small, so a linear pre-order walk is cheap.
func firstAfter(panel, marker *goquery.Selection, selector string) *goquery.Selection {
	if len(marker.Nodes) == 0 {
		return nil
	}
	markerNode := marker.Nodes[0]
	seen := false
	var found *goquery.Selection
	panel.Find("*").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if el.Nodes[0] == markerNode {
			seen = true
			return true
		}
		if seen && el.Is(selector) {
			found = el
			return false
		}
		return true
	})
	return found
}

// splitHierarchy turns "Αττικής / Αθηνών / Κέντρο" into its trimmed,
// non-empty path segments.
func splitHierarchy(text string) []string {
	var out []string
	for _, part := range strings.Split(text, "/") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
