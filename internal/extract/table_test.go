package extract

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parseFragment(t *testing.T, fragment string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	require.NoError(t, err)
	return doc
}

func TestExtractTableUsesHeaderNames(t *testing.T) {
	doc := parseFragment(t, `<table>
		<thead><tr><th>Όνομα</th><th>Αρχείο</th></tr></thead>
		<tbody>
			<tr><td>Μελέτη</td><td><a href="file/view/abc123">έγγραφο</a></td></tr>
			<tr><td>Απόφαση</td><td>—</td></tr>
		</tbody>
	</table>`)

	table := ExtractTable(doc.Find("table"))
	require.NotNil(t, table)
	require.Len(t, table.Items, 2)
	require.Equal(t, []string{"Όνομα", "Αρχείο"}, table.Items[0].Keys())

	name, _ := table.Items[0].Get("Όνομα")
	require.Equal(t, "Μελέτη", name)
	file, _ := table.Items[0].Get("Αρχείο")
	require.Equal(t, "έγγραφο", file, "cell with a real link should use the anchor text")
	require.Equal(t, []string{"file/view/abc123"}, table.Links)
}

func TestExtractTableSynthesizesOrdinalHeaders(t *testing.T) {
	doc := parseFragment(t, `<table><tbody>
		<tr><td>a</td><td>b</td><td>c</td></tr>
		<tr><td>d</td><td>e</td></tr>
	</tbody></table>`)

	table := ExtractTable(doc.Find("table"))
	require.NotNil(t, table)
	require.Equal(t, []string{"Column 1", "Column 2", "Column 3"}, table.Items[0].Keys(),
		"header count follows the widest row")

	third, _ := table.Items[1].Get("Column 3")
	require.Equal(t, "", third, "short rows are padded with empty cells")
}

func TestExtractTableHeaderWidthMismatchFallsBack(t *testing.T) {
	doc := parseFragment(t, `<table>
		<thead><tr><th>Μόνο μία</th></tr></thead>
		<tbody><tr><td>a</td><td>b</td></tr></tbody>
	</table>`)

	table := ExtractTable(doc.Find("table"))
	require.NotNil(t, table)
	require.Equal(t, []string{"Column 1", "Column 2"}, table.Items[0].Keys())
}

func TestExtractTableIgnoresPlaceholderLinks(t *testing.T) {
	doc := parseFragment(t, `<table><tbody>
		<tr><td><a href="`+PlaceholderHref+`">κανένα αρχείο</a></td></tr>
		<tr><td><a href="file/view/real">αρχείο</a></td></tr>
		<tr><td><a href="file/view/real">αρχείο</a></td></tr>
	</tbody></table>`)

	table := ExtractTable(doc.Find("table"))
	require.NotNil(t, table)
	require.Equal(t, []string{"file/view/real"}, table.Links)

	first, _ := table.Items[0].Get("Column 1")
	require.Equal(t, "κανένα αρχείο", first, "placeholder cell falls back to plain text")
}

func TestExtractTableNoBodyRows(t *testing.T) {
	doc := parseFragment(t, `<table><thead><tr><th>x</th></tr></thead><tbody></tbody></table>`)
	require.Nil(t, ExtractTable(doc.Find("table")))
}

func TestTableMarshalKeepsRowOrder(t *testing.T) {
	doc := parseFragment(t, `<table>
		<thead><tr><th>Β στήλη</th><th>Α στήλη</th></tr></thead>
		<tbody><tr><td>1</td><td>2</td></tr></tbody>
	</table>`)

	table := ExtractTable(doc.Find("table"))
	out, err := json.Marshal(table)
	require.NoError(t, err)
	require.JSONEq(t, `{"items":[{"Β στήλη":"1","Α στήλη":"2"}],"links":[]}`, string(out))
	require.Less(t, strings.Index(string(out), "Β στήλη"), strings.Index(string(out), "Α στήλη"),
		"insertion order is preserved in the serialized record")
}
