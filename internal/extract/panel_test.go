package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	require.Equal(t, PanelLocation, KindOf("panel-location"))
	require.Equal(t, PanelOpinions, KindOf("panel-opinions"))
	require.Equal(t, PanelOpinions, KindOf("panel-publication"))
	require.Equal(t, PanelGeneric, KindOf("panel-general"))
	require.Equal(t, PanelGeneric, KindOf(""))
}

func TestPanelGeneric(t *testing.T) {
	doc := parseFragment(t, `<div class="panel-body">
		<table><tbody><tr><td>κελί</td></tr></tbody></table>
		<div class="form-group">
			<label class="control-label">Τίτλος</label>
			<div class="control-view">Δοκιμαστικό έργο</div>
		</div>
		<div class="form-group">
			<div class="control-view">Ορφανό κείμενο</div>
		</div>
		<div class="form-group">
			<label class="control-label">Παρατηρήσεις</label>
		</div>
	</div>`)

	result := NewExtractor(nil).Panel(doc.Find("div.panel-body"), "panel-general", "https://example.test/p/1")
	require.Equal(t, []string{"panel-general"}, result.Keys())

	inner, _ := result.Get("panel-general")
	data, ok := inner.(*Record)
	require.True(t, ok)
	require.Equal(t, []string{"table_0", "Τίτλος", "text_1"}, data.Keys())

	title, _ := data.Get("Τίτλος")
	out, err := json.Marshal(title)
	require.NoError(t, err)
	require.JSONEq(t, `"Δοκιμαστικό έργο"`, string(out))

	orphan, _ := data.Get("text_1")
	require.Equal(t, "Ορφανό κείμενο", orphan, "unlabeled fields keep their document position index")
}

func TestPanelOpinionsWrapped(t *testing.T) {
	doc := parseFragment(t, `<div class="panel-body"><table><tbody>
		<tr>
			<td>Δασαρχείο</td>
			<td>Θετική</td>
			<td><a href="file/view/op1">Γνωμοδότηση</a></td>
			<td>12345/2024</td>
			<td></td>
		</tr>
	</tbody></table></div>`)

	result := NewExtractor(nil).Panel(doc.Find("div.panel-body"), "panel-opinions", "https://example.test/p/1")
	inner, _ := result.Get("panel-opinions")
	data, ok := inner.(*Record)
	require.True(t, ok)
	require.True(t, data.Has("Γνωμοδοτήσεις"))

	v, _ := data.Get("Γνωμοδοτήσεις")
	opinions, ok := v.(*Opinions)
	require.True(t, ok)
	require.Len(t, opinions.Items, 1)
	require.Equal(t, []string{"file/view/op1"}, opinions.Links)
}

func TestPanelOpinionsEmptyTable(t *testing.T) {
	doc := parseFragment(t, `<div class="panel-body"><table><tbody></tbody></table></div>`)

	result := NewExtractor(nil).Panel(doc.Find("div.panel-body"), "panel-publication", "https://example.test/p/1")
	inner, _ := result.Get("panel-publication")
	data, ok := inner.(*Record)
	require.True(t, ok)

	v, _ := data.Get("Γνωμοδοτήσεις")
	empty, ok := v.(*Record)
	require.True(t, ok)
	require.Equal(t, 0, empty.Len(), "a rowless opinions table maps to an empty object")
}

func TestPanelLocationDispatch(t *testing.T) {
	doc := parseFragment(t, `<div class="panel-body">
		<input id="mapLatLng" value="38.0,23.7"/>
		<div id="point_data_row_0"></div>
	</div>`)

	result := NewExtractor(nil).Panel(doc.Find("div.panel-body"), "panel-location", "https://example.test/p/1")
	inner, _ := result.Get("panel-location")
	payload, ok := inner.(*LocationPayload)
	require.True(t, ok)
	require.Len(t, payload.Coordinates.Points, 1)
}
