package scrape

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const navHTML = `<html><body>
	<ul class="nav"><li><a href="https://eprm.ypen.gr/src/App/user/logout">Έξοδος</a></li></ul>
	<ul class="nav">
		<li><a href="https://eprm.ypen.gr/src/App/w12/view/">Έργα</a></li>
		<li><a href="/w12_public/view/">Δημόσια έργα</a></li>
		<li><a href="#">Μενού</a></li>
		<li><a href="https://eprm.ypen.gr/src/App/">Αρχική</a></li>
		<li><a href="https://eprm.ypen.gr/src/App/w12/view/">Έργα ξανά</a></li>
	</ul>
</body></html>`

func TestDiscoverTabs(t *testing.T) {
	doc := parseDoc(t, navHTML)

	tabs := DiscoverTabs(doc, "https://eprm.ypen.gr/src/App/")
	require.Equal(t, []Tab{
		{Path: "w12/view", Title: "Έργα"},
		{Path: "w12_public/view", Title: "Δημόσια έργα"},
	}, tabs, "first nav, fragments, the base URL, and duplicates are skipped")
}

func TestCheckKnownTabs(t *testing.T) {
	tabs := []Tab{{Path: "w12/view"}, {Path: "w12_public/view"}}

	require.True(t, CheckKnownTabs(tabs, []string{"w12_public/view", "w12/view"}, zap.NewNop()))
	require.False(t, CheckKnownTabs(tabs, []string{"w12/view"}, zap.NewNop()))
	require.True(t, CheckKnownTabs(tabs, nil, zap.NewNop()), "an empty known list disables the check")
}
