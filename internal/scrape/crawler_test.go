package scrape

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pkaravel/eprm-crawler/internal/config"
)

// fakeNavigator serves pre-rendered listing pages and project documents.
type fakeNavigator struct {
	pages    []string
	captions []string
	projects map[string]string
	htmlErrs map[int]error

	page         int
	nextRequests int
}

func (f *fakeNavigator) OpenTab(ctx context.Context, tab string) error { return nil }
func (f *fakeNavigator) SetPageSize(ctx context.Context, n int) error  { return nil }
func (f *fakeNavigator) Caption(ctx context.Context) (string, error)   { return f.captions[f.page], nil }

func (f *fakeNavigator) PageHTML(ctx context.Context) (string, error) {
	if err := f.htmlErrs[f.page]; err != nil {
		return "", err
	}
	return f.pages[f.page], nil
}

func (f *fakeNavigator) NextPage(ctx context.Context) error {
	f.nextRequests++
	if f.page+1 >= len(f.pages) {
		return fmt.Errorf("no page beyond %d", f.page+1)
	}
	f.page++
	return nil
}

func (f *fakeNavigator) OpenProject(ctx context.Context, url string) (string, error) {
	html, ok := f.projects[url]
	if !ok {
		return "", fmt.Errorf("unknown project %s", url)
	}
	return html, nil
}

func listingPage(offset, n int) string {
	var b strings.Builder
	b.WriteString("<table><tbody>")
	for i := 0; i < n; i++ {
		id := offset + i
		fmt.Fprintf(&b, `<tr>
			<td><a href="/src/App/w12/view/%d">Έργο %d</a></td>
			<td>ΠΕΤ-%d</td>
			<td>πρωτ.</td>
			<td>ημ.</td>
			<td>κατάσταση</td>
		</tr>`, id, id, id)
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

func scrapeConfig() config.ScrapeConfig {
	return config.ScrapeConfig{OutputDir: "Scraped", PageSize: 100, NavTimeout: 1}
}

func TestCrawlTabPaginatesToReportedTotal(t *testing.T) {
	nav := &fakeNavigator{
		pages: []string{listingPage(0, 100), listingPage(100, 100), listingPage(200, 50)},
		captions: []string{
			"Εμφανίζονται 1 Έως 100 Από 250",
			"Εμφανίζονται 101 Έως 200 Από 250",
			"Εμφανίζονται 201 Έως 250 Από 250",
		},
		projects: map[string]string{},
	}
	for i := 0; i < 250; i++ {
		nav.projects[fmt.Sprintf("https://eprm.ypen.gr/src/App/w12/view/%d", i)] =
			`<html><body><div class="panel-default" id="panel-general">
				<div class="form-group">
					<label class="control-label">Τίτλος</label>
					<div class="control-view">κάτι</div>
				</div>
			</div></body></html>`
	}

	crawler := NewCrawler(nav, scrapeConfig(), nil)
	out, err := crawler.CrawlTab(context.Background(), "w12/view")
	require.NoError(t, err)
	require.Equal(t, 250, out.Len(), "every reported row becomes one project record")
	require.Equal(t, 2, nav.nextRequests, "the short final page must not trigger another page request")

	require.True(t, out.Has("ΠΕΤ-0_w12_view_0"))
	require.True(t, out.Has("ΠΕΤ-249_w12_view_249"))
}

func TestCrawlTabZeroRecords(t *testing.T) {
	nav := &fakeNavigator{
		pages:    []string{listingPage(0, 0)},
		captions: []string{"Εμφανίζονται 0 Έως 0 Από 0"},
	}

	crawler := NewCrawler(nav, scrapeConfig(), nil)
	out, err := crawler.CrawlTab(context.Background(), "w12/view")
	require.NoError(t, err)
	require.Equal(t, 0, out.Len())
	require.Zero(t, nav.nextRequests, "a zero-total tab ends before any pagination")
}

func TestCrawlTabKeepsRowsCollectedBeforePageFailure(t *testing.T) {
	nav := &fakeNavigator{
		pages: []string{listingPage(0, 100), listingPage(100, 100)},
		captions: []string{
			"Εμφανίζονται 1 Έως 100 Από 150",
			"Εμφανίζονται 101 Έως 150 Από 150",
		},
		htmlErrs: map[int]error{1: fmt.Errorf("browser went away")},
		projects: map[string]string{},
	}
	for i := 0; i < 100; i++ {
		nav.projects[fmt.Sprintf("https://eprm.ypen.gr/src/App/w12/view/%d", i)] =
			`<html><body><div class="panel-default" id="panel-x"></div></body></html>`
	}

	crawler := NewCrawler(nav, scrapeConfig(), nil)
	out, err := crawler.CrawlTab(context.Background(), "w12/view")
	require.NoError(t, err, "a mid-tab page failure keeps the tab's partial document")
	require.Equal(t, 100, out.Len())
	require.True(t, out.Has("ΠΕΤ-99_w12_view_99"))
}

func TestCrawlTabSkipsFailingProjects(t *testing.T) {
	nav := &fakeNavigator{
		pages:    []string{listingPage(0, 2)},
		captions: []string{"Εμφανίζονται 1 Έως 2 Από 2"},
		projects: map[string]string{
			"https://eprm.ypen.gr/src/App/w12/view/0": `<html><body><div class="panel-default" id="panel-x"></div></body></html>`,
		},
	}

	crawler := NewCrawler(nav, scrapeConfig(), nil)
	out, err := crawler.CrawlTab(context.Background(), "w12/view")
	require.NoError(t, err)
	require.Equal(t, 1, out.Len(), "a failing detail page is skipped, not fatal")
	require.True(t, out.Has("ΠΕΤ-0_w12_view_0"))
}
