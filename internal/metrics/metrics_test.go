package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	Init()

	require.NotPanics(t, func() {
		ObserveDownload(OutcomeSuccess)
		ObserveDownload(OutcomeFailed)
		ObserveRetry()
		ObserveBytes(1024)
		DownloadStarted()
		DownloadFinished()
	})
}

func TestRouterServesHealthAndMetrics(t *testing.T) {
	Init()
	ObserveDownload(OutcomeSuccess)

	srv := httptest.NewServer(Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
}
