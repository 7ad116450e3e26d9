package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testCounter = NewCounter("test_total", "metrics", "counter used by tests", []string{"kind"})

func TestServer(t *testing.T) {
	testCounter.WithLabelValues("served").Inc()

	srv, err := StartServer(zaptest.NewLogger(t), "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, srv.Stop(context.Background())) })

	resp, err := http.Get(fmt.Sprintf("http://%s/metrics", srv.Addr()))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `repeater_metrics_test_total{kind="served"} 1`)
}

func TestPush(t *testing.T) {
	var path string
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(gw.Close)

	require.NoError(t, Push(context.Background(), gw.URL, "run-1"))
	require.True(t, strings.HasPrefix(path, "/metrics/job/go-repeater/run/run-1"), path)
}

func TestPushFailure(t *testing.T) {
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(gw.Close)

	require.Error(t, Push(context.Background(), gw.URL, "run-1"))
}
