package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersRegistered(t *testing.T) {
	SignalsTotal.WithLabelValues("BTC-USD", "HOLD").Inc()
	RunsTotal.WithLabelValues("ok").Inc()

	mfs, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(mfs))
	for _, mf := range mfs {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "revertbot_signals_total")
	assert.Contains(t, names, "revertbot_runs_total")
}

func TestPushSendsToGateway(t *testing.T) {
	OrdersTotal.WithLabelValues("BTC-USD", "BUY").Inc()

	var path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, Push(context.Background(), srv.URL, "test-job"))
	assert.Equal(t, "/metrics/job/test-job", path)
	assert.Contains(t, body, "revertbot_orders_total")
}

func TestPushWithoutURLIsNoop(t *testing.T) {
	assert.NoError(t, Push(context.Background(), "", "job"))
}

func TestPushGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	assert.Error(t, Push(context.Background(), srv.URL, "job"))
}
