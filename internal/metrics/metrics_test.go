package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/docwatch/internal/poller"
)

func TestObserver_CountsLoadsAndQueries(t *testing.T) {
	reg := prometheus.NewRegistry()
	o, err := NewObserver(reg)
	require.NoError(t, err)

	o.ObserveLoad("documents", poller.Silent, poller.OutcomeUnchanged, 20*time.Millisecond)
	o.ObserveLoad("documents", poller.Silent, poller.OutcomeUnchanged, 10*time.Millisecond)
	o.ObserveLoad("documents", poller.Silent, poller.OutcomeSkipped, 0)
	o.ObserveQuery("results")

	assert.Equal(t, 2.0, testutil.ToFloat64(o.polls.WithLabelValues("documents", "silent", "unchanged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.polls.WithLabelValues("documents", "silent", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(o.searches.WithLabelValues("results")))
	assert.Equal(t, 1, testutil.CollectAndCount(o.fetchDuration))
}

func TestNewObserver_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewObserver(reg)
	require.NoError(t, err)
	second, err := NewObserver(reg)
	require.NoError(t, err)

	second.ObserveQuery("empty")
	assert.Equal(t, 1.0, testutil.ToFloat64(first.searches.WithLabelValues("empty")))
}

func TestObserver_NilIsSafe(t *testing.T) {
	var o *Observer
	o.ObserveLoad("documents", poller.Forced, poller.OutcomeFailed, time.Second)
	o.ObserveQuery("failed")
}

func TestServe_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	o, err := NewObserver(reg)
	require.NoError(t, err)
	o.ObserveQuery("results")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, Serve(ctx, addr, reg, nil))

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		body = string(data)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)
	assert.True(t, strings.Contains(body, `docwatch_search_queries_total{outcome="results"} 1`), body)
}
