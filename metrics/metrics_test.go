package metrics

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/accelbench/harness"
)

func TestRecorderReport(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()

	require.NoError(t, r.Report(ctx, harness.Result{
		Algorithm:     harness.AESAlgorithm,
		Kind:          harness.KindThroughput,
		RequestedSize: 64,
		Size:          64,
		Iterations:    100,
		Elapsed:       500 * time.Microsecond,
		Throughput:    12_800_000,
	}))
	require.NoError(t, r.Report(ctx, harness.Result{
		Algorithm:     harness.SHAAlgorithm,
		Kind:          harness.KindLatency,
		RequestedSize: 1024,
		Size:          1024,
		Iterations:    1,
		Elapsed:       250 * time.Microsecond,
		Unit:          harness.Microseconds,
	}))

	assert.Equal(t, 12_800_000.0,
		testutil.ToFloat64(r.Throughput.WithLabelValues(harness.AESAlgorithm, "64")))
	assert.InDelta(t, 0.00025,
		testutil.ToFloat64(r.Latency.WithLabelValues(harness.SHAAlgorithm, "1024")), 1e-12)
	assert.Equal(t, 1.0,
		testutil.ToFloat64(r.ResultsTotal.WithLabelValues(harness.AESAlgorithm, "throughput")))
	assert.Equal(t, 100.0,
		testutil.ToFloat64(r.IterationsLast.WithLabelValues(harness.AESAlgorithm)))
	assert.Equal(t, 1, testutil.CollectAndCount(r.Throughput))
	assert.Equal(t, 1, testutil.CollectAndCount(r.Latency))
}

func TestHandler(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.Report(context.Background(), harness.Result{
		Algorithm:     harness.RSAAlgorithm,
		Kind:          harness.KindOneShot,
		RequestedSize: 256,
		Size:          256,
		Iterations:    1,
		Elapsed:       42 * time.Millisecond,
		Unit:          harness.Milliseconds,
	}))

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, "accelbench_latency_seconds"))
	assert.True(t, strings.Contains(text, `kind="one-shot"`))
}

func TestServeStopsOnCancel(t *testing.T) {
	r := NewRecorder()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- r.Serve(ctx, "127.0.0.1:0", slog.New(slog.DiscardHandler))
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
