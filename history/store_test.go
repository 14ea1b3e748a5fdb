package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/accelbench/harness"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)

	t.Cleanup(func() { store.Close() })

	return store
}

func sampleResults(scale float64) []harness.Result {
	return []harness.Result{
		{
			Algorithm:     harness.AESAlgorithm,
			Kind:          harness.KindThroughput,
			RequestedSize: 64,
			Size:          64,
			Iterations:    100,
			Elapsed:       500 * time.Microsecond,
			Throughput:    12_800_000 * scale,
			Stats:         &harness.Stats{Samples: 100, Mean: 5},
		},
		{
			Algorithm:     harness.SHAAlgorithm,
			Kind:          harness.KindLatency,
			RequestedSize: 64,
			Size:          64,
			Iterations:    1,
			Elapsed:       time.Duration(float64(20*time.Microsecond) / scale),
			Unit:          harness.Microseconds,
		},
	}
}

func TestSaveAndLoad(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	run := &Run{Label: "esp32s3", Results: sampleResults(1)}
	require.NoError(t, store.Save(ctx, run))
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.Timestamp.IsZero())

	loaded, err := store.Load(ctx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, "esp32s3", loaded.Label)
	assert.Equal(t, run.Timestamp.UnixNano(), loaded.Timestamp.UnixNano())
	assert.Equal(t, run.Results, loaded.Results)
}

func TestLoadMissing(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAndLatest(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Unix(1_700_000_000, 0)
	for i, label := range []string{"a", "b", "c"} {
		run := &Run{
			Label:     label,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Results:   sampleResults(1),
		}
		require.NoError(t, store.Save(ctx, run))
	}

	listed, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, "c", listed[0].Label, "newest first")
	assert.Empty(t, listed[0].Results)

	latest, err := store.Latest(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "b", latest[0].Label, "oldest first")
	assert.Equal(t, "c", latest[1].Label)
	assert.Len(t, latest[1].Results, 2)
}

func TestCompare(t *testing.T) {
	prev := Run{Results: sampleResults(1)}
	curr := Run{Results: append(sampleResults(2), harness.Result{
		Algorithm:     harness.RSAAlgorithm,
		Kind:          harness.KindOneShot,
		RequestedSize: 256,
	})}

	comps := Compare(prev, curr)
	require.Len(t, comps, 2, "results missing from prev are skipped")

	aes := comps[0]
	assert.Equal(t, harness.AESAlgorithm, aes.Algorithm)
	assert.InDelta(t, 100.0, aes.Change, 1e-9)
	assert.True(t, aes.Improved())

	sha := comps[1]
	assert.InDelta(t, -50.0, sha.Change, 1e-9)
	assert.True(t, sha.Improved(), "lower latency is better")
}
