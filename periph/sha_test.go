package periph

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSHAMatchesStdlib(t *testing.T) {
	b := newTestBoard(t, 64)

	sha, err := b.TakeSHA()
	require.NoError(t, err)

	input := bytes.Repeat([]byte{0xAB}, 32*1024)

	for _, size := range []int{0, 64, 1000, 32 * 1024} {
		d, err := sha.Start()
		require.NoError(t, err)
		require.NoError(t, d.Update(input[:size]))

		out := make([]byte, SHA256Size)
		require.NoError(t, d.Finish(out))

		want := sha256.Sum256(input[:size])
		assert.Equal(t, want[:], out, "size %d", size)
	}
}

func TestSHAHeldUntilFinish(t *testing.T) {
	b := newTestBoard(t, 64)

	sha, err := b.TakeSHA()
	require.NoError(t, err)

	d, err := sha.Start()
	require.NoError(t, err)

	_, err = sha.Start()
	assert.ErrorIs(t, err, ErrBusy)

	assert.ErrorIs(t, d.Finish(make([]byte, 16)), ErrBufferSize)
	require.NoError(t, d.Finish(make([]byte, SHA256Size)))

	assert.ErrorIs(t, d.Update([]byte("x")), ErrFinished)
	assert.ErrorIs(t, d.Finish(make([]byte, SHA256Size)), ErrFinished)

	_, err = sha.Start()
	require.NoError(t, err)
}
