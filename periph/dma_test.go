package periph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorCount(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{1, 1},
		{DescriptorChunk, 1},
		{DescriptorChunk + 1, 2},
		{32 * 1024, 9},
	}

	for _, tt := range tests {
		if got := DescriptorCount(tt.size); got != tt.want {
			t.Errorf("DescriptorCount(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestDMABuffersFromHeap(t *testing.T) {
	b := newTestBoard(t, 64*1024)

	bufs, err := b.DMABuffers(32 * 1024)
	require.NoError(t, err)
	assert.Len(t, bufs.RX, 32*1024)
	assert.Len(t, bufs.TX, 32*1024)
	assert.Len(t, bufs.RXDescriptors, 9)
	assert.Equal(t, 64*1024, b.Heap().Used())

	_, err = b.DMABuffers(1)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

func TestDMABuffersRollsBackOnPartialFailure(t *testing.T) {
	b := newTestBoard(t, 1500)

	_, err := b.DMABuffers(1000)
	assert.ErrorIs(t, err, ErrOutOfMemory)
	assert.Equal(t, 0, b.Heap().Used())
}

func TestTxBufDescriptorChain(t *testing.T) {
	buf := make([]byte, 10000)
	descs := make([]Descriptor, DescriptorCount(len(buf)))

	tx, err := NewTxBuf(descs, buf)
	require.NoError(t, err)
	assert.Equal(t, 10000, tx.length)
	assert.Len(t, tx.Bytes(), 10000)

	require.NoError(t, tx.SetLength(5000))
	assert.Len(t, tx.Bytes(), 5000)

	d := tx.descs
	assert.Equal(t, DescriptorChunk, d[0].Length)
	assert.False(t, d[0].EOF)
	assert.Equal(t, 5000-DescriptorChunk, d[1].Length)
	assert.True(t, d[1].EOF)
	assert.Equal(t, OwnerDMA, d[1].Owner)
	assert.Equal(t, Descriptor{}, d[2])
}

func TestDMABufValidation(t *testing.T) {
	_, err := NewTxBuf(make([]Descriptor, 1), make([]byte, DescriptorChunk+1))
	assert.ErrorIs(t, err, ErrDescriptors)

	_, err = NewRxBuf(make([]Descriptor, 1), nil)
	assert.ErrorIs(t, err, ErrBufferSize)

	rx, err := NewRxBuf(make([]Descriptor, 1), make([]byte, 64))
	require.NoError(t, err)
	assert.ErrorIs(t, rx.SetLength(65), ErrBufferSize)
	assert.ErrorIs(t, rx.SetLength(0), ErrBufferSize)
}
