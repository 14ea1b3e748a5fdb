package periph

import (
	"fmt"
	"sync/atomic"
)

// DescriptorChunk is the largest payload a single DMA descriptor covers.
const DescriptorChunk = 4092

// Owner says who may touch the memory behind a descriptor.
type Owner uint8

const (
	OwnerCPU Owner = iota
	OwnerDMA
)

// Descriptor is one link of a DMA descriptor list.
type Descriptor struct {
	Size   int
	Length int
	Owner  Owner
	EOF    bool
}

// DescriptorCount returns how many descriptors cover size bytes.
func DescriptorCount(size int) int {
	return (size + DescriptorChunk - 1) / DescriptorChunk
}

// DMAChannel is a claimed DMA channel. It is consumed when an engine is
// bound to it.
type DMAChannel struct {
	moved atomic.Bool
}

// Buffers is a set of receive and transmit buffers with their descriptor
// lists, as carved out by DMABuffers.
type Buffers struct {
	RX            []byte
	RXDescriptors []Descriptor
	TX            []byte
	TXDescriptors []Descriptor
}

// DMABuffers allocates a receive and a transmit buffer of size bytes each
// from the board heap, with enough descriptors to cover them.
func (b *Board) DMABuffers(size int) (*Buffers, error) {
	if size <= 0 {
		return nil, fmt.Errorf("dma buffers %d: %w", size, ErrBufferSize)
	}

	rx, err := b.heap.Alloc(size)
	if err != nil {
		return nil, fmt.Errorf("dma rx buffer: %w", err)
	}

	tx, err := b.heap.Alloc(size)
	if err != nil {
		b.heap.Free(rx)

		return nil, fmt.Errorf("dma tx buffer: %w", err)
	}

	n := DescriptorCount(size)

	return &Buffers{
		RX:            rx,
		RXDescriptors: make([]Descriptor, n),
		TX:            tx,
		TXDescriptors: make([]Descriptor, n),
	}, nil
}

type dmaBuf struct {
	descs  []Descriptor
	buf    []byte
	length int
}

func newDMABuf(descs []Descriptor, buf []byte) (dmaBuf, error) {
	if len(buf) == 0 {
		return dmaBuf{}, fmt.Errorf("empty buffer: %w", ErrBufferSize)
	}

	if need := DescriptorCount(len(buf)); len(descs) < need {
		return dmaBuf{}, fmt.Errorf(
			"%d bytes need %d descriptors, have %d: %w",
			len(buf), need, len(descs), ErrDescriptors,
		)
	}

	d := dmaBuf{descs: descs, buf: buf}
	d.setLength(len(buf))

	return d, nil
}

// setLength links just enough descriptors to cover n bytes and hands them
// to the DMA engine. The remaining descriptors go back to the CPU.
func (d *dmaBuf) setLength(n int) {
	remaining := n
	for i := range d.descs {
		desc := &d.descs[i]

		if remaining <= 0 {
			*desc = Descriptor{}

			continue
		}

		chunk := min(remaining, DescriptorChunk)
		remaining -= chunk

		*desc = Descriptor{
			Size:   chunk,
			Length: chunk,
			Owner:  OwnerDMA,
			EOF:    remaining == 0,
		}
	}

	d.length = n
}

func (d *dmaBuf) checkedSetLength(n int) error {
	if n <= 0 || n > len(d.buf) {
		return fmt.Errorf(
			"length %d outside 1..%d: %w", n, len(d.buf), ErrBufferSize,
		)
	}

	d.setLength(n)

	return nil
}

// Capacity is the size of the backing buffer.
func (d *dmaBuf) Capacity() int {
	return len(d.buf)
}

// TxBuf is a buffer the DMA engine reads from.
type TxBuf struct {
	dmaBuf
}

// NewTxBuf binds a transmit buffer to its descriptors.
func NewTxBuf(descs []Descriptor, buf []byte) (*TxBuf, error) {
	d, err := newDMABuf(descs, buf)
	if err != nil {
		return nil, fmt.Errorf("tx buffer: %w", err)
	}

	return &TxBuf{d}, nil
}

// SetLength sets how many bytes the next transfer sends.
func (t *TxBuf) SetLength(n int) error {
	return t.checkedSetLength(n)
}

// Fill copies p into the start of the buffer and returns the number of
// bytes copied.
func (t *TxBuf) Fill(p []byte) int {
	return copy(t.buf, p)
}

// Bytes returns the bytes of the next transfer.
func (t *TxBuf) Bytes() []byte {
	return t.buf[:t.length]
}

// RxBuf is a buffer the DMA engine writes into.
type RxBuf struct {
	dmaBuf
}

// NewRxBuf binds a receive buffer to its descriptors.
func NewRxBuf(descs []Descriptor, buf []byte) (*RxBuf, error) {
	d, err := newDMABuf(descs, buf)
	if err != nil {
		return nil, fmt.Errorf("rx buffer: %w", err)
	}

	return &RxBuf{d}, nil
}

// SetLength sets how many bytes the next transfer receives.
func (r *RxBuf) SetLength(n int) error {
	return r.checkedSetLength(n)
}

// Bytes returns the bytes received by the last transfer.
func (r *RxBuf) Bytes() []byte {
	return r.buf[:r.length]
}

// release hands the descriptors back to the CPU after a transfer.
func (d *dmaBuf) release() {
	for i := range d.descs {
		d.descs[i].Owner = OwnerCPU
	}
}
