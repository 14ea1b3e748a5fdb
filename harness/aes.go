package harness

import (
	"context"
	"crypto/aes"
	"fmt"

	"github.com/weiihann/accelbench/periph"
	"github.com/weiihann/accelbench/workload"
)

const (
	AESAlgorithm  = "AES-CTR"
	AESIterations = 100
)

// AESSession owns the DMA-bound AES engine and the one pair of DMA buffers
// every transfer reuses. Smaller sizes use a prefix of the buffers.
type AESSession struct {
	Engine *periph.AESDMA
	RX     *periph.RxBuf
	TX     *periph.TxBuf
}

// NewAESSession allocates size-byte DMA buffers from the board heap once
// and fills the transmit side with the workload pattern.
func NewAESSession(
	board *periph.Board,
	engine *periph.AESDMA,
	gen *workload.Generator,
	size int,
) (AESSession, error) {
	bufs, err := board.DMABuffers(size)
	if err != nil {
		return AESSession{}, fmt.Errorf("aes session: %w", err)
	}

	if err := gen.Fill(bufs.TX); err != nil {
		return AESSession{}, fmt.Errorf("aes session: %w", err)
	}

	rx, err := periph.NewRxBuf(bufs.RXDescriptors, bufs.RX)
	if err != nil {
		return AESSession{}, fmt.Errorf("aes session: %w", err)
	}

	tx, err := periph.NewTxBuf(bufs.TXDescriptors, bufs.TX)
	if err != nil {
		return AESSession{}, fmt.Errorf("aes session: %w", err)
	}

	return AESSession{Engine: engine, RX: rx, TX: tx}, nil
}

// benchmarkKey is an all-zero 256-bit key. It is not a secret and must only
// be used for benchmarking.
var benchmarkKey [32]byte

// aesStep submits one CTR transfer and blocks until it completes.
// Transfers are serialized: buffer preparation never overlaps a transfer.
func aesStep(_ context.Context, s AESSession, size int) (AESSession, error) {
	transfer, err := s.Engine.Process(
		size/aes.BlockSize,
		s.RX,
		s.TX,
		periph.Encryption256,
		periph.CTR,
		benchmarkKey,
	)
	if err != nil {
		return s, err
	}

	engine, rx, tx, err := transfer.Wait()
	if err != nil {
		return s, err
	}

	return AESSession{Engine: engine, RX: rx, TX: tx}, nil
}

// RunAES measures AES-256-CTR throughput over DMA for each size.
func RunAES(
	ctx context.Context,
	opts Options,
	s AESSession,
	sizes []int,
) (AESSession, []Result, error) {
	d := newDriver[AESSession](
		opts, AESAlgorithm, KindThroughput, "", AESIterations, DefaultWarmupSize,
	)

	if capacity := s.TX.Capacity(); d.MaxSize > capacity {
		d.MaxSize = capacity
	}

	return d.Run(ctx, s, sizes, aesStep)
}
