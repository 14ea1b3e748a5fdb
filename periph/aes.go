package periph

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"sync/atomic"
)

// Mode selects the key length.
type Mode int

const (
	Encryption128 Mode = iota
	Encryption192
	Encryption256
)

func (m Mode) keyLen() int {
	switch m {
	case Encryption128:
		return 16
	case Encryption192:
		return 24
	default:
		return 32
	}
}

func (m Mode) String() string {
	switch m {
	case Encryption128:
		return "enc-128"
	case Encryption192:
		return "enc-192"
	case Encryption256:
		return "enc-256"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// CipherMode is the block cipher mode of operation used for DMA transfers.
// The engine supports counter mode only.
type CipherMode int

// CTR uses the engine register encoding for counter mode.
const CTR CipherMode = 3

func (c CipherMode) String() string {
	if c == CTR {
		return "CTR"
	}

	return fmt.Sprintf("cipher(%d)", int(c))
}

// AES is the AES engine in its plain, CPU-driven form.
type AES struct {
	moved atomic.Bool
}

// WithDMA binds the engine to a DMA channel. Both the engine and the
// channel are consumed: they cannot be used again on their own.
func (a *AES) WithDMA(ch *DMAChannel) (*AESDMA, error) {
	if !a.moved.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("aes: %w", ErrMoved)
	}

	if !ch.moved.CompareAndSwap(false, true) {
		a.moved.Store(false)

		return nil, fmt.Errorf("dma channel: %w", ErrMoved)
	}

	return &AESDMA{}, nil
}

// AESDMA is the AES engine bound to a DMA channel.
type AESDMA struct {
	busy atomic.Bool
}

// Process starts a DMA transfer of blocks 16-byte blocks from in, through
// the engine, into out. The engine and both buffers belong to the returned
// transfer until Wait hands them back. The engine resets its counter and
// IV to zero for every transfer.
func (a *AESDMA) Process(
	blocks int,
	out *RxBuf,
	in *TxBuf,
	mode Mode,
	cipherMode CipherMode,
	key [32]byte,
) (*AESTransfer, error) {
	if cipherMode != CTR {
		return nil, fmt.Errorf("aes dma: unsupported cipher mode %v", cipherMode)
	}

	if !a.busy.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("aes dma: %w", ErrBusy)
	}

	n := blocks * aes.BlockSize

	if err := in.SetLength(n); err != nil {
		a.busy.Store(false)

		return nil, fmt.Errorf("aes dma tx: %w", err)
	}

	if err := out.SetLength(n); err != nil {
		a.busy.Store(false)

		return nil, fmt.Errorf("aes dma rx: %w", err)
	}

	block, err := aes.NewCipher(key[:mode.keyLen()])
	if err != nil {
		a.busy.Store(false)

		return nil, fmt.Errorf("aes dma key: %w", err)
	}

	t := &AESTransfer{
		engine: a,
		out:    out,
		in:     in,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(t.done)

		var iv [aes.BlockSize]byte
		cipher.NewCTR(block, iv[:]).XORKeyStream(out.Bytes(), in.Bytes())
	}()

	return t, nil
}

// AESTransfer is an in-flight DMA transfer.
type AESTransfer struct {
	engine *AESDMA
	out    *RxBuf
	in     *TxBuf
	done   chan struct{}
	waited bool
}

// Wait blocks until the transfer completes and returns the engine and the
// buffers to the caller.
func (t *AESTransfer) Wait() (*AESDMA, *RxBuf, *TxBuf, error) {
	if t.waited {
		return nil, nil, nil, fmt.Errorf("aes transfer: %w", ErrFinished)
	}

	<-t.done
	t.waited = true

	t.in.release()
	t.out.release()
	t.engine.busy.Store(false)

	return t.engine, t.out, t.in, nil
}
