package periph

import (
	"fmt"
	"hash"
	"sync/atomic"

	sha256 "github.com/minio/sha256-simd"
)

// SHA256Size is the digest length in bytes.
const SHA256Size = sha256.Size

// SHA is the hash engine.
type SHA struct {
	busy atomic.Bool
}

// Start begins a SHA-256 computation. The engine is held by the returned
// Digest until Finish.
func (s *SHA) Start() (*Digest, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("sha: %w", ErrBusy)
	}

	return &Digest{engine: s, h: sha256.New()}, nil
}

// Digest is a running hash on the engine.
type Digest struct {
	engine   *SHA
	h        hash.Hash
	finished bool
}

// Update feeds p into the hash.
func (d *Digest) Update(p []byte) error {
	if d.finished {
		return fmt.Errorf("sha update: %w", ErrFinished)
	}

	d.h.Write(p)

	return nil
}

// Finish writes the digest into out and releases the engine.
func (d *Digest) Finish(out []byte) error {
	if d.finished {
		return fmt.Errorf("sha finish: %w", ErrFinished)
	}

	if len(out) < SHA256Size {
		return fmt.Errorf(
			"digest buffer %d bytes, need %d: %w",
			len(out), SHA256Size, ErrBufferSize,
		)
	}

	d.h.Sum(out[:0])
	d.finished = true
	d.engine.busy.Store(false)

	return nil
}
