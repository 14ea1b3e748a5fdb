package harness

import (
	"context"
	"fmt"

	"github.com/weiihann/accelbench/periph"
	"github.com/weiihann/accelbench/workload"
)

const (
	SHAAlgorithm  = "SHA-256"
	SHAIterations = 1
)

// SHASession holds the hash engine, a pattern-filled input buffer and the
// digest output buffer.
type SHASession struct {
	Engine *periph.SHA
	Input  []byte
	Digest []byte
}

// NewSHASession prepares a size-byte input buffer from the workload.
func NewSHASession(
	engine *periph.SHA,
	gen *workload.Generator,
	size int,
) (SHASession, error) {
	input, err := gen.Buffer(size)
	if err != nil {
		return SHASession{}, fmt.Errorf("sha session: %w", err)
	}

	return SHASession{
		Engine: engine,
		Input:  input,
		Digest: make([]byte, periph.SHA256Size),
	}, nil
}

// shaStep hashes the first size bytes of the input in one update.
func shaStep(_ context.Context, s SHASession, size int) (SHASession, error) {
	if size > len(s.Input) {
		return s, fmt.Errorf(
			"hash %d bytes from %d-byte input: %w",
			size, len(s.Input), periph.ErrBufferSize,
		)
	}

	d, err := s.Engine.Start()
	if err != nil {
		return s, err
	}

	if err := d.Update(s.Input[:size]); err != nil {
		return s, err
	}

	if err := d.Finish(s.Digest); err != nil {
		return s, err
	}

	return s, nil
}

// RunSHA measures the latency of one SHA-256 hash per size.
func RunSHA(
	ctx context.Context,
	opts Options,
	s SHASession,
	sizes []int,
) (SHASession, []Result, error) {
	d := newDriver[SHASession](
		opts, SHAAlgorithm, KindLatency, Microseconds,
		SHAIterations, DefaultWarmupSize,
	)

	// Latency results are single raw samples.
	d.Iterations = SHAIterations
	d.Detailed = false

	if d.MaxSize > len(s.Input) {
		d.MaxSize = len(s.Input)
	}

	return d.Run(ctx, s, sizes, shaStep)
}
