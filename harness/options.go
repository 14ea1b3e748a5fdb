package harness

import (
	"log/slog"

	"github.com/weiihann/accelbench/timing"
)

// Options carries the settings shared by every benchmark. Zero values
// select each benchmark's own default.
type Options struct {
	Iterations int
	WarmupSize int
	MaxSize    int
	Detailed   bool
	Clock      timing.Clock
	Sink       Sink
	Logger     *slog.Logger
}

func newDriver[H any](
	opts Options,
	algorithm string,
	kind Kind,
	unit Unit,
	iterations, warmup int,
) *Driver[H] {
	if opts.Iterations > 0 {
		iterations = opts.Iterations
	}

	if opts.WarmupSize > 0 && warmup > 0 {
		warmup = opts.WarmupSize
	}

	maxSize := MaxBufferSize
	if opts.MaxSize > 0 {
		maxSize = opts.MaxSize
	}

	return &Driver[H]{
		Algorithm:  algorithm,
		Kind:       kind,
		Unit:       unit,
		Iterations: iterations,
		WarmupSize: warmup,
		MaxSize:    maxSize,
		Detailed:   opts.Detailed,
		Clock:      opts.Clock,
		Sink:       opts.Sink,
		Logger:     opts.Logger,
	}
}
