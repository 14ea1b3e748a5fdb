package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/weiihann/accelbench/timing"
)

// MaxBufferSize is the largest transfer the engines accept.
const MaxBufferSize = 32 * 1024

// DefaultWarmupSize is the size of the discarded pre-warm operation.
const DefaultWarmupSize = 64

// ErrInvalidSize is returned for non-positive data sizes.
var ErrInvalidSize = errors.New("data size must be positive")

// Step performs one operation of size bytes on the engine held by h and
// returns the handle for the next operation.
type Step[H any] func(ctx context.Context, h H, size int) (H, error)

// Sink receives each result as soon as it is measured.
type Sink interface {
	Report(ctx context.Context, r Result) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, r Result) error

// Report calls f.
func (f SinkFunc) Report(ctx context.Context, r Result) error {
	return f(ctx, r)
}

// MultiSink reports to every sink in order, stopping at the first error.
type MultiSink []Sink

// Report fans r out.
func (m MultiSink) Report(ctx context.Context, r Result) error {
	for _, s := range m {
		if err := s.Report(ctx, r); err != nil {
			return err
		}
	}

	return nil
}

// Driver runs a pre-warm operation and then one timed batch per data size.
type Driver[H any] struct {
	Algorithm  string
	Kind       Kind
	Unit       Unit
	Iterations int
	WarmupSize int
	MaxSize    int
	Detailed   bool
	Clock      timing.Clock
	Sink       Sink
	Logger     *slog.Logger
}

// Clamp limits size to limit.
func Clamp(size, limit int) int {
	return min(size, limit)
}

// Throughput is bytes per second for iterations operations of size bytes
// taking elapsed in total. elapsed is floored at the clock resolution.
func Throughput(iterations, size int, elapsed time.Duration) float64 {
	if elapsed < timing.Resolution {
		elapsed = timing.Resolution
	}

	return float64(iterations) * float64(size) / elapsed.Seconds()
}

// ValidateSizes checks that every size is positive.
func ValidateSizes(sizes []int) error {
	for i, s := range sizes {
		if s <= 0 {
			return fmt.Errorf("sizes[%d] = %d: %w", i, s, ErrInvalidSize)
		}
	}

	return nil
}

// Run takes ownership of h, pre-warms the engine once, then measures each
// size in order and reports it to the sink. The handle is returned on
// success and on failure. A failing step aborts the sweep; nothing is
// reported for the size in progress.
func (d *Driver[H]) Run(
	ctx context.Context,
	h H,
	sizes []int,
	step Step[H],
) (H, []Result, error) {
	if err := ValidateSizes(sizes); err != nil {
		return h, nil, fmt.Errorf("%s: %w", d.Algorithm, err)
	}

	var err error

	if d.WarmupSize > 0 {
		h, err = step(ctx, h, d.clamp(d.WarmupSize))
		if err != nil {
			return h, nil, fmt.Errorf("%s warm-up: %w", d.Algorithm, err)
		}
	}

	results := make([]Result, 0, len(sizes))

	for _, size := range sizes {
		var res Result

		h, res, err = d.measure(ctx, h, size, step)
		if err != nil {
			return h, results, fmt.Errorf(
				"%s size %d: %w", d.Algorithm, size, err,
			)
		}

		if d.Sink != nil {
			if err := d.Sink.Report(ctx, res); err != nil {
				return h, results, fmt.Errorf("report %s: %w", d.Algorithm, err)
			}
		}

		results = append(results, res)
	}

	return h, results, nil
}

func (d *Driver[H]) clamp(size int) int {
	if d.MaxSize <= 0 {
		return Clamp(size, MaxBufferSize)
	}

	return Clamp(size, d.MaxSize)
}

func (d *Driver[H]) measure(
	ctx context.Context,
	h H,
	size int,
	step Step[H],
) (H, Result, error) {
	actual := d.clamp(size)

	iterations := d.Iterations
	if iterations <= 0 {
		iterations = 1
	}

	logger := d.logger()
	logger.DebugContext(ctx, "benchmark started",
		slog.String("algorithm", d.Algorithm),
		slog.Int("buffer_size", actual),
	)

	var laps []time.Duration
	if d.Detailed {
		laps = make([]time.Duration, 0, iterations)
	}

	var err error

	clock := d.clock()

	start := clock.Now()
	last := start

	for i := 0; i < iterations; i++ {
		if err = ctx.Err(); err != nil {
			return h, Result{}, err
		}

		h, err = step(ctx, h, actual)
		if err != nil {
			return h, Result{}, err
		}

		if d.Detailed {
			now := clock.Now()
			laps = append(laps, timing.Elapsed(last, now))
			last = now
		}
	}

	end := last
	if !d.Detailed {
		end = clock.Now()
	}

	elapsed := timing.Elapsed(start, end)

	res := Result{
		Algorithm:     d.Algorithm,
		Kind:          d.Kind,
		RequestedSize: size,
		Size:          actual,
		Iterations:    iterations,
		Elapsed:       elapsed,
		Unit:          d.Unit,
	}

	if d.Kind == KindThroughput {
		res.Throughput = Throughput(iterations, actual, elapsed)
	}

	if d.Detailed {
		res.Stats = Summarize(laps)
	}

	logger.DebugContext(ctx, "benchmark completed",
		slog.String("algorithm", d.Algorithm),
		slog.Int64("elapsed_us", elapsed.Microseconds()),
		slog.Int("iterations", iterations),
		slog.String("avg_per_iteration_us",
			fmt.Sprintf("%.2f", float64(elapsed.Microseconds())/float64(iterations))),
	)

	if d.Kind == KindThroughput {
		logger.DebugContext(ctx, "throughput",
			slog.String("algorithm", d.Algorithm),
			slog.String("mb_per_sec", fmt.Sprintf("%.2f", res.MBPerSec())),
			slog.String("mbps", fmt.Sprintf("%.2f", res.Mbps())),
		)
	}

	return h, res, nil
}

func (d *Driver[H]) clock() timing.Clock {
	if d.Clock == nil {
		return timing.System{}
	}

	return d.Clock
}

func (d *Driver[H]) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return d.Logger
}
