package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weiihann/accelbench/harness"
)

// Line renders one human-readable record for a result.
func Line(r harness.Result) string {
	switch r.Kind {
	case harness.KindThroughput:
		return fmt.Sprintf("%s, DataSize: %d, Throughput: %.2f MB/s",
			r.Algorithm, r.RequestedSize, r.MBPerSec())

	case harness.KindLatency:
		return fmt.Sprintf("%s, DataSize: %d, Time: %d %s",
			r.Algorithm, r.RequestedSize, r.Unit.Of(r.Elapsed), r.Unit)

	default:
		return fmt.Sprintf("%s completed in %d %s",
			r.Algorithm, r.Unit.Of(r.Elapsed), r.Unit.Long())
	}
}

func metric(r harness.Result) string {
	if r.Kind == harness.KindThroughput {
		return fmt.Sprintf("%.2f MB/s", r.MBPerSec())
	}

	return fmt.Sprintf("%d %s", r.Unit.Of(r.Elapsed), r.Unit)
}

// LogSink writes each result as one info-level log record.
type LogSink struct {
	Logger *slog.Logger
}

// NewLogSink returns a sink writing to logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{Logger: logger}
}

// Report logs r.
func (s *LogSink) Report(ctx context.Context, r harness.Result) error {
	s.Logger.InfoContext(ctx, Line(r))

	return nil
}
