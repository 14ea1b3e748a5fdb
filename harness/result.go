// Package harness drives accelerator engines through size sweeps and turns
// the timings into throughput and latency results.
package harness

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind says how a result is reported.
type Kind int

const (
	// KindThroughput reports bytes per second over a batch of iterations.
	KindThroughput Kind = iota
	// KindLatency reports the raw elapsed time of one operation per size.
	KindLatency
	// KindOneShot reports the raw elapsed time of a single operation that
	// has no data size sweep.
	KindOneShot
)

func (k Kind) String() string {
	switch k {
	case KindThroughput:
		return "throughput"
	case KindLatency:
		return "latency"
	case KindOneShot:
		return "one-shot"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalJSON encodes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	kind, err := ParseKind(s)
	if err != nil {
		return err
	}

	*k = kind

	return nil
}

// ParseKind maps a kind name back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "throughput":
		return KindThroughput, nil
	case "latency":
		return KindLatency, nil
	case "one-shot":
		return KindOneShot, nil
	default:
		return 0, fmt.Errorf("unknown result kind %q", s)
	}
}

// Unit is the unit latency results are printed in.
type Unit string

const (
	Microseconds Unit = "us"
	Milliseconds Unit = "ms"
)

// Of converts d to a whole number of u.
func (u Unit) Of(d time.Duration) int64 {
	if u == Milliseconds {
		return d.Milliseconds()
	}

	return d.Microseconds()
}

// Long is the spelled-out unit name.
func (u Unit) Long() string {
	if u == Milliseconds {
		return "milliseconds"
	}

	return "microseconds"
}

// Result is the measurement for one data size.
type Result struct {
	Algorithm     string        `json:"algorithm"`
	Kind          Kind          `json:"kind"`
	RequestedSize int           `json:"requested_size"`
	Size          int           `json:"size"`
	Iterations    int           `json:"iterations"`
	Elapsed       time.Duration `json:"elapsed_ns"`
	Throughput    float64       `json:"throughput_bps,omitempty"`
	Unit          Unit          `json:"unit,omitempty"`
	Stats         *Stats        `json:"stats,omitempty"`
}

// MBPerSec is the throughput in decimal megabytes per second.
func (r Result) MBPerSec() float64 {
	return r.Throughput / 1_000_000
}

// Mbps is the throughput in megabits per second.
func (r Result) Mbps() float64 {
	return r.Throughput * 8 / 1_000_000
}

// PerIteration is the mean elapsed time of one iteration.
func (r Result) PerIteration() time.Duration {
	if r.Iterations <= 0 {
		return r.Elapsed
	}

	return r.Elapsed / time.Duration(r.Iterations)
}
