// Package report formats benchmark results: one log line per measurement
// while a sweep runs, and summary tables once it is done.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/weiihann/accelbench/harness"
)

// Generate writes a markdown summary table for the given results.
func Generate(w io.Writer, results []harness.Result) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to report")
	}

	// Header.
	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "| Algorithm | Data Size | Iterations | Elapsed "+
		"| Per Iteration | Throughput |")
	fmt.Fprintln(w, "|-----------|-----------|------------|---------"+
		"|---------------|------------|")

	for _, r := range results {
		throughput := "-"
		if r.Kind == harness.KindThroughput {
			throughput = fmt.Sprintf("%.2f MB/s", r.MBPerSec())
		}

		fmt.Fprintf(w, "| %s | %s | %d | %s | %s | %s |\n",
			r.Algorithm,
			formatBytes(uint64(r.Size)),
			r.Iterations,
			formatDuration(r.Elapsed),
			formatDuration(r.PerIteration()),
			throughput,
		)
	}

	detailed := false
	for _, r := range results {
		if r.Stats != nil {
			detailed = true

			break
		}
	}

	if !detailed {
		return nil
	}

	fmt.Fprintln(w)

	// Per-iteration distribution rows.
	fmt.Fprintln(w, "| Algorithm | Data Size | Mean | StdDev | 95% CI "+
		"| P50 | P90 | Max |")
	fmt.Fprintln(w, "|-----------|-----------|------|--------|--------"+
		"|-----|-----|-----|")

	for _, r := range results {
		s := r.Stats
		if s == nil {
			continue
		}

		fmt.Fprintf(w, "| %s | %s | %.2fus | %.2fus | %.2f-%.2fus "+
			"| %.2fus | %.2fus | %.2fus |\n",
			r.Algorithm,
			formatBytes(uint64(r.Size)),
			s.Mean, s.StdDev, s.CILow, s.CIHigh,
			s.P50, s.P90, s.Max,
		)
	}

	return nil
}

// GenerateJSON writes results as JSON to w.
func GenerateJSON(w io.Writer, results []harness.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(results)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dus", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000)
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

func formatBytes(b uint64) string {
	if b == 0 {
		return "-"
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(b)
	unit := 0

	for size >= 1024 && unit < len(units)-1 {
		size /= 1024
		unit++
	}

	formatted := fmt.Sprintf("%.1f", size)
	formatted = strings.TrimRight(formatted, "0")
	formatted = strings.TrimRight(formatted, ".")

	return formatted + " " + units[unit]
}
