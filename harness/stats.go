package harness

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// z95 is the normal z-value for a 95% confidence interval.
const z95 = 1.96

// Stats summarises per-iteration laps, in microseconds.
type Stats struct {
	Samples int     `json:"samples"`
	Mean    float64 `json:"mean_us"`
	StdDev  float64 `json:"stddev_us"`
	CILow   float64 `json:"ci95_low_us"`
	CIHigh  float64 `json:"ci95_high_us"`
	Min     float64 `json:"min_us"`
	P50     float64 `json:"p50_us"`
	P90     float64 `json:"p90_us"`
	Max     float64 `json:"max_us"`
}

// Summarize computes Stats over laps. It returns nil for no laps.
func Summarize(laps []time.Duration) *Stats {
	if len(laps) == 0 {
		return nil
	}

	xs := make([]float64, len(laps))
	for i, l := range laps {
		xs[i] = float64(l) / float64(time.Microsecond)
	}

	sort.Float64s(xs)

	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) < 2 || math.IsNaN(std) {
		std = 0
	}

	se := stat.StdErr(std, float64(len(xs)))

	return &Stats{
		Samples: len(xs),
		Mean:    mean,
		StdDev:  std,
		CILow:   mean - z95*se,
		CIHigh:  mean + z95*se,
		Min:     xs[0],
		P50:     stat.Quantile(0.5, stat.Empirical, xs, nil),
		P90:     stat.Quantile(0.9, stat.Empirical, xs, nil),
		Max:     xs[len(xs)-1],
	}
}
