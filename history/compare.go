package history

import "github.com/weiihann/accelbench/harness"

// Comparison pairs the same measurement from two runs.
type Comparison struct {
	Algorithm string
	Size      int
	Prev      harness.Result
	Curr      harness.Result
	// Change is the percentage change of the reported metric: throughput
	// for throughput results, elapsed time otherwise.
	Change float64
}

// Improved reports whether Curr is better than Prev.
func (c Comparison) Improved() bool {
	if c.Curr.Kind == harness.KindThroughput {
		return c.Change > 0
	}

	return c.Change < 0
}

type key struct {
	algorithm string
	size      int
}

// Compare pairs results present in both runs, in the order of curr.
func Compare(prev, curr Run) []Comparison {
	prevMap := make(map[key]harness.Result, len(prev.Results))
	for _, r := range prev.Results {
		prevMap[key{r.Algorithm, r.RequestedSize}] = r
	}

	var comparisons []Comparison

	for _, c := range curr.Results {
		p, ok := prevMap[key{c.Algorithm, c.RequestedSize}]
		if !ok {
			continue
		}

		comp := Comparison{
			Algorithm: c.Algorithm,
			Size:      c.RequestedSize,
			Prev:      p,
			Curr:      c,
		}

		if c.Kind == harness.KindThroughput {
			if p.Throughput > 0 {
				comp.Change = (c.Throughput - p.Throughput) / p.Throughput * 100
			}
		} else if p.Elapsed > 0 {
			comp.Change = float64(c.Elapsed-p.Elapsed) / float64(p.Elapsed) * 100
		}

		comparisons = append(comparisons, comp)
	}

	return comparisons
}
