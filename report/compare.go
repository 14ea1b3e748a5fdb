package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/weiihann/accelbench/history"
)

var (
	betterFmt = color.New(color.FgGreen).SprintFunc()
	worseFmt  = color.New(color.FgRed).SprintFunc()
	dimFmt    = color.New(color.Faint).SprintFunc()
)

// GenerateComparison writes one line per paired measurement. Improvements
// are green and regressions red when w is a terminal.
func GenerateComparison(w io.Writer, prev, curr history.Run) error {
	comps := history.Compare(prev, curr)
	if len(comps) == 0 {
		return fmt.Errorf("runs %s and %s share no measurements", prev.ID, curr.ID)
	}

	fmt.Fprintf(w, "%s %s -> %s\n", dimFmt("comparing"), prev.ID, curr.ID)

	for _, c := range comps {
		change := fmt.Sprintf("%+.2f%%", c.Change)

		switch {
		case c.Change == 0:
		case c.Improved():
			change = betterFmt(change)
		default:
			change = worseFmt(change)
		}

		fmt.Fprintf(w, "%s, DataSize: %d: %s -> %s (%s)\n",
			c.Algorithm, c.Size, metric(c.Prev), metric(c.Curr), change)
	}

	return nil
}
