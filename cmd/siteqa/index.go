package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/siteqa"
)

// Run executes the index command.
func (c *IndexCmd) Run(deps *Dependencies) error {
	stats, err := deps.Admin.RebuildIndex(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", siteqa.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Indexed %d chunks from %d pages in %s\n",
		stats.Chunks, stats.Documents, stats.Duration.Round(time.Millisecond))
	if stats.Skipped > 0 {
		fmt.Fprintf(deps.Stdout, "Skipped %d pages with too little content\n", stats.Skipped)
	}
	if stats.Documents == 0 {
		fmt.Fprintln(deps.Stderr, "Hint: No pages stored yet. Run 'siteqa scrape <url>' first.")
	}
	return nil
}
