package main

import (
	"fmt"

	"github.com/fwojciec/siteqa"
)

// Run executes the health command. A degraded index fails the command with
// the error that keeps it from being served.
func (c *HealthCmd) Run(deps *Dependencies) error {
	h := deps.Admin.Health(deps.Ctx)

	fmt.Fprintf(deps.Stdout, "status:     %s\n", h.Status)
	fmt.Fprintf(deps.Stdout, "index:      %s (%d chunks)\n", h.State, h.IndexSize)
	fmt.Fprintf(deps.Stdout, "embeddings: %s\n", h.Model)
	if h.CompletionModel != "" {
		fmt.Fprintf(deps.Stdout, "llm:        %s\n", h.CompletionModel)
	}

	if h.Status != siteqa.HealthOK {
		fmt.Fprintf(deps.Stdout, "error:      %s: %s\n", h.ErrorCode, h.Error)
		fmt.Fprintln(deps.Stderr, "Hint: Run 'siteqa index' to rebuild the index")
		return siteqa.Errorf(h.ErrorCode, "index %s: %s", h.Status, h.Error)
	}
	return nil
}
