package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/siteqa"
)

// Run executes the ask command.
func (c *AskCmd) Run(deps *Dependencies) error {
	res, err := deps.Answerer.AnswerQuestion(deps.Ctx, c.Question, c.Debug)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", siteqa.ErrorMessage(err))
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	fmt.Fprintln(deps.Stdout, res.Answer)

	if sources := sourceURLs(res.Evidence); res.Grounded && len(sources) > 0 {
		fmt.Fprintln(deps.Stdout, "\nSources:")
		for _, u := range sources {
			fmt.Fprintf(deps.Stdout, "  - %s\n", u)
		}
	}

	if c.Debug && res.Debug != nil {
		fmt.Fprintf(deps.Stdout, "\n--- debug (model %s) ---\n", res.Debug.Model)
		for i, ev := range res.Debug.Evidence {
			fmt.Fprintf(deps.Stdout, "%d. [%.3f] %s\n", i+1, ev.Score, ev.SourceURL)
		}
		fmt.Fprintf(deps.Stdout, "\n%s\n", res.Debug.Prompt)
	}
	return nil
}

// sourceURLs returns the distinct source URLs of evidence in order.
func sourceURLs(evidence []siteqa.Evidence) []string {
	seen := make(map[string]bool, len(evidence))
	var out []string
	for _, ev := range evidence {
		if ev.SourceURL == "" || seen[ev.SourceURL] {
			continue
		}
		seen[ev.SourceURL] = true
		out = append(out, ev.SourceURL)
	}
	return out
}
