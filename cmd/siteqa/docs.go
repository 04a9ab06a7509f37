package main

import (
	"fmt"

	"github.com/fwojciec/siteqa"
	"github.com/fwojciec/siteqa/fs"
)

// Run executes the docs command.
func (c *DocsCmd) Run(deps *Dependencies) error {
	docs, err := deps.Documents.FindDocuments(deps.Ctx, siteqa.DocumentFilter{
		SortBy: siteqa.SortBySourceURL,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", siteqa.ErrorMessage(err))
		return err
	}

	if len(docs) == 0 {
		fmt.Fprintln(deps.Stderr, "error: no pages stored. Run 'siteqa scrape <url>' first.")
		return siteqa.Errorf(siteqa.ENOTFOUND, "no pages stored")
	}

	if c.Export != "" {
		if err := fs.Export(c.Export, docs); err != nil {
			fmt.Fprintf(deps.Stderr, "error: export failed: %v\n", err)
			return err
		}
		fmt.Fprintf(deps.Stdout, "Exported %d pages to %s\n", len(docs), c.Export)
		return nil
	}

	if c.Full {
		for i, doc := range docs {
			if i > 0 {
				fmt.Fprint(deps.Stdout, "\n---\n\n")
			}
			fmt.Fprintf(deps.Stdout, "Source: %s\n\n%s\n", doc.SourceURL, doc.Text())
		}
		return nil
	}

	fmt.Fprintf(deps.Stdout, "Pages (%d total):\n\n", len(docs))
	for i, doc := range docs {
		title := doc.Title
		if title == "" {
			title = doc.SourceURL
		}
		fmt.Fprintf(deps.Stdout, "  %d. %s\n     %s\n", i+1, title, doc.SourceURL)
	}
	return nil
}
