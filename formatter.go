package siteqa

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// FormatEvidence renders evidence as the context block of a prompt, in the
// given order, separated by blank lines. When maxChars is positive the block
// is bounded to that many characters: the item that would overflow is
// truncated and any later items are dropped.
func FormatEvidence(evidence []Evidence, maxChars int) string {
	block, _ := FitEvidence(evidence, maxChars)
	return block
}

// FitEvidence renders the context block like FormatEvidence and also returns
// the evidence that made it into the block. A truncated item is returned with
// the text that was rendered. Items whose header does not fit are omitted.
func FitEvidence(evidence []Evidence, maxChars int) (string, []Evidence) {
	var b strings.Builder
	fitted := make([]Evidence, 0, len(evidence))
	used := 0
	for i, ev := range evidence {
		header := fmt.Sprintf("Document %d (Source: %s):\n", i+1, ev.SourceURL)
		text := strings.TrimSpace(ev.Text)

		sep := ""
		if i > 0 {
			sep = "\n\n"
		}

		n := len(sep) + utf8.RuneCountInString(header) + utf8.RuneCountInString(text)
		if maxChars > 0 && used+n > maxChars {
			remaining := maxChars - used - len(sep) - utf8.RuneCountInString(header)
			if remaining > 0 {
				ev.Text = truncateRunes(text, remaining)
				b.WriteString(sep)
				b.WriteString(header)
				b.WriteString(ev.Text)
				fitted = append(fitted, ev)
			}
			break
		}

		ev.Text = text
		b.WriteString(sep)
		b.WriteString(header)
		b.WriteString(text)
		fitted = append(fitted, ev)
		used += n
	}
	return b.String(), fitted
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
