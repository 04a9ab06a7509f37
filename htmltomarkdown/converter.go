// Package htmltomarkdown converts extracted page content to Markdown using
// html-to-markdown.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/siteqa"
	"golang.org/x/net/html"
)

var _ siteqa.Converter = (*Converter)(nil)

// Converter turns content HTML into Markdown. Images and embedded media
// are dropped since only text is indexed.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	for _, tag := range []string{"img", "picture", "svg", "video", "audio", "iframe", "form"} {
		conv.Register.TagType(tag, converter.TagTypeRemove, converter.PriorityStandard)
	}
	return &Converter{conv: conv}
}

// Convert transforms HTML content into Markdown. When conversion yields
// nothing but the HTML holds text, the plain text is returned instead.
func (c *Converter) Convert(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", siteqa.Errorf(siteqa.EINVALID, "empty HTML input")
	}

	markdown, err := c.conv.ConvertString(content)
	if err != nil {
		return "", siteqa.Errorf(siteqa.EMALFORMED, "convert HTML to markdown: %v", err)
	}
	if markdown = strings.TrimSpace(markdown); markdown != "" {
		return markdown, nil
	}
	return plainText(content)
}

// plainText returns the visible text of an HTML fragment, one line per
// text node.
func plainText(content string) (string, error) {
	root, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return "", siteqa.Errorf(siteqa.EMALFORMED, "parse HTML: %v", err)
	}

	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				lines = append(lines, text)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)
	return strings.Join(lines, "\n"), nil
}
