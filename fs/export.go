// Package fs exports stored pages as Markdown files.
package fs

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/fwojciec/siteqa"
)

// URLToPath converts a page URL to a relative file path.
// Example: https://example.org/services/tax → services/tax.md
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", siteqa.Errorf(siteqa.EINVALID, "invalid page URL %q", rawURL)
	}

	p := u.Path
	if p == "" || p == "/" {
		return "index.md", nil
	}
	dir := strings.HasSuffix(p, "/")

	// Cleaning a rooted path drops any ".." that would escape the export.
	p = strings.TrimPrefix(path.Clean("/"+p), "/")
	p = strings.TrimSuffix(p, ".html")
	if dir || p == "" {
		return filepath.FromSlash(path.Join(p, "index.md")), nil
	}
	return filepath.FromSlash(p + ".md"), nil
}

// FormatDocument renders a document as Markdown with YAML frontmatter.
func FormatDocument(doc *siteqa.Document) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("source: " + doc.SourceURL + "\n")
	if doc.Title != "" {
		b.WriteString("title: " + singleLine(doc.Title) + "\n")
	}
	if doc.Description != "" {
		b.WriteString("description: " + singleLine(doc.Description) + "\n")
	}
	if !doc.ScrapedAt.IsZero() {
		b.WriteString("scraped: " + doc.ScrapedAt.Format("2006-01-02") + "\n")
	}
	b.WriteString("---\n\n")
	b.WriteString(doc.Content)
	b.WriteString("\n")
	return b.String()
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Exporter writes documents into a staging directory next to dir and
// replaces dir with it on Commit, so readers never see a partial export.
type Exporter struct {
	dir string
}

// NewExporter creates an Exporter targeting dir.
func NewExporter(dir string) *Exporter {
	return &Exporter{dir: filepath.Clean(dir)}
}

func (e *Exporter) stagingDir() string {
	return e.dir + ".tmp"
}

// Save writes doc to the staging directory.
func (e *Exporter) Save(doc *siteqa.Document) error {
	rel, err := URLToPath(doc.SourceURL)
	if err != nil {
		return err
	}

	full := filepath.Join(e.stagingDir(), rel)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	if err := os.WriteFile(full, []byte(FormatDocument(doc)), 0644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

// Commit replaces the target directory with the staged export.
func (e *Exporter) Commit() error {
	if err := os.RemoveAll(e.dir); err != nil {
		return fmt.Errorf("remove previous export: %w", err)
	}
	if err := os.Rename(e.stagingDir(), e.dir); err != nil {
		return fmt.Errorf("commit export: %w", err)
	}
	return nil
}

// Abort discards the staged export.
func (e *Exporter) Abort() error {
	return os.RemoveAll(e.stagingDir())
}

// Export writes docs to dir and commits. On error the previous contents
// of dir are left untouched.
func Export(dir string, docs []*siteqa.Document) error {
	e := NewExporter(dir)
	if err := e.Abort(); err != nil {
		return err
	}
	for _, doc := range docs {
		if err := e.Save(doc); err != nil {
			_ = e.Abort()
			return err
		}
	}
	if err := e.Commit(); err != nil {
		_ = e.Abort()
		return err
	}
	return nil
}
