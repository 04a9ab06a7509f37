package sqlite

import (
	"context"
	"encoding/hex"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/siteqa"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ siteqa.DocumentService = (*DocumentService)(nil)

// DocumentService implements siteqa.DocumentService using SQLite.
type DocumentService struct {
	db *DB
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(db *DB) *DocumentService {
	return &DocumentService{db: db}
}

// hashContent computes xxHash of content and returns hex string.
func hashContent(content string) string {
	b := xxhash.New()
	_, _ = b.WriteString(content)
	return hex.EncodeToString(b.Sum(nil))
}

// SaveDocument inserts the document or replaces the one stored under the
// same source URL. A replaced document keeps its ID.
func (s *DocumentService) SaveDocument(ctx context.Context, doc *siteqa.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	id := uuid.New().String()
	doc.ScrapedAt = time.Now().UTC()
	doc.ContentHash = hashContent(doc.Content)

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO documents (id, source_url, title, description, content, content_hash, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_url) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			content = excluded.content,
			content_hash = excluded.content_hash,
			scraped_at = excluded.scraped_at
		RETURNING id
	`, id, doc.SourceURL, doc.Title, doc.Description, doc.Content, doc.ContentHash,
		formatTimestamp(doc.ScrapedAt)).Scan(&doc.ID)

	return err
}

// FindDocumentByURL retrieves a document by source URL.
func (s *DocumentService) FindDocumentByURL(ctx context.Context, url string) (*siteqa.Document, error) {
	docs, err := s.FindDocuments(ctx, siteqa.DocumentFilter{SourceURL: &url, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, siteqa.Errorf(siteqa.ENOTFOUND, "document %q not found", url)
	}
	return docs[0], nil
}

// FindDocuments retrieves documents matching the filter.
func (s *DocumentService) FindDocuments(ctx context.Context, filter siteqa.DocumentFilter) ([]*siteqa.Document, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, source_url, title, description, content, content_hash, scraped_at FROM documents WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.SourceURL != nil {
		query.WriteString(" AND source_url = ?")
		args = append(args, *filter.SourceURL)
	}
	if filter.ScrapedSince != nil {
		query.WriteString(" AND scraped_at >= ?")
		args = append(args, formatTimestamp(*filter.ScrapedSince))
	}

	switch filter.SortBy {
	case siteqa.SortBySourceURL:
		query.WriteString(" ORDER BY source_url ASC")
	default:
		query.WriteString(" ORDER BY scraped_at DESC, source_url ASC")
	}

	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*siteqa.Document
	for rows.Next() {
		var doc siteqa.Document
		var scrapedAt string

		if err := rows.Scan(&doc.ID, &doc.SourceURL, &doc.Title, &doc.Description,
			&doc.Content, &doc.ContentHash, &scrapedAt); err != nil {
			return nil, err
		}

		if doc.ScrapedAt, err = parseTimestamp(scrapedAt, "scraped_at"); err != nil {
			return nil, err
		}

		docs = append(docs, &doc)
	}

	return docs, rows.Err()
}

// DeleteDocument permanently removes a document.
func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return siteqa.Errorf(siteqa.ENOTFOUND, "document not found")
	}

	return nil
}
