package siteqa

import (
	"context"
	"time"
)

// Document represents one scraped page of the organization's website.
// A document is replaced wholesale when its URL is scraped again.
type Document struct {
	ID          string    `json:"id"`
	SourceURL   string    `json:"sourceUrl"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	ContentHash string    `json:"contentHash"`
	ScrapedAt   time.Time `json:"scrapedAt"`
}

// Validate returns an error if the document contains invalid fields.
func (d *Document) Validate() error {
	if d.SourceURL == "" {
		return Errorf(EINVALID, "document source URL required")
	}
	return nil
}

// Text returns the text that gets chunked and indexed. The title is
// prepended so that every chunk of a short page carries its subject.
func (d *Document) Text() string {
	if d.Title == "" {
		return d.Content
	}
	return "Title: " + d.Title + "\n\n" + d.Content
}

// DocumentService represents a service for managing documents.
type DocumentService interface {
	// SaveDocument inserts a document or replaces the document stored
	// under the same source URL. ID, ContentHash and ScrapedAt are set on doc.
	SaveDocument(ctx context.Context, doc *Document) error

	// FindDocumentByURL retrieves a document by source URL.
	// Returns ENOTFOUND if document does not exist.
	FindDocumentByURL(ctx context.Context, url string) (*Document, error)

	// FindDocuments retrieves documents matching the filter.
	FindDocuments(ctx context.Context, filter DocumentFilter) ([]*Document, error)

	// DeleteDocument permanently removes a document.
	// Returns ENOTFOUND if document does not exist.
	DeleteDocument(ctx context.Context, id string) error
}

// SortOrder represents the sort order for document queries.
type SortOrder string

// SortOrder constants for DocumentFilter.
const (
	SortByScrapedAt SortOrder = "scraped_at"
	SortBySourceURL SortOrder = "source_url"
)

// DocumentFilter represents a filter for FindDocuments.
type DocumentFilter struct {
	ID        *string `json:"id"`
	SourceURL *string `json:"sourceUrl"`

	// ScrapedSince limits results to documents scraped at or after the time.
	ScrapedSince *time.Time `json:"scrapedSince"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`

	SortBy SortOrder `json:"sortBy"`
}
