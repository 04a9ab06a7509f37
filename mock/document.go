package mock

import (
	"context"

	"github.com/fwojciec/siteqa"
)

var _ siteqa.DocumentService = (*DocumentService)(nil)

// DocumentService is a mock implementation of siteqa.DocumentService.
type DocumentService struct {
	SaveDocumentFn      func(ctx context.Context, doc *siteqa.Document) error
	FindDocumentByURLFn func(ctx context.Context, url string) (*siteqa.Document, error)
	FindDocumentsFn     func(ctx context.Context, filter siteqa.DocumentFilter) ([]*siteqa.Document, error)
	DeleteDocumentFn    func(ctx context.Context, id string) error
}

func (s *DocumentService) SaveDocument(ctx context.Context, doc *siteqa.Document) error {
	return s.SaveDocumentFn(ctx, doc)
}

func (s *DocumentService) FindDocumentByURL(ctx context.Context, url string) (*siteqa.Document, error) {
	return s.FindDocumentByURLFn(ctx, url)
}

func (s *DocumentService) FindDocuments(ctx context.Context, filter siteqa.DocumentFilter) ([]*siteqa.Document, error) {
	return s.FindDocumentsFn(ctx, filter)
}

func (s *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	return s.DeleteDocumentFn(ctx, id)
}
