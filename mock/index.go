package mock

import (
	"context"

	"github.com/fwojciec/siteqa"
)

var _ siteqa.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is a mock implementation of siteqa.VectorIndex.
type VectorIndex struct {
	LoadFn           func(ctx context.Context) error
	UpsertFn         func(ctx context.Context, entries []*siteqa.IndexEntry) error
	RebuildFn        func(ctx context.Context, entries []*siteqa.IndexEntry) error
	ReplaceSourcesFn func(ctx context.Context, sources []string, entries []*siteqa.IndexEntry) error
	SearchFn         func(ctx context.Context, query []float32, k int) ([]siteqa.SearchHit, error)
	LenFn            func() int
	ModelFn          func() string
	DimensionsFn     func() int
}

func (i *VectorIndex) Load(ctx context.Context) error {
	return i.LoadFn(ctx)
}

func (i *VectorIndex) Upsert(ctx context.Context, entries []*siteqa.IndexEntry) error {
	return i.UpsertFn(ctx, entries)
}

func (i *VectorIndex) ReplaceSources(ctx context.Context, sources []string, entries []*siteqa.IndexEntry) error {
	return i.ReplaceSourcesFn(ctx, sources, entries)
}

func (i *VectorIndex) Rebuild(ctx context.Context, entries []*siteqa.IndexEntry) error {
	return i.RebuildFn(ctx, entries)
}

func (i *VectorIndex) Search(ctx context.Context, query []float32, k int) ([]siteqa.SearchHit, error) {
	return i.SearchFn(ctx, query, k)
}

func (i *VectorIndex) Len() int {
	return i.LenFn()
}

func (i *VectorIndex) Model() string {
	return i.ModelFn()
}

func (i *VectorIndex) Dimensions() int {
	return i.DimensionsFn()
}

var _ siteqa.IndexStore = (*IndexStore)(nil)

// IndexStore is a mock implementation of siteqa.IndexStore.
type IndexStore struct {
	LoadEntriesFn          func(ctx context.Context, meta siteqa.IndexMeta) ([]*siteqa.IndexEntry, error)
	ReplaceEntriesFn       func(ctx context.Context, meta siteqa.IndexMeta, entries []*siteqa.IndexEntry) error
	UpsertEntriesFn        func(ctx context.Context, meta siteqa.IndexMeta, entries []*siteqa.IndexEntry) error
	ReplaceSourceEntriesFn func(ctx context.Context, meta siteqa.IndexMeta, sources []string, entries []*siteqa.IndexEntry) error
}

func (s *IndexStore) LoadEntries(ctx context.Context, meta siteqa.IndexMeta) ([]*siteqa.IndexEntry, error) {
	return s.LoadEntriesFn(ctx, meta)
}

func (s *IndexStore) ReplaceEntries(ctx context.Context, meta siteqa.IndexMeta, entries []*siteqa.IndexEntry) error {
	return s.ReplaceEntriesFn(ctx, meta, entries)
}

func (s *IndexStore) UpsertEntries(ctx context.Context, meta siteqa.IndexMeta, entries []*siteqa.IndexEntry) error {
	return s.UpsertEntriesFn(ctx, meta, entries)
}

func (s *IndexStore) ReplaceSourceEntries(ctx context.Context, meta siteqa.IndexMeta, sources []string, entries []*siteqa.IndexEntry) error {
	return s.ReplaceSourceEntriesFn(ctx, meta, sources, entries)
}
