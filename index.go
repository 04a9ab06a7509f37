package siteqa

import "context"

// IndexEntry is a chunk with its embedding as stored in the vector index.
// Entries are owned by the index and never mutated once added.
type IndexEntry struct {
	ChunkID   string    `json:"chunkId"`
	SourceURL string    `json:"sourceUrl"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// SearchHit is an index entry matched by a similarity search.
type SearchHit struct {
	Entry *IndexEntry `json:"entry"`
	Score float64     `json:"score"`
}

// IndexMeta identifies a persisted index collection. Vectors produced by
// different models are never mixed within one collection.
type IndexMeta struct {
	Collection string `json:"collection"`
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
}

// VectorIndex stores index entries and answers nearest-neighbour queries by
// cosine similarity. Searches may run concurrently with each other and with
// writes; a search observes either the content before a write or after it,
// never a mix.
type VectorIndex interface {
	// Load reads the persisted content. A missing collection loads as empty.
	// Returns ECONFIG when the persisted model or dimensionality differs from
	// the index configuration and ECORRUPT when stored data fails validation.
	Load(ctx context.Context) error

	// Upsert adds entries, replacing any entry with the same chunk ID.
	Upsert(ctx context.Context, entries []*IndexEntry) error

	// ReplaceSources atomically removes every entry whose source URL is in
	// sources and adds entries. Sources with no new entries end up absent.
	ReplaceSources(ctx context.Context, sources []string, entries []*IndexEntry) error

	// Rebuild atomically replaces the entire index content.
	Rebuild(ctx context.Context, entries []*IndexEntry) error

	// Search returns at most k entries ordered by descending similarity,
	// ties broken by ascending chunk ID.
	// Returns EINVALID if the query dimensionality differs from the index.
	Search(ctx context.Context, query []float32, k int) ([]SearchHit, error)

	// Len returns the number of entries currently served.
	Len() int

	// Model returns the identifier of the embedding model of the index.
	Model() string

	// Dimensions returns the vector length of the index.
	Dimensions() int
}

// IndexStore persists index collections.
type IndexStore interface {
	// LoadEntries returns all entries of the collection. A collection that
	// was never written returns no entries.
	LoadEntries(ctx context.Context, meta IndexMeta) ([]*IndexEntry, error)

	// ReplaceEntries atomically replaces all entries of the collection.
	ReplaceEntries(ctx context.Context, meta IndexMeta, entries []*IndexEntry) error

	// UpsertEntries inserts entries or replaces those with the same chunk ID.
	UpsertEntries(ctx context.Context, meta IndexMeta, entries []*IndexEntry) error

	// ReplaceSourceEntries deletes the entries of the given source URLs and
	// inserts entries in one transaction.
	ReplaceSourceEntries(ctx context.Context, meta IndexMeta, sources []string, entries []*IndexEntry) error
}
