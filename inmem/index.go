// Package inmem provides an in-memory vector index served from immutable
// snapshots and persisted through a siteqa.IndexStore.
package inmem

import (
	"cmp"
	"context"
	"log/slog"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/fwojciec/siteqa"
)

var _ siteqa.VectorIndex = (*Index)(nil)

// Index is a brute-force cosine similarity index. Readers load the current
// snapshot without locking. Writers serialize on a mutex, build a new
// snapshot, persist it and only then publish it.
type Index struct {
	meta   siteqa.IndexMeta
	store  siteqa.IndexStore
	logger *slog.Logger

	mu       sync.Mutex // serializes writers
	snapshot atomic.Pointer[snapshot]
}

// snapshot is never modified after it is published.
type snapshot struct {
	entries []*siteqa.IndexEntry
	norms   []float64
	byID    map[string]int
}

// NewIndex returns an empty index for the collection described by meta.
// A nil store keeps the index in memory only.
func NewIndex(meta siteqa.IndexMeta, store siteqa.IndexStore, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	idx := &Index{meta: meta, store: store, logger: logger}
	idx.snapshot.Store(newSnapshot(nil))
	return idx
}

func newSnapshot(entries []*siteqa.IndexEntry) *snapshot {
	s := &snapshot{
		entries: entries,
		norms:   make([]float64, len(entries)),
		byID:    make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		s.norms[i] = norm(e.Embedding)
		s.byID[e.ChunkID] = i
	}
	return s
}

// Model implements siteqa.VectorIndex.
func (idx *Index) Model() string { return idx.meta.Model }

// Dimensions implements siteqa.VectorIndex.
func (idx *Index) Dimensions() int { return idx.meta.Dimensions }

// Len implements siteqa.VectorIndex.
func (idx *Index) Len() int { return len(idx.snapshot.Load().entries) }

// Load implements siteqa.VectorIndex.
func (idx *Index) Load(ctx context.Context) error {
	if idx.store == nil {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	entries, err := idx.store.LoadEntries(ctx, idx.meta)
	if err != nil {
		return err
	}
	if err := idx.validate(entries); err != nil {
		return siteqa.Errorf(siteqa.ECORRUPT, "collection %q: %s", idx.meta.Collection, siteqa.ErrorMessage(err))
	}

	idx.snapshot.Store(newSnapshot(dedupe(entries)))
	idx.logger.Info("index loaded", "collection", idx.meta.Collection, "entries", len(entries))
	return nil
}

// Upsert implements siteqa.VectorIndex.
func (idx *Index) Upsert(ctx context.Context, entries []*siteqa.IndexEntry) error {
	if len(entries) == 0 {
		return idx.validate(entries)
	}
	return idx.write(ctx, nil, entries)
}

// ReplaceSources implements siteqa.VectorIndex.
func (idx *Index) ReplaceSources(ctx context.Context, sources []string, entries []*siteqa.IndexEntry) error {
	if len(sources) == 0 {
		return idx.Upsert(ctx, entries)
	}
	return idx.write(ctx, sources, entries)
}

// write drops the entries of sources, then adds or replaces entries by
// chunk ID. The store is written before the new snapshot is published.
func (idx *Index) write(ctx context.Context, sources []string, entries []*siteqa.IndexEntry) error {
	if err := idx.validate(entries); err != nil {
		return err
	}

	evict := make(map[string]bool, len(sources))
	for _, src := range sources {
		evict[src] = true
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	cur := idx.snapshot.Load()
	next := make([]*siteqa.IndexEntry, 0, len(cur.entries)+len(entries))
	positions := make(map[string]int, len(cur.entries)+len(entries))
	for _, e := range cur.entries {
		if evict[e.SourceURL] {
			continue
		}
		positions[e.ChunkID] = len(next)
		next = append(next, e)
	}
	for _, e := range entries {
		e = clone(e)
		if i, ok := positions[e.ChunkID]; ok {
			next[i] = e
			continue
		}
		positions[e.ChunkID] = len(next)
		next = append(next, e)
	}

	if idx.store != nil {
		var err error
		if len(sources) == 0 {
			err = idx.store.UpsertEntries(ctx, idx.meta, entries)
		} else {
			err = idx.store.ReplaceSourceEntries(ctx, idx.meta, sources, entries)
		}
		if err != nil {
			return err
		}
	}
	idx.snapshot.Store(newSnapshot(next))
	return nil
}

// Rebuild implements siteqa.VectorIndex.
func (idx *Index) Rebuild(ctx context.Context, entries []*siteqa.IndexEntry) error {
	if err := idx.validate(entries); err != nil {
		return err
	}

	next := make([]*siteqa.IndexEntry, len(entries))
	for i, e := range entries {
		next[i] = clone(e)
	}
	next = dedupe(next)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.store != nil {
		if err := idx.store.ReplaceEntries(ctx, idx.meta, next); err != nil {
			return err
		}
	}
	idx.snapshot.Store(newSnapshot(next))
	return nil
}

// Search implements siteqa.VectorIndex.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]siteqa.SearchHit, error) {
	if len(query) != idx.meta.Dimensions {
		return nil, siteqa.Errorf(siteqa.EINVALID, "query has %d dimensions, index has %d", len(query), idx.meta.Dimensions)
	}
	if k <= 0 {
		return []siteqa.SearchHit{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := idx.snapshot.Load()
	qn := norm(query)
	hits := make([]siteqa.SearchHit, 0, len(snap.entries))
	for i, e := range snap.entries {
		hits = append(hits, siteqa.SearchHit{
			Entry: e,
			Score: cosine(query, qn, e.Embedding, snap.norms[i]),
		})
	}

	slices.SortFunc(hits, func(a, b siteqa.SearchHit) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Entry.ChunkID, b.Entry.ChunkID)
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (idx *Index) validate(entries []*siteqa.IndexEntry) error {
	for _, e := range entries {
		if e.ChunkID == "" {
			return siteqa.Errorf(siteqa.EINVALID, "index entry chunk ID required")
		}
		if len(e.Embedding) != idx.meta.Dimensions {
			return siteqa.Errorf(siteqa.EINVALID, "entry %s has %d dimensions, index has %d",
				e.ChunkID, len(e.Embedding), idx.meta.Dimensions)
		}
	}
	return nil
}

// dedupe keeps the last entry for each chunk ID, preserving first-seen order.
func dedupe(entries []*siteqa.IndexEntry) []*siteqa.IndexEntry {
	pos := make(map[string]int, len(entries))
	out := entries[:0:0]
	for _, e := range entries {
		if i, ok := pos[e.ChunkID]; ok {
			out[i] = e
			continue
		}
		pos[e.ChunkID] = len(out)
		out = append(out, e)
	}
	return out
}

func clone(e *siteqa.IndexEntry) *siteqa.IndexEntry {
	c := *e
	c.Embedding = slices.Clone(e.Embedding)
	return &c
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector has zero length.
func cosine(a []float32, an float64, b []float32, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (an * bn)
}
