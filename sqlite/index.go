package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/fwojciec/siteqa"
)

// Compile-time interface verification.
var _ siteqa.IndexStore = (*IndexStore)(nil)

// IndexStore persists vector index collections. Each collection records the
// embedding model and dimensionality it was built with; entries store their
// embedding as a little-endian float32 blob next to a checksum of the text.
type IndexStore struct {
	db *DB
}

// NewIndexStore creates a new IndexStore.
func NewIndexStore(db *DB) *IndexStore {
	return &IndexStore{db: db}
}

// LoadEntries returns all entries of the collection ordered by chunk ID.
// Returns ECONFIG when the collection was built with another model or
// dimensionality and ECORRUPT when a stored entry fails validation.
func (s *IndexStore) LoadEntries(ctx context.Context, meta siteqa.IndexMeta) ([]*siteqa.IndexEntry, error) {
	ok, err := checkCollection(ctx, s.db.db, meta)
	if err != nil || !ok {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT chunk_id, source_url, content, content_hash, embedding
		FROM index_entries
		WHERE collection = ?
		ORDER BY chunk_id
	`, meta.Collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*siteqa.IndexEntry
	for rows.Next() {
		var e siteqa.IndexEntry
		var hash string
		var blob []byte
		if err := rows.Scan(&e.ChunkID, &e.SourceURL, &e.Content, &hash, &blob); err != nil {
			return nil, err
		}

		if hashContent(e.Content) != hash {
			return nil, siteqa.Errorf(siteqa.ECORRUPT, "collection %q: entry %s content checksum mismatch", meta.Collection, e.ChunkID)
		}
		if e.Embedding, err = decodeEmbedding(blob, meta.Dimensions); err != nil {
			return nil, siteqa.Errorf(siteqa.ECORRUPT, "collection %q: entry %s: %s", meta.Collection, e.ChunkID, err)
		}

		entries = append(entries, &e)
	}

	return entries, rows.Err()
}

// ReplaceEntries atomically replaces the collection's metadata and entries.
func (s *IndexStore) ReplaceEntries(ctx context.Context, meta siteqa.IndexMeta, entries []*siteqa.IndexEntry) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM index_entries WHERE collection = ?", meta.Collection); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO index_collections (name, model, dimensions, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			model = excluded.model,
			dimensions = excluded.dimensions,
			updated_at = excluded.updated_at
	`, meta.Collection, meta.Model, meta.Dimensions, formatTimestamp(time.Now())); err != nil {
		return err
	}

	if err := insertEntries(ctx, tx, meta, entries); err != nil {
		return err
	}

	return tx.Commit()
}

// UpsertEntries inserts entries or replaces those with the same chunk ID.
// Returns ECONFIG when the collection exists with another model or
// dimensionality.
func (s *IndexStore) UpsertEntries(ctx context.Context, meta siteqa.IndexMeta, entries []*siteqa.IndexEntry) error {
	return s.writeEntries(ctx, meta, nil, entries)
}

// ReplaceSourceEntries deletes every entry of the given source URLs and
// inserts entries in the same transaction.
// Returns ECONFIG when the collection exists with another model or
// dimensionality.
func (s *IndexStore) ReplaceSourceEntries(ctx context.Context, meta siteqa.IndexMeta, sources []string, entries []*siteqa.IndexEntry) error {
	return s.writeEntries(ctx, meta, sources, entries)
}

func (s *IndexStore) writeEntries(ctx context.Context, meta siteqa.IndexMeta, sources []string, entries []*siteqa.IndexEntry) error {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ok, err := checkCollection(ctx, tx, meta)
	if err != nil {
		return err
	}

	now := formatTimestamp(time.Now())
	if ok {
		_, err = tx.ExecContext(ctx, "UPDATE index_collections SET updated_at = ? WHERE name = ?", now, meta.Collection)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO index_collections (name, model, dimensions, updated_at)
			VALUES (?, ?, ?, ?)
		`, meta.Collection, meta.Model, meta.Dimensions, now)
	}
	if err != nil {
		return err
	}

	for _, src := range sources {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM index_entries WHERE collection = ? AND source_url = ?", meta.Collection, src); err != nil {
			return fmt.Errorf("failed to delete entries of %s: %w", src, err)
		}
	}

	if err := insertEntries(ctx, tx, meta, entries); err != nil {
		return err
	}

	return tx.Commit()
}

// Collections returns the metadata of every persisted collection.
func (s *IndexStore) Collections(ctx context.Context) ([]siteqa.IndexMeta, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, model, dimensions FROM index_collections ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []siteqa.IndexMeta
	for rows.Next() {
		var m siteqa.IndexMeta
		if err := rows.Scan(&m.Collection, &m.Model, &m.Dimensions); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// checkCollection reports whether the collection exists and verifies that it
// was built with the model and dimensionality in meta.
func checkCollection(ctx context.Context, q queryer, meta siteqa.IndexMeta) (bool, error) {
	var model string
	var dims int
	err := q.QueryRowContext(ctx, "SELECT model, dimensions FROM index_collections WHERE name = ?", meta.Collection).
		Scan(&model, &dims)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if model != meta.Model || dims != meta.Dimensions {
		return false, siteqa.Errorf(siteqa.ECONFIG,
			"collection %q was built with model %q (%d dimensions) but %q (%d dimensions) is configured; rebuild the index",
			meta.Collection, model, dims, meta.Model, meta.Dimensions)
	}
	return true, nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, meta siteqa.IndexMeta, entries []*siteqa.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO index_entries (collection, chunk_id, source_url, content, content_hash, embedding)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, chunk_id) DO UPDATE SET
			source_url = excluded.source_url,
			content = excluded.content,
			content_hash = excluded.content_hash,
			embedding = excluded.embedding
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if len(e.Embedding) != meta.Dimensions {
			return siteqa.Errorf(siteqa.EINVALID, "entry %s has %d dimensions, collection has %d",
				e.ChunkID, len(e.Embedding), meta.Dimensions)
		}
		if _, err := stmt.ExecContext(ctx, meta.Collection, e.ChunkID, e.SourceURL, e.Content,
			hashContent(e.Content), encodeEmbedding(e.Embedding)); err != nil {
			return fmt.Errorf("failed to insert entry %s: %w", e.ChunkID, err)
		}
	}
	return nil
}

func encodeEmbedding(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(x))
	}
	return b
}

func decodeEmbedding(b []byte, dims int) ([]float32, error) {
	if len(b) != 4*dims {
		return nil, fmt.Errorf("embedding is %d bytes, want %d", len(b), 4*dims)
	}
	v := make([]float32, dims)
	for i := range v {
		x := math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return nil, fmt.Errorf("embedding component %d is not finite", i)
		}
		v[i] = x
	}
	return v, nil
}
