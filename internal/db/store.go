// Package db persists documents and their chunk vectors through bun.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"content-rag/internal/helper"
	"content-rag/internal/models"
	"content-rag/internal/vector"
)

// Store implements document and chunk persistence. Every method is scoped to
// a single operation; Upsert runs in one transaction.
type Store struct {
	db        *bun.DB
	dimension int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithDimension sets the embedding dimension stored vectors are expected to
// have. Vectors read with another length are logged and returned as stored,
// so retrieval can skip them.
func WithDimension(dim int) StoreOption {
	return func(s *Store) {
		s.dimension = dim
	}
}

func NewStore(db *bun.DB, opts ...StoreOption) *Store {
	s := &Store{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Init creates the tables if they do not exist.
func (s *Store) Init(ctx context.Context) error {
	if isPostgres(s.db) {
		if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
			return storageErr("create vector extension", err)
		}
	}

	if _, err := s.db.NewCreateTable().Model((*DocumentRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return storageErr("create documents", err)
	}

	_, err := s.db.NewCreateTable().
		Model((*ChunkRow)(nil)).
		IfNotExists().
		ForeignKey(`("document_id") REFERENCES "documents" ("id") ON DELETE CASCADE`).
		Exec(ctx)
	if err != nil {
		return storageErr("create chunks", err)
	}

	_, err = s.db.NewCreateIndex().
		Model((*ChunkRow)(nil)).
		Index("chunks_document_id_position_idx").
		Column("document_id", "position").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return storageErr("create chunks index", err)
	}
	return nil
}

// Reset drops both tables and recreates them empty.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.NewDropTable().Model((*ChunkRow)(nil)).IfExists().Exec(ctx); err != nil {
		return storageErr("drop chunks", err)
	}
	if _, err := s.db.NewDropTable().Model((*DocumentRow)(nil)).IfExists().Exec(ctx); err != nil {
		return storageErr("drop documents", err)
	}
	log.Info().Msg("Dropped documents and chunks")
	return s.Init(ctx)
}

// Upsert writes doc under its identity hash and replaces its chunks with
// chunks, in order. Chunk positions are their index in chunks. The returned
// id is the same for every ingestion of the same source. doc.CreatedAt is set
// to the stored creation time, which re-ingestion does not change.
func (s *Store) Upsert(ctx context.Context, doc *models.Document, chunks []models.Chunk) (string, error) {
	id := helper.DocumentID(doc.SourceRef, doc.RawContent)
	now := time.Now().UTC()

	row := &DocumentRow{
		ID:                id,
		SourceRef:         doc.SourceRef,
		RawContent:        doc.RawContent,
		Metadata:          doc.Metadata,
		Tags:              doc.Tags,
		Summary:           doc.Summary,
		NormalizedContent: doc.NormalizedContent,
		CreatedAt:         now,
	}

	rows := make([]ChunkRow, len(chunks))
	for i, c := range chunks {
		chunkID, err := helper.GenerateUUID()
		if err != nil {
			return "", err
		}
		rows[i] = ChunkRow{
			ID:         chunkID,
			DocumentID: id,
			Chunk:      c.Text,
			Embedding:  pgvector.NewVector(c.Embedding.Values()),
			Position:   i,
			CreatedAt:  now,
		}
	}

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(row).
			On("CONFLICT (id) DO UPDATE").
			Set("source_ref = EXCLUDED.source_ref").
			Set("raw_content = EXCLUDED.raw_content").
			Set("metadata = EXCLUDED.metadata").
			Set("tags = EXCLUDED.tags").
			Set("summary = EXCLUDED.summary").
			Set("normalized_content = EXCLUDED.normalized_content").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert document: %w", err)
		}
		// a replaced document keeps its first ingestion time
		if err := tx.NewSelect().Model(row).Column("created_at").WherePK().Scan(ctx); err != nil {
			return fmt.Errorf("read document: %w", err)
		}

		res, err := tx.NewDelete().Model((*ChunkRow)(nil)).Where("document_id = ?", id).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete chunks: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			log.Debug().Str("document_id", id).Int64("chunks", n).Msg("Replaced existing chunks")
		}

		if len(rows) == 0 {
			return nil
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrStorage, err)
	}

	doc.ID = id
	doc.CreatedAt = row.CreatedAt
	log.Info().Str("document_id", id).Int("chunks", len(rows)).Msg("Stored document")
	return id, nil
}

// UpdateTags replaces the tag string of an existing document. It returns
// ErrNotFound when id is unknown.
func (s *Store) UpdateTags(ctx context.Context, id, tags string) error {
	res, err := s.db.NewUpdate().
		Model((*DocumentRow)(nil)).
		Set("tags = ?", tags).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return storageErr("update tags", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr("update tags", err)
	}
	if n == 0 {
		return fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// Document loads a single document by id.
func (s *Store) Document(ctx context.Context, id string) (*models.Document, error) {
	var row DocumentRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("select document", err)
	}
	return &models.Document{
		ID:                row.ID,
		SourceRef:         row.SourceRef,
		RawContent:        row.RawContent,
		Metadata:          row.Metadata,
		Tags:              row.Tags,
		Summary:           row.Summary,
		NormalizedContent: row.NormalizedContent,
		CreatedAt:         row.CreatedAt,
	}, nil
}

// ListDocumentSummaries returns every document's tags and summary in
// insertion order.
func (s *Store) ListDocumentSummaries(ctx context.Context) ([]models.DocumentSummary, error) {
	var rows []DocumentRow
	err := s.db.NewSelect().
		Model(&rows).
		Column("id", "tags", "summary").
		Order("created_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, storageErr("list documents", err)
	}

	out := make([]models.DocumentSummary, len(rows))
	for i, r := range rows {
		out[i] = models.DocumentSummary{DocumentID: r.ID, Tags: r.Tags, Summary: r.Summary}
	}
	return out, nil
}

// ChunksOf returns a document's chunks ordered by position.
func (s *Store) ChunksOf(ctx context.Context, documentID string) ([]models.ChunkRecord, error) {
	var rows []ChunkRow
	err := s.db.NewSelect().
		Model(&rows).
		Column("chunk", "embedding", "position").
		Where("document_id = ?", documentID).
		Order("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, storageErr("select chunks", err)
	}

	out := make([]models.ChunkRecord, len(rows))
	for i, r := range rows {
		out[i] = models.ChunkRecord{
			Text:      r.Chunk,
			Embedding: s.embedding(r.Embedding.Slice(), documentID, r.Position),
			Position:  r.Position,
		}
	}
	return out, nil
}

// AllChunks returns every stored chunk, grouped by document and ordered by
// position.
func (s *Store) AllChunks(ctx context.Context) ([]models.Chunk, error) {
	var rows []ChunkRow
	err := s.db.NewSelect().
		Model(&rows).
		Order("document_id ASC", "position ASC").
		Scan(ctx)
	if err != nil {
		return nil, storageErr("select chunks", err)
	}

	out := make([]models.Chunk, len(rows))
	for i, r := range rows {
		out[i] = models.Chunk{
			ID:         r.ID,
			DocumentID: r.DocumentID,
			Text:       r.Chunk,
			Embedding:  s.embedding(r.Embedding.Slice(), r.DocumentID, r.Position),
			Position:   r.Position,
			CreatedAt:  r.CreatedAt,
		}
	}
	return out, nil
}

func (s *Store) embedding(raw []float32, documentID string, position int) vector.Vector {
	if s.dimension <= 0 {
		return vector.Wrap(raw)
	}
	v, err := vector.WrapDim(raw, s.dimension)
	if err != nil {
		log.Warn().
			Err(err).
			Str("document_id", documentID).
			Int("position", position).
			Msg("Stored embedding has unexpected dimension")
		return vector.Wrap(raw)
	}
	return v
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrStorage, op, err)
}
