// Package chromemdb builds portable chromem-go snapshots of the stored chunk
// vectors and runs nearest-neighbour lookups over them.
package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"content-rag/internal/config"
	"content-rag/internal/helper"
	"content-rag/internal/models"
	"content-rag/internal/vector"
)

const (
	metaDocumentID = "document_id"
	metaPosition   = "position"
)

// Match is one snapshot lookup result.
type Match struct {
	ChunkID    string
	DocumentID string
	Position   int
	Text       string
	Similarity float32
}

// Snapshot is an in-memory chromem collection of chunks that can be written
// to and read from a single gob file.
type Snapshot struct {
	db            *chromem.DB
	collection    *chromem.Collection
	dir           string
	compress      bool
	encryptionKey string
	filePath      string
}

// NewSnapshot creates an empty snapshot for the configured collection.
func NewSnapshot(cfg *config.VectorDBConfig) (*Snapshot, error) {
	db := chromem.NewDB()
	c, err := db.GetOrCreateCollection(cfg.Collection, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}
	return newSnapshot(db, c, cfg), nil
}

// Load reads the snapshot file written by Export.
func Load(cfg *config.VectorDBConfig) (*Snapshot, error) {
	s := newSnapshot(chromem.NewDB(), nil, cfg)
	if err := s.db.ImportFromFile(s.filePath, s.encryptionKey, cfg.Collection); err != nil {
		return nil, fmt.Errorf("failed to import snapshot: %w", err)
	}

	s.collection = s.db.GetCollection(cfg.Collection, nil)
	if s.collection == nil {
		return nil, fmt.Errorf("collection %q: %w", cfg.Collection, models.ErrNotFound)
	}
	return s, nil
}

func newSnapshot(db *chromem.DB, c *chromem.Collection, cfg *config.VectorDBConfig) *Snapshot {
	return &Snapshot{
		db:            db,
		collection:    c,
		dir:           cfg.Path,
		compress:      cfg.Compress,
		encryptionKey: cfg.EncryptionKey,
		filePath:      FilePath(cfg),
	}
}

// FilePath returns where the snapshot of cfg's collection is stored.
func FilePath(cfg *config.VectorDBConfig) string {
	name := cfg.Collection + ".chromem"
	if cfg.Compress {
		name += ".gz"
	}
	if cfg.EncryptionKey != "" {
		name += ".enc"
	}
	return filepath.Join(cfg.Path, name)
}

// Add copies chunks into the snapshot. Chunks with a zero-norm embedding
// cannot be compared by cosine and are skipped. It returns the number added.
func (s *Snapshot) Add(ctx context.Context, chunks []models.Chunk) (int, error) {
	docs := make([]chromem.Document, 0, len(chunks))
	for _, c := range chunks {
		if c.Embedding.Norm() == 0 {
			log.Warn().Str("document_id", c.DocumentID).Int("position", c.Position).Msg("Skipping chunk with zero embedding")
			continue
		}
		docs = append(docs, chromem.Document{
			ID:      c.ID,
			Content: c.Text,
			Metadata: map[string]string{
				metaDocumentID: c.DocumentID,
				metaPosition:   strconv.Itoa(c.Position),
			},
			Embedding: c.Embedding.Values(),
		})
	}
	if len(docs) == 0 {
		return 0, nil
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return 0, fmt.Errorf("failed to add documents: %w", err)
	}
	return len(docs), nil
}

// Count returns the number of chunks in the snapshot.
func (s *Snapshot) Count() int {
	return s.collection.Count()
}

// Export writes the collection to FilePath, encrypted when a key is set.
func (s *Snapshot) Export() (string, error) {
	if s.dir == "" {
		return "", errors.New("vector_db path is required")
	}
	if err := helper.CreateFolder(s.dir); err != nil {
		return "", err
	}

	log.Debug().
		Str("collection", s.collection.Name).
		Str("file", s.filePath).
		Bool("compress", s.compress).
		Bool("encrypted", s.encryptionKey != "").
		Msg("Exporting snapshot")

	if err := s.db.ExportToFile(s.filePath, s.compress, s.encryptionKey, s.collection.Name); err != nil {
		return "", fmt.Errorf("failed to export snapshot: %w", err)
	}
	return s.filePath, nil
}

// Similar returns up to n chunks closest to query, most similar first.
func (s *Snapshot) Similar(ctx context.Context, query vector.Vector, n int) ([]Match, error) {
	if query.Norm() == 0 {
		return nil, fmt.Errorf("%w: zero query embedding", models.ErrInvalidInput)
	}
	n = min(n, s.collection.Count())
	if n <= 0 {
		return nil, nil
	}

	results, err := s.collection.QueryEmbedding(ctx, query.Values(), n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	matches := make([]Match, len(results))
	for i, r := range results {
		pos, _ := strconv.Atoi(r.Metadata[metaPosition])
		matches[i] = Match{
			ChunkID:    r.ID,
			DocumentID: r.Metadata[metaDocumentID],
			Position:   pos,
			Text:       r.Content,
			Similarity: r.Similarity,
		}
	}
	return matches, nil
}
