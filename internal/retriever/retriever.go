// Package retriever implements the two-stage similarity search over stored
// documents and chunks and renders the matches as a context block.
package retriever

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"content-rag/internal/models"
	"content-rag/internal/vector"
)

const (
	DefaultMetadataThreshold = 0.80
	DefaultVectorThreshold   = 0.80
)

// Store is the read side of the document store.
type Store interface {
	ListDocumentSummaries(ctx context.Context) ([]models.DocumentSummary, error)
	ChunksOf(ctx context.Context, documentID string) ([]models.ChunkRecord, error)
}

// Embedder turns text into a vector of the system dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) (vector.Vector, error)
}

// Options are the two similarity thresholds. A document passes stage one when
// its metadata similarity is strictly greater than MetadataThreshold; a chunk
// passes stage two when its similarity is at least VectorThreshold. A
// MetadataThreshold below -1 lets every document through stage one.
type Options struct {
	MetadataThreshold float64
	VectorThreshold   float64
}

func DefaultOptions() Options {
	return Options{MetadataThreshold: DefaultMetadataThreshold, VectorThreshold: DefaultVectorThreshold}
}

// ChunkMatch is a chunk kept by stage two.
type ChunkMatch struct {
	Text       string
	Position   int
	Similarity float64
}

// DocumentMatch is a document with at least one kept chunk.
type DocumentMatch struct {
	models.DocumentSummary
	MetadataSimilarity float64
	Chunks             []ChunkMatch
}

func (m DocumentMatch) best() float64 {
	if len(m.Chunks) == 0 {
		return -2
	}
	return m.Chunks[0].Similarity
}

type Retriever struct {
	store    Store
	embedder Embedder
}

func New(store Store, embedder Embedder) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

// Retrieve returns the rendered context for query and true, or
// models.NoContextFound and false when nothing relevant was found. Failures
// are logged and reported as no context.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts Options) (string, bool) {
	matches, err := r.Search(ctx, query, opts)
	if err != nil {
		log.Warn().Err(err).Msg("Retrieval failed, continuing without context")
		return models.NoContextFound, false
	}
	if len(matches) == 0 {
		log.Debug().Msg("No relevant content found")
		return models.NoContextFound, false
	}
	return FormatContext(matches), true
}

// Search runs both stages and returns the documents with kept chunks. Matches
// are ordered by their best chunk similarity, chunks within a match by
// similarity then position.
func (r *Retriever) Search(ctx context.Context, query string, opts Options) ([]DocumentMatch, error) {
	queryEmbedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	queryUnit := queryEmbedding.Unit()

	summaries, err := r.store.ListDocumentSummaries(ctx)
	if err != nil {
		return nil, err
	}

	var matches []DocumentMatch
	for _, summary := range summaries {
		metaSim, ok, err := r.passesMetadata(ctx, queryEmbedding, summary, opts.MetadataThreshold)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		kept, err := r.matchChunks(ctx, queryUnit, summary.DocumentID, opts.VectorThreshold)
		if err != nil {
			return nil, err
		}
		if len(kept) == 0 {
			continue
		}

		matches = append(matches, DocumentMatch{
			DocumentSummary:    summary,
			MetadataSimilarity: metaSim,
			Chunks:             kept,
		})
	}

	slices.SortStableFunc(matches, func(a, b DocumentMatch) int {
		return cmp.Compare(b.best(), a.best())
	})
	return matches, nil
}

func (r *Retriever) passesMetadata(ctx context.Context, query vector.Vector, summary models.DocumentSummary, threshold float64) (float64, bool, error) {
	metaEmbedding, err := r.embedder.Embed(ctx, summary.Tags+" "+summary.Summary)
	if err != nil {
		return 0, false, fmt.Errorf("embed metadata of %s: %w", summary.DocumentID, err)
	}

	sim, err := vector.CosineSimilarity(query, metaEmbedding)
	if errors.Is(err, vector.ErrDimensionMismatch) {
		log.Warn().
			Str("document_id", summary.DocumentID).
			Int("query_dim", query.Dim()).
			Int("metadata_dim", metaEmbedding.Dim()).
			Msg("Skipping document with mismatched metadata embedding")
		return 0, false, nil
	}

	log.Debug().Str("document_id", summary.DocumentID).Float64("similarity", sim).Msg("Metadata similarity")
	return sim, sim > threshold, nil
}

func (r *Retriever) matchChunks(ctx context.Context, queryUnit vector.Vector, documentID string, threshold float64) ([]ChunkMatch, error) {
	chunks, err := r.store.ChunksOf(ctx, documentID)
	if err != nil {
		return nil, err
	}

	var kept []ChunkMatch
	for _, c := range chunks {
		sim, err := vector.CosineSimilarity(queryUnit, c.Embedding.Unit())
		if err != nil {
			log.Warn().
				Err(err).
				Str("document_id", documentID).
				Int("position", c.Position).
				Int("query_dim", queryUnit.Dim()).
				Int("chunk_dim", c.Embedding.Dim()).
				Msg("Skipping chunk")
			continue
		}
		if sim >= threshold {
			kept = append(kept, ChunkMatch{Text: c.Text, Position: c.Position, Similarity: sim})
		}
	}

	slices.SortStableFunc(kept, func(a, b ChunkMatch) int {
		if c := cmp.Compare(b.Similarity, a.Similarity); c != 0 {
			return c
		}
		return cmp.Compare(a.Position, b.Position)
	})
	return kept, nil
}

// FormatContext renders one block per match: a "Tags: ..., Summary: ..." line
// followed by one "Similarity: ..., Chunk: ..." line per chunk. Blocks are
// separated by a blank line.
func FormatContext(matches []DocumentMatch) string {
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		var b strings.Builder
		fmt.Fprintf(&b, "Tags: %s, Summary: %s\n", m.Tags, m.Summary)
		for _, c := range m.Chunks {
			fmt.Fprintf(&b, "Similarity: %.2f, Chunk: %s\n", c.Similarity, c.Text)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}
