// Package rag wires normalization, chunking, embedding, storage and
// retrieval into the ingestion and query flows.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"content-rag/internal/chunker"
	"content-rag/internal/config"
	"content-rag/internal/models"
	"content-rag/internal/normalizer"
	"content-rag/internal/retriever"
	"content-rag/internal/vector"
)

// Generator is the text-generation collaborator.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Embedder produces system-dimension vectors for single texts and ordered
// batches.
type Embedder interface {
	Embed(ctx context.Context, text string) (vector.Vector, error)
	EmbedAll(ctx context.Context, texts []string) ([]vector.Vector, error)
}

// Store is the document store used by both flows.
type Store interface {
	retriever.Store
	Upsert(ctx context.Context, doc *models.Document, chunks []models.Chunk) (string, error)
	UpdateTags(ctx context.Context, id, tags string) error
}

type RAG struct {
	store      Store
	gen        Generator
	embedder   Embedder
	normalizer *normalizer.Normalizer
	retriever  *retriever.Retriever
	cfg        config.RAGConfig
}

func NewRAG(store Store, gen Generator, embedder Embedder, cfg *config.RAGConfig) *RAG {
	return &RAG{
		store:      store,
		gen:        gen,
		embedder:   embedder,
		normalizer: normalizer.New(gen, cfg),
		retriever:  retriever.New(store, embedder),
		cfg:        *cfg,
	}
}

// IngestRequest is one piece of content to ingest. Zero ChunkSize and nil
// thresholds fall back to the configuration.
type IngestRequest struct {
	RawContent        string
	SourceRef         string
	ChunkSize         int
	MetadataThreshold *float64
	VectorThreshold   *float64
}

// Ingest normalizes, chunks, embeds and stores req. Nothing is stored when
// any step fails.
func (r *RAG) Ingest(ctx context.Context, req IngestRequest) (*models.IngestResult, error) {
	raw := strings.TrimSpace(req.RawContent)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty content", models.ErrInvalidInput)
	}

	chunkSize := req.ChunkSize
	if chunkSize <= 0 {
		chunkSize = r.cfg.ChunkSize
	}

	normalized, err := r.normalizer.Normalize(ctx, raw, r.cfg.MetadataSampleLimit)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	texts := chunker.Chunk(normalized.NormalizedContent, chunkSize)
	log.Debug().Int("chunks", len(texts)).Int("chunk_size", chunkSize).Msg("Chunked normalized content")

	vectors, err := r.embedder.EmbedAll(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	chunks := make([]models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = models.Chunk{Text: text, Embedding: vectors[i], Position: i}
	}

	doc := &models.Document{
		SourceRef:         req.SourceRef,
		RawContent:        raw,
		Metadata:          normalized.Metadata.Metadata,
		Tags:              normalized.Tags,
		Summary:           normalized.Summary,
		NormalizedContent: normalized.NormalizedContent,
	}

	id, err := r.store.Upsert(ctx, doc, chunks)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	return &models.IngestResult{
		DocumentID:        id,
		Metadata:          doc.Metadata,
		Tags:              doc.Tags,
		Summary:           doc.Summary,
		NormalizedContent: doc.NormalizedContent,
		Chunks:            texts,
		MetadataThreshold: orDefault(req.MetadataThreshold, r.cfg.MetadataThreshold),
		VectorThreshold:   orDefault(req.VectorThreshold, r.cfg.VectorThreshold),
	}, nil
}

// Query answers prompt through the generation service. When searchFirst is
// set, stored content is retrieved and prepended as context. Retrieval and
// generation failures never fail the query: the former drops the context,
// the latter is reported in the response text.
func (r *RAG) Query(ctx context.Context, prompt string, searchFirst bool, opts retriever.Options) (*models.PromptResponse, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: empty prompt", models.ErrInvalidInput)
	}

	finalPrompt := prompt
	if searchFirst {
		retrieved, found := r.retriever.Retrieve(ctx, prompt, opts)
		finalPrompt = BuildPrompt(prompt, retrieved, found)
	}

	response, err := r.gen.Generate(ctx, "", finalPrompt)
	if err != nil {
		log.Error().Err(err).Msg("Error querying model")
		response = fmt.Sprintf("Error querying model: %v", err)
	}

	return &models.PromptResponse{
		InitialPrompt: prompt,
		FinalPrompt:   finalPrompt,
		Response:      response,
	}, nil
}

// RetrievalOptions returns the configured thresholds.
func (r *RAG) RetrievalOptions() retriever.Options {
	return retriever.Options{
		MetadataThreshold: r.cfg.MetadataThreshold,
		VectorThreshold:   r.cfg.VectorThreshold,
	}
}

// UpdateTags stores tags joined with ", " on document id. Blank tags are
// dropped.
func (r *RAG) UpdateTags(ctx context.Context, id string, tags []string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty document id", models.ErrInvalidInput)
	}

	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}

	joined := strings.Join(cleaned, models.TagSeparator)
	if err := r.store.UpdateTags(ctx, id, joined); err != nil {
		return err
	}
	log.Info().Str("document_id", id).Str("tags", joined).Msg("Updated tags")
	return nil
}

// BuildPrompt combines retrieved context with the user query, or prefixes the
// query with a no-content notice when nothing was found.
func BuildPrompt(query, retrieved string, found bool) string {
	if !found {
		return models.NoContextPrefix + query
	}
	return fmt.Sprintf(models.RetrievedContextTemplate, retrieved, query)
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
