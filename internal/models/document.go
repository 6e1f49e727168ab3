package models

import (
	"time"

	"content-rag/internal/vector"
)

// Document is one ingested piece of content. ID is derived from SourceRef when
// present, otherwise from RawContent.
type Document struct {
	ID                string
	SourceRef         string
	RawContent        string
	Metadata          string
	Tags              string
	Summary           string
	NormalizedContent string
	CreatedAt         time.Time
}

// Chunk is a fixed-size token window of a document's normalized content.
// Position equals the chunk's index in the chunker output.
type Chunk struct {
	ID         string
	DocumentID string
	Text       string
	Embedding  vector.Vector
	Position   int
	CreatedAt  time.Time
}

// DocumentSummary is the per-document view used by the metadata prefilter.
type DocumentSummary struct {
	DocumentID string
	Tags       string
	Summary    string
}

// ChunkRecord is a stored chunk as read back for similarity comparison.
type ChunkRecord struct {
	Text      string
	Embedding vector.Vector
	Position  int
}

// Metadata is the structured description derived from the first characters of raw content.
type Metadata struct {
	Metadata string `json:"metadata"`
	Tags     string `json:"tags"`
	Summary  string `json:"summary"`
}

// NormalizedContent is the full result of normalizing raw content.
type NormalizedContent struct {
	Metadata
	NormalizedContent string `json:"normalized_version"`
}

// IngestResult is returned by the ingestion entrypoint.
type IngestResult struct {
	DocumentID        string   `json:"document_id"`
	Metadata          string   `json:"metadata"`
	Tags              string   `json:"tags"`
	Summary           string   `json:"summary"`
	NormalizedContent string   `json:"normalized_version"`
	Chunks            []string `json:"chunks"`
	MetadataThreshold float64  `json:"metadata_similarity"`
	VectorThreshold   float64  `json:"vectorized_similarity"`
}

// PromptResponse is returned by the query entrypoint.
type PromptResponse struct {
	InitialPrompt string `json:"initial_prompt"`
	FinalPrompt   string `json:"final_prompt"`
	Response      string `json:"response"`
}
