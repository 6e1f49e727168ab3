// Package normalizer derives metadata, tags, summary and a normalized body
// from raw content through a text-generation service.
package normalizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"content-rag/internal/config"
	"content-rag/internal/models"
)

// Generator is the text-generation collaborator.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Normalizer orchestrates the generation calls of one ingestion. It never
// retries: the first failed call aborts the operation.
type Normalizer struct {
	gen        Generator
	maxChars   int
	sliceWidth int
	combined   bool
}

// New creates a Normalizer from the pipeline configuration.
func New(gen Generator, cfg *config.RAGConfig) *Normalizer {
	return &Normalizer{
		gen:        gen,
		maxChars:   cfg.NormalizeMaxChars,
		sliceWidth: cfg.NormalizeSliceWidth,
		combined:   cfg.CombinedNormalization,
	}
}

// Normalize derives metadata from the first sampleLimit characters of raw and
// normalizes the full body. In combined mode a single call returns all four
// fields, but only when raw fits both the sample limit and the slicing
// threshold; longer inputs take the two-call path.
func (n *Normalizer) Normalize(ctx context.Context, raw string, sampleLimit int) (models.NormalizedContent, error) {
	if n.combined {
		if n.fitsSingleCall(raw, sampleLimit) {
			return n.normalizeCombined(ctx, raw)
		}
		log.Debug().Int("chars", len([]rune(raw))).Msg("Input too long for combined normalization, using separate calls")
	}

	meta, err := n.ExtractMetadata(ctx, raw, sampleLimit)
	if err != nil {
		return models.NormalizedContent{}, err
	}

	body, err := n.NormalizeBody(ctx, raw)
	if err != nil {
		return models.NormalizedContent{}, err
	}

	return models.NormalizedContent{Metadata: meta, NormalizedContent: body}, nil
}

// ExtractMetadata asks for metadata, tags and summary of the first
// sampleLimit characters of raw. A non-positive limit sends everything.
func (n *Normalizer) ExtractMetadata(ctx context.Context, raw string, sampleLimit int) (models.Metadata, error) {
	sample := headRunes(raw, sampleLimit)

	reply, err := n.gen.Generate(ctx, models.MetadataSystemPrompt, fmt.Sprintf(models.ContentPromptTemplate, sample))
	if err != nil {
		return models.Metadata{}, fmt.Errorf("metadata extraction: %w", err)
	}

	result, err := ParseResponse(reply, false)
	if err != nil {
		return models.Metadata{}, fmt.Errorf("metadata extraction: %w", err)
	}

	log.Debug().
		Str("metadata", result.Metadata.Metadata).
		Str("tags", result.Tags).
		Str("summary", result.Summary).
		Msg("Metadata extracted")

	return result.Metadata, nil
}

// NormalizeBody returns the normalized form of raw. Inputs longer than the
// configured maximum are normalized in sequential calls over fixed-width
// character slices whose results are joined in slice order.
func (n *Normalizer) NormalizeBody(ctx context.Context, raw string) (string, error) {
	slices := []string{raw}
	if n.maxChars > 0 && len([]rune(raw)) > n.maxChars {
		slices = SplitFixedWidth(raw, n.sliceWidth)
	}

	parts := make([]string, 0, len(slices))
	for i, slice := range slices {
		reply, err := n.gen.Generate(ctx, "", fmt.Sprintf(models.NormalizePromptTemplate, slice))
		if err != nil {
			return "", fmt.Errorf("normalization of slice %d/%d: %w", i+1, len(slices), err)
		}
		parts = append(parts, strings.TrimSpace(cleanReply(reply)))
	}

	if len(slices) > 1 {
		log.Debug().Int("slices", len(slices)).Int("width", n.sliceWidth).Msg("Normalized content in slices")
	}

	return strings.Join(parts, "\n"), nil
}

func (n *Normalizer) fitsSingleCall(raw string, sampleLimit int) bool {
	length := len([]rune(raw))
	if sampleLimit > 0 && length > sampleLimit {
		return false
	}
	return n.maxChars <= 0 || length <= n.maxChars
}

func (n *Normalizer) normalizeCombined(ctx context.Context, raw string) (models.NormalizedContent, error) {
	reply, err := n.gen.Generate(ctx, models.CombinedSystemPrompt, fmt.Sprintf(models.ContentPromptTemplate, raw))
	if err != nil {
		return models.NormalizedContent{}, fmt.Errorf("normalization: %w", err)
	}

	result, err := ParseResponse(reply, true)
	if err != nil {
		return models.NormalizedContent{}, fmt.Errorf("normalization: %w", err)
	}
	return result, nil
}

// SplitFixedWidth cuts s into consecutive slices of width characters; the
// last slice may be shorter. Boundaries ignore words and sentences.
func SplitFixedWidth(s string, width int) []string {
	runes := []rune(s)
	if width <= 0 || len(runes) <= width {
		return []string{s}
	}

	out := make([]string, 0, (len(runes)+width-1)/width)
	for start := 0; start < len(runes); start += width {
		end := min(start+width, len(runes))
		out = append(out, string(runes[start:end]))
	}
	return out
}

func headRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
