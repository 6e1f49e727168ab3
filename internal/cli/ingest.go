package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"content-rag/internal/helper"
	"content-rag/internal/models"
	"content-rag/internal/parser"
	"content-rag/internal/rag"
	"content-rag/internal/scraper"
)

var (
	ingestFile              string
	ingestChunkSize         int
	ingestMetadataThreshold float64
	ingestVectorThreshold   float64
	ingestJSON              bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [content|url|-]",
	Short: "Normalize, chunk, embed and store content",
	Long: `Ingests typed text, the visible text of a URL, stdin ("-") or a document
file (--file). Re-ingesting the same URL, file or text replaces the stored
document and its chunks.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "path to a document file")
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 0, "tokens per chunk (default from config)")
	ingestCmd.Flags().Float64Var(&ingestMetadataThreshold, "metadata-threshold", 0, "metadata similarity threshold recorded with the result")
	ingestCmd.Flags().Float64Var(&ingestVectorThreshold, "vector-threshold", 0, "vector similarity threshold recorded with the result")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestFile != "" && len(args) > 0 {
		return errors.New("provide either content or --file, not both")
	}
	if ingestFile == "" && len(args) == 0 {
		return errors.New("provide content, a URL, - for stdin, or --file")
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		raw, sourceRef, err := resolveInput(ctx, cmd, a, args)
		if err != nil {
			return err
		}

		req := rag.IngestRequest{
			RawContent: raw,
			SourceRef:  sourceRef,
			ChunkSize:  ingestChunkSize,
		}
		if cmd.Flags().Changed("metadata-threshold") {
			req.MetadataThreshold = &ingestMetadataThreshold
		}
		if cmd.Flags().Changed("vector-threshold") {
			req.VectorThreshold = &ingestVectorThreshold
		}

		res, err := a.rag.Ingest(ctx, req)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}

		if ingestJSON {
			helper.PrettyPrint(cmd.OutOrStdout(), res)
			return nil
		}
		printIngestResult(cmd, res)
		return nil
	})
}

// resolveInput returns the raw content to ingest and its source reference.
func resolveInput(ctx context.Context, cmd *cobra.Command, a *app, args []string) (string, string, error) {
	if ingestFile != "" {
		abs, err := filepath.Abs(ingestFile)
		if err != nil {
			return "", "", err
		}
		content, err := parser.ExtractText(abs)
		if err != nil {
			return "", "", err
		}
		return content, "file://" + abs, nil
	}

	input := args[0]
	switch {
	case input == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(b), "", nil
	case scraper.IsURL(input):
		content, err := a.fetcher.Fetch(ctx, input)
		if err != nil {
			return "", "", err
		}
		return content, input, nil
	default:
		return input, "", nil
	}
}

func printIngestResult(cmd *cobra.Command, res *models.IngestResult) {
	cmd.Printf("Document: %s\n", res.DocumentID)
	cmd.Printf("Metadata: %s\n", res.Metadata)
	cmd.Printf("Tags:     %s\n", res.Tags)
	cmd.Printf("Summary:  %s\n", res.Summary)
	cmd.Printf("Chunks:   %d\n", len(res.Chunks))
}
