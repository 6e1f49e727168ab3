package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"content-rag/internal/helper"
)

var (
	queryNoSearch          bool
	queryShowPrompt        bool
	queryMetadataThreshold float64
	queryVectorThreshold   float64
	queryJSON              bool
)

var queryCmd = &cobra.Command{
	Use:   "query [prompt]",
	Short: "Answer a prompt using stored content as context",
	Long: `Retrieves stored chunks relevant to the prompt in two stages (document
tags and summary first, then chunk vectors) and sends the prompt with the
retrieved context to the language model.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryNoSearch, "no-search", false, "send the prompt without searching stored content")
	queryCmd.Flags().BoolVar(&queryShowPrompt, "show-prompt", false, "print the final prompt before the response")
	queryCmd.Flags().Float64Var(&queryMetadataThreshold, "metadata-threshold", 0, "document similarity threshold (default from config)")
	queryCmd.Flags().Float64Var(&queryVectorThreshold, "vector-threshold", 0, "chunk similarity threshold (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		opts := a.rag.RetrievalOptions()
		if cmd.Flags().Changed("metadata-threshold") {
			opts.MetadataThreshold = queryMetadataThreshold
		}
		if cmd.Flags().Changed("vector-threshold") {
			opts.VectorThreshold = queryVectorThreshold
		}

		resp, err := a.rag.Query(ctx, args[0], !queryNoSearch, opts)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}

		if queryJSON {
			helper.PrettyPrint(cmd.OutOrStdout(), resp)
			return nil
		}
		if queryShowPrompt {
			cmd.Println(resp.FinalPrompt)
			cmd.Println("---")
		}
		cmd.Println(resp.Response)
		return nil
	})
}
