package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"content-rag/internal/chromemdb"
)

var similarLimit int

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored chunk vectors to a chromem snapshot file",
	Long: `Writes every stored chunk and its embedding to a chromem-go snapshot under
vector_db.path, compressed and encrypted according to the config.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var similarCmd = &cobra.Command{
	Use:   "similar [text]",
	Short: "List the snapshot chunks nearest to a text",
	Args:  cobra.ExactArgs(1),
	RunE:  runSimilar,
}

func init() {
	similarCmd.Flags().IntVarP(&similarLimit, "limit", "n", 5, "maximum number of results")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(similarCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, a *app) error {
		chunks, err := a.store.AllChunks(ctx)
		if err != nil {
			return err
		}

		snap, err := chromemdb.NewSnapshot(&cfg.VectorDB)
		if err != nil {
			return err
		}
		added, err := snap.Add(ctx, chunks)
		if err != nil {
			return err
		}

		path, err := snap.Export()
		if err != nil {
			return err
		}
		cmd.Printf("Exported %d chunks to %s\n", added, path)
		return nil
	})
}

func runSimilar(cmd *cobra.Command, args []string) error {
	snap, err := chromemdb.Load(&cfg.VectorDB)
	if err != nil {
		return fmt.Errorf("failed to load snapshot (run export first): %w", err)
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		query, err := a.embedder.Embed(ctx, args[0])
		if err != nil {
			return err
		}

		matches, err := snap.Similar(ctx, query, similarLimit)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			cmd.Println("No results found.")
			return nil
		}

		for i, m := range matches {
			cmd.Printf("  [%d] (%.2f) %s #%d\n", i+1, m.Similarity, m.DocumentID, m.Position)
			cmd.Printf("      %s\n", m.Text)
		}
		return nil
	})
}
