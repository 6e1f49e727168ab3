package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags <document-id> <tag>...",
	Short: "Replace the tags of a stored document",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTags,
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}

func runTags(cmd *cobra.Command, args []string) error {
	id := args[0]

	var tags []string
	for _, arg := range args[1:] {
		tags = append(tags, strings.Split(arg, ",")...)
	}

	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.rag.UpdateTags(ctx, id, tags); err != nil {
			return err
		}
		cmd.Printf("Updated tags of %s\n", id)
		return nil
	})
}
