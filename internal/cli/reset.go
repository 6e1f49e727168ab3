package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every stored document and chunk",
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "confirm the reset")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	if !resetForce {
		return errors.New("refusing to reset without --force")
	}
	return withApp(cmd, func(ctx context.Context, a *app) error {
		if err := a.store.Reset(ctx); err != nil {
			return err
		}
		cmd.Println("Database reset.")
		return nil
	})
}
