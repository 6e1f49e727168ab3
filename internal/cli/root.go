// Package cli is the command-line surface: ingest content, query with
// retrieved context, maintain tags and work with vector snapshots.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"content-rag/internal/config"
)

var (
	cfgFile string
	debug   bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "content-rag",
	Short: "Ingest content and answer questions with retrieved context",
	Long: `content-rag normalizes text, URLs and documents with a language model,
stores chunk embeddings and answers prompts with the most relevant stored
passages prepended as context.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultPath, "path to the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	config.LoadEnv()

	c, err := config.LoadConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg = c

	configureLogging(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogPretty, debug)
	log.Debug().Str("config", cfgFile).Msg("Loaded config")
	return nil
}

func configureLogging(w io.Writer, level string, pretty, debug bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if debug {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if w == nil {
		w = os.Stderr
	}
	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).With().Caller().Logger()
		return
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}
