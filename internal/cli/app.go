package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"content-rag/internal/config"
	"content-rag/internal/db"
	"content-rag/internal/embedding"
	"content-rag/internal/llmservice"
	"content-rag/internal/models"
	"content-rag/internal/rag"
	"content-rag/internal/retriever"
	"content-rag/internal/scraper"
	"content-rag/internal/vector"
)

type pipeline interface {
	Ingest(ctx context.Context, req rag.IngestRequest) (*models.IngestResult, error)
	Query(ctx context.Context, prompt string, searchFirst bool, opts retriever.Options) (*models.PromptResponse, error)
	UpdateTags(ctx context.Context, id string, tags []string) error
	RetrievalOptions() retriever.Options
}

type store interface {
	Reset(ctx context.Context) error
	AllChunks(ctx context.Context) ([]models.Chunk, error)
	Close() error
}

type embedder interface {
	Embed(ctx context.Context, text string) (vector.Vector, error)
}

type fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// app holds the wired components for one command invocation.
type app struct {
	rag      pipeline
	store    store
	embedder embedder
	fetcher  fetcher
}

// openApp connects every collaborator. Tests replace it.
var openApp = func(ctx context.Context, cfg *config.Config) (*app, error) {
	bdb, err := db.Connect(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	st := db.NewStore(bdb, db.WithDimension(cfg.RAG.EmbeddingDimension))
	if err := st.Init(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	gen, err := llmservice.NewClient(&cfg.LLM)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	emb, err := embedding.NewFromConfig(&cfg.EmbedLLM, &cfg.RAG)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("error initializing embedder: %w", err)
	}

	return &app{
		rag:      rag.NewRAG(st, gen, emb, &cfg.RAG),
		store:    st,
		embedder: emb,
		fetcher:  scraper.New(),
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		log.Warn().Err(err).Msg("Error closing database")
	}
}

// withApp opens the app for cmd, runs fn and closes it.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	return fn(ctx, a)
}
