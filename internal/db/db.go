package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	_ "modernc.org/sqlite"

	"content-rag/internal/config"
)

// DocumentRow is one ingested document. ID is the content identity hash.
type DocumentRow struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	ID                string    `bun:"id,pk"`
	SourceRef         string    `bun:"source_ref,nullzero"`
	RawContent        string    `bun:"raw_content,notnull"`
	Metadata          string    `bun:"metadata,notnull"`
	Tags              string    `bun:"tags,notnull"`
	Summary           string    `bun:"summary,notnull"`
	NormalizedContent string    `bun:"normalized_content,notnull"`
	CreatedAt         time.Time `bun:"created_at,notnull"`
}

// ChunkRow is one embedded chunk of a document.
type ChunkRow struct {
	bun.BaseModel `bun:"table:chunks,alias:c"`

	ID         string          `bun:"id,pk"`
	DocumentID string          `bun:"document_id,notnull"`
	Chunk      string          `bun:"chunk,notnull"`
	Embedding  pgvector.Vector `bun:"embedding,notnull,type:vector"`
	Position   int             `bun:"position,notnull"`
	CreatedAt  time.Time       `bun:"created_at,notnull"`
}

// Connect opens the configured database and wraps it in bun with the
// matching dialect.
func Connect(cfg *config.DatabaseConfig) (*bun.DB, error) {
	var db *bun.DB

	switch cfg.Driver {
	case "pgdriver", "":
		opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
		if cfg.Password != "" {
			opts = append(opts, pgdriver.WithPassword(cfg.Password))
		}
		db = bun.NewDB(sql.OpenDB(pgdriver.NewConnector(opts...)), pgdialect.New())
	case "pq":
		sqldb, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	case "sqlite":
		sqldb, err := sql.Open("sqlite", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db, nil
}

func isPostgres(db bun.IDB) bool {
	return db.Dialect().Name() == dialect.PG
}
