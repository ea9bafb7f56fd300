package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"pdf-rag/internal/config"
	"pdf-rag/internal/models"
)

type Document struct {
	bun.BaseModel  `bun:"table:documents,alias:d"`
	ID             int64           `bun:"id,pk,autoincrement"`
	Content        string          `bun:"content,notnull"`
	Embedding      pgvector.Vector `bun:"embedding,notnull,type:vector"`
	SourceFilename string          `bun:"source_filename"`
	PageNumber     int             `bun:"page_number"`
	ChunkID        int             `bun:"chunk_id"`
	Distance       float32         `bun:"distance,scanonly"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func ConnectDB(cfg *config.DatabaseConfig) *sql.DB {
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.URL)))
}

func InitDB(ctx context.Context, db *bun.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("enable pgvector: %w", err)
	}
	_, err := db.NewCreateTable().Model((*Document)(nil)).IfNotExists().Exec(ctx)
	return err
}

func StoreDocuments(ctx context.Context, db *bun.DB, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := db.NewInsert().Model(&docs).Exec(ctx)
	return err
}

// SearchDocuments orders by L2 distance, nearest first.
func SearchDocuments(ctx context.Context, db *bun.DB, queryEmbedding []float32, limit int) ([]Document, error) {
	var docs []Document
	vec := pgvector.NewVector(queryEmbedding)
	err := db.NewSelect().
		Model(&docs).
		Column("id", "content", "source_filename", "page_number", "chunk_id").
		ColumnExpr("embedding <-> ? AS distance", vec).
		OrderExpr("embedding <-> ?", vec).
		Limit(limit).
		Scan(ctx)
	return docs, err
}

func CountDocuments(ctx context.Context, db *bun.DB) (int, error) {
	return db.NewSelect().Model((*Document)(nil)).Count(ctx)
}

// drop table documents
func DropDocuments(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().Model((*Document)(nil)).IfExists().Exec(ctx)
	return err
}

// Store is the pgvector backed vector store.
type Store struct {
	db *bun.DB
}

// Open connects, makes sure the table exists and checks the connection.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*Store, error) {
	bunDB := NewDB(ConnectDB(cfg), cfg.Debug)
	if err := bunDB.PingContext(ctx); err != nil {
		bunDB.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err := InitDB(ctx, bunDB); err != nil {
		bunDB.Close()
		return nil, fmt.Errorf("error initializing database: %w", err)
	}
	return &Store{db: bunDB}, nil
}

// Populated reports whether the documents table already holds rows.
func (s *Store) Populated(ctx context.Context) (bool, error) {
	n, err := CountDocuments(ctx, s.db)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	return CountDocuments(ctx, s.db)
}

func (s *Store) AddDocuments(ctx context.Context, docs []models.ChunkEmbedding) error {
	rows := make([]Document, len(docs))
	for i, ce := range docs {
		rows[i] = Document{
			Content:        ce.Content,
			Embedding:      pgvector.NewVector(ce.Embedding),
			SourceFilename: ce.SourceFilename,
			PageNumber:     ce.PageNumber,
			ChunkID:        ce.ChunkID,
		}
	}
	if err := StoreDocuments(ctx, s.db, rows); err != nil {
		return fmt.Errorf("error storing documents: %w", err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, query []float32, k int) ([]models.SearchResult, error) {
	if len(query) == 0 {
		return nil, errors.New("query embedding must be provided")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	docs, err := SearchDocuments(ctx, s.db, query, k)
	if err != nil {
		return nil, fmt.Errorf("error searching documents: %w", err)
	}

	results := make([]models.SearchResult, len(docs))
	for i, d := range docs {
		results[i] = models.SearchResult{
			Chunk: models.Chunk{
				Source:     d.SourceFilename,
				Content:    d.Content,
				PageNumber: d.PageNumber,
				ChunkID:    d.ChunkID,
			},
			Score: d.Distance,
		}
	}
	return results, nil
}

func (s *Store) Reset(ctx context.Context) error {
	if err := DropDocuments(ctx, s.db); err != nil {
		return fmt.Errorf("error clearing documents: %w", err)
	}
	return InitDB(ctx, s.db)
}

func (s *Store) Close() error {
	return s.db.Close()
}
