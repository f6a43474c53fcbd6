package store

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// PostgresStore keeps corpus points in a pgvector table. It implements
// the same contract as the Qdrant backend so the two are interchangeable
// behind VectorStore.
type PostgresStore struct {
	pool       *pgxpool.Pool
	table      string
	vectorSize int
	logger     *slog.Logger
}

var tableNameRe = regexp.MustCompile(`[^a-zA-Z0-9_]`)

func NewPostgresStore(ctx context.Context, connStr, collection string, vectorSize int, logger *slog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{
		pool:       pool,
		table:      tableNameRe.ReplaceAllString(collection, "_"),
		vectorSize: vectorSize,
		logger:     logger,
	}, nil
}

func (p *PostgresStore) EnsureCollection(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS %[1]s (
		id UUID PRIMARY KEY,
		source TEXT NOT NULL,
		content TEXT NOT NULL,
		brand TEXT,
		embedding vector(%[2]d)
	);

	CREATE INDEX IF NOT EXISTS idx_%[1]s_embedding ON %[1]s
	USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
	`, p.table, p.vectorSize)

	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) Upsert(ctx context.Context, points []Point) error {
	query := fmt.Sprintf(`
	INSERT INTO %s (id, source, content, brand, embedding)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE SET
		source = EXCLUDED.source,
		content = EXCLUDED.content,
		brand = EXCLUDED.brand,
		embedding = EXCLUDED.embedding
	`, p.table)

	for _, pt := range points {
		_, err := p.pool.Exec(ctx, query,
			CoerceID(pt.ID),
			pt.Payload.Source,
			pt.Payload.Text,
			pt.Payload.Brand,
			pgvector.NewVector(pt.Vector),
		)
		if err != nil {
			return fmt.Errorf("upsert point: %w", err)
		}
	}
	return nil
}

func (p *PostgresStore) Search(ctx context.Context, vector []float32, topK int) ([]SearchHit, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}
	if topK <= 0 {
		topK = 5
	}
	query := fmt.Sprintf(`
	SELECT source, content, COALESCE(brand, ''), 1 - (embedding <=> $1) AS score
	FROM %s
	WHERE embedding IS NOT NULL
	ORDER BY embedding <=> $1
	LIMIT $2
	`, p.table)

	rows, err := p.pool.Query(ctx, query, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.Payload.Source, &h.Payload.Text, &h.Payload.Brand, &h.Score); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func (p *PostgresStore) Drop(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", p.table))
	return err
}

func (p *PostgresStore) Close() {
	if p.pool != nil {
		p.pool.Close()
		p.logger.Info("postgres connection pool closed")
	}
}
