package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"datadepot/model"
	"datadepot/store"
	"datadepot/types"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Indexer embeds chunk records and writes them to the vector store in
// batches. Indexing is additive: the same record indexed twice becomes
// two distinct points.
type Indexer struct {
	store     store.VectorStore
	embedder  model.Embedder
	batchSize int
	limiter   *rate.Limiter
	brand     string
	logger    *slog.Logger
}

func NewIndexer(vs store.VectorStore, embedder model.Embedder, batchSize int, pause time.Duration, brand string, logger *slog.Logger) *Indexer {
	if batchSize <= 0 {
		batchSize = 64
	}
	if pause <= 0 {
		pause = 200 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		store:     vs,
		embedder:  embedder,
		batchSize: batchSize,
		limiter:   rate.NewLimiter(rate.Every(pause), 1),
		brand:     brand,
		logger:    logger,
	}
}

// Index writes all records and returns the number of points committed.
// An embedding or store failure aborts the run; batches flushed before
// the failure stay committed.
func (ix *Indexer) Index(ctx context.Context, records []types.ChunkRecord) (int, error) {
	if err := ix.store.EnsureCollection(ctx); err != nil {
		return 0, fmt.Errorf("ensure collection: %w", err)
	}

	var batch []store.Point
	count := 0
	for _, rec := range records {
		if strings.TrimSpace(rec.Text) == "" {
			continue
		}
		vec, err := ix.embedder.Embed(ctx, rec.Text)
		if err != nil {
			return count, fmt.Errorf("embed chunk from %s: %w", rec.Source, err)
		}
		batch = append(batch, store.Point{
			ID:     uuid.New().String(),
			Vector: vec,
			Payload: store.Payload{
				Source: rec.Source,
				Text:   rec.Text,
				Brand:  ix.brand,
			},
		})

		if len(batch) >= ix.batchSize {
			if err := ix.flush(ctx, batch); err != nil {
				return count, err
			}
			count += len(batch)
			batch = nil
			ix.logger.Info("upserted", "count", count)
		}
	}

	if len(batch) > 0 {
		if err := ix.flush(ctx, batch); err != nil {
			return count, err
		}
		count += len(batch)
		ix.logger.Info("upserted", "count", count)
	}
	return count, nil
}

// flush waits on the rate limiter between writes to stay gentle on the
// external services.
func (ix *Indexer) flush(ctx context.Context, points []store.Point) error {
	if err := ix.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := ix.store.Upsert(ctx, points); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}
	return nil
}
