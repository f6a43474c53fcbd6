package store

import (
	"context"

	"github.com/google/uuid"
)

// Payload is the data carried alongside a vector for one indexed chunk.
type Payload struct {
	Source string `json:"source"`
	Text   string `json:"text"`
	Brand  string `json:"brand,omitempty"`
}

// Point is one stored (vector, payload) pair. Immutable after indexing.
type Point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload Payload   `json:"payload"`
}

// SearchHit is a scored result from nearest-neighbour search.
// Produced per query, never persisted.
type SearchHit struct {
	Payload Payload `json:"payload"`
	Score   float64 `json:"score"`
}

// VectorStore is the persistence contract for corpus points.
type VectorStore interface {
	// EnsureCollection creates the collection if absent. Existing
	// collections are left untouched.
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, vector []float32, topK int) ([]SearchHit, error)
	Drop(ctx context.Context) error
}

// CoerceID forces an arbitrary point id into a UUID string. Anything the
// store would reject is replaced with a fresh UUID rather than failing
// the batch.
func CoerceID(id string) string {
	if _, err := uuid.Parse(id); err == nil {
		return id
	}
	return uuid.New().String()
}
