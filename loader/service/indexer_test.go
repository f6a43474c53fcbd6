package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"datadepot/store"
	"datadepot/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	failAfter int // fail on the nth call; 0 means never
	calls     int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.failAfter > 0 && f.calls >= f.failAfter {
		return nil, fmt.Errorf("embedding service down")
	}
	return []float32{1, 2, 3}, nil
}

type fakeVectorStore struct {
	ensured    int
	ensureErr  error
	upsertErr  error
	batches    [][]store.Point
	searchHits []store.SearchHit
}

func (f *fakeVectorStore) EnsureCollection(context.Context) error {
	f.ensured++
	return f.ensureErr
}

func (f *fakeVectorStore) Upsert(_ context.Context, points []store.Point) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	batch := make([]store.Point, len(points))
	copy(batch, points)
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeVectorStore) Search(context.Context, []float32, int) ([]store.SearchHit, error) {
	return f.searchHits, nil
}

func (f *fakeVectorStore) Drop(context.Context) error { return nil }

func records(n int) []types.ChunkRecord {
	out := make([]types.ChunkRecord, n)
	for i := range out {
		out[i] = types.ChunkRecord{Source: "doc.txt", Text: fmt.Sprintf("chunk %d", i), Index: i}
	}
	return out
}

func TestIndex_Batching(t *testing.T) {
	vs := &fakeVectorStore{}
	ix := NewIndexer(vs, &fakeEmbedder{}, 2, time.Millisecond, "acme", nil)

	count, err := ix.Index(context.Background(), records(5))
	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.Equal(t, 1, vs.ensured)

	// Two full batches plus the final partial flush.
	require.Len(t, vs.batches, 3)
	assert.Len(t, vs.batches[0], 2)
	assert.Len(t, vs.batches[1], 2)
	assert.Len(t, vs.batches[2], 1)

	for _, batch := range vs.batches {
		for _, p := range batch {
			_, err := uuid.Parse(p.ID)
			assert.NoError(t, err, "point id must be a UUID")
			assert.Equal(t, "acme", p.Payload.Brand)
			assert.Equal(t, "doc.txt", p.Payload.Source)
		}
	}
}

func TestIndex_AdditiveNotIdempotent(t *testing.T) {
	vs := &fakeVectorStore{}
	ix := NewIndexer(vs, &fakeEmbedder{}, 10, time.Millisecond, "", nil)

	same := []types.ChunkRecord{
		{Source: "doc.txt", Text: "identical text"},
		{Source: "doc.txt", Text: "identical text"},
	}
	count, err := ix.Index(context.Background(), same)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.Len(t, vs.batches, 1)
	require.Len(t, vs.batches[0], 2)
	// Same content, distinct points: the store never dedupes by content.
	assert.NotEqual(t, vs.batches[0][0].ID, vs.batches[0][1].ID)
}

func TestIndex_AbortsOnEmbedFailure(t *testing.T) {
	vs := &fakeVectorStore{}
	ix := NewIndexer(vs, &fakeEmbedder{failAfter: 3}, 2, time.Millisecond, "", nil)

	count, err := ix.Index(context.Background(), records(5))
	require.Error(t, err)
	// The first batch was flushed before the failure and stays committed.
	assert.Equal(t, 2, count)
	assert.Len(t, vs.batches, 1)
}

func TestIndex_UpsertFailurePropagates(t *testing.T) {
	vs := &fakeVectorStore{upsertErr: fmt.Errorf("store down")}
	ix := NewIndexer(vs, &fakeEmbedder{}, 2, time.Millisecond, "", nil)

	count, err := ix.Index(context.Background(), records(3))
	require.Error(t, err)
	assert.Equal(t, 0, count)
}

func TestIndex_EnsureCollectionFailure(t *testing.T) {
	vs := &fakeVectorStore{ensureErr: fmt.Errorf("unauthorized")}
	ix := NewIndexer(vs, &fakeEmbedder{}, 2, time.Millisecond, "", nil)

	_, err := ix.Index(context.Background(), records(1))
	require.Error(t, err)
	assert.Empty(t, vs.batches)
}

func TestIndex_SkipsEmptyText(t *testing.T) {
	vs := &fakeVectorStore{}
	ix := NewIndexer(vs, &fakeEmbedder{}, 10, time.Millisecond, "", nil)

	count, err := ix.Index(context.Background(), []types.ChunkRecord{
		{Source: "a", Text: "real"},
		{Source: "b", Text: "   "},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
