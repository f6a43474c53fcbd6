package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"datadepot/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builderConfig() *config.Config {
	return &config.Config{
		ChunkSize:    50,
		ChunkOverlap: 10,
		DocCharLimit: 25000,
		MinPageChars: 200,
	}
}

func TestBuildFromDir(t *testing.T) {
	dir := t.TempDir()
	long := strings.Repeat("some document words ", 10)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte(long), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("garbage"), 0o644))

	b := NewBuilder(builderConfig(), nil)
	records, err := b.BuildFromDir(context.Background(), dir)
	require.NoError(t, err)
	require.NotEmpty(t, records)

	sources := make(map[string]bool)
	for _, rec := range records {
		sources[rec.Source] = true
		assert.NotEmpty(t, rec.Text)
		assert.LessOrEqual(t, len(rec.Text), 50)
	}
	assert.True(t, sources[filepath.Join(dir, "a.txt")])
	// Zero-byte files are skipped; unreadable files contribute nothing.
	assert.False(t, sources[filepath.Join(dir, "empty.txt")])
	assert.False(t, sources[filepath.Join(dir, "broken.pdf")])
}

func TestBuildFromDir_SequenceIndices(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.txt"),
		[]byte(strings.Repeat("abcdefghij ", 30)), 0o644))

	b := NewBuilder(builderConfig(), nil)
	records, err := b.BuildFromDir(context.Background(), dir)
	require.NoError(t, err)
	require.Greater(t, len(records), 1)

	for i, rec := range records {
		assert.Equal(t, i, rec.Index)
	}
}

func TestChunkRecords_DocCharLimit(t *testing.T) {
	cfg := builderConfig()
	cfg.DocCharLimit = 100
	cfg.ChunkSize = 100
	cfg.ChunkOverlap = 0
	b := NewBuilder(cfg, nil)

	records := b.chunkRecords("src", strings.Repeat("z", 5000))
	require.Len(t, records, 1)
	assert.Len(t, records[0].Text, 100)
}

func TestChunkRecords_EmptyText(t *testing.T) {
	b := NewBuilder(builderConfig(), nil)
	assert.Empty(t, b.chunkRecords("src", "   \n\t "))
}
