package store

import (
	"path/filepath"
	"testing"

	"datadepot/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorpusStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "corpus.csv")
	s := NewCorpusStore(path)

	in := []types.ChunkRecord{
		{Source: "docs/a.txt", Text: "first chunk, with a comma", Index: 0},
		{Source: "docs/a.txt", Text: "second chunk\nwith a newline", Index: 1},
		{Source: "https://example.com/page", Text: `quoted "text" here`, Index: 0},
	}
	require.NoError(t, s.Save(in))

	out, err := s.Load()
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, in[0].Text, out[0].Text)
	assert.Equal(t, in[1].Text, out[1].Text)
	assert.Equal(t, in[2].Text, out[2].Text)

	// Per-source sequence indices are rebuilt on load.
	assert.Equal(t, 0, out[0].Index)
	assert.Equal(t, 1, out[1].Index)
	assert.Equal(t, 0, out[2].Index)
}

func TestCorpusStore_LoadSkipsEmptyText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.csv")
	s := NewCorpusStore(path)

	require.NoError(t, s.Save([]types.ChunkRecord{
		{Source: "a", Text: "kept"},
		{Source: "b", Text: "   "},
	}))

	out, err := s.Load()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "kept", out[0].Text)
}

func TestCorpusStore_LoadMissingFile(t *testing.T) {
	s := NewCorpusStore(filepath.Join(t.TempDir(), "nope.csv"))
	_, err := s.Load()
	assert.Error(t, err)
}
