package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"datadepot/types"
)

// CorpusStore persists chunk records as a CSV file with source,text
// columns. It is the durable intermediate between corpus building and
// indexing.
type CorpusStore struct {
	path string
}

func NewCorpusStore(path string) *CorpusStore {
	return &CorpusStore{path: path}
}

func (s *CorpusStore) Path() string {
	return s.path
}

func (s *CorpusStore) Save(records []types.ChunkRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"source", "text"}); err != nil {
		return err
	}
	for _, rec := range records {
		if err := w.Write([]string{rec.Source, rec.Text}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Load reads the corpus back, skipping rows with empty text and
// re-assigning per-source sequence indices.
func (s *CorpusStore) Load() ([]types.ChunkRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty corpus file %s", s.path)
	}

	counts := make(map[string]int)
	var records []types.ChunkRecord
	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		source := strings.TrimSpace(row[0])
		text := strings.TrimSpace(row[1])
		if text == "" {
			continue
		}
		records = append(records, types.ChunkRecord{
			Source: source,
			Text:   text,
			Index:  counts[source],
		})
		counts[source]++
	}
	return records, nil
}
