package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// QdrantStore is a minimal REST client for a Qdrant collection using
// cosine distance.
type QdrantStore struct {
	baseURL    string
	apiKey     string
	collection string
	vectorSize int
	client     *http.Client
	logger     *slog.Logger
}

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	VectorSize int
	Timeout    time.Duration
}

func NewQdrantStore(cfg QdrantConfig, logger *slog.Logger) *QdrantStore {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QdrantStore{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		vectorSize: cfg.VectorSize,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// collectionState is the tri-state result of the existence check:
// only a clean 404 means "absent"; any other non-200 is an error.
type collectionState int

const (
	collectionExists collectionState = iota
	collectionAbsent
	collectionUnknown
)

func (s *QdrantStore) collectionURL() string {
	return fmt.Sprintf("%s/collections/%s", s.baseURL, s.collection)
}

func (s *QdrantStore) checkCollection(ctx context.Context) (collectionState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.collectionURL(), nil)
	if err != nil {
		return collectionUnknown, err
	}
	s.setHeaders(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return collectionUnknown, err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusOK:
		return collectionExists, nil
	case resp.StatusCode == http.StatusNotFound:
		return collectionAbsent, nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return collectionUnknown, fmt.Errorf("qdrant collection check: status %d: %s", resp.StatusCode, body)
	}
}

func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	state, err := s.checkCollection(ctx)
	if err != nil {
		return err
	}
	if state == collectionExists {
		s.logger.Info("collection exists", "collection", s.collection)
		return nil
	}

	s.logger.Info("creating collection", "collection", s.collection, "size", s.vectorSize)
	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.vectorSize,
			"distance": "Cosine",
		},
	}
	return s.doJSON(ctx, http.MethodPut, s.collectionURL(), body, nil)
}

func (s *QdrantStore) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	clean := make([]Point, len(points))
	for i, p := range points {
		p.ID = CoerceID(p.ID)
		clean[i] = p
	}
	url := s.collectionURL() + "/points?wait=true"
	return s.doJSON(ctx, http.MethodPut, url, map[string]any{"points": clean}, nil)
}

func (s *QdrantStore) Search(ctx context.Context, vector []float32, topK int) ([]SearchHit, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []SearchHit `json:"result"`
	}
	url := s.collectionURL() + "/points/search"
	if err := s.doJSON(ctx, http.MethodPost, url, req, &resp); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

func (s *QdrantStore) Drop(ctx context.Context) error {
	return s.doJSON(ctx, http.MethodDelete, s.collectionURL(), nil, nil)
}

func (s *QdrantStore) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
}

func (s *QdrantStore) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	s.setHeaders(req)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("qdrant %s %s: status %d: %s", method, url, resp.StatusCode, msg)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
