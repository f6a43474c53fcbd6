package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"datadepot/config"
	"datadepot/model"
	"datadepot/store"
	"datadepot/types"
)

// ContextSeparator sits between retrieved chunks in the assembled context.
const ContextSeparator = "\n\n---\n\n"

// ErrEmptyQuestion is returned for blank questions before any external
// call is made.
var ErrEmptyQuestion = errors.New("missing question")

// Agent is the retrieval-and-answer pipeline. Per question it embeds,
// searches the corpus, decides between corpus-grounded generation and a
// live web search, and returns an answer with its source list.
type Agent struct {
	embedder model.Embedder
	store    store.VectorStore
	gen      model.Generator
	web      model.WebSearcher
	cfg      *config.Config
	logger   *slog.Logger
}

func New(cfg *config.Config, embedder model.Embedder, vs store.VectorStore, gen model.Generator, web model.WebSearcher, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{
		embedder: embedder,
		store:    vs,
		gen:      gen,
		web:      web,
		cfg:      cfg,
		logger:   logger,
	}
}

// Answer runs the pipeline for one question. useWeb forces the web path;
// webDomains narrows web results to the given domains and falls back to
// the configured allowlist when empty.
func (a *Agent) Answer(ctx context.Context, question string, useWeb bool, webDomains []string) (*types.AskResponse, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return nil, ErrEmptyQuestion
	}

	vec, err := a.embedder.Embed(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := a.store.Search(ctx, vec, a.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	contextText := buildContext(hits, a.cfg.MaxContextChars)
	sources := dedupeSources(hits)
	a.logger.Debug("retrieved context", "hits", len(hits), "context_chars", len(contextText), "sources", len(sources))

	// Fresh questions and empty corpora go to the live web first;
	// a non-empty web answer takes precedence over generation.
	if a.cfg.EnableWebSearch && (useWeb || a.wantsFresh(q) || strings.TrimSpace(contextText) == "") {
		domains := webDomains
		if len(domains) == 0 {
			domains = a.cfg.WebDomains
		}
		result, err := a.web.WebAnswer(ctx, q, domains)
		if err != nil {
			return nil, fmt.Errorf("web search: %w", err)
		}
		if strings.TrimSpace(result.Text) != "" {
			resp := &types.AskResponse{Answer: result.Text, Sources: result.Sources}
			if a.cfg.ShowSources {
				resp.Sources = append(append([]string{}, sources...), result.Sources...)
			}
			if resp.Sources == nil {
				resp.Sources = []string{}
			}
			return resp, nil
		}
	}

	if strings.TrimSpace(contextText) != "" {
		answer, err := a.gen.ChatAnswer(ctx, contextText, q)
		if err != nil {
			return nil, fmt.Errorf("generate answer: %w", err)
		}
		resp := &types.AskResponse{Answer: strings.TrimSpace(answer), Sources: []string{}}
		if a.cfg.ShowSources {
			resp.Sources = sources
		}
		return resp, nil
	}

	return &types.AskResponse{Answer: model.DontKnowAnswer, Sources: []string{}}, nil
}

func (a *Agent) wantsFresh(question string) bool {
	q := strings.ToLower(question)
	for _, kw := range a.cfg.FreshKeywords {
		if strings.Contains(q, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// buildContext concatenates non-empty chunk texts and applies the hard
// character budget after concatenation, not per chunk.
func buildContext(hits []store.SearchHit, maxChars int) string {
	var texts []string
	for _, h := range hits {
		if h.Payload.Text != "" {
			texts = append(texts, h.Payload.Text)
		}
	}
	joined := strings.Join(texts, ContextSeparator)
	if maxChars > 0 && len(joined) > maxChars {
		joined = joined[:maxChars]
	}
	return joined
}

// dedupeSources keeps the distinct source identifiers in first-seen order.
func dedupeSources(hits []store.SearchHit) []string {
	seen := make(map[string]struct{}, len(hits))
	sources := []string{}
	for _, h := range hits {
		src := h.Payload.Source
		if src == "" {
			continue
		}
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		sources = append(sources, src)
	}
	return sources
}
