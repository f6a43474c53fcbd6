package model

import "context"

// DontKnowAnswer is the fixed ignorance sentinel. The generation prompt
// instructs the model to emit it verbatim when the context is
// insufficient, and the pipeline returns it when nothing was found.
const DontKnowAnswer = "I don't know from the current dataset."

// Embedder converts text into a fixed-dimensionality vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces an answer grounded strictly in the supplied context.
type Generator interface {
	ChatAnswer(ctx context.Context, contextText, question string) (string, error)
}

// WebResult is the outcome of one live web search.
type WebResult struct {
	Text    string
	Sources []string
}

// WebSearcher answers a question from the live web, optionally scoped
// to a list of allowed domains.
type WebSearcher interface {
	WebAnswer(ctx context.Context, question string, allowedDomains []string) (*WebResult, error)
}
