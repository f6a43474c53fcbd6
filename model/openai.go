package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
)

const maxRetries = 3

// OpenAIClient talks to an OpenAI-compatible REST API for embeddings,
// chat completions and web search.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	embedModel string
	chatModel  string
	webModel   string

	webContextSize string
	webCountry     string
	webCity        string
	webRegion      string

	client *http.Client
	logger *slog.Logger
}

type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	EmbedModel string
	ChatModel  string
	WebModel   string

	WebContextSize string
	WebCountry     string
	WebCity        string
	WebRegion      string

	Timeout time.Duration
}

func NewOpenAIClient(cfg OpenAIConfig, logger *slog.Logger) *OpenAIClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIClient{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		embedModel:     cfg.EmbedModel,
		chatModel:      cfg.ChatModel,
		webModel:       cfg.WebModel,
		webContextSize: cfg.WebContextSize,
		webCountry:     cfg.WebCountry,
		webCity:        cfg.WebCity,
		webRegion:      cfg.WebRegion,
		client:         &http.Client{Timeout: timeout},
		logger:         logger,
	}
}

// Embed returns the embedding vector for the given text.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]any{
		"model": c.embedModel,
		"input": text,
	}
	body, err := c.postWithRetry(ctx, "/embeddings", payload)
	if err != nil {
		return nil, fmt.Errorf("embed request: %w", err)
	}

	var out struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return out.Data[0].Embedding, nil
}

const groundedSystemPrompt = `You are the company knowledge bot. Answer ONLY using the supplied context. ` +
	`If the context is insufficient, say: '` + DontKnowAnswer + `' ` +
	"No guessing; no invented examples.\n\n" +
	"Formatting:\n" +
	"- Lists: concise bullets (max 8)\n" +
	"- Summaries: 2-3 sentences\n" +
	"- Comparisons/strategies: short paragraphs\n" +
	"- Do NOT include raw URLs or a 'Sources:' block."

var closers = []string{
	"Would you like a quick example from the dataset?",
	"Want me to expand on one point?",
	"Should I list a few key takeaways?",
	"Want this summarized even shorter?",
	"Shall I compare this with another topic?",
}

// ChatAnswer asks the chat model for an answer grounded in contextText.
// A closing follow-up prompt is appended when the model did not produce
// one itself.
func (c *OpenAIClient) ChatAnswer(ctx context.Context, contextText, question string) (string, error) {
	user := fmt.Sprintf(
		"Question: %s\n\nContext (use this to answer; if it's not enough, say you don't know):\n%s",
		question, contextText,
	)
	c.logger.Debug("chat request", "prompt_tokens", countTokens(user))

	payload := map[string]any{
		"model":       c.chatModel,
		"temperature": 0.2,
		"messages": []map[string]string{
			{"role": "system", "content": groundedSystemPrompt},
			{"role": "user", "content": user},
		},
	}
	body, err := c.postWithRetry(ctx, "/chat/completions", payload)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("no completion returned")
	}

	msg := strings.TrimSpace(out.Choices[0].Message.Content)
	if closer := closers[rand.IntN(len(closers))]; !strings.Contains(msg, closer) {
		msg = strings.TrimSpace(msg + "\n\n" + closer)
	}
	return msg, nil
}

// countTokens reports the prompt size in tokens for request logging.
func countTokens(s string) int {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return 0
	}
	return len(enc.Encode(s, nil, nil))
}

// postWithRetry POSTs JSON to the API, retrying rate-limit and
// server-error responses with exponential backoff. Client errors
// propagate immediately.
func (c *OpenAIClient) postWithRetry(ctx context.Context, path string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	url := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}

		if retryable(resp.StatusCode) {
			lastErr = fmt.Errorf("POST %s: status %d: %s", path, resp.StatusCode, truncate(body, 200))
			c.logger.Warn("transient API failure, retrying", "path", path, "status", resp.StatusCode, "attempt", attempt+1)
			continue
		}
		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("POST %s: status %d: %s", path, resp.StatusCode, truncate(body, 200))
		}
		return body, nil
	}
	return nil, lastErr
}

func retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func retryDelay(attempt int) time.Duration {
	d := 500 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
