package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datadepot/app/agent"
	"datadepot/config"
	"datadepot/model"
	"datadepot/store"
	"datadepot/types"
)

type stubEmbedder struct{ err error }

func (s stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1}, s.err
}

type stubStore struct{ hits []store.SearchHit }

func (s stubStore) EnsureCollection(ctx context.Context) error                { return nil }
func (s stubStore) Upsert(ctx context.Context, points []store.Point) error    { return nil }
func (s stubStore) Drop(ctx context.Context) error                            { return nil }
func (s stubStore) Search(ctx context.Context, v []float32, k int) ([]store.SearchHit, error) {
	return s.hits, nil
}

type stubGenerator struct{ answer string }

func (s stubGenerator) ChatAnswer(ctx context.Context, contextText, question string) (string, error) {
	return s.answer, nil
}

type stubWeb struct{}

func (stubWeb) WebAnswer(ctx context.Context, q string, d []string) (*model.WebResult, error) {
	return &model.WebResult{}, nil
}

func newTestApp(a *agent.Agent) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/status", NewCheckHandler().HandleStatus)
	app.Post("/ask", NewAskHandler(a).HandleAsk)
	return app
}

func testAgent(embErr error) *agent.Agent {
	cfg := &config.Config{TopK: 5, MaxContextChars: 1000}
	vs := stubStore{hits: []store.SearchHit{
		{Payload: store.Payload{Source: "faq.md", Text: "answers live here"}},
	}}
	return agent.New(cfg, stubEmbedder{err: embErr}, vs, stubGenerator{answer: "grounded answer"}, stubWeb{}, nil)
}

func postAsk(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestHandleAsk_Success(t *testing.T) {
	app := newTestApp(testAgent(nil))
	resp := postAsk(t, app, `{"question":"where do answers live?"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out types.AskResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "grounded answer", out.Answer)
	assert.NotNil(t, out.Sources)
}

func TestHandleAsk_MissingQuestion(t *testing.T) {
	app := newTestApp(testAgent(nil))
	for _, body := range []string{`{}`, `{"question":"   "}`} {
		resp := postAsk(t, app, body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var out map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, "Missing question", out["error"])
	}
}

func TestHandleAsk_MalformedJSON(t *testing.T) {
	app := newTestApp(testAgent(nil))
	resp := postAsk(t, app, `{"question":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandleAsk_PipelineFailure(t *testing.T) {
	app := newTestApp(testAgent(errors.New("embedding service down")))
	resp := postAsk(t, app, `{"question":"anything"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var out struct {
		Error   string   `json:"error"`
		Answer  string   `json:"answer"`
		Sources []string `json:"sources"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Contains(t, out.Error, "embedding service down")
	assert.Equal(t, "", out.Answer)
	assert.Equal(t, []string{}, out.Sources)
}

func TestHandleStatus(t *testing.T) {
	app := newTestApp(testAgent(nil))
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out["ok"])
}

func TestErrorHandler_FiberNotFound(t *testing.T) {
	app := newTestApp(testAgent(nil))
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
