package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// WebAnswer runs a live web search through the Responses API web_search
// tool. Domain scoping is done by injecting a site: clause into the
// prompt rather than through tool filters.
func (c *OpenAIClient) WebAnswer(ctx context.Context, question string, allowedDomains []string) (*WebResult, error) {
	scoped := question
	if len(allowedDomains) > 0 {
		clauses := make([]string, len(allowedDomains))
		for i, d := range allowedDomains {
			clauses[i] = "site:" + d
		}
		scoped = fmt.Sprintf("%s\n\nSearch constraint: (%s)", question, strings.Join(clauses, " OR "))
	}

	tool := map[string]any{
		"type":                "web_search",
		"search_context_size": c.webContextSize,
	}
	if c.webCountry != "" || c.webCity != "" || c.webRegion != "" {
		loc := map[string]any{"type": "approximate"}
		if c.webCountry != "" {
			loc["country"] = c.webCountry
		}
		if c.webCity != "" {
			loc["city"] = c.webCity
		}
		if c.webRegion != "" {
			loc["region"] = c.webRegion
		}
		tool["user_location"] = loc
	}

	payload := map[string]any{
		"model":       c.webModel,
		"tools":       []any{tool},
		"tool_choice": "auto",
		"include":     []string{"web_search_call.action.sources"},
		"input":       scoped,
	}
	body, err := c.postWithRetry(ctx, "/responses", payload)
	if err != nil {
		return nil, fmt.Errorf("web search request: %w", err)
	}

	var out struct {
		Output []struct {
			Type    string `json:"type"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode web search response: %w", err)
	}

	var sb strings.Builder
	for _, item := range out.Output {
		if item.Type != "message" {
			continue
		}
		for _, content := range item.Content {
			if content.Type == "output_text" {
				sb.WriteString(content.Text)
			}
		}
	}

	return &WebResult{
		Text:    strings.TrimSpace(sb.String()),
		Sources: gatherURLs(body),
	}, nil
}

// gatherURLs scans an arbitrary JSON tree for "url" string fields.
// The Responses API scatters cited URLs across annotation and tool-call
// nodes whose exact shape varies by model, so this stays a bounded
// adapter around the raw body rather than part of the typed schema.
func gatherURLs(raw []byte) []string {
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil
	}
	var urls []string
	seen := make(map[string]struct{})
	var walk func(node any)
	walk = func(node any) {
		switch v := node.(type) {
		case map[string]any:
			for key, val := range v {
				if key == "url" {
					if u, ok := val.(string); ok && strings.HasPrefix(u, "http") {
						if _, dup := seen[u]; !dup {
							seen[u] = struct{}{}
							urls = append(urls, u)
						}
						continue
					}
				}
				walk(val)
			}
		case []any:
			for _, item := range v {
				walk(item)
			}
		}
	}
	walk(tree)
	return urls
}
