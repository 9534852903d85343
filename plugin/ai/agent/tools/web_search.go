package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const duckDuckGoEndpoint = "https://api.duckduckgo.com/"

// maxRelatedTopics caps how many related topics are folded into results.
const maxRelatedTopics = 5

// WebSearchTool answers search queries through the DuckDuckGo Instant
// Answer API. The API needs no key but covers a limited set of topics; a
// self-hosted SearXNG would be the production upgrade path.
type WebSearchTool struct {
	client   *http.Client
	limiter  *rate.Limiter
	endpoint string
}

// NewWebSearchTool creates the web-search tool.
func NewWebSearchTool() *WebSearchTool {
	return &WebSearchTool{
		client:   &http.Client{Timeout: 10 * time.Second},
		limiter:  rate.NewLimiter(rate.Every(time.Second), 2),
		endpoint: duckDuckGoEndpoint,
	}
}

func (t *WebSearchTool) Name() string {
	return "web_search"
}

func (t *WebSearchTool) Description() string {
	return "Search the web for current information: weather, news, facts, and general questions."
}

func (t *WebSearchTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query.",
			},
		},
		"required": []string{"query"},
	}
}

type instantAnswer struct {
	Heading       string `json:"Heading"`
	Abstract      string `json:"Abstract"`
	AbstractURL   string `json:"AbstractURL"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

func (t *WebSearchTool) Execute(ctx context.Context, params map[string]any) (any, error) {
	query, ok := stringParam(params, "query")
	if !ok || query == "" {
		return nil, fmt.Errorf("missing required parameter: query")
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set("q", query)
	values.Set("format", "json")
	values.Set("no_html", "1")
	values.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned %d", resp.StatusCode)
	}

	var answer instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := []map[string]any{}
	if answer.Abstract != "" {
		title := answer.Heading
		if title == "" {
			title = "Result"
		}
		results = append(results, map[string]any{
			"title":   title,
			"snippet": answer.Abstract,
			"url":     answer.AbstractURL,
		})
	}
	for i, topic := range answer.RelatedTopics {
		if i >= maxRelatedTopics {
			break
		}
		if topic.Text == "" {
			continue
		}
		results = append(results, map[string]any{
			"title":   truncate(topic.Text, 50),
			"snippet": topic.Text,
			"url":     topic.FirstURL,
		})
	}
	if len(results) == 0 {
		results = append(results, map[string]any{"snippet": "No results found."})
	}

	return map[string]any{
		"query":   query,
		"results": results,
	}, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
