package plugins

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/sabriotcore-code/cloud-orchestrator-sub001/pkg/plugin"
)

// TavilyEndpoint is the Tavily search API.
const TavilyEndpoint = "https://api.tavily.com/search"

// WebSearch grounds a turn with Tavily search results. Tavily's own answer
// summary is disabled; only raw page content is returned.
type WebSearch struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	maxResults int
}

// WebSearchOption configures a WebSearch.
type WebSearchOption func(*WebSearch)

// WithHTTPClient overrides the HTTP client. A nil client is ignored.
func WithHTTPClient(c *http.Client) WebSearchOption {
	return func(w *WebSearch) {
		if c != nil {
			w.httpClient = c
		}
	}
}

// WithEndpoint overrides the search endpoint.
func WithEndpoint(url string) WebSearchOption {
	return func(w *WebSearch) { w.endpoint = url }
}

// WithMaxResults sets the number of results requested.
func WithMaxResults(n int) WebSearchOption {
	return func(w *WebSearch) { w.maxResults = n }
}

// NewWebSearch returns a Tavily-backed search plugin. Without an API key it
// reports itself unavailable.
func NewWebSearch(apiKey string, opts ...WebSearchOption) *WebSearch {
	w := &WebSearch{
		apiKey:     apiKey,
		endpoint:   TavilyEndpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		maxResults: 5,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type tavilyRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

// Handle runs one search for the request text.
func (w *WebSearch) Handle(ctx context.Context, req *plugin.Request) (*plugin.Result, error) {
	if w.apiKey == "" {
		return plugin.Unavailable("web search not configured: TAVILY_API_KEY is empty"), nil
	}

	body, err := json.Marshal(tavilyRequest{
		Query:         req.Text,
		SearchDepth:   "advanced",
		IncludeAnswer: false,
		MaxResults:    w.maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("websearch: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("websearch: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+w.apiKey)

	resp, err := w.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("websearch: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("websearch: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("websearch: tavily status %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("websearch: invalid response body")
	}

	var sb strings.Builder
	var sources []string
	for i, r := range gjson.GetBytes(raw, "results").Array() {
		url := r.Get("url").String()
		sources = append(sources, url)
		sb.WriteString(fmt.Sprintf("%d. %s (%s)\n%s\n\n",
			i+1, r.Get("title").String(), url, truncate(strings.TrimSpace(r.Get("content").String()), 1500)))
	}
	return &plugin.Result{
		Status: plugin.StatusOK,
		Output: strings.TrimSpace(sb.String()),
		Data:   map[string]any{"sources": sources},
	}, nil
}
