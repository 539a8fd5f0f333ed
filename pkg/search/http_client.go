package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	board "github.com/goliatone/go-gridboard/components/board"
)

// HTTPConfig configures the HTTP search client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// HTTPClient talks to a remote query/index service via REST endpoints.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient builds a client capable of hitting a live query backend.
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("search: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

var _ board.QueryClient = (*HTTPClient)(nil)

type queryRequest struct {
	Query     map[string]any  `json:"query"`
	ServerID  string          `json:"server_id,omitempty"`
	TimeRange board.TimeRange `json:"time_range"`
}

type queryResponse struct {
	Data   []map[string]any `json:"data"`
	Total  int              `json:"total"`
	TookMS int64            `json:"took_ms"`
}

// ExecuteQuery implements board.QueryClient. Transport failures and 5xx
// responses surface as TransientErrors so the execution controller retries
// them; 4xx responses are ValidationErrors and never retried.
func (c *HTTPClient) ExecuteQuery(ctx context.Context, req board.QueryRequest) (board.QueryResult, error) {
	if req.Index == "" {
		return board.QueryResult{}, &board.ValidationError{Field: "index", Reason: "index is required"}
	}
	payload := queryRequest{
		Query:     req.Query,
		ServerID:  req.ServerID,
		TimeRange: req.TimeRange,
	}
	path := "/indexes/" + url.PathEscape(req.Index) + "/query"
	var resp queryResponse
	if err := c.do(ctx, http.MethodPost, path, payload, &resp); err != nil {
		return board.QueryResult{}, err
	}
	return board.QueryResult{
		Data:  resp.Data,
		Total: resp.Total,
		Took:  time.Duration(resp.TookMS) * time.Millisecond,
	}, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload any, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("search: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("search: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return &board.TransientError{Op: "http request", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return &board.TransientError{Op: "remote query", Err: fmt.Errorf("server error %d: %s", resp.StatusCode, buf.String())}
	}
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return &board.ValidationError{Field: "query", Reason: fmt.Sprintf("remote rejected request (%d): %s", resp.StatusCode, buf.String())}
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("search: decode response: %w", err)
	}
	return nil
}
