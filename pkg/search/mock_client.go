package search

import (
	"context"
	"sync"

	board "github.com/goliatone/go-gridboard/components/board"
)

// MockResponse scripts one reply from the mock backend.
type MockResponse struct {
	Result board.QueryResult
	Err    error
}

// MockClient implements board.QueryClient using scripted responses. Replies
// are consumed in order; the last one repeats once the script runs out. Call
// counts make fetch-dedup assertions possible in engine tests.
type MockClient struct {
	mu        sync.Mutex
	responses []MockResponse
	calls     []board.QueryRequest
}

// NewMockClient builds a mock query client from the provided script.
func NewMockClient(responses ...MockResponse) *MockClient {
	return &MockClient{responses: responses}
}

var _ board.QueryClient = (*MockClient)(nil)

// ExecuteQuery records the request and replays the next scripted response.
func (c *MockClient) ExecuteQuery(_ context.Context, req board.QueryRequest) (board.QueryResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, req)
	if len(c.responses) == 0 {
		return board.QueryResult{}, nil
	}
	next := c.responses[0]
	if len(c.responses) > 1 {
		c.responses = c.responses[1:]
	}
	return cloneResult(next.Result), next.Err
}

// Calls returns a copy of every request seen so far.
func (c *MockClient) Calls() []board.QueryRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]board.QueryRequest, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallCount returns the number of queries executed.
func (c *MockClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func cloneResult(result board.QueryResult) board.QueryResult {
	out := board.QueryResult{Total: result.Total, Took: result.Took}
	if result.Data != nil {
		out.Data = make([]map[string]any, len(result.Data))
		for i, row := range result.Data {
			cloned := make(map[string]any, len(row))
			for k, v := range row {
				cloned[k] = v
			}
			out.Data[i] = cloned
		}
	}
	return out
}
