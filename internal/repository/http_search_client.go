package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/domain"
	"github.com/weiawesome/wes-io-live/discovery-service/pkg/jwt"
)

type httpSearchClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSearchClient creates a Searcher for the REST search API at baseURL.
func NewHTTPSearchClient(baseURL string, timeout time.Duration) Searcher {
	return &httpSearchClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type searchAPIResponse struct {
	Success bool                `json:"success"`
	Results []domain.ResultItem `json:"results"`
	Message string              `json:"message"`
}

func (c *httpSearchClient) Search(ctx context.Context, q domain.SearchQuery) ([]domain.ResultItem, error) {
	body := make(map[string]any, len(q.Filters)+2)
	for name, value := range q.Filters {
		body[name] = value
	}
	body["query"] = q.Query
	if q.Identity != "" && q.Identity != jwt.Guest {
		body["userId"] = q.Identity
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search request: %w", err)
	}

	endpoint := c.baseURL + "/api/search/" + url.PathEscape(string(q.Category))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result searchAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if !result.Success {
		if result.Message == "" {
			result.Message = "unsuccessful response"
		}
		return nil, fmt.Errorf("search api: %s", result.Message)
	}
	if result.Results == nil {
		result.Results = []domain.ResultItem{}
	}
	return result.Results, nil
}
