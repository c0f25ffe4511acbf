package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/kioku/internal/models"
)

// APIClient calls a running kioku server, so commands do not open the
// database file the server holds.
type APIClient struct {
	baseURL string
	http    *http.Client
}

// NewAPIClient creates a client for the server at baseURL.
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
}

// Retrieve calls POST /api/v1/retrieve.
func (c *APIClient) Retrieve(ctx context.Context, query string, topK int) (*models.RetrieveResponse, error) {
	var out models.RetrieveResponse
	err := c.do(ctx, http.MethodPost, "/api/v1/retrieve", models.RetrieveRequest{Query: query, TopK: topK}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Status calls GET /api/v1/status.
func (c *APIClient) Status(ctx context.Context) (*models.Status, error) {
	var out models.Status
	if err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ReloadCatalog calls POST /api/v1/catalog/reload and returns the number of
// documents loaded.
func (c *APIClient) ReloadCatalog(ctx context.Context) (int, error) {
	var out struct {
		Documents int `json:"documents"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/catalog/reload", nil, &out); err != nil {
		return 0, err
	}
	return out.Documents, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
