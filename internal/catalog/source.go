package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Source provides product records.
type Source interface {
	Name() string
	Products(ctx context.Context) ([]*Product, error)
}

// FileSource reads a JSON or YAML array of product records.
type FileSource struct {
	Path string
}

// Name returns the file path.
func (s *FileSource) Name() string { return s.Path }

// Products reads and decodes the file. The format follows the extension:
// .yaml and .yml are YAML, anything else JSON.
func (s *FileSource) Products(ctx context.Context) ([]*Product, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var records []map[string]interface{}
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &records)
	default:
		err = json.Unmarshal(data, &records)
	}
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", s.Path, err)
	}
	return productsFromRecords(records)
}

// HTTPSource fetches a JSON array of product records, for example a Supabase
// REST table such as https://<project>.supabase.co/rest/v1/products?select=*.
type HTTPSource struct {
	URL    string
	APIKey string
	Client *http.Client
}

// Name returns the URL.
func (s *HTTPSource) Name() string { return s.URL }

// Products performs a GET request. A configured APIKey is sent both as the
// apikey header and as a bearer token.
func (s *HTTPSource) Products(ctx context.Context) ([]*Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.APIKey != "" {
		req.Header.Set("apikey", s.APIKey)
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch catalog: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var records []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return productsFromRecords(records)
}

func productsFromRecords(records []map[string]interface{}) ([]*Product, error) {
	products := make([]*Product, 0, len(records))
	for i, rec := range records {
		p, err := ProductFromFields(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		products = append(products, p)
	}
	return products, nil
}

// FallbackSource returns the products of the first source that yields at
// least one product without error.
type FallbackSource struct {
	Sources []Source
	Logger  *zap.Logger
}

// Name lists the sources in order.
func (s *FallbackSource) Name() string {
	names := make([]string, len(s.Sources))
	for i, src := range s.Sources {
		names[i] = src.Name()
	}
	return strings.Join(names, ", ")
}

// Products tries each source in order. When every source fails the last error
// is returned; when they succeed but are empty the result is empty.
func (s *FallbackSource) Products(ctx context.Context) ([]*Product, error) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var lastErr error
	failed := 0
	for _, src := range s.Sources {
		products, err := src.Products(ctx)
		if err != nil {
			logger.Warn("catalog source failed, trying next", zap.String("source", src.Name()), zap.Error(err))
			lastErr = err
			failed++
			continue
		}
		if len(products) == 0 {
			logger.Debug("catalog source empty, trying next", zap.String("source", src.Name()))
			continue
		}
		return products, nil
	}
	if failed == len(s.Sources) && lastErr != nil {
		return nil, lastErr
	}
	return []*Product{}, nil
}
