package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// maxBodySize bounds a catalog download.
const maxBodySize = 50 << 20

// Source retrieves a raw element set catalog document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	// Key identifies the document in a Cache.
	Key() string
}

// HTTPSource downloads a catalog over HTTP.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a source for url, the CelesTrak CubeSat catalog when
// empty.
func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if url == "" {
		url = DefaultURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSource{url: url, client: client}
}

func (s *HTTPSource) Key() string { return s.url }

// Fetch performs a GET. There are no retries.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching element sets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d from %s", resp.StatusCode, s.url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, errors.New("response exceeds the catalog byte limit")
	}
	return body, nil
}

// FileSource reads a catalog from a local file.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource { return &FileSource{path: path} }

func (s *FileSource) Key() string { return "file:" + s.path }

func (s *FileSource) Fetch(context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading element set file: %w", err)
	}
	return data, nil
}
