// Package feed fetches and parses the hotel documents the catalog is built
// from.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Source yields feed documents.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string
	// Fetch retrieves the current document.
	Fetch(ctx context.Context) (*Document, error)
}

// ErrUnavailable is returned when a source cannot produce a document.
var ErrUnavailable = errors.New("feed unavailable")

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 32 << 20

// HTTPSource fetches a document from a URL.
type HTTPSource struct {
	name       string
	url        string
	httpClient *http.Client
	now        func() time.Time
}

// NewHTTPSource creates a new HTTPSource.
func NewHTTPSource(name, rawURL string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		name: name,
		url:  rawURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

// Name returns the source name.
func (s *HTTPSource) Name() string {
	return s.name
}

// Fetch issues a GET with a cache-busting parameter so intermediaries
// never serve a stale document.
func (s *HTTPSource) Fetch(ctx context.Context) (*Document, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(s.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return doc, nil
}

// StaticSource always returns the same document.
type StaticSource struct {
	name string
	doc  *Document
}

// NewStaticSource creates a source backed by doc.
func NewStaticSource(name string, doc *Document) *StaticSource {
	return &StaticSource{name: name, doc: doc}
}

// Name returns the source name.
func (s *StaticSource) Name() string {
	return s.name
}

// Fetch returns the fixed document.
func (s *StaticSource) Fetch(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.doc, nil
}
