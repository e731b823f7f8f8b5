package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/armystay/hotels/internal/feed"
)

const (
	shapeRecommendations = "recommendations"
	shapeHotels          = "hotels"
	shapeArray           = "array"
)

func validShape(s string) bool {
	return s == shapeRecommendations || s == shapeHotels || s == shapeArray
}

var errFeedUnavailable = errors.New("feed unavailable")

// MockOptions tune how badly the mock feed behaves.
type MockOptions struct {
	Shape       string
	FailureRate float64
	MinLatency  time.Duration
	MaxLatency  time.Duration
}

// MockFeed serves the bundled items with jittered prices, random latency
// and random failures.
type MockFeed struct {
	opts   MockOptions
	items  []map[string]any
	mu     sync.Mutex
	rng    *rand.Rand
	logger *slog.Logger
}

// NewMockFeed creates a new MockFeed.
func NewMockFeed(opts MockOptions, logger *slog.Logger) *MockFeed {
	items := make([]map[string]any, 0, len(feed.Bundled().Items))
	for _, it := range feed.Bundled().Items {
		items = append(items, it)
	}
	if opts.MaxLatency < opts.MinLatency {
		opts.MaxLatency = opts.MinLatency
	}

	return &MockFeed{
		opts:   opts,
		items:  items,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger,
	}
}

// document builds one payload, simulating latency and failures first.
func (m *MockFeed) document(ctx context.Context) (any, error) {
	select {
	case <-time.After(m.latency()):
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rng.Float64() < m.opts.FailureRate {
		return nil, errFeedUnavailable
	}

	items := make([]any, 0, len(m.items)+1)
	for _, it := range m.items {
		items = append(items, m.jitter(it))
	}

	// Sometimes include junk the normalizer has to drop or default.
	if m.rng.Float64() < 0.3 {
		items = append(items, "not an object", map[string]any{"name": "Mystery Stay"})
	}

	switch m.opts.Shape {
	case shapeHotels:
		return map[string]any{"hotels": items}, nil
	case shapeArray:
		return items, nil
	}
	return map[string]any{
		"top_recommendations": items,
		"home":                map[string]any{"available_count": len(m.items)},
	}, nil
}

func (m *MockFeed) latency() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	spread := int64(m.opts.MaxLatency - m.opts.MinLatency)
	if spread <= 0 {
		return m.opts.MinLatency
	}
	return m.opts.MinLatency + time.Duration(m.rng.Int63n(spread))
}

// jitter copies an item and moves its price by up to 10%.
func (m *MockFeed) jitter(it map[string]any) map[string]any {
	out := make(map[string]any, len(it))
	for k, v := range it {
		out[k] = v
	}
	if price, ok := it["price"].(float64); ok {
		factor := 0.9 + m.rng.Float64()*0.2
		out["price"] = float64(int(price*factor*100)) / 100
	}
	return out
}

// ServeHTTP handles HTTP requests for the feed.
func (m *MockFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	doc, err := m.document(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		m.logger.Error("failed to encode response", "error", err)
	}
}
