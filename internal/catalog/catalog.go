// Package catalog keeps the normalized hotel list in memory and answers
// queries against it.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/armystay/hotels/internal/apperr"
	"github.com/armystay/hotels/internal/catalog/cache"
	"github.com/armystay/hotels/internal/feed"
	"github.com/armystay/hotels/internal/normalize"
	"github.com/armystay/hotels/internal/obs"
)

// Snapshot origins.
const (
	SourceLive    = "live"
	SourceBundled = "bundled"
)

const snapshotKey = "snapshot"

// Snapshot is one normalized feed document. Snapshots are shared between
// readers and must not be modified.
type Snapshot struct {
	Items  []normalize.Item
	Source string
	// Stale is set when the feed failed and an earlier live snapshot was
	// served instead.
	Stale    bool
	Digest   string
	LoadedAt time.Time
	Home     *feed.Home
	Spots    []feed.LocalSpot
	Concerts json.RawMessage
}

// Catalog serves normalized items from a feed source.
type Catalog struct {
	source       feed.Source
	bundled      *feed.Document
	refs         normalize.References
	cache        *cache.Cache[*Snapshot]
	fetchTimeout time.Duration
	metrics      *obs.Metrics
	logger       *slog.Logger

	mu         sync.Mutex
	last       *Snapshot
	memoDigest string
	memoItems  []normalize.Item
}

// Options configure a Catalog.
type Options struct {
	// TTL is how long a snapshot is served before the feed is fetched again.
	TTL time.Duration
	// FetchTimeout bounds a single feed fetch.
	FetchTimeout time.Duration
	// Bundled is served when the feed has never produced a usable
	// document. Defaults to feed.Bundled().
	Bundled *feed.Document
}

// New creates a new Catalog.
func New(source feed.Source, refs normalize.References, opts Options, metrics *obs.Metrics, logger *slog.Logger) *Catalog {
	if opts.Bundled == nil {
		opts.Bundled = feed.Bundled()
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	return &Catalog{
		source:       source,
		bundled:      opts.Bundled,
		refs:         refs,
		cache:        cache.New[*Snapshot](opts.TTL),
		fetchTimeout: opts.FetchTimeout,
		metrics:      metrics,
		logger:       logger,
	}
}

// Close releases the snapshot cache.
func (c *Catalog) Close() {
	c.cache.Close()
}

// Snapshot returns the current snapshot and whether it came from cache.
func (c *Catalog) Snapshot(ctx context.Context) (*Snapshot, bool, error) {
	snap, hit, err := c.cache.GetOrFetch(ctx, snapshotKey, func() (*Snapshot, error) {
		return c.load(ctx), nil
	})
	if err != nil {
		return nil, false, apperr.Unavailable("catalog unavailable", err)
	}
	if hit {
		c.metrics.IncCacheHits()
	}
	return snap, hit, nil
}

// Refresh drops the cached snapshot and loads a new one.
func (c *Catalog) Refresh(ctx context.Context) (*Snapshot, error) {
	c.cache.Invalidate(snapshotKey)
	snap, _, err := c.Snapshot(ctx)
	return snap, err
}

// Run refreshes the snapshot every interval until ctx is done.
func (c *Catalog) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			snap, err := c.Refresh(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					c.logger.Error("catalog refresh failed", "error", err)
				}
				continue
			}
			c.logger.Debug("catalog refreshed",
				"source", snap.Source,
				"items", len(snap.Items),
				"stale", snap.Stale)
		case <-ctx.Done():
			return
		}
	}
}

// load never fails: a broken feed degrades to the last live snapshot or
// the bundled dataset.
func (c *Catalog) load(ctx context.Context) *Snapshot {
	// The fetch is shared by every waiting caller, so it must outlive the
	// one that happened to start it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
	defer cancel()

	doc, err := c.source.Fetch(ctx)
	if err == nil && doc.Empty() {
		err = feed.ErrEmptyPayload
	}
	if err != nil {
		c.metrics.IncFeedErrors()
		return c.fallback(err)
	}

	snap := c.build(doc, SourceLive)

	c.mu.Lock()
	c.last = snap
	c.mu.Unlock()

	c.metrics.SetCatalogSize(len(snap.Items))
	c.logger.Info("catalog loaded",
		"source", c.source.Name(),
		"items", len(snap.Items),
		"digest", shortDigest(snap.Digest))
	return snap
}

func (c *Catalog) fallback(cause error) *Snapshot {
	c.mu.Lock()
	last := c.last
	c.mu.Unlock()

	if last != nil {
		c.logger.Warn("feed unavailable, serving last live snapshot",
			"source", c.source.Name(),
			"loaded_at", last.LoadedAt,
			"error", cause)
		c.metrics.IncFallbacks("last_live")
		stale := *last
		stale.Stale = true
		return &stale
	}

	c.logger.Warn("feed unavailable, serving bundled dataset",
		"source", c.source.Name(),
		"error", cause)
	c.metrics.IncFallbacks("bundled")
	return c.build(c.bundled, SourceBundled)
}

func (c *Catalog) build(doc *feed.Document, source string) *Snapshot {
	return &Snapshot{
		Items:    c.normalize(doc),
		Source:   source,
		Digest:   doc.Digest,
		LoadedAt: time.Now(),
		Home:     doc.Home,
		Spots:    doc.Spots,
		Concerts: doc.Concerts,
	}
}

// normalize reuses the previous result when the document is unchanged.
func (c *Catalog) normalize(doc *feed.Document) []normalize.Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	if doc.Digest != "" && doc.Digest == c.memoDigest {
		return c.memoItems
	}

	start := time.Now()
	items := normalize.Normalize(doc.Items, c.refs.WithSpots(doc.BTSSpots()...))
	c.metrics.ObserveNormalize(time.Since(start))

	c.memoDigest = doc.Digest
	c.memoItems = items
	return items
}

// Get returns the item with the given id.
func (c *Catalog) Get(ctx context.Context, id string) (normalize.Item, error) {
	snap, _, err := c.Snapshot(ctx)
	if err != nil {
		return normalize.Item{}, err
	}
	for _, it := range snap.Items {
		if it.ID == id {
			return it, nil
		}
	}
	return normalize.Item{}, apperr.NotFound("hotel not found")
}

// Spots returns the map markers of the current snapshot.
func (c *Catalog) Spots(ctx context.Context) ([]feed.LocalSpot, error) {
	snap, _, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Spots, nil
}

// Concerts returns the raw concert schedule of the current snapshot, or
// nil when the feed has none.
func (c *Catalog) Concerts(ctx context.Context) (json.RawMessage, error) {
	snap, _, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Concerts, nil
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
