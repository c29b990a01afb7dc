// Package catalog resolves satellite records to element sets, reading catalog
// documents through a cache.
package catalog

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"

	"github.com/akhenakh/inview"
)

// DefaultURL is the catalog fetched for records that name none.
const DefaultURL = inview.DefaultCatalogURL

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSourceFunc overrides how a record is mapped to its Source.
func WithSourceFunc(fn func(inview.SatelliteRecord) Source) Option {
	return func(c *Catalog) {
		if fn != nil {
			c.source = fn
		}
	}
}

// Catalog looks up element sets. Concurrent lookups of the same document
// share one fetch.
type Catalog struct {
	cache  Cache
	source func(inview.SatelliteRecord) Source
	group  singleflight.Group
	logger *slog.Logger
}

// New creates a Catalog reading through cache. A nil cache disables caching.
func New(cache Cache, opts ...Option) *Catalog {
	if cache == nil {
		cache = noCache{}
	}
	c := &Catalog{
		cache:  cache,
		source: SourceFor,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SourceFor maps a record to its file, or to its URL when no file is set.
func SourceFor(rec inview.SatelliteRecord) Source {
	if rec.File != "" {
		return NewFileSource(rec.File)
	}
	return NewHTTPSource(rec.URL, nil)
}

// Lookup returns a new element set for the record's satellite, with the
// record's metadata applied. Documents may hold two-line element sets or a
// JSON array of OMM objects.
func (c *Catalog) Lookup(ctx context.Context, rec inview.SatelliteRecord) (*inview.TwoLineElement, error) {
	src := c.source(rec)
	data, err := c.document(ctx, src)
	if err != nil {
		return nil, err
	}
	var el *inview.TwoLineElement
	if isOMM(data) {
		el, err = inview.FindOMM(data, rec.Number, rec.ElementOptions()...)
	} else {
		el, err = inview.FindElementSet(bytes.NewReader(data), rec.Number, rec.ElementOptions()...)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up satellite %d in %s: %w", rec.Number, src.Key(), err)
	}
	return el, nil
}

// Refetch invalidates the record's cached document and looks it up again.
func (c *Catalog) Refetch(ctx context.Context, rec inview.SatelliteRecord) (*inview.TwoLineElement, error) {
	key := c.source(rec).Key()
	if err := c.cache.Invalidate(ctx, key); err != nil {
		return nil, fmt.Errorf("invalidating %s: %w", key, err)
	}
	c.logger.Info("catalog invalidated", slog.String("source", key))
	return c.Lookup(ctx, rec)
}

func (c *Catalog) document(ctx context.Context, src Source) ([]byte, error) {
	key := src.Key()
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("catalog cache read failed", slog.String("source", key), slog.Any("error", err))
	}
	if ok {
		return data, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		data, err := src.Fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.logger.Info("catalog fetched", slog.String("source", key), slog.Int("bytes", len(data)))
		if err := c.cache.Set(ctx, key, data); err != nil {
			c.logger.Warn("catalog cache write failed", slog.String("source", key), slog.Any("error", err))
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// isOMM reports whether data is a JSON array rather than element lines.
func isOMM(data []byte) bool {
	data = bytes.TrimLeft(data, " \t\r\n")
	return len(data) > 0 && data[0] == '['
}

type noCache struct{}

func (noCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (noCache) Set(context.Context, string, []byte) error         { return nil }
func (noCache) Invalidate(context.Context, string) error          { return nil }
