package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"
)

// Cache stores catalog documents by source key. Entries live until their
// TTL elapses or they are invalidated.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Invalidate(ctx context.Context, key string) error
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates a cache whose entries expire after ttl. A
// non-positive ttl keeps entries until they are invalidated.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := memoryEntry{value: value}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.entries[key] = e
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// InvalidateAll drops every entry.
func (c *MemoryCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// ValkeyCache shares catalog documents between processes through Valkey
// (or Redis).
type ValkeyCache struct {
	client valkey.Client
	ttl    time.Duration
	prefix string
}

// NewValkeyCache connects to addr. Entries expire after ttl, rounded up to
// a whole second.
func NewValkeyCache(addr string, ttl time.Duration) (*ValkeyCache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return NewValkeyCacheWithClient(client, ttl), nil
}

// NewValkeyCacheWithClient wraps an existing client.
func NewValkeyCacheWithClient(client valkey.Client, ttl time.Duration) *ValkeyCache {
	if ttl > 0 && ttl < time.Second {
		ttl = time.Second
	}
	return &ValkeyCache{client: client, ttl: ttl, prefix: "inview:catalog:"}
}

func (c *ValkeyCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.client.Do(ctx, c.client.B().Get().Key(c.prefix+key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *ValkeyCache) Set(ctx context.Context, key string, value []byte) error {
	if c.ttl <= 0 {
		return c.client.Do(ctx, c.client.B().Set().Key(c.prefix+key).Value(valkey.BinaryString(value)).Build()).Error()
	}
	return c.client.Do(ctx,
		c.client.B().Set().Key(c.prefix+key).Value(valkey.BinaryString(value)).Ex(c.ttl).Build(),
	).Error()
}

func (c *ValkeyCache) Invalidate(ctx context.Context, key string) error {
	return c.client.Do(ctx, c.client.B().Del().Key(c.prefix+key).Build()).Error()
}

// Close releases the client.
func (c *ValkeyCache) Close() {
	c.client.Close()
}
