package cache

import (
	"context"
	"fmt"

	"github.com/2kai2kai2/cartographer/internal/history"
	"github.com/2kai2kai2/cartographer/internal/textutil"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

// Store persists encoded timelines beyond the process.
type Store interface {
	Load(ctx context.Context, hash string) (*history.Serialized, bool, error)
	Save(ctx context.Context, hash string, s *history.Serialized) error
}

// BuildFunc produces the serialized timeline for a save.
type BuildFunc func(data []byte, baseURL string) (*history.Serialized, error)

// TimelineCache keys encoded timelines by save content. The base URL is not part of
// the key; it is stamped onto the envelope on the way out.
type TimelineCache struct {
	memory *lru.Cache[string, history.Serialized]
	store  Store
}

// NewTimelineCache creates an in-memory cache of the given size. store may be nil.
func NewTimelineCache(size int, store Store) (*TimelineCache, error) {
	if size < 1 {
		size = 1
	}
	memory, err := lru.New[string, history.Serialized](size)
	if err != nil {
		return nil, fmt.Errorf("create timeline cache: %w", err)
	}
	return &TimelineCache{memory: memory, store: store}, nil
}

// Get looks the save up in memory, then in the store.
func (c *TimelineCache) Get(ctx context.Context, data []byte, baseURL string) (*history.Serialized, bool) {
	hash := textutil.HashBytes(data)

	if s, ok := c.memory.Get(hash); ok {
		s.BaseURL = baseURL
		return &s, true
	}
	if c.store == nil {
		return nil, false
	}

	s, ok, err := c.store.Load(ctx, hash)
	if err != nil {
		log.Warn().Err(err).Str("hash", textutil.Truncate(hash, 12)).Msg("Timeline store lookup failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	c.memory.Add(hash, *s)
	out := *s
	out.BaseURL = baseURL
	return &out, true
}

// Set records a timeline in memory and, if configured, in the store.
func (c *TimelineCache) Set(ctx context.Context, data []byte, s *history.Serialized) error {
	hash := textutil.HashBytes(data)
	c.memory.Add(hash, *s)
	if c.store == nil {
		return nil
	}
	if err := c.store.Save(ctx, hash, s); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// GetOrBuild returns the cached timeline or builds and caches it.
// A failure to persist is logged, not returned.
func (c *TimelineCache) GetOrBuild(ctx context.Context, data []byte, baseURL string, build BuildFunc) (*history.Serialized, error) {
	if s, ok := c.Get(ctx, data, baseURL); ok {
		return s, nil
	}
	s, err := build(data, baseURL)
	if err != nil {
		return nil, err
	}
	if err := c.Set(ctx, data, s); err != nil {
		log.Warn().Err(err).Msg("Failed to persist timeline")
	}
	return s, nil
}

// Len is the number of timelines held in memory.
func (c *TimelineCache) Len() int {
	return c.memory.Len()
}
