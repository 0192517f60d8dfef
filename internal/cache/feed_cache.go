package cache

import (
	"errors"
	"log/slog"
	"time"

	"github.com/bluele/gcache"
	gtfsrt "github.com/jamespfennell/gtfs/proto"
)

// DefaultFeedCapacity bounds the number of merged feeds kept in memory.
const DefaultFeedCapacity = 8

type feedEntry struct {
	feed      *gtfsrt.FeedMessage
	expiresAt time.Time
}

// FeedCache holds decoded GTFS-Realtime feeds keyed by network. It applies the
// same expiry rule as TTLCache and is additionally bounded by an LRU capacity.
// Stored feeds are shared with callers and must be treated as read-only.
type FeedCache struct {
	store  gcache.Cache
	clock  gcache.Clock
	logger *slog.Logger
}

// NewFeedCache creates a feed cache. A nil clock uses the wall clock.
func NewFeedCache(capacity int, clock gcache.Clock, logger *slog.Logger) *FeedCache {
	if capacity <= 0 {
		capacity = DefaultFeedCapacity
	}
	if clock == nil {
		clock = gcache.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedCache{
		store:  gcache.New(capacity).LRU().Clock(clock).Build(),
		clock:  clock,
		logger: logger.With(slog.String("component", "feed_cache")),
	}
}

// GetFeed returns the cached feed for key, or false when missing or expired.
func (c *FeedCache) GetFeed(key string) (*gtfsrt.FeedMessage, bool) {
	value, err := c.store.Get(key)
	if err != nil {
		if !errors.Is(err, gcache.KeyNotFoundError) {
			c.logger.Warn("feed cache lookup failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return nil, false
	}

	e, ok := value.(*feedEntry)
	if !ok || !c.clock.Now().Before(e.expiresAt) {
		c.store.Remove(key)
		return nil, false
	}
	return e.feed, true
}

// PutFeed replaces the feed stored under key. A ttl of zero or less removes it.
func (c *FeedCache) PutFeed(key string, feed *gtfsrt.FeedMessage, ttl time.Duration) {
	if feed == nil || ttl <= 0 {
		c.store.Remove(key)
		return
	}

	e := &feedEntry{feed: feed, expiresAt: c.clock.Now().Add(ttl)}
	if err := c.store.SetWithExpire(key, e, ttl); err != nil {
		c.logger.Warn("failed to cache feed", slog.String("key", key), slog.String("error", err.Error()))
		return
	}
	c.logger.Debug("feed cached",
		slog.String("key", key),
		slog.Int("entities", len(feed.GetEntity())),
		slog.Duration("ttl", ttl))
}

// Clear drops every cached feed.
func (c *FeedCache) Clear() {
	c.store.Purge()
}

// Len returns the number of unexpired feeds held.
func (c *FeedCache) Len() int {
	return c.store.Len(true)
}
