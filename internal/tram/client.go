package tram

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"aonbas.x341.dev/internal/cache"
	"aonbas.x341.dev/internal/fetch"
)

const (
	DefaultBaseURL  = "https://opendata.tram.cat/api/v1"
	DefaultPageSize = 100
	DefaultFeedTTL  = 30 * time.Second
)

// ErrUnknownNetwork is returned for a network name other than TRAMBESOS or TRAMBAIX.
var ErrUnknownNetwork = errors.New("unknown tram network")

// Network is one of the two tram systems served by the upstream API.
type Network struct {
	Name string
	ID   string
}

// Networks lists the tram networks in the order they are fetched.
var Networks = []Network{
	{Name: "TRAMBESOS", ID: "1"},
	{Name: "TRAMBAIX", ID: "2"},
}

// LookupNetwork maps a network name, case-insensitively, to its Network.
func LookupNetwork(name string) (Network, error) {
	for _, n := range Networks {
		if strings.EqualFold(strings.TrimSpace(name), n.Name) {
			return n, nil
		}
	}
	return Network{}, ErrUnknownNetwork
}

// Config holds the tram client settings.
type Config struct {
	BaseURL  string
	PageSize int
	FeedTTL  time.Duration
}

// Client talks to the tram open data API. Stop catalogs and line listings
// are kept in the shared TTL cache and merged real-time feeds in the feed
// cache. Concurrent misses for the same cache key share one upstream fetch.
type Client struct {
	baseURL  string
	pageSize int
	feedTTL  time.Duration

	fetcher *fetch.Fetcher
	cache   *cache.TTLCache
	feeds   *cache.FeedCache
	group   fetch.Group
	logger  *slog.Logger

	now func() time.Time
}

// NewClient creates a tram Client. Zero config values take the package defaults.
func NewClient(cfg Config, fetcher *fetch.Fetcher, ttlCache *cache.TTLCache, feeds *cache.FeedCache, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.FeedTTL <= 0 {
		cfg.FeedTTL = DefaultFeedTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		pageSize: cfg.PageSize,
		feedTTL:  cfg.FeedTTL,
		fetcher:  fetcher,
		cache:    ttlCache,
		feeds:    feeds,
		logger:   logger.With(slog.String("component", "tram_client")),
		now:      time.Now,
	}
}

// ClearCache drops every cached catalog, listing and feed.
func (c *Client) ClearCache() {
	c.cache.Clear()
	c.feeds.Clear()
	c.logger.Info("tram caches cleared")
}
