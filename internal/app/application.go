package app

import (
	"log/slog"
	"net/http"

	"aonbas.x341.dev/internal/appconf"
	"aonbas.x341.dev/internal/cache"
	"aonbas.x341.dev/internal/fetch"
	"aonbas.x341.dev/internal/metro"
	"aonbas.x341.dev/internal/otp"
	"aonbas.x341.dev/internal/tram"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config appconf.Config
	Logger *slog.Logger

	Cache *cache.TTLCache
	Feeds *cache.FeedCache
	Tram  *tram.Client
	Metro *metro.Client
	Otp   *otp.Service
}

// New wires the upstream clients and caches described by cfg. All clients
// share one TTL cache and one backoff fetcher.
func New(cfg appconf.Config, logger *slog.Logger) *Application {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	fetcher := fetch.NewFetcher(httpClient, logger)

	ttlCache := cache.NewTTLCache(cfg.CacheCapacity, logger)
	feeds := cache.NewFeedCache(cfg.FeedCacheCapacity, nil, logger)

	return &Application{
		Config: cfg,
		Logger: logger,
		Cache:  ttlCache,
		Feeds:  feeds,
		Tram: tram.NewClient(tram.Config{
			BaseURL: cfg.TramBaseURL,
			FeedTTL: cfg.FeedTTL,
		}, fetcher, ttlCache, feeds, logger),
		Metro: metro.NewClient(metro.Config{
			BaseURL: cfg.TMBBaseURL,
			AppID:   cfg.TMBAppID,
			AppKey:  cfg.TMBAppKey,
		}, fetcher, ttlCache, logger),
		Otp: otp.NewService(ttlCache, logger),
	}
}
