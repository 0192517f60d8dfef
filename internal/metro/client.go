package metro

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"aonbas.x341.dev/internal/cache"
	"aonbas.x341.dev/internal/fetch"
)

const (
	DefaultBaseURL = "https://api.tmb.cat/v1"

	// DefaultTrainsTTL bounds how long live train times are served from cache.
	DefaultTrainsTTL = 10 * time.Second
)

// ErrNotConfigured is returned when no TMB credentials are set.
var ErrNotConfigured = errors.New("metro client is not configured: missing TMB app id or key")

// Config holds the TMB API settings.
type Config struct {
	BaseURL   string
	AppID     string
	AppKey    string
	TrainsTTL time.Duration
}

// Client reads metro lines, stations, live trains and interchanges from the
// TMB API. Responses are validated as JSON and cached as-is.
type Client struct {
	baseURL   string
	appID     string
	appKey    string
	trainsTTL time.Duration

	fetcher *fetch.Fetcher
	cache   *cache.TTLCache
	group   fetch.Group
	logger  *slog.Logger
}

func NewClient(cfg Config, fetcher *fetch.Fetcher, ttlCache *cache.TTLCache, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TrainsTTL <= 0 {
		cfg.TrainsTTL = DefaultTrainsTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		appID:     cfg.AppID,
		appKey:    cfg.AppKey,
		trainsTTL: cfg.TrainsTTL,
		fetcher:   fetcher,
		cache:     ttlCache,
		logger:    logger.With(slog.String("component", "metro_client")),
	}
}

// Configured reports whether credentials are available.
func (c *Client) Configured() bool {
	return c.appID != "" && c.appKey != ""
}

// Lines returns every metro line.
func (c *Client) Lines(ctx context.Context) (json.RawMessage, error) {
	return c.cached(ctx, "tmb:lines", c.endpoint("transit/linies/metro", nil), cache.DefaultTTL)
}

// Stations returns the stations of a line.
func (c *Client) Stations(ctx context.Context, line string) (json.RawMessage, error) {
	path := fmt.Sprintf("transit/linies/metro/%s/estacions", url.PathEscape(line))
	return c.cached(ctx, "tmb:stations:"+line, c.endpoint(path, nil), cache.DefaultTTL)
}

// Trains returns live train times for a station.
func (c *Client) Trains(ctx context.Context, station string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("estacions", station)
	return c.cached(ctx, "tmb:trains:"+station, c.endpoint("itransit/metro/estacions", q), c.trainsTTL)
}

// Interchanges returns the connections available at a station of a line.
func (c *Client) Interchanges(ctx context.Context, line, station string) (json.RawMessage, error) {
	path := fmt.Sprintf("transit/linies/metro/%s/estacions/%s/corresp", url.PathEscape(line), url.PathEscape(station))
	return c.cached(ctx, "tmb:interchanges:"+line+":"+station, c.endpoint(path, nil), cache.DefaultTTL)
}

func (c *Client) endpoint(path string, q url.Values) string {
	if q == nil {
		q = url.Values{}
	}
	q.Set("app_id", c.appID)
	q.Set("app_key", c.appKey)
	return c.baseURL + "/" + path + "?" + q.Encode()
}

func (c *Client) cached(ctx context.Context, key, endpoint string, ttl time.Duration) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if cached, ok := c.cache.Get(key); ok {
		return json.RawMessage(cached), nil
	}

	v, err := c.group.Do(ctx, key, func(ctx context.Context) (interface{}, error) {
		if cached, ok := c.cache.Get(key); ok {
			return json.RawMessage(cached), nil
		}

		c.logger.Debug("calling TMB API", slog.String("key", key))
		body, err := c.fetcher.Get(ctx, endpoint)
		if err != nil {
			return nil, redact(err, c.appKey)
		}
		if !json.Valid(body) {
			return nil, &fetch.DecodeError{Source: key, Err: errors.New("invalid JSON")}
		}

		c.cache.PutWithTTL(key, string(body), ttl)
		return json.RawMessage(body), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

// redact strips the app key from URLs carried by fetch errors.
func redact(err error, secret string) error {
	if secret == "" {
		return err
	}
	var netErr *fetch.NetworkError
	if errors.As(err, &netErr) {
		netErr.URL = strings.ReplaceAll(netErr.URL, url.QueryEscape(secret), "REDACTED")
	}
	var upErr *fetch.UpstreamError
	if errors.As(err, &upErr) {
		upErr.URL = strings.ReplaceAll(upErr.URL, url.QueryEscape(secret), "REDACTED")
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, url.QueryEscape(secret), "REDACTED")
	}
	return err
}
