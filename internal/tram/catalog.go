package tram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"aonbas.x341.dev/internal/fetch"
	"aonbas.x341.dev/internal/logging"
	"aonbas.x341.dev/internal/models"
)

const allStopsKey = "stops:all"

func lineStopsKey(lineID string) string {
	return "stops:line:" + lineID
}

// FetchAllStops returns the deduplicated stop catalog for every network.
// The returned slice is shared with other callers and must not be modified.
func (c *Client) FetchAllStops(ctx context.Context) ([]models.Stop, error) {
	return c.catalog(ctx, allStopsKey, func(page int, networkID string) string {
		return c.pageURL(c.baseURL+"/stops", page, networkID)
	})
}

// FetchStopsForLine returns the deduplicated stop catalog for one line.
// The returned slice is shared with other callers and must not be modified.
func (c *Client) FetchStopsForLine(ctx context.Context, lineID string) ([]models.Stop, error) {
	endpoint := c.baseURL + "/lines/" + url.PathEscape(lineID) + "/stops"
	return c.catalog(ctx, lineStopsKey(lineID), func(page int, networkID string) string {
		return c.pageURL(endpoint, page, networkID)
	})
}

func (c *Client) pageURL(endpoint string, page int, networkID string) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	q.Set("networkId", networkID)
	return endpoint + "?" + q.Encode()
}

// catalog serves key from the cache or builds it from upstream pages. The
// cache is only written once every page of every network has been fetched.
func (c *Client) catalog(ctx context.Context, key string, pageURL func(page int, networkID string) string) ([]models.Stop, error) {
	if stops, ok := c.cachedCatalog(key); ok {
		return stops, nil
	}

	v, err := c.group.Do(ctx, key, func(ctx context.Context) (interface{}, error) {
		if stops, ok := c.cachedCatalog(key); ok {
			return stops, nil
		}

		start := c.now()
		stops, err := c.buildCatalog(ctx, pageURL)
		if err != nil {
			return nil, err
		}

		blob, err := json.Marshal(stops)
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog %s: %w", key, err)
		}
		c.cache.Put(key, string(blob))

		logging.LogOperation(c.logger, "stop_catalog_built",
			slog.String("key", key),
			slog.Int("stops", len(stops)),
			slog.Duration("duration", time.Since(start)))
		return stops, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Stop), nil
}

func (c *Client) cachedCatalog(key string) ([]models.Stop, bool) {
	blob, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}

	var stops []models.Stop
	if err := json.Unmarshal([]byte(blob), &stops); err != nil {
		logging.LogError(c.logger, "discarding unreadable cached catalog", err, slog.String("key", key))
		c.cache.Remove(key)
		return nil, false
	}
	return stops, true
}

// buildCatalog pages through every network and deduplicates the result,
// keeping the first stop seen for each identity.
func (c *Client) buildCatalog(ctx context.Context, pageURL func(page int, networkID string) string) ([]models.Stop, error) {
	var raw []json.RawMessage
	for _, network := range Networks {
		for page := 0; ; page++ {
			items, err := c.fetchPage(ctx, pageURL(page, network.ID))
			if err != nil {
				return nil, err
			}
			raw = append(raw, items...)
			if len(items) < c.pageSize {
				break
			}
		}
	}

	seen := make(map[string]struct{}, len(raw))
	stops := make([]models.Stop, 0, len(raw))
	for _, item := range raw {
		stop := parseStop(item)
		key := identityKey(stop)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		stops = append(stops, stop)
	}
	return stops, nil
}

func (c *Client) fetchPage(ctx context.Context, pageURL string) ([]json.RawMessage, error) {
	body, err := c.fetcher.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	items, err := normalizeToArray(body)
	if err != nil {
		return nil, &fetch.DecodeError{Source: pageURL, Err: err}
	}
	return items, nil
}

// identityKey is the upper-cased GTFS code, else the numeric id, else a
// random key so that stops with neither are never merged.
func identityKey(s models.Stop) string {
	if s.GtfsCode != nil && *s.GtfsCode != "" {
		return "code:" + strings.ToUpper(*s.GtfsCode)
	}
	if s.HasID() {
		return "id:" + strconv.Itoa(*s.ID)
	}
	return "anon:" + uuid.NewString()
}
