package tram

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"aonbas.x341.dev/internal/fetch"
)

const linesKey = "lines:all"

// GetLines returns the upstream line listing as raw JSON.
func (c *Client) GetLines(ctx context.Context) (json.RawMessage, error) {
	if cached, ok := c.cache.Get(linesKey); ok {
		return json.RawMessage(cached), nil
	}

	v, err := c.group.Do(ctx, linesKey, func(ctx context.Context) (interface{}, error) {
		if cached, ok := c.cache.Get(linesKey); ok {
			return json.RawMessage(cached), nil
		}

		linesURL := c.baseURL + "/lines?page=0&pageSize=" + strconv.Itoa(c.pageSize)
		body, err := c.fetcher.Get(ctx, linesURL)
		if err != nil {
			return nil, err
		}
		if !json.Valid(body) {
			return nil, &fetch.DecodeError{Source: linesURL, Err: errors.New("invalid JSON")}
		}

		c.cache.Put(linesKey, string(body))
		return json.RawMessage(body), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}
