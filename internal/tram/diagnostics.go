package tram

import (
	"context"
	"sort"
	"strconv"
)

// ListGtfsCodes returns the distinct non-empty GTFS codes in the catalog, sorted.
func (c *Client) ListGtfsCodes(ctx context.Context) ([]string, error) {
	stops, err := c.FetchAllStops(ctx)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{})
	for _, s := range stops {
		if s.GtfsCode != nil && *s.GtfsCode != "" {
			set[*s.GtfsCode] = struct{}{}
		}
	}
	return sortedKeys(set), nil
}

// StaticStopIDs returns every identifier a real-time feed may use to refer to
// a catalog stop: GTFS codes and non-zero numeric ids.
func (c *Client) StaticStopIDs(ctx context.Context) (map[string]struct{}, error) {
	stops, err := c.FetchAllStops(ctx)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]struct{}, len(stops)*2)
	for _, s := range stops {
		if s.GtfsCode != nil && *s.GtfsCode != "" {
			ids[*s.GtfsCode] = struct{}{}
		}
		if s.HasID() {
			ids[strconv.Itoa(*s.ID)] = struct{}{}
		}
	}
	return ids, nil
}

// FindMissingStaticStops lists, sorted, the stop ids referenced by the
// network's trip updates that are not in the static catalog.
func (c *Client) FindMissingStaticStops(ctx context.Context, network string) ([]string, error) {
	feed, err := c.GetMergedFeed(ctx, network)
	if err != nil {
		return nil, err
	}
	static, err := c.StaticStopIDs(ctx)
	if err != nil {
		return nil, err
	}

	missing := make(map[string]struct{})
	for _, entity := range feed.GetEntity() {
		tu := entity.GetTripUpdate()
		if tu == nil {
			continue
		}
		for _, stu := range tu.GetStopTimeUpdate() {
			if stu.StopId == nil {
				continue
			}
			if _, ok := static[stu.GetStopId()]; !ok {
				missing[stu.GetStopId()] = struct{}{}
			}
		}
	}
	return sortedKeys(missing), nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
