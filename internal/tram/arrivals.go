package tram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/jamespfennell/gtfs"
	"google.golang.org/protobuf/proto"

	"aonbas.x341.dev/internal/fetch"
	"aonbas.x341.dev/internal/logging"
	"aonbas.x341.dev/internal/models"
)

// StopArrivals resolves query to a stop and lists its upcoming arrivals
// across all networks, soonest first. found is false when the stop does not
// resolve. A network whose feed cannot be loaded is skipped unless every
// network fails.
func (c *Client) StopArrivals(ctx context.Context, query string) (models.StopArrivals, bool, error) {
	stop, found, err := c.ResolveStop(ctx, query)
	if err != nil || !found {
		return models.StopArrivals{}, found, err
	}

	now := c.now()
	arrivals := []models.Arrival{}
	var errs []error
	for _, n := range Networks {
		realtime, err := c.parsedFeed(ctx, n)
		if err != nil {
			logging.LogError(c.logger, "skipping network for arrivals", err, slog.String("network", n.Name))
			errs = append(errs, err)
			continue
		}

		for _, trip := range realtime.Trips {
			for _, stu := range trip.StopTimeUpdates {
				if stu.StopID == nil || !stopMatches(stop, *stu.StopID) {
					continue
				}
				event := stu.Arrival
				if event == nil || event.Time == nil {
					event = stu.Departure
				}
				if event == nil || event.Time == nil || event.Time.Before(now) {
					continue
				}
				arrivals = append(arrivals, models.NewArrival(
					n.Name, trip.ID.ID, trip.ID.RouteID, *stu.StopID, *event.Time, now, event.Delay))
			}
		}
	}

	if len(errs) == len(Networks) {
		return models.StopArrivals{}, true, errors.Join(errs...)
	}

	sort.SliceStable(arrivals, func(i, j int) bool {
		return arrivals[i].ArrivalTime < arrivals[j].ArrivalTime
	})
	return models.StopArrivals{Stop: stop, Arrivals: arrivals}, true, nil
}

// parsedFeed returns the merged feed for n decoded into typed trips.
func (c *Client) parsedFeed(ctx context.Context, n Network) (*gtfs.Realtime, error) {
	feed, err := c.GetMergedFeed(ctx, n.Name)
	if err != nil {
		return nil, err
	}

	b, err := proto.Marshal(feed)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merged feed for %s: %w", n.Name, err)
	}
	realtime, err := gtfs.ParseRealtime(b, &gtfs.ParseRealtimeOptions{})
	if err != nil {
		return nil, &fetch.DecodeError{Source: "merged feed " + n.Name, Err: err}
	}
	return realtime, nil
}

func stopMatches(stop models.Stop, stopID string) bool {
	stopID = strings.TrimSpace(stopID)
	if code := stop.Code(); code != "" && strings.EqualFold(code, stopID) {
		return true
	}
	return stop.HasID() && stopID == strconv.Itoa(*stop.ID)
}
