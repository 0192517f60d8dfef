package tram

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bluele/gcache"
	gtfsrt "github.com/jamespfennell/gtfs/proto"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"aonbas.x341.dev/internal/cache"
	"aonbas.x341.dev/internal/fetch"
)

// fakeUpstream emulates the tram open data API.
type fakeUpstream struct {
	t *testing.T

	mu       sync.Mutex
	stops    map[string][]map[string]any // networkId -> stops
	requests []string
	failing  map[string]int // path -> status code

	tripFeeds    map[string][]byte // networkId -> body
	vehicleFeeds map[string][]byte
	linesBody    string
	stopsBody    string

	// gate, when set, blocks every stops request until closed.
	gate chan struct{}
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	return &fakeUpstream{
		t:            t,
		stops:        map[string][]map[string]any{},
		failing:      map[string]int{},
		tripFeeds:    map[string][]byte{},
		vehicleFeeds: map[string][]byte{},
		linesBody:    `[{"id":1,"name":"T1"}]`,
	}
}

func (u *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.requests = append(u.requests, r.URL.RequestURI())
	status, fail := u.failing[r.URL.Path]
	gate := u.gate
	linesBody := u.linesBody
	stopsBody := u.stopsBody
	u.mu.Unlock()

	if fail {
		http.Error(w, "upstream failure", status)
		return
	}

	networkID := r.URL.Query().Get("networkId")
	switch {
	case r.URL.Path == "/lines":
		_, _ = w.Write([]byte(linesBody))
	case r.URL.Path == "/stops" || strings.HasSuffix(r.URL.Path, "/stops"):
		if gate != nil {
			<-gate
		}
		if stopsBody != "" {
			_, _ = w.Write([]byte(stopsBody))
			return
		}
		u.writeStopsPage(w, r, networkID)
	case r.URL.Path == "/gtfsrealtime":
		u.mu.Lock()
		body := u.tripFeeds[networkID]
		u.mu.Unlock()
		u.writeFeed(w, body)
	case r.URL.Path == "/gtfsrealtime/vehicleUpdate":
		u.mu.Lock()
		body := u.vehicleFeeds[networkID]
		u.mu.Unlock()
		u.writeFeed(w, body)
	default:
		http.NotFound(w, r)
	}
}

func (u *fakeUpstream) writeStopsPage(w http.ResponseWriter, r *http.Request, networkID string) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	u.mu.Lock()
	all := u.stops[networkID]
	u.mu.Unlock()

	start := page * size
	end := start + size
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	// wrap pages in a container object to exercise normalization
	body, err := json.Marshal(map[string]any{"total": len(all), "data": all[start:end]})
	require.NoError(u.t, err)
	_, _ = w.Write(body)
}

func (u *fakeUpstream) writeFeed(w http.ResponseWriter, body []byte) {
	if body == nil {
		body = mustMarshalFeed(u.t, newFeed())
	}
	w.Header().Set("Content-Type", "application/x-protobuf")
	_, _ = w.Write(body)
}

func (u *fakeUpstream) requestCount(pathPrefix string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	n := 0
	for _, r := range u.requests {
		if strings.HasPrefix(r, pathPrefix) {
			n++
		}
	}
	return n
}

func (u *fakeUpstream) setStops(networkID string, stops []map[string]any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stops[networkID] = stops
}

func (u *fakeUpstream) setGate(gate chan struct{}) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.gate = gate
}

func (u *fakeUpstream) setBodies(lines, stops string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.linesBody = lines
	u.stopsBody = stops
}

func (u *fakeUpstream) setFeeds(networkID string, trip, vehicle []byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.tripFeeds[networkID] = trip
	u.vehicleFeeds[networkID] = vehicle
}

func (u *fakeUpstream) fail(path string, status int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failing[path] = status
}

func numberedStops(prefix string, n int) []map[string]any {
	stops := make([]map[string]any, n)
	for i := range stops {
		stops[i] = map[string]any{
			"id":       i + 1,
			"name":     fmt.Sprintf("%s stop %d", prefix, i+1),
			"gtfsCode": fmt.Sprintf("%s%03d", prefix, i+1),
			"lat":      41.38,
			"lon":      2.11,
		}
	}
	return stops
}

type testEnv struct {
	upstream *fakeUpstream
	server   *httptest.Server
	client   *Client
	clock    gcache.FakeClock
}

func newTestEnv(t *testing.T, pageSize int) *testEnv {
	t.Helper()

	upstream := newFakeUpstream(t)
	server := httptest.NewServer(upstream)
	t.Cleanup(server.Close)

	clock := gcache.NewFakeClock()
	fetcher := fetch.NewFetcher(server.Client(), nil,
		fetch.WithInitialBackoff(time.Millisecond))
	client := NewClient(Config{BaseURL: server.URL, PageSize: pageSize},
		fetcher, cache.NewTTLCache(10, nil), cache.NewFeedCache(4, clock, nil), nil)
	client.now = clock.Now

	return &testEnv{upstream: upstream, server: server, client: client, clock: clock}
}

func newFeed(entities ...*gtfsrt.FeedEntity) *gtfsrt.FeedMessage {
	return &gtfsrt.FeedMessage{
		Header: &gtfsrt.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Timestamp:           proto.Uint64(1),
		},
		Entity: entities,
	}
}

func tripEntity(id, tripID, routeID string, updates ...*gtfsrt.TripUpdate_StopTimeUpdate) *gtfsrt.FeedEntity {
	return &gtfsrt.FeedEntity{
		Id: proto.String(id),
		TripUpdate: &gtfsrt.TripUpdate{
			Trip: &gtfsrt.TripDescriptor{
				TripId:  proto.String(tripID),
				RouteId: proto.String(routeID),
			},
			StopTimeUpdate: updates,
		},
	}
}

func stopUpdate(stopID string, arrival time.Time) *gtfsrt.TripUpdate_StopTimeUpdate {
	return &gtfsrt.TripUpdate_StopTimeUpdate{
		StopId:  proto.String(stopID),
		Arrival: &gtfsrt.TripUpdate_StopTimeEvent{Time: proto.Int64(arrival.Unix())},
	}
}

func vehicleEntity(id, vehicleID string) *gtfsrt.FeedEntity {
	return &gtfsrt.FeedEntity{
		Id: proto.String(id),
		Vehicle: &gtfsrt.VehiclePosition{
			Vehicle: &gtfsrt.VehicleDescriptor{Id: proto.String(vehicleID)},
		},
	}
}

func mustMarshalFeed(t *testing.T, feed *gtfsrt.FeedMessage) []byte {
	t.Helper()
	b, err := proto.Marshal(feed)
	require.NoError(t, err)
	return b
}
