package restapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	gtfsrt "github.com/jamespfennell/gtfs/proto"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"aonbas.x341.dev/internal/app"
	"aonbas.x341.dev/internal/appconf"
	"aonbas.x341.dev/internal/logging"
	"aonbas.x341.dev/internal/models"
)

const testAppKey = "s3cret"

// upstream emulates both the tram open data API and, under /tmb, the TMB API.
type upstream struct {
	t *testing.T

	mu      sync.Mutex
	hits    map[string]int
	failing map[string]int
	feeds   map[string][]byte
}

func newUpstream(t *testing.T) *upstream {
	now := time.Now()
	u := &upstream{
		t:       t,
		hits:    map[string]int{},
		failing: map[string]int{},
		feeds:   map[string][]byte{},
	}
	u.feeds["/gtfsrealtime?1"] = marshalFeed(t,
		tripEntity("b1", "besos-1", "T4",
			stopUpdate("BS01", now.Add(5*time.Minute)),
			stopUpdate("ZZ99", now.Add(7*time.Minute))))
	u.feeds["/gtfsrealtime/vehicleUpdate?1"] = marshalFeed(t, vehicleEntity("v1", "tram-11"))
	u.feeds["/gtfsrealtime?2"] = marshalFeed(t,
		tripEntity("x2", "baix-late", "T1", stopUpdate("BX07", now.Add(10*time.Minute))),
		tripEntity("x1", "baix-soon", "T2", stopUpdate("bx07", now.Add(2*time.Minute))))
	return u
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.hits[r.URL.Path]++
	status, fail := u.failing[r.URL.Path]
	u.mu.Unlock()

	if fail {
		http.Error(w, "upstream failure", status)
		return
	}

	networkID := r.URL.Query().Get("networkId")
	switch {
	case strings.HasPrefix(r.URL.Path, "/tmb/"):
		if r.URL.Query().Get("app_key") != testAppKey {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"type":"FeatureCollection","features":[{"id":1}]}`)
	case r.URL.Path == "/lines":
		_, _ = io.WriteString(w, `[{"id":1,"name":"T1"},{"id":2,"name":"T4"}]`)
	case r.URL.Path == "/stops":
		if networkID == "1" {
			_, _ = io.WriteString(w, `{"data":[{"id":1,"name":"Glòries","gtfsCode":"BS01","lat":41.40,"lon":2.19}]}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":[{"id":7,"name":"Francesc Macià","gtfsCode":"BX07","lat":41.39,"lon":2.14}]}`)
	case r.URL.Path == "/lines/T1/stops":
		_, _ = io.WriteString(w, `[{"id":7,"name":"Francesc Macià","gtfsCode":"BX07"}]`)
	case strings.HasPrefix(r.URL.Path, "/gtfsrealtime"):
		u.mu.Lock()
		body, ok := u.feeds[r.URL.Path+"?"+networkID]
		u.mu.Unlock()
		if !ok {
			body = marshalFeed(u.t)
		}
		w.Header().Set("Content-Type", protobufContentType)
		_, _ = w.Write(body)
	default:
		http.NotFound(w, r)
	}
}

func (u *upstream) fail(path string, status int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failing[path] = status
}

func (u *upstream) hitCount(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

// createTestApi builds a RestAPI backed by a fake upstream. configure may
// adjust the configuration before the application is wired.
func createTestApi(t *testing.T, configure ...func(*appconf.Config)) (*RestAPI, *upstream) {
	t.Helper()

	u := newUpstream(t)
	server := httptest.NewServer(u)
	t.Cleanup(server.Close)

	cfg := appconf.Defaults()
	cfg.Env = appconf.EnvFlagToEnvironment("test")
	cfg.RateLimit = 0
	cfg.TramBaseURL = server.URL
	cfg.TMBBaseURL = server.URL + "/tmb"
	cfg.TMBAppID = "app"
	cfg.TMBAppKey = testAppKey
	for _, fn := range configure {
		fn(&cfg)
	}

	logger := logging.NewStructuredLogger(io.Discard, slog.LevelError)
	api := NewRestAPI(app.New(cfg, logger))
	t.Cleanup(api.Shutdown)
	return api, u
}

func doRequest(t *testing.T, api *RestAPI, method, endpoint string, body io.Reader) *http.Response {
	t.Helper()

	server := httptest.NewServer(api.Handler())
	t.Cleanup(server.Close)

	req, err := http.NewRequest(method, server.URL+endpoint, body)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

// serveApiAndRetrieveEndpoint issues a request and decodes the response envelope.
func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, method, endpoint string, body io.Reader) (*http.Response, models.ResponseModel) {
	t.Helper()

	resp := doRequest(t, api, method, endpoint, body)
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "test")),
		"http_response_body")

	var model models.ResponseModel
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&model))
	return resp, model
}

func entryOf(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object")
	entry, ok := data["entry"].(map[string]interface{})
	require.True(t, ok, "data.entry should be an object")
	return entry
}

func listOf(t *testing.T, model models.ResponseModel) []interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object")
	list, ok := data["list"].([]interface{})
	require.True(t, ok, "data.list should be an array")
	return list
}

func marshalFeed(t *testing.T, entities ...*gtfsrt.FeedEntity) []byte {
	t.Helper()
	b, err := proto.Marshal(&gtfsrt.FeedMessage{
		Header: &gtfsrt.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Timestamp:           proto.Uint64(uint64(time.Now().Unix())),
		},
		Entity: entities,
	})
	require.NoError(t, err)
	return b
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
