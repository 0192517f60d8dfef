package restapi

import (
	"net/http"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"aonbas.x341.dev/internal/utils"
)

const protobufContentType = "application/x-protobuf"

// tramRealtimeHandler serves the merged GTFS-Realtime feed of a network as
// protobuf, or as protojson with ?format=json. The body is the bare feed so
// that GTFS-Realtime consumers can read it directly.
func (api *RestAPI) tramRealtimeHandler(w http.ResponseWriter, r *http.Request) {
	network := utils.ExtractIDFromParams(r, "network")
	if err := utils.ValidateID(network); err != nil {
		api.fieldError(w, r, "network", err)
		return
	}

	feed, err := api.Tram.GetMergedFeed(r.Context(), network)
	if err != nil {
		api.upstreamErrorResponse(w, r, err)
		return
	}

	var (
		body        []byte
		contentType string
	)
	if r.URL.Query().Get("format") == "json" {
		body, err = protojson.MarshalOptions{UseProtoNames: true}.Marshal(feed)
		contentType = "application/json"
	} else {
		body, err = proto.Marshal(feed)
		contentType = protobufContentType
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	if _, err := w.Write(body); err != nil {
		api.Logger.Error("failed to write feed", "error", err)
	}
}
