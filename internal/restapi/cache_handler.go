package restapi

import (
	"log/slog"
	"net/http"

	"aonbas.x341.dev/internal/logging"
	"aonbas.x341.dev/internal/models"
)

// clearCacheHandler drops every cached catalog, metro response, OTP and feed.
func (api *RestAPI) clearCacheHandler(w http.ResponseWriter, r *http.Request) {
	api.Tram.ClearCache()
	logging.LogOperation(logging.FromContext(r.Context()), "cache_cleared",
		slog.String("client_ip", api.proxies.ClientIP(r)))
	api.sendResponse(w, r, models.NewResponse(http.StatusOK, nil, "cache cleared"))
}
