package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"aonbas.x341.dev/internal/appconf"
	"aonbas.x341.dev/internal/webui"
)

// Routes registers every endpoint on a new router.
func (api *RestAPI) Routes() *httprouter.Router {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(api.sendNotFound)
	router.MethodNotAllowed = http.HandlerFunc(api.methodNotAllowed)
	api.SetRoutes(router)
	if api.Config.Env != appconf.Production {
		webui.SetWebUIRoutes(router, api.Application)
	}
	return router
}

func (api *RestAPI) SetRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodGet, "/status", api.statusHandler)

	router.HandlerFunc(http.MethodGet, "/metro/lines", api.metroLinesHandler)
	router.HandlerFunc(http.MethodGet, "/metro/line/:line", api.metroStationsHandler)
	router.HandlerFunc(http.MethodGet, "/metro/line/:line/station/:station", api.metroTrainsHandler)
	router.HandlerFunc(http.MethodGet, "/metro/line/:line/station/:station/corresp", api.metroInterchangesHandler)

	router.HandlerFunc(http.MethodGet, "/tram", api.tramLinesHandler)
	router.HandlerFunc(http.MethodGet, "/tram/lines", api.tramLinesHandler)
	router.HandlerFunc(http.MethodGet, "/tram/stops", api.tramStopsHandler)
	router.HandlerFunc(http.MethodGet, "/tram/line/:line", api.tramLineStopsHandler)
	router.HandlerFunc(http.MethodGet, "/tram/line/:line/stop/:stop", api.tramArrivalsHandler)
	router.HandlerFunc(http.MethodGet, "/tram/stop/:query", api.tramStopHandler)
	router.HandlerFunc(http.MethodGet, "/tram/codes", api.tramCodesHandler)
	router.HandlerFunc(http.MethodGet, "/tram/check-missing/:network", api.tramMissingStopsHandler)
	router.HandlerFunc(http.MethodGet, "/tram/realtime/:network", api.tramRealtimeHandler)

	router.HandlerFunc(http.MethodDelete, "/cache", api.clearCacheHandler)

	router.HandlerFunc(http.MethodPost, "/otp", api.createOtpHandler)
	router.HandlerFunc(http.MethodGet, "/otp/:id", api.getOtpHandler)
	router.HandlerFunc(http.MethodDelete, "/otp/:id", api.deleteOtpHandler)
}

func (api *RestAPI) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	api.errorResponse(w, http.StatusMethodNotAllowed, "method not allowed")
}
