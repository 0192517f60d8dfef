package restapi

import (
	"net/http"

	"aonbas.x341.dev/internal/models"
	"aonbas.x341.dev/internal/utils"
)

func (api *RestAPI) tramLinesHandler(w http.ResponseWriter, r *http.Request) {
	lines, err := api.Tram.GetLines(r.Context())
	if err != nil {
		api.upstreamErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, models.NewListResponse(lines))
}

func (api *RestAPI) tramStopsHandler(w http.ResponseWriter, r *http.Request) {
	stops, err := api.Tram.FetchAllStops(r.Context())
	if err != nil {
		api.upstreamErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, models.NewListResponse(stops))
}

func (api *RestAPI) tramLineStopsHandler(w http.ResponseWriter, r *http.Request) {
	line := utils.ExtractIDFromParams(r, "line")
	if err := utils.ValidateID(line); err != nil {
		api.fieldError(w, r, "line", err)
		return
	}

	stops, err := api.Tram.FetchStopsForLine(r.Context(), line)
	if err != nil {
		api.upstreamErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, models.NewListResponse(stops))
}

func (api *RestAPI) tramStopHandler(w http.ResponseWriter, r *http.Request) {
	query, err := utils.ValidateAndSanitizeQuery(utils.ExtractIDFromParams(r, "query"))
	if err != nil {
		api.fieldError(w, r, "query", err)
		return
	}

	stop, found, err := api.Tram.ResolveStop(r.Context(), query)
	if err != nil {
		api.upstreamErrorResponse(w, r, err)
		return
	}
	if !found {
		api.sendNotFound(w, r)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(stop))
}

// tramArrivalsHandler lists upcoming arrivals at a stop. The line segment is
// validated but arrivals for every line serving the stop are returned.
func (api *RestAPI) tramArrivalsHandler(w http.ResponseWriter, r *http.Request) {
	fieldErrors := map[string][]string{}
	if err := utils.ValidateID(utils.ExtractIDFromParams(r, "line")); err != nil {
		fieldErrors["line"] = []string{err.Error()}
	}
	query, err := utils.ValidateAndSanitizeQuery(utils.ExtractIDFromParams(r, "stop"))
	if err != nil {
		fieldErrors["stop"] = []string{err.Error()}
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	arrivals, found, err := api.Tram.StopArrivals(r.Context(), query)
	if err != nil {
		api.upstreamErrorResponse(w, r, err)
		return
	}
	if !found {
		api.sendNotFound(w, r)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(arrivals))
}
