package restapi

import (
	"net/http"

	"aonbas.x341.dev/internal/models"
	"aonbas.x341.dev/internal/utils"
)

func (api *RestAPI) tramCodesHandler(w http.ResponseWriter, r *http.Request) {
	codes, err := api.Tram.ListGtfsCodes(r.Context())
	if err != nil {
		api.upstreamErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, models.NewListResponse(codes))
}

func (api *RestAPI) tramMissingStopsHandler(w http.ResponseWriter, r *http.Request) {
	network := utils.ExtractIDFromParams(r, "network")
	if err := utils.ValidateID(network); err != nil {
		api.fieldError(w, r, "network", err)
		return
	}

	missing, err := api.Tram.FindMissingStaticStops(r.Context(), network)
	if err != nil {
		api.upstreamErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, models.NewListResponse(missing))
}
