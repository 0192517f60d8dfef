package restapi

import (
	"context"
	"encoding/json"
	"net/http"

	"aonbas.x341.dev/internal/models"
	"aonbas.x341.dev/internal/utils"
)

// metroResponse validates the named path parameters and answers with the
// upstream JSON returned by load.
func (api *RestAPI) metroResponse(w http.ResponseWriter, r *http.Request, params []string, load func(ctx context.Context, values []string) (json.RawMessage, error)) {
	values := make([]string, len(params))
	fieldErrors := map[string][]string{}
	for i, name := range params {
		values[i] = utils.ExtractIDFromParams(r, name)
		if err := utils.ValidateID(values[i]); err != nil {
			fieldErrors[name] = []string{err.Error()}
		}
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	body, err := load(r.Context(), values)
	if err != nil {
		api.upstreamErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(body))
}

func (api *RestAPI) metroLinesHandler(w http.ResponseWriter, r *http.Request) {
	api.metroResponse(w, r, nil, func(ctx context.Context, _ []string) (json.RawMessage, error) {
		return api.Metro.Lines(ctx)
	})
}

func (api *RestAPI) metroStationsHandler(w http.ResponseWriter, r *http.Request) {
	api.metroResponse(w, r, []string{"line"}, func(ctx context.Context, v []string) (json.RawMessage, error) {
		return api.Metro.Stations(ctx, v[0])
	})
}

func (api *RestAPI) metroTrainsHandler(w http.ResponseWriter, r *http.Request) {
	api.metroResponse(w, r, []string{"line", "station"}, func(ctx context.Context, v []string) (json.RawMessage, error) {
		return api.Metro.Trains(ctx, v[1])
	})
}

func (api *RestAPI) metroInterchangesHandler(w http.ResponseWriter, r *http.Request) {
	api.metroResponse(w, r, []string{"line", "station"}, func(ctx context.Context, v []string) (json.RawMessage, error) {
		return api.Metro.Interchanges(ctx, v[0], v[1])
	})
}
