package restapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"aonbas.x341.dev/internal/logging"
	"aonbas.x341.dev/internal/metro"
	"aonbas.x341.dev/internal/models"
	"aonbas.x341.dev/internal/tram"
)

// writeErrorEnvelope writes a response envelope with no data.
func writeErrorEnvelope(w http.ResponseWriter, status int, text string) error {
	setJSONResponseType(&w)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(models.NewResponse(status, nil, text))
}

func (api *RestAPI) errorResponse(w http.ResponseWriter, status int, text string) {
	if err := writeErrorEnvelope(w, status, text); err != nil {
		api.Logger.Error("failed to encode error response", "error", err)
	}
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(logging.FromContext(r.Context()), "request failed", err,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))
	api.errorResponse(w, http.StatusInternalServerError, "internal server error")
}

// validationErrorResponse sends a 400 Bad Request response with field-specific validation errors
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	response := struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}{
		FieldErrors: fieldErrors,
	}

	setJSONResponseType(&w)
	w.WriteHeader(http.StatusBadRequest)
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		api.Logger.Error("failed to encode validation error response", "error", err)
	}
}

func (api *RestAPI) fieldError(w http.ResponseWriter, r *http.Request, field string, err error) {
	api.validationErrorResponse(w, r, map[string][]string{field: {err.Error()}})
}

// upstreamErrorResponse maps errors coming out of the tram and metro clients.
func (api *RestAPI) upstreamErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tram.ErrUnknownNetwork):
		api.fieldError(w, r, "network", err)
	case errors.Is(err, metro.ErrNotConfigured):
		api.errorResponse(w, http.StatusServiceUnavailable, "metro API credentials are not configured")
	default:
		api.serverErrorResponse(w, r, err)
	}
}
