package restapi

import (
	"encoding/json"
	"net/http"

	"aonbas.x341.dev/internal/models"
	"aonbas.x341.dev/internal/utils"
)

const maxOtpBodyBytes = 8 << 10

type createOtpRequest struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

func (api *RestAPI) createOtpHandler(w http.ResponseWriter, r *http.Request) {
	var req createOtpRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxOtpBodyBytes))
	if err := dec.Decode(&req); err != nil {
		api.fieldError(w, r, "body", err)
		return
	}

	fieldErrors := map[string][]string{}
	if err := utils.ValidateID(req.Type); err != nil {
		fieldErrors["type"] = []string{err.Error()}
	}
	if err := utils.ValidatePayload(req.Payload); err != nil {
		fieldErrors["payload"] = []string{err.Error()}
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	otp, err := api.Otp.Create(req.Type, req.Payload)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, models.NewResponse(http.StatusCreated, map[string]interface{}{"entry": otp}, "Created"))
}

func (api *RestAPI) getOtpHandler(w http.ResponseWriter, r *http.Request) {
	id := utils.ExtractIDFromParams(r, "id")
	if err := utils.ValidateID(id); err != nil {
		api.fieldError(w, r, "id", err)
		return
	}

	otp, ok := api.Otp.Get(id)
	if !ok {
		api.sendNotFound(w, r)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(otp))
}

func (api *RestAPI) deleteOtpHandler(w http.ResponseWriter, r *http.Request) {
	id := utils.ExtractIDFromParams(r, "id")
	if err := utils.ValidateID(id); err != nil {
		api.fieldError(w, r, "id", err)
		return
	}

	if !api.Otp.Remove(id) {
		api.sendNotFound(w, r)
		return
	}
	api.sendResponse(w, r, models.NewResponse(http.StatusOK, nil, "OTP removed"))
}
