package restapi

import (
	"net/http"
	"time"

	"aonbas.x341.dev/internal/models"
)

func (api *RestAPI) statusHandler(w http.ResponseWriter, r *http.Request) {
	api.sendResponse(w, r, models.NewEntryResponse(models.NewStatus(time.Now())))
}
