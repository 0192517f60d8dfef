package webui

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"aonbas.x341.dev/internal/app"
)

// WebUI serves debugging pages over the application's cached data.
type WebUI struct {
	*app.Application
}

func SetWebUIRoutes(router *httprouter.Router, application *app.Application) {
	webUI := &WebUI{Application: application}
	router.HandlerFunc(http.MethodGet, "/debug", webUI.debugIndexHandler)
}
