package restapi

import (
	"net/http"
	"time"

	"aonbas.x341.dev/internal/app"
	"aonbas.x341.dev/internal/logging"
	"aonbas.x341.dev/internal/utils"
)

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
	proxies     utils.ProxyTrust
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	proxies, err := utils.NewProxyTrust(app.Config.TrustedProxies)
	if err != nil {
		// Config validation rejects bad entries; trust nobody if one slips through.
		logging.LogError(app.Logger, "ignoring trusted proxies", err)
		proxies = utils.ProxyTrust{}
	}
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second, proxies),
		proxies:     proxies,
	}
}

// Handler returns the routed API wrapped in the middleware chain:
// request logging, security headers, rate limiting and compression.
func (api *RestAPI) Handler() http.Handler {
	var handler http.Handler = api.Routes()
	handler = CompressionMiddleware(handler)
	handler = api.rateLimiter.Handler(handler)
	handler = api.WithSecurityHeaders(handler)
	handler = NewRequestLoggingMiddleware(api.Logger, api.proxies)(handler)
	return handler
}

// Shutdown releases background resources held by the middleware.
func (api *RestAPI) Shutdown() {
	api.rateLimiter.Stop()
}
