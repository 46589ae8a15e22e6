package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool, metrics http.Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerReadRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/football/fixtures", handler.ListFixtures)
	mux.HandleFunc("GET /v1/ufc/events", handler.ListEvents)
	mux.HandleFunc("GET /v1/status", handler.Status)
}

func registerMutatingRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/refresh", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RefreshAll)))
	mux.Handle("POST /v1/refresh/football", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RefreshFootball)))
	mux.Handle("POST /v1/refresh/ufc", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RefreshUFC)))
	mux.Handle("POST /v1/cleanup", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.Cleanup)))
}
