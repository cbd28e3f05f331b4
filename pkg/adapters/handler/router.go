package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/go-shortlink/pkg/config"
	"github.com/wadjakorntonsri/go-shortlink/pkg/logger"
	"github.com/wadjakorntonsri/go-shortlink/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(
	cfg *config.Config,
	service ports.LinkService,
	visits ports.VisitService,
	apiKeys ports.APIKeyRepository,
	log logger.Logger,
) http.Handler {
	h := NewHTTPHandler(service, visits, log)
	mw := NewMiddleware(cfg, apiKeys, log)
	authHandler := NewAuthHandler(cfg, log)

	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	mux.HandleFunc("GET /open/{short_code}", h.Redirect)
	mux.HandleFunc("GET /auth/google/login", authHandler.Login)
	mux.HandleFunc("GET /auth/google/callback", authHandler.Callback)
	mux.HandleFunc("GET /auth/logout", authHandler.Logout)

	// Protected Routes (API & Dashboard)
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("POST /api/v1/links", h.Create)
	protectedMux.HandleFunc("GET /api/v1/links", h.List)
	protectedMux.HandleFunc("GET /api/v1/links/{id}/stats", h.Stats)
	protectedMux.HandleFunc("PUT /api/v1/links/{id}", h.Update)
	protectedMux.HandleFunc("DELETE /api/v1/links/{id}", h.Delete)
	protectedMux.HandleFunc("GET /api/v1/dashboard", h.Dashboard)
	protectedMux.HandleFunc("GET /api/v1/visits/orphan", h.OrphanVisits)

	// protectedMux holds full paths, so the prefix route can hand requests over as is.
	mux.Handle("/api/v1/", mw.AuthMiddleware(protectedMux))

	// Anything else is an orphan visit. Registered without a method so it
	// does not conflict with the /api/v1/ prefix.
	mux.HandleFunc("/", h.NotFound)

	return mux
}
