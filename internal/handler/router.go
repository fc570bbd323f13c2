package handler

import (
	"net/http"

	"neemee-server/internal/config"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured.
//
// Bookmarklet routes (capture, page cache) are CORS-open because the
// bookmarklet posts from arbitrary page origins; they authenticate with the
// per-user API key instead of a session. Everything else runs behind the
// configured origin allowlist.
func NewRouter(container *config.Container) http.Handler {
	authMiddleware := NewAuthMiddleware(container.AuthService, container.APIKeyService, container.Logger)
	backendMiddleware := NewBackendMiddleware(container.Config.GetBackendAPIKey(), container.Logger)

	authHandler := NewAuthHandler(container)
	highlightHandler := NewHighlightHandler(container)
	apiKeyHandler := NewAPIKeyHandler(container)
	pageHandler := NewPageHandler(container)

	// Bookmarklet routes, CORS-open.
	open := mux.NewRouter()
	open.HandleFunc("/api/v1/highlights/capture", highlightHandler.Capture).Methods("POST", "OPTIONS")
	open.Handle("/api/v1/pages/cache", authMiddleware.SessionOrAPIKey(http.HandlerFunc(pageHandler.CachePage))).Methods("POST", "OPTIONS")
	openHandler := cors.AllowAll().Handler(open)

	// Session routes.
	router := mux.NewRouter()

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"neemee-server"}`))
	}).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	// Extraction backend callback (shared-secret auth, no CORS involved).
	api.Handle("/highlights/extraction-callback",
		backendMiddleware.Middleware(http.HandlerFunc(highlightHandler.ExtractionCallback))).Methods("POST")

	// Manual extraction accepts a session token or the bookmarklet key.
	api.Handle("/highlights/{id}/extract-content",
		authMiddleware.SessionOrAPIKey(http.HandlerFunc(highlightHandler.ExtractContent))).Methods("POST")

	// One-shot page retrieval for the capture-redirect flow.
	api.Handle("/pages/cache/{token}",
		authMiddleware.Session(http.HandlerFunc(pageHandler.GetCachedPage))).Methods("GET")

	// Protected routes (require session authentication)
	protected := api.PathPrefix("").Subrouter()
	protected.Use(authMiddleware.Session)

	protected.HandleFunc("/auth/profile", authHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/auth/validate", authHandler.ValidateToken).Methods("GET")

	protected.HandleFunc("/highlights/list", highlightHandler.ListHighlights).Methods("GET")
	protected.HandleFunc("/highlights/{id}", highlightHandler.GetHighlight).Methods("GET")
	protected.HandleFunc("/highlights/{id}", highlightHandler.UpdateHighlight).Methods("PUT")
	protected.HandleFunc("/highlights/{id}", highlightHandler.DeleteHighlight).Methods("DELETE")
	protected.HandleFunc("/highlights/{id}/status", highlightHandler.GetStatus).Methods("GET")

	protected.HandleFunc("/api-key", apiKeyHandler.GetKey).Methods("GET")
	protected.HandleFunc("/api-key/regenerate", apiKeyHandler.RegenerateKey).Methods("POST")

	c := cors.New(cors.Options{
		AllowedOrigins: container.Config.GetAllowedOrigins(),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-API-Key",
		},
		ExposedHeaders: []string{
			"Link",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})
	mainHandler := c.Handler(router)

	// Route the two bookmarklet paths to the open handler, everything else
	// to the allowlisted one.
	root := mux.NewRouter()
	root.PathPrefix("/api/v1/highlights/capture").Handler(openHandler)
	root.Path("/api/v1/pages/cache").Handler(openHandler)
	root.PathPrefix("/").Handler(mainHandler)

	return root
}
