package handler

import (
	"context"
	"net/http"
	"strings"

	"neemee-server/internal/domain"
	"neemee-server/internal/service"
)

// AuthMiddleware authenticates requests either with a Supabase session JWT
// or with a per-user bookmarklet API key.
type AuthMiddleware struct {
	authService   domain.AuthService
	apiKeyService domain.APIKeyService
	logger        domain.Logger
}

func NewAuthMiddleware(authService domain.AuthService, apiKeyService domain.APIKeyService, logger domain.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authService:   authService,
		apiKeyService: apiKeyService,
		logger:        logger,
	}
}

// Session validates a Supabase JWT from the Authorization header.
func (m *AuthMiddleware) Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(w, r)
		if !ok {
			return
		}

		user, err := m.authService.ValidateToken(token)
		if err != nil {
			m.logger.Error("Token validation failed", err)
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		ctx = context.WithValue(ctx, tokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionOrAPIKey accepts either a session JWT or an API key. The key may
// arrive in the X-API-Key header or as an Authorization bearer credential.
func (m *AuthMiddleware) SessionOrAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
			m.serveWithAPIKey(next, w, r, key)
			return
		}

		token, ok := bearerToken(w, r)
		if !ok {
			return
		}
		if service.IsAPIKey(token) {
			m.serveWithAPIKey(next, w, r, token)
			return
		}

		user, err := m.authService.ValidateToken(token)
		if err != nil {
			m.logger.Error("Token validation failed", err)
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		ctx = context.WithValue(ctx, tokenContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) serveWithAPIKey(next http.Handler, w http.ResponseWriter, r *http.Request, key string) {
	userID, err := m.apiKeyService.Resolve(key)
	if err != nil {
		m.logger.Warn("API key resolution failed", "error", err)
		writeError(w, http.StatusUnauthorized, "Invalid API key")
		return
	}
	ctx := context.WithValue(r.Context(), userContextKey, &domain.SupabaseUser{ID: userID})
	next.ServeHTTP(w, r.WithContext(ctx))
}

func bearerToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		writeError(w, http.StatusUnauthorized, "Authorization header required")
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
		return "", false
	}
	if parts[1] == "" {
		writeError(w, http.StatusUnauthorized, "Token required")
		return "", false
	}
	return parts[1], true
}

// BackendMiddleware authenticates the extraction backend's callback requests
// with the shared X-API-Key secret.
type BackendMiddleware struct {
	backendAPIKey string
	logger        domain.Logger
}

func NewBackendMiddleware(backendAPIKey string, logger domain.Logger) *BackendMiddleware {
	return &BackendMiddleware{backendAPIKey: backendAPIKey, logger: logger}
}

func (m *BackendMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-API-Key")
		if m.backendAPIKey == "" || key != m.backendAPIKey {
			m.logger.Warn("Rejected callback with invalid backend key")
			writeError(w, http.StatusUnauthorized, "Invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}
