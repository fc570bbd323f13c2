package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"neemee-server/internal/config"
)

func newRouterContainer() *config.Container {
	return &config.Container{
		Config: &config.AppConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			BackendAPIKey:  "backend-secret",
		},
		Logger:            NewMockHandlerLogger(),
		AuthService:       &mockAuthService{},
		APIKeyService:     &mockAPIKeyService{users: map[string]string{}},
		HighlightService:  newMockHighlightService(),
		ExtractionService: &mockExtractionService{},
	}
}

func TestRouter_Health(t *testing.T) {
	router := NewRouter(newRouterContainer())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "neemee-server") {
		t.Fatalf("unexpected health body: %s", rr.Body.String())
	}
}

func TestRouter_ListRequiresAuth(t *testing.T) {
	router := NewRouter(newRouterContainer())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/highlights/list", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestRouter_CaptureIsCORSOpen(t *testing.T) {
	router := NewRouter(newRouterContainer())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/highlights/capture", nil)
	req.Header.Set("Origin", "https://any-page.example.net")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard CORS on capture, got %q", got)
	}
}

func TestRouter_CallbackRejectsWithoutSecret(t *testing.T) {
	router := NewRouter(newRouterContainer())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/highlights/extraction-callback", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}
