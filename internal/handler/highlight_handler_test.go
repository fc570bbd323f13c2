package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"neemee-server/internal/config"
	"neemee-server/internal/domain"

	"github.com/gorilla/mux"
)

func muxSetVars(r *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(r, vars)
}

type mockHighlightService struct {
	captured    *domain.HighlightInput
	capturedFor string
	highlights  map[string]*domain.Highlight
	page        *domain.HighlightPage
}

func newMockHighlightService() *mockHighlightService {
	return &mockHighlightService{highlights: make(map[string]*domain.Highlight)}
}

func (m *mockHighlightService) Capture(userID string, input *domain.HighlightInput) (*domain.CaptureResult, error) {
	if _, err := input.Validate(); err != nil {
		return nil, err
	}
	m.captured = input
	m.capturedFor = userID
	return &domain.CaptureResult{Success: true, Message: "Highlight saved", HighlightID: "h-1"}, nil
}

func (m *mockHighlightService) GetHighlight(userID, id string) (*domain.Highlight, error) {
	h, ok := m.highlights[id]
	if !ok || h.UserID != userID {
		return nil, domain.ErrHighlightNotFound
	}
	return h, nil
}

func (m *mockHighlightService) ListHighlights(userID string, opts domain.ListOptions) (*domain.HighlightPage, error) {
	if m.page != nil {
		return m.page, nil
	}
	return &domain.HighlightPage{Highlights: []*domain.Highlight{}, Page: 1, Limit: 20}, nil
}

func (m *mockHighlightService) UpdateHighlight(userID, id string, input *domain.HighlightInput) (*domain.Highlight, error) {
	if _, err := input.Validate(); err != nil {
		return nil, err
	}
	h, ok := m.highlights[id]
	if !ok || h.UserID != userID {
		return nil, domain.ErrHighlightNotFound
	}
	h.HighlightedText = input.HighlightedText
	return h, nil
}

func (m *mockHighlightService) DeleteHighlight(userID, id string) error {
	h, ok := m.highlights[id]
	if !ok || h.UserID != userID {
		return domain.ErrHighlightNotFound
	}
	delete(m.highlights, id)
	return nil
}

type mockExtractionService struct {
	result   *domain.ExtractionResult
	err      error
	callback *domain.ExtractionCallback
}

func (m *mockExtractionService) ExtractContent(ctx context.Context, userID, highlightID string) (*domain.ExtractionResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockExtractionService) ApplyCallback(cb *domain.ExtractionCallback) error {
	m.callback = cb
	return m.err
}

type mockAPIKeyService struct {
	users map[string]string // key -> user id
	key   *domain.UserAPIKey
}

func (m *mockAPIKeyService) Resolve(key string) (string, error) {
	userID, ok := m.users[key]
	if !ok {
		return "", domain.ErrInvalidAPIKey
	}
	return userID, nil
}

func (m *mockAPIKeyService) GetKey(userID string) (*domain.UserAPIKey, error) {
	if m.key == nil {
		return nil, domain.ErrAPIKeyNotFound
	}
	return m.key, nil
}

func (m *mockAPIKeyService) Regenerate(userID string) (*domain.UserAPIKey, error) {
	m.key = &domain.UserAPIKey{Key: "nm_fresh", UserID: userID}
	return m.key, nil
}

func newTestContainer(highlights *mockHighlightService, extraction *mockExtractionService, apiKeys *mockAPIKeyService) *config.Container {
	return &config.Container{
		Logger:            NewMockHandlerLogger(),
		HighlightService:  highlights,
		ExtractionService: extraction,
		APIKeyService:     apiKeys,
	}
}

func captureBody(text, url, title, apiKey string) *bytes.Buffer {
	body, _ := json.Marshal(map[string]string{
		"highlighted_text": text,
		"page_url":         url,
		"page_title":       title,
		"api_key":          apiKey,
	})
	return bytes.NewBuffer(body)
}

func TestCapture_Success(t *testing.T) {
	highlights := newMockHighlightService()
	apiKeys := &mockAPIKeyService{users: map[string]string{"nm_good": "user-1"}}
	h := NewHighlightHandler(newTestContainer(highlights, &mockExtractionService{}, apiKeys))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/highlights/capture", captureBody("Hello world", "https://example.com/a", "A", "nm_good"))
	rr := httptest.NewRecorder()

	h.Capture(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}

	var result domain.CaptureResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.Success || result.HighlightID != "h-1" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if highlights.capturedFor != "user-1" {
		t.Fatalf("expected capture attributed to user-1, got %q", highlights.capturedFor)
	}
}

func TestCapture_MissingAPIKey(t *testing.T) {
	highlights := newMockHighlightService()
	apiKeys := &mockAPIKeyService{users: map[string]string{}}
	h := NewHighlightHandler(newTestContainer(highlights, &mockExtractionService{}, apiKeys))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/highlights/capture", captureBody("Hello", "https://example.com/a", "", ""))
	rr := httptest.NewRecorder()

	h.Capture(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
	if highlights.captured != nil {
		t.Fatalf("expected no capture without a key")
	}
}

func TestCapture_InvalidAPIKey(t *testing.T) {
	highlights := newMockHighlightService()
	apiKeys := &mockAPIKeyService{users: map[string]string{"nm_good": "user-1"}}
	h := NewHighlightHandler(newTestContainer(highlights, &mockExtractionService{}, apiKeys))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/highlights/capture", captureBody("Hello", "https://example.com/a", "", "nm_stale"))
	rr := httptest.NewRecorder()

	h.Capture(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
	if highlights.captured != nil {
		t.Fatalf("expected no capture with an invalid key")
	}
}

func TestCapture_InvalidInput(t *testing.T) {
	cases := []struct {
		name string
		text string
		url  string
	}{
		{"empty text", "   ", "https://example.com/a"},
		{"bad url", "Hello", "not a url"},
		{"too long", strings.Repeat("a", domain.MaxHighlightTextLength+1), "https://example.com/a"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			highlights := newMockHighlightService()
			apiKeys := &mockAPIKeyService{users: map[string]string{"nm_good": "user-1"}}
			h := NewHighlightHandler(newTestContainer(highlights, &mockExtractionService{}, apiKeys))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/highlights/capture", captureBody(tc.text, tc.url, "", "nm_good"))
			rr := httptest.NewRecorder()

			h.Capture(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
			}
			if highlights.captured != nil {
				t.Fatalf("expected no capture for invalid input")
			}
		})
	}
}

func TestCapture_InvalidBody(t *testing.T) {
	h := NewHighlightHandler(newTestContainer(newMockHighlightService(), &mockExtractionService{}, &mockAPIKeyService{}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/highlights/capture", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()

	h.Capture(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestExtractionCallback_Applied(t *testing.T) {
	extraction := &mockExtractionService{}
	h := NewHighlightHandler(newTestContainer(newMockHighlightService(), extraction, &mockAPIKeyService{}))

	body, _ := json.Marshal(domain.ExtractionCallback{
		HighlightID:     "h-1",
		UserID:          "user-1",
		Status:          "success",
		MarkdownContent: "# Hello",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/highlights/extraction-callback", bytes.NewBuffer(body))
	rr := httptest.NewRecorder()

	h.ExtractionCallback(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if extraction.callback == nil || extraction.callback.HighlightID != "h-1" {
		t.Fatalf("expected callback forwarded to service")
	}
}

func withUser(req *http.Request, userID string) *http.Request {
	ctx := context.WithValue(req.Context(), userContextKey, &domain.SupabaseUser{ID: userID})
	return req.WithContext(ctx)
}

func TestGetStatus_IncludesPresentation(t *testing.T) {
	highlights := newMockHighlightService()
	highlights.highlights["h-1"] = &domain.Highlight{
		ID:     "h-1",
		UserID: "user-1",
		Metadata: domain.HighlightMetadata{
			ContentStatus: domain.StatusProcessing,
		},
	}
	h := NewHighlightHandler(newTestContainer(highlights, &mockExtractionService{}, &mockAPIKeyService{}))

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/highlights/h-1/status", nil), "user-1")
	req = muxSetVars(req, map[string]string{"id": "h-1"})
	rr := httptest.NewRecorder()

	h.GetStatus(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var payload struct {
		Status       string                    `json:"status"`
		Presentation domain.StatusPresentation `json:"presentation"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Status != "processing" {
		t.Fatalf("expected processing status, got %q", payload.Status)
	}
	if !payload.Presentation.Animating {
		t.Fatalf("expected processing presentation to animate")
	}
}

func TestGetHighlight_OtherUserNotFound(t *testing.T) {
	highlights := newMockHighlightService()
	highlights.highlights["h-1"] = &domain.Highlight{ID: "h-1", UserID: "user-1"}
	h := NewHighlightHandler(newTestContainer(highlights, &mockExtractionService{}, &mockAPIKeyService{}))

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/highlights/h-1", nil), "user-2")
	req = muxSetVars(req, map[string]string{"id": "h-1"})
	rr := httptest.NewRecorder()

	h.GetHighlight(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestDeleteHighlight_NoContent(t *testing.T) {
	highlights := newMockHighlightService()
	highlights.highlights["h-1"] = &domain.Highlight{ID: "h-1", UserID: "user-1"}
	h := NewHighlightHandler(newTestContainer(highlights, &mockExtractionService{}, &mockAPIKeyService{}))

	req := withUser(httptest.NewRequest(http.MethodDelete, "/api/v1/highlights/h-1", nil), "user-1")
	req = muxSetVars(req, map[string]string{"id": "h-1"})
	rr := httptest.NewRecorder()

	h.DeleteHighlight(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rr.Code)
	}
	if _, ok := highlights.highlights["h-1"]; ok {
		t.Fatalf("expected highlight removed")
	}
}
