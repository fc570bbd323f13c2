package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"neemee-server/internal/config"
	"neemee-server/internal/domain"

	"github.com/gorilla/mux"
)

// HighlightHandler handles highlight-related HTTP requests.
type HighlightHandler struct {
	logger            domain.Logger
	highlightService  domain.HighlightService
	extractionService domain.ExtractionService
	apiKeyService     domain.APIKeyService
}

func NewHighlightHandler(container *config.Container) *HighlightHandler {
	return &HighlightHandler{
		logger:            container.Logger,
		highlightService:  container.HighlightService,
		extractionService: container.ExtractionService,
		apiKeyService:     container.APIKeyService,
	}
}

type captureRequest struct {
	HighlightedText string `json:"highlighted_text"`
	PageURL         string `json:"page_url"`
	PageTitle       string `json:"page_title,omitempty"`
	APIKey          string `json:"api_key"`
}

// Capture handles POST /highlights/capture. The bookmarklet authenticates
// with the api_key field in the body because it cannot send session cookies
// cross-origin.
func (h *HighlightHandler) Capture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.APIKey == "" {
		writeError(w, http.StatusUnauthorized, "api_key is required")
		return
	}
	userID, err := h.apiKeyService.Resolve(req.APIKey)
	if err != nil {
		h.logger.Warn("Capture with unresolvable API key")
		writeError(w, http.StatusUnauthorized, "Invalid API key")
		return
	}

	result, err := h.highlightService.Capture(userID, &domain.HighlightInput{
		HighlightedText: req.HighlightedText,
		PageURL:         req.PageURL,
		PageTitle:       req.PageTitle,
	})
	if err != nil {
		h.logger.Error("Failed to capture highlight", err, "user_id", userID)
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// ListHighlights handles GET /highlights/list
func (h *HighlightHandler) ListHighlights(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	opts := domain.ListOptions{
		Search: r.URL.Query().Get("search"),
		Domain: r.URL.Query().Get("domain"),
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		opts.Page = page
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		opts.Limit = limit
	}
	if start, ok := parseDateParam(r.URL.Query().Get("start_date")); ok {
		opts.StartDate = &start
	}
	if end, ok := parseDateParam(r.URL.Query().Get("end_date")); ok {
		opts.EndDate = &end
	}

	page, err := h.highlightService.ListHighlights(user.ID, opts)
	if err != nil {
		h.logger.Error("Failed to list highlights", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve highlights")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetHighlight handles GET /highlights/{id}
func (h *HighlightHandler) GetHighlight(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	highlight, err := h.highlightService.GetHighlight(user.ID, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, highlight)
}

type updateHighlightRequest struct {
	HighlightedText string `json:"highlighted_text"`
	PageURL         string `json:"page_url"`
	PageTitle       string `json:"page_title,omitempty"`
}

// UpdateHighlight handles PUT /highlights/{id}
func (h *HighlightHandler) UpdateHighlight(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	var req updateHighlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.highlightService.UpdateHighlight(user.ID, mux.Vars(r)["id"], &domain.HighlightInput{
		HighlightedText: req.HighlightedText,
		PageURL:         req.PageURL,
		PageTitle:       req.PageTitle,
	})
	if err != nil {
		h.logger.Error("Failed to update highlight", err, "user_id", user.ID)
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteHighlight handles DELETE /highlights/{id}
func (h *HighlightHandler) DeleteHighlight(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	if err := h.highlightService.DeleteHighlight(user.ID, mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStatus handles GET /highlights/{id}/status and returns the stored
// status plus its display mapping.
func (h *HighlightHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	highlight, err := h.highlightService.GetHighlight(user.ID, mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"highlight_id": highlight.ID,
		"status":       highlight.Metadata.ContentStatus,
		"presentation": domain.PresentStatus(highlight.Metadata.ContentStatus),
		"metadata":     highlight.Metadata,
	})
}

// ExtractContent handles POST /highlights/{id}/extract-content
func (h *HighlightHandler) ExtractContent(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	result, err := h.extractionService.ExtractContent(r.Context(), user.ID, mux.Vars(r)["id"])
	if err != nil {
		h.logger.Error("Extraction request failed", err, "user_id", user.ID)
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ExtractionCallback handles POST /highlights/extraction-callback, the
// backend's late-result webhook.
func (h *HighlightHandler) ExtractionCallback(w http.ResponseWriter, r *http.Request) {
	var cb domain.ExtractionCallback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.extractionService.ApplyCallback(&cb); err != nil {
		h.logger.Error("Failed to apply extraction callback", err, "highlight_id", cb.HighlightID)
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func parseDateParam(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}
