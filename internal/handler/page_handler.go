package handler

import (
	"encoding/json"
	"net/http"

	"neemee-server/internal/config"
	"neemee-server/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// maxCachedPageBytes bounds the HTML payload accepted into the page cache.
const maxCachedPageBytes = 5 << 20

// PageHandler serves the capture-redirect flow: the bookmarklet stashes the
// current page's HTML under a one-shot token, and the web app picks it up
// from any server instance.
type PageHandler struct {
	logger    domain.Logger
	pageCache domain.PageCache
}

func NewPageHandler(container *config.Container) *PageHandler {
	return &PageHandler{
		logger:    container.Logger,
		pageCache: container.PageCache,
	}
}

type cachePageRequest struct {
	HTML string `json:"html"`
}

// CachePage handles POST /pages/cache
func (h *PageHandler) CachePage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCachedPageBytes)

	var req cachePageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.HTML == "" {
		writeError(w, http.StatusBadRequest, "html is required")
		return
	}

	token := uuid.NewString()
	if err := h.pageCache.Put(r.Context(), token, req.HTML); err != nil {
		h.logger.Error("Failed to cache page html", err)
		writeError(w, http.StatusInternalServerError, "Failed to cache page")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"token": token})
}

// GetCachedPage handles GET /pages/cache/{token}. The entry is consumed by
// the read.
func (h *PageHandler) GetCachedPage(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	if token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	html, err := h.pageCache.Take(r.Context(), token)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}
