package handler

import (
	"errors"
	"net/http"

	"neemee-server/internal/config"
	"neemee-server/internal/domain"
)

// APIKeyHandler manages the caller's bookmarklet API key.
type APIKeyHandler struct {
	logger        domain.Logger
	apiKeyService domain.APIKeyService
}

func NewAPIKeyHandler(container *config.Container) *APIKeyHandler {
	return &APIKeyHandler{
		logger:        container.Logger,
		apiKeyService: container.APIKeyService,
	}
}

// GetKey handles GET /api-key. A user without a key gets one minted on
// first read so the bookmarklet setup flow never sees a 404.
func (h *APIKeyHandler) GetKey(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	key, err := h.apiKeyService.GetKey(user.ID)
	if errors.Is(err, domain.ErrAPIKeyNotFound) {
		key, err = h.apiKeyService.Regenerate(user.ID)
	}
	if err != nil {
		h.logger.Error("Failed to get API key", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve API key")
		return
	}
	writeJSON(w, http.StatusOK, key)
}

// RegenerateKey handles POST /api-key/regenerate. The old key stops working.
func (h *APIKeyHandler) RegenerateKey(w http.ResponseWriter, r *http.Request) {
	user, ok := GetUserFromContext(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "User not found in context")
		return
	}

	key, err := h.apiKeyService.Regenerate(user.ID)
	if err != nil {
		h.logger.Error("Failed to regenerate API key", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "Failed to regenerate API key")
		return
	}
	writeJSON(w, http.StatusOK, key)
}
