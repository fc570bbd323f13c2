package service

import (
	"fmt"
	"strings"
	"time"

	"neemee-server/internal/domain"

	"github.com/google/uuid"
)

// apiKeyPrefix marks bookmarklet keys so they are recognizable in headers.
const apiKeyPrefix = "nm_"

type APIKeyService struct {
	repo   domain.APIKeyRepository
	logger domain.Logger
}

func NewAPIKeyService(repo domain.APIKeyRepository, logger domain.Logger) domain.APIKeyService {
	return &APIKeyService{
		repo:   repo,
		logger: logger,
	}
}

// Resolve maps an opaque key string to the owning user.
func (s *APIKeyService) Resolve(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", domain.ErrInvalidAPIKey
	}
	return s.repo.ResolveUser(key)
}

// GetKey returns the caller's active API key.
func (s *APIKeyService) GetKey(userID string) (*domain.UserAPIKey, error) {
	return s.repo.GetByUser(userID)
}

// Regenerate mints a fresh key for the user. The previous key stops
// resolving as soon as the replacement lands.
func (s *APIKeyService) Regenerate(userID string) (*domain.UserAPIKey, error) {
	apiKey := &domain.UserAPIKey{
		Key:       newKey(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Replace(apiKey); err != nil {
		return nil, fmt.Errorf("failed to regenerate API key: %w", err)
	}
	s.logger.Info("API key regenerated", "user_id", userID)
	return apiKey, nil
}

func newKey() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return apiKeyPrefix + raw
}

// IsAPIKey reports whether a credential string looks like a bookmarklet key
// rather than a session JWT.
func IsAPIKey(credential string) bool {
	return strings.HasPrefix(credential, apiKeyPrefix)
}
