package domain

import "time"

// UserAPIKey is the per-user bearer secret used to authenticate bookmarklet
// capture requests (the bookmarklet cannot send session cookies cross-origin).
// A user has at most one active key; regenerating replaces it and the old key
// stops resolving.
type UserAPIKey struct {
	Key       string    `json:"api_key"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// APIKeyRepository defines persistence operations for API keys.
type APIKeyRepository interface {
	ResolveUser(key string) (string, error)
	GetByUser(userID string) (*UserAPIKey, error)
	Replace(apiKey *UserAPIKey) error
	Delete(userID string) error
}

// APIKeyService defines the use-case operations for API keys.
type APIKeyService interface {
	Resolve(key string) (string, error)
	GetKey(userID string) (*UserAPIKey, error)
	Regenerate(userID string) (*UserAPIKey, error)
}
