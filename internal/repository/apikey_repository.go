package repository

import (
	"fmt"
	"time"

	"neemee-server/internal/domain"
)

// APIKeyRepository implements domain.APIKeyRepository against the
// user_api_keys table. A user holds at most one row; Replace swaps the key
// in place so the previous value immediately stops resolving.
type APIKeyRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

func NewAPIKeyRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.APIKeyRepository {
	return &APIKeyRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

func (r *APIKeyRepository) ResolveUser(key string) (string, error) {
	client := r.supabaseClient.DB()
	if client == nil {
		return "", fmt.Errorf("supabase client not initialized")
	}

	data, _, err := client.From("user_api_keys").
		Select("user_id", "", false).
		Eq("api_key", key).
		Limit(1, "").
		Execute()
	if err != nil {
		return "", fmt.Errorf("failed to resolve API key: %w", err)
	}

	rows, err := unmarshalRows(data)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", domain.ErrInvalidAPIKey
	}
	return getString(rows[0], "user_id"), nil
}

func (r *APIKeyRepository) GetByUser(userID string) (*domain.UserAPIKey, error) {
	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	data, _, err := client.From("user_api_keys").
		Select("*", "", false).
		Eq("user_id", userID).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get API key: %w", err)
	}

	rows, err := unmarshalRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrAPIKeyNotFound
	}
	return mapToAPIKey(rows[0]), nil
}

func (r *APIKeyRepository) Replace(apiKey *domain.UserAPIKey) error {
	client := r.supabaseClient.DB()
	if client == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	row := map[string]interface{}{
		"user_id":    apiKey.UserID,
		"api_key":    apiKey.Key,
		"created_at": apiKey.CreatedAt.UTC().Format(time.RFC3339Nano),
	}

	// Upsert on user_id so regeneration overwrites the existing row.
	_, _, err := client.From("user_api_keys").
		Insert(row, true, "user_id", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to replace API key: %w", err)
	}
	return nil
}

func (r *APIKeyRepository) Delete(userID string) error {
	client := r.supabaseClient.DB()
	if client == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	_, _, err := client.From("user_api_keys").
		Delete("", "").
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete API key: %w", err)
	}
	return nil
}

func mapToAPIKey(data map[string]interface{}) *domain.UserAPIKey {
	return &domain.UserAPIKey{
		Key:       getString(data, "api_key"),
		UserID:    getString(data, "user_id"),
		CreatedAt: parseTimestamp(getString(data, "created_at")),
	}
}
