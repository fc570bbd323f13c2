package config

import (
	"neemee-server/internal/domain"
	"neemee-server/internal/infra/extraction"
	infraSupabase "neemee-server/internal/infra/supabase"
	"neemee-server/internal/repository"
	"neemee-server/internal/service"
	"neemee-server/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies
type Container struct {
	Config              domain.Config
	Logger              domain.Logger
	SupabaseClient      domain.SupabaseClient
	HighlightRepository domain.HighlightRepository
	APIKeyRepository    domain.APIKeyRepository
	PageCache           domain.PageCache
	ExtractionClient    domain.ExtractionClient
	AuthService         domain.AuthService
	APIKeyService       domain.APIKeyService
	HighlightService    domain.HighlightService
	ExtractionService   domain.ExtractionService
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	config := NewConfig()
	appLogger := logger.NewLogger(config.GetLogLevel())

	supabaseClient := infraSupabase.NewSupabaseClient(config, appLogger)
	if err := supabaseClient.Initialize(); err != nil {
		appLogger.Warn("Supabase client not initialized", "error", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: config.GetRedisAddr()})

	highlightRepo := repository.NewHighlightRepository(supabaseClient, appLogger)
	apiKeyRepo := repository.NewAPIKeyRepository(supabaseClient, appLogger)
	pageCache := repository.NewPageCache(redisClient, config.GetPageCacheTTL())

	extractionClient := extraction.NewClient(config, appLogger)

	authService := service.NewAuthService(supabaseClient, appLogger)
	apiKeyService := service.NewAPIKeyService(apiKeyRepo, appLogger)
	extractionService := service.NewExtractionService(highlightRepo, extractionClient, appLogger)
	highlightService := service.NewHighlightService(highlightRepo, extractionClient, appLogger, config.GetExtractionTimeout())

	return &Container{
		Config:              config,
		Logger:              appLogger,
		SupabaseClient:      supabaseClient,
		HighlightRepository: highlightRepo,
		APIKeyRepository:    apiKeyRepo,
		PageCache:           pageCache,
		ExtractionClient:    extractionClient,
		AuthService:         authService,
		APIKeyService:       apiKeyService,
		HighlightService:    highlightService,
		ExtractionService:   extractionService,
	}
}

// GetConfig returns the configuration instance
func (c *Container) GetConfig() domain.Config {
	return c.Config
}

// GetLogger returns the logger instance
func (c *Container) GetLogger() domain.Logger {
	return c.Logger
}

// GetSupabaseClient returns the Supabase client instance
func (c *Container) GetSupabaseClient() domain.SupabaseClient {
	return c.SupabaseClient
}
