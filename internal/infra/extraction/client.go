package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"neemee-server/internal/domain"

	pkgerrors "neemee-server/pkg/errors"
)

// Client talks to the external content-extraction backend over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     domain.Logger
}

// NewClient creates an extraction client from the application config.
// The HTTP client timeout matches the configured extraction window so an
// unresponsive backend cannot hold a capture request longer than that.
func NewClient(config domain.Config, logger domain.Logger) domain.ExtractionClient {
	return &Client{
		baseURL:    strings.TrimRight(config.GetBackendAPIURL(), "/"),
		apiKey:     config.GetBackendAPIKey(),
		httpClient: &http.Client{Timeout: config.GetExtractionTimeout()},
		logger:     logger,
	}
}

// CaptureAndExtract asks the backend to fetch and convert the page for a
// freshly captured highlight.
func (c *Client) CaptureAndExtract(ctx context.Context, req *domain.ExtractionRequest) (*domain.ExtractionResponse, error) {
	return c.post(ctx, "/highlights/capture-and-extract", req)
}

// ExtractContent re-runs extraction for an existing highlight.
func (c *Client) ExtractContent(ctx context.Context, req *domain.ExtractionRequest) (*domain.ExtractionResponse, error) {
	return c.post(ctx, "/highlights/extract-content", req)
}

func (c *Client) post(ctx context.Context, path string, payload *domain.ExtractionRequest) (*domain.ExtractionResponse, error) {
	if c.baseURL == "" {
		return nil, domain.ErrExtractionUnavailable
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode extraction request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build extraction request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.NewNetworkError("extraction service unreachable", err)
	}
	defer resp.Body.Close()

	var result domain.ExtractionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode extraction response: %w", err)
	}

	if resp.StatusCode >= 400 {
		msg := result.Message
		if msg == "" {
			msg = resp.Status
		}
		c.logger.Warn("Extraction service returned an error", "status_code", resp.StatusCode, "message", msg)
		return &result, pkgerrors.NewProcessingError(fmt.Sprintf("extraction service error: %s", msg), nil)
	}

	return &result, nil
}
