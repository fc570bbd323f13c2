package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"neemee-server/internal/domain"
)

// HighlightService implements the highlight use cases. Capture persists the
// highlight first, then fires the extraction call best-effort within the
// configured timeout; the capture outcome never depends on extraction.
type HighlightService struct {
	repo              domain.HighlightRepository
	extractionClient  domain.ExtractionClient
	logger            domain.Logger
	extractionTimeout time.Duration
}

func NewHighlightService(
	repo domain.HighlightRepository,
	extractionClient domain.ExtractionClient,
	logger domain.Logger,
	extractionTimeout time.Duration,
) domain.HighlightService {
	return &HighlightService{
		repo:              repo,
		extractionClient:  extractionClient,
		logger:            logger,
		extractionTimeout: extractionTimeout,
	}
}

func (s *HighlightService) Capture(userID string, input *domain.HighlightInput) (*domain.CaptureResult, error) {
	if input == nil {
		return nil, &domain.ValidationError{Message: "request body is required"}
	}
	text, err := input.Validate()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	highlight := &domain.Highlight{
		UserID:          userID,
		HighlightedText: text,
		PageURL:         strings.TrimSpace(input.PageURL),
		PageTitle:       strings.TrimSpace(input.PageTitle),
		Domain:          domain.DomainFromURL(input.PageURL),
		Metadata: domain.HighlightMetadata{
			ContentStatus: domain.StatusQueued,
			QueuedAt:      &now,
		},
	}

	created, err := s.repo.Create(highlight)
	if err != nil {
		return nil, fmt.Errorf("failed to save highlight: %w", err)
	}
	s.logger.Info("Highlight captured", "user_id", userID, "highlight_id", created.ID, "domain", created.Domain)

	// Best-effort extraction kick-off. The highlight is already saved, so
	// any failure here is recorded on the row and the capture still succeeds.
	ctx, cancel := context.WithTimeout(context.Background(), s.extractionTimeout)
	defer cancel()

	resp, err := s.extractionClient.CaptureAndExtract(ctx, &domain.ExtractionRequest{
		HighlightID:     created.ID,
		URL:             created.PageURL,
		HighlightedText: created.HighlightedText,
		PageTitle:       created.PageTitle,
	})
	if err != nil {
		s.logger.Warn("Extraction kick-off failed", "highlight_id", created.ID, "error", err)
		s.markExtractionFailed(userID, created, err)
		return &domain.CaptureResult{
			Success:     true,
			Message:     "Highlight saved. Content extraction failed and will be retried later.",
			HighlightID: created.ID,
		}, nil
	}

	message := resp.Message
	if message == "" {
		message = "Highlight saved. Content extraction in progress."
	}
	return &domain.CaptureResult{
		Success:     true,
		Message:     message,
		HighlightID: created.ID,
	}, nil
}

func (s *HighlightService) markExtractionFailed(userID string, highlight *domain.Highlight, cause error) {
	updatedAt := highlight.UpdatedAt
	_, err := s.repo.UpdateStatus(userID, highlight.ID, domain.StatusUpdate{
		Status:            domain.StatusFailed,
		ExtractionErrors:  []string{cause.Error()},
		ExpectedUpdatedAt: &updatedAt,
	})
	if err != nil {
		// A concurrent update means someone else already moved the status
		// (e.g. a late callback); leave their result in place.
		s.logger.Warn("Could not record extraction failure", "highlight_id", highlight.ID, "error", err)
	}
}

func (s *HighlightService) GetHighlight(userID, highlightID string) (*domain.Highlight, error) {
	if highlightID == "" {
		return nil, &domain.ValidationError{Field: "id", Message: "is required"}
	}
	return s.repo.GetByID(userID, highlightID)
}

func (s *HighlightService) ListHighlights(userID string, opts domain.ListOptions) (*domain.HighlightPage, error) {
	return s.repo.List(userID, opts)
}

func (s *HighlightService) UpdateHighlight(userID, highlightID string, input *domain.HighlightInput) (*domain.Highlight, error) {
	if highlightID == "" {
		return nil, &domain.ValidationError{Field: "id", Message: "is required"}
	}
	if input == nil {
		return nil, &domain.ValidationError{Message: "request body is required"}
	}
	text, err := input.Validate()
	if err != nil {
		return nil, err
	}
	input.HighlightedText = text

	updated, err := s.repo.Update(userID, highlightID, input)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Highlight updated", "user_id", userID, "highlight_id", highlightID)
	return updated, nil
}

func (s *HighlightService) DeleteHighlight(userID, highlightID string) error {
	if highlightID == "" {
		return &domain.ValidationError{Field: "id", Message: "is required"}
	}
	if err := s.repo.Delete(userID, highlightID); err != nil {
		return err
	}
	s.logger.Info("Highlight deleted", "user_id", userID, "highlight_id", highlightID)
	return nil
}
