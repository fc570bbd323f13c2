package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"neemee-server/internal/domain"

	pkgerrors "neemee-server/pkg/errors"
)

// ExtractionService coordinates on-demand extraction and extraction-service
// callbacks, transitioning highlight status through the data-access layer so
// the transition table and optimistic concurrency checks always apply.
type ExtractionService struct {
	repo   domain.HighlightRepository
	client domain.ExtractionClient
	logger domain.Logger
}

func NewExtractionService(
	repo domain.HighlightRepository,
	client domain.ExtractionClient,
	logger domain.Logger,
) domain.ExtractionService {
	return &ExtractionService{
		repo:   repo,
		client: client,
		logger: logger,
	}
}

// ExtractContent re-invokes content extraction for a highlight the caller
// owns. Retries are manual; the caller re-invokes on failure.
func (s *ExtractionService) ExtractContent(ctx context.Context, userID, highlightID string) (*domain.ExtractionResult, error) {
	highlight, err := s.repo.GetByID(userID, highlightID)
	if err != nil {
		return nil, err
	}

	updatedAt := highlight.UpdatedAt
	processing, err := s.repo.UpdateStatus(userID, highlightID, domain.StatusUpdate{
		Status:            domain.StatusProcessing,
		IncrementAttempt:  true,
		ExpectedUpdatedAt: &updatedAt,
	})
	if err != nil {
		return nil, err
	}

	resp, callErr := s.client.ExtractContent(ctx, &domain.ExtractionRequest{
		HighlightID:     highlight.ID,
		URL:             highlight.PageURL,
		HighlightedText: highlight.HighlightedText,
		PageTitle:       highlight.PageTitle,
	})
	if callErr != nil || !resp.Success() {
		extractionErrors := []string{}
		if callErr != nil {
			extractionErrors = append(extractionErrors, callErr.Error())
		}
		if resp != nil {
			extractionErrors = append(extractionErrors, resp.Errors...)
		}
		if len(extractionErrors) == 0 {
			extractionErrors = append(extractionErrors, "extraction service returned no content")
		}
		s.logger.Warn("Extraction failed", "highlight_id", highlightID, "errors", fmt.Sprint(extractionErrors))

		if _, err := s.repo.UpdateStatus(userID, highlightID, domain.StatusUpdate{
			Status:           domain.StatusFailed,
			ExtractionErrors: extractionErrors,
		}); err != nil {
			s.logger.Error("Failed to record extraction failure", err, "highlight_id", highlightID)
		}
		return &domain.ExtractionResult{
			Status:      domain.StatusFailed,
			HighlightID: highlightID,
			Errors:      extractionErrors,
		}, nil
	}

	now := time.Now().UTC()
	processingUpdatedAt := processing.UpdatedAt
	updated, err := s.repo.UpdateStatus(userID, highlightID, domain.StatusUpdate{
		Status:            domain.StatusExtracted,
		MarkdownContent:   &resp.MarkdownContent,
		ExtractedAt:       &now,
		ExpectedUpdatedAt: &processingUpdatedAt,
	})
	if err != nil {
		// Extraction succeeded but persistence did not; the content is lost
		// for this request and the caller has to retry.
		return nil, pkgerrors.NewInternalError("failed to store extracted content", err)
	}

	s.logger.Info("Highlight content extracted", "highlight_id", highlightID, "user_id", userID)
	return &domain.ExtractionResult{
		Status:          domain.StatusExtracted,
		HighlightID:     updated.ID,
		MarkdownContent: updated.MarkdownContent,
	}, nil
}

// ApplyCallback handles a late extraction result posted back by the backend
// after the originating capture request already returned.
func (s *ExtractionService) ApplyCallback(cb *domain.ExtractionCallback) error {
	if cb == nil || cb.HighlightID == "" || cb.UserID == "" {
		return &domain.ValidationError{Message: "highlight_id and user_id are required"}
	}

	highlight, err := s.repo.GetByID(cb.UserID, cb.HighlightID)
	if err != nil {
		return err
	}

	// The row may still be queued (or marked failed by the capture timeout);
	// step through processing so the transition table holds.
	if highlight.Metadata.ContentStatus != domain.StatusProcessing {
		if _, err := s.repo.UpdateStatus(cb.UserID, cb.HighlightID, domain.StatusUpdate{
			Status: domain.StatusProcessing,
		}); err != nil && !errors.Is(err, domain.ErrInvalidStatusTransition) {
			return err
		}
	}

	if cb.Status == "success" || cb.Status == "extracted" {
		now := time.Now().UTC()
		_, err = s.repo.UpdateStatus(cb.UserID, cb.HighlightID, domain.StatusUpdate{
			Status:          domain.StatusExtracted,
			MarkdownContent: &cb.MarkdownContent,
			ExtractedAt:     &now,
		})
	} else {
		extractionErrors := cb.Errors
		if len(extractionErrors) == 0 {
			extractionErrors = []string{"extraction failed"}
		}
		_, err = s.repo.UpdateStatus(cb.UserID, cb.HighlightID, domain.StatusUpdate{
			Status:           domain.StatusFailed,
			ExtractionErrors: extractionErrors,
		})
	}
	if err != nil {
		return err
	}

	s.logger.Info("Extraction callback applied", "highlight_id", cb.HighlightID, "status", cb.Status)
	return nil
}
