package domain

import "context"

// ExtractionRequest is the payload sent to the external extraction service.
type ExtractionRequest struct {
	HighlightID     string `json:"highlight_id"`
	URL             string `json:"url"`
	HighlightedText string `json:"highlighted_text"`
	PageTitle       string `json:"page_title,omitempty"`
}

// ExtractionResponse is what the external extraction service reports back.
type ExtractionResponse struct {
	Status          string   `json:"status"`
	Message         string   `json:"message,omitempty"`
	MarkdownContent string   `json:"markdown_content,omitempty"`
	Errors          []string `json:"errors,omitempty"`
}

// Success reports whether the service completed extraction.
func (r *ExtractionResponse) Success() bool {
	return r.Status == "success" || r.Status == "extracted"
}

// ExtractionClient talks to the external content-extraction service.
type ExtractionClient interface {
	CaptureAndExtract(ctx context.Context, req *ExtractionRequest) (*ExtractionResponse, error)
	ExtractContent(ctx context.Context, req *ExtractionRequest) (*ExtractionResponse, error)
}

// ExtractionResult is the outcome of a manual extraction reported to callers.
type ExtractionResult struct {
	Status          ContentStatus `json:"status"`
	HighlightID     string        `json:"highlight_id"`
	MarkdownContent string        `json:"markdown_content,omitempty"`
	Errors          []string      `json:"errors,omitempty"`
}

// ExtractionCallback is the late-result payload posted back by the
// extraction service once it finishes work that outlived the capture
// request's timeout window.
type ExtractionCallback struct {
	HighlightID     string   `json:"highlight_id"`
	UserID          string   `json:"user_id"`
	Status          string   `json:"status"`
	MarkdownContent string   `json:"markdown_content,omitempty"`
	Errors          []string `json:"errors,omitempty"`
}

// ExtractionService coordinates extraction calls and status updates.
type ExtractionService interface {
	ExtractContent(ctx context.Context, userID, highlightID string) (*ExtractionResult, error)
	ApplyCallback(cb *ExtractionCallback) error
}

// PageCache is a short-TTL keyed store for raw page HTML captured during the
// bookmarklet redirect flow. Entries are consumed exactly once.
type PageCache interface {
	Put(ctx context.Context, token, html string) error
	Take(ctx context.Context, token string) (string, error)
}
