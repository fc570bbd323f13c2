package domain

import (
	"net/url"
	"strings"
	"time"
)

// MaxHighlightTextLength is the upper bound on captured text.
const MaxHighlightTextLength = 10000

// MaxPageTitleLength is the upper bound on the optional page title.
const MaxPageTitleLength = 500

// Highlight represents a user-captured snippet of text from a web page,
// plus page metadata and extraction status.
type Highlight struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	HighlightedText string            `json:"highlighted_text"`
	PageURL         string            `json:"page_url"`
	PageTitle       string            `json:"page_title,omitempty"`
	Domain          string            `json:"domain"`
	MarkdownContent string            `json:"markdown_content,omitempty"`
	Metadata        HighlightMetadata `json:"metadata"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// HighlightMetadata is the extraction metadata stored alongside the
// highlight in a JSON column.
type HighlightMetadata struct {
	ContentStatus    ContentStatus `json:"content_status"`
	QueuedAt         *time.Time    `json:"queued_at,omitempty"`
	ExtractedAt      *time.Time    `json:"extracted_at,omitempty"`
	ExtractionErrors []string      `json:"extraction_errors,omitempty"`
	AttemptCount     int           `json:"attempt_count,omitempty"`
}

// HighlightInput carries the user-supplied fields of a capture or edit.
type HighlightInput struct {
	HighlightedText string
	PageURL         string
	PageTitle       string
}

// Validate checks the input against the capture constraints and returns the
// trimmed text. Text must be non-empty after trimming and at most
// MaxHighlightTextLength characters; page_url must parse as an absolute URL;
// page_title is optional but capped at MaxPageTitleLength.
func (in *HighlightInput) Validate() (string, error) {
	text := strings.TrimSpace(in.HighlightedText)
	if text == "" {
		return "", &ValidationError{Field: "highlighted_text", Message: "must not be empty"}
	}
	if len([]rune(text)) > MaxHighlightTextLength {
		return "", &ValidationError{Field: "highlighted_text", Message: "must be at most 10000 characters"}
	}
	if _, err := ParsePageURL(in.PageURL); err != nil {
		return "", err
	}
	if len([]rune(in.PageTitle)) > MaxPageTitleLength {
		return "", &ValidationError{Field: "page_title", Message: "must be at most 500 characters"}
	}
	return text, nil
}

// ParsePageURL validates that raw is an absolute http(s) URL and returns it.
func ParsePageURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, &ValidationError{Field: "page_url", Message: "must be a valid absolute URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, &ValidationError{Field: "page_url", Message: "must use http or https"}
	}
	return u, nil
}

// DomainFromURL derives the hostname stored in the highlight's domain column.
func DomainFromURL(raw string) string {
	u, err := ParsePageURL(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// MaxListLimit caps the page size of listing requests.
const MaxListLimit = 100

// ListOptions are the filters accepted by the listing endpoint.
type ListOptions struct {
	Page      int
	Limit     int
	Search    string
	Domain    string
	StartDate *time.Time
	EndDate   *time.Time
}

// Normalize clamps page and limit into their allowed ranges.
func (o *ListOptions) Normalize() {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = 20
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
}

// HighlightPage is one page of listing results.
type HighlightPage struct {
	Highlights []*Highlight `json:"highlights"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	Total      int64        `json:"total"`
}

// StatusUpdate describes a status transition plus the fields written with it.
type StatusUpdate struct {
	Status           ContentStatus
	MarkdownContent  *string
	ExtractedAt      *time.Time
	ExtractionErrors []string
	IncrementAttempt bool

	// ExpectedUpdatedAt, when set, makes the write conditional on the row
	// not having changed since it was read (optimistic concurrency).
	ExpectedUpdatedAt *time.Time
}

// HighlightRepository defines persistence operations for highlights.
// All operations are scoped to the owning user.
type HighlightRepository interface {
	Create(highlight *Highlight) (*Highlight, error)
	GetByID(userID, highlightID string) (*Highlight, error)
	List(userID string, opts ListOptions) (*HighlightPage, error)
	Update(userID, highlightID string, input *HighlightInput) (*Highlight, error)
	UpdateStatus(userID, highlightID string, update StatusUpdate) (*Highlight, error)
	Delete(userID, highlightID string) error
}

// CaptureResult is what the capture endpoint reports back to the bookmarklet.
type CaptureResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	HighlightID string `json:"highlightId,omitempty"`
}

// HighlightService defines the use-case operations for highlights.
type HighlightService interface {
	Capture(userID string, input *HighlightInput) (*CaptureResult, error)
	GetHighlight(userID, highlightID string) (*Highlight, error)
	ListHighlights(userID string, opts ListOptions) (*HighlightPage, error)
	UpdateHighlight(userID, highlightID string, input *HighlightInput) (*Highlight, error)
	DeleteHighlight(userID, highlightID string) error
}
