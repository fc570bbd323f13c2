package domain

// ContentStatus is the processing lifecycle state of a highlight's
// content extraction.
type ContentStatus string

const (
	StatusQueued     ContentStatus = "queued"
	StatusProcessing ContentStatus = "processing"
	StatusExtracted  ContentStatus = "extracted"
	StatusFailed     ContentStatus = "failed"
	StatusRetry      ContentStatus = "retry"
	StatusPending    ContentStatus = "pending"
)

// ParseContentStatus converts a raw string into a ContentStatus.
// Unknown values map to StatusPending so rows written before the status
// vocabulary existed still render.
func ParseContentStatus(s string) ContentStatus {
	switch ContentStatus(s) {
	case StatusQueued, StatusProcessing, StatusExtracted, StatusFailed, StatusRetry, StatusPending:
		return ContentStatus(s)
	default:
		return StatusPending
	}
}

// Valid reports whether the status is part of the known vocabulary.
func (s ContentStatus) Valid() bool {
	switch s {
	case StatusQueued, StatusProcessing, StatusExtracted, StatusFailed, StatusRetry, StatusPending:
		return true
	}
	return false
}

// statusTransitions is the closed transition table enforced at the
// data-access layer. Re-extraction of an already extracted highlight is
// allowed (extracted -> processing) so edited highlights can be refreshed.
var statusTransitions = map[ContentStatus][]ContentStatus{
	StatusQueued:     {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusExtracted, StatusFailed},
	StatusFailed:     {StatusRetry, StatusProcessing},
	StatusRetry:      {StatusProcessing},
	StatusPending:    {StatusProcessing},
	StatusExtracted:  {StatusProcessing},
}

// CanTransition reports whether moving from one status to another is legal.
// Writing the same status again is always legal (idempotent update).
func CanTransition(from, to ContentStatus) bool {
	if from == to {
		return true
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusPresentation is the display mapping consumed by the UI. Purely
// derived; no business logic reads it.
type StatusPresentation struct {
	Status      ContentStatus `json:"status"`
	Label       string        `json:"label"`
	Description string        `json:"description"`
	Animating   bool          `json:"animating"`
}

// PresentStatus maps a status to its label, description and animation flag.
func PresentStatus(s ContentStatus) StatusPresentation {
	switch s {
	case StatusQueued:
		return StatusPresentation{s, "Queued", "Waiting for content extraction", true}
	case StatusProcessing:
		return StatusPresentation{s, "Processing", "Extracting page content", true}
	case StatusExtracted:
		return StatusPresentation{s, "Extracted", "Full page content available", false}
	case StatusFailed:
		return StatusPresentation{s, "Failed", "Content extraction failed", false}
	case StatusRetry:
		return StatusPresentation{s, "Retrying", "Extraction will be retried", true}
	default:
		return StatusPresentation{StatusPending, "Pending", "Extraction has not been attempted", false}
	}
}
