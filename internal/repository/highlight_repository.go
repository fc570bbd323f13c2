package repository

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"neemee-server/internal/domain"

	"github.com/supabase-community/postgrest-go"
)

// HighlightRepository implements the domain.HighlightRepository interface using Supabase.
// Owner scoping is enforced by filtering every statement on user_id; a miss on
// another user's row is indistinguishable from a missing row.
type HighlightRepository struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

func NewHighlightRepository(supabaseClient domain.SupabaseClient, logger domain.Logger) domain.HighlightRepository {
	return &HighlightRepository{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

func (r *HighlightRepository) Create(highlight *domain.Highlight) (*domain.Highlight, error) {
	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	now := time.Now().UTC()
	row := map[string]interface{}{
		"user_id":          highlight.UserID,
		"highlighted_text": sanitizeText(highlight.HighlightedText),
		"page_url":         highlight.PageURL,
		"domain":           highlight.Domain,
		"markdown_content": "",
		"metadata":         metadataToMap(&highlight.Metadata),
		"created_at":       now.Format(time.RFC3339Nano),
		"updated_at":       now.Format(time.RFC3339Nano),
	}
	if highlight.PageTitle != "" {
		row["page_title"] = sanitizeText(highlight.PageTitle)
	}

	// Request "representation" so PostgREST returns the inserted row.
	data, _, err := client.From("highlights").
		Insert(row, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to create highlight: %w", err)
	}

	rows, err := unmarshalRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("failed to create highlight: empty response")
	}
	return mapToHighlight(rows[0]), nil
}

func (r *HighlightRepository) GetByID(userID, highlightID string) (*domain.Highlight, error) {
	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	data, _, err := client.From("highlights").
		Select("*", "", false).
		Eq("id", highlightID).
		Eq("user_id", userID).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get highlight: %w", err)
	}

	rows, err := unmarshalRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrHighlightNotFound
	}
	return mapToHighlight(rows[0]), nil
}

func (r *HighlightRepository) List(userID string, opts domain.ListOptions) (*domain.HighlightPage, error) {
	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	opts.Normalize()

	q := client.From("highlights").
		Select("*", "exact", false).
		Eq("user_id", userID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false})

	if opts.Domain != "" {
		q = q.Eq("domain", opts.Domain)
	}
	if opts.Search != "" {
		pattern := "*" + escapeSearchTerm(opts.Search) + "*"
		q = q.Or(fmt.Sprintf("highlighted_text.ilike.%s,page_title.ilike.%s", pattern, pattern), "")
	}
	if opts.StartDate != nil {
		q = q.Gte("created_at", opts.StartDate.UTC().Format(time.RFC3339))
	}
	if opts.EndDate != nil {
		q = q.Lte("created_at", opts.EndDate.UTC().Format(time.RFC3339))
	}

	from := (opts.Page - 1) * opts.Limit
	to := from + opts.Limit - 1
	data, total, err := q.Range(from, to, "").Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list highlights: %w", err)
	}

	rows, err := unmarshalRows(data)
	if err != nil {
		return nil, err
	}

	highlights := make([]*domain.Highlight, 0, len(rows))
	for _, row := range rows {
		highlights = append(highlights, mapToHighlight(row))
	}

	return &domain.HighlightPage{
		Highlights: highlights,
		Page:       opts.Page,
		Limit:      opts.Limit,
		Total:      total,
	}, nil
}

func (r *HighlightRepository) Update(userID, highlightID string, input *domain.HighlightInput) (*domain.Highlight, error) {
	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	row := map[string]interface{}{
		"highlighted_text": sanitizeText(strings.TrimSpace(input.HighlightedText)),
		"page_url":         input.PageURL,
		"page_title":       sanitizeText(input.PageTitle),
		"domain":           domain.DomainFromURL(input.PageURL),
		"updated_at":       time.Now().UTC().Format(time.RFC3339Nano),
	}

	data, _, err := client.From("highlights").
		Update(row, "representation", "").
		Eq("id", highlightID).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to update highlight: %w", err)
	}

	rows, err := unmarshalRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrHighlightNotFound
	}
	return mapToHighlight(rows[0]), nil
}

// UpdateStatus applies a status transition. Illegal transitions are rejected
// against the current row, and when ExpectedUpdatedAt is set the write only
// lands if the row has not changed since it was read.
func (r *HighlightRepository) UpdateStatus(userID, highlightID string, update domain.StatusUpdate) (*domain.Highlight, error) {
	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	current, err := r.GetByID(userID, highlightID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(current.Metadata.ContentStatus, update.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidStatusTransition, current.Metadata.ContentStatus, update.Status)
	}

	metadata := current.Metadata
	metadata.ContentStatus = update.Status
	metadata.ExtractionErrors = update.ExtractionErrors
	if update.ExtractedAt != nil {
		metadata.ExtractedAt = update.ExtractedAt
	}
	if update.IncrementAttempt {
		metadata.AttemptCount++
	}

	row := map[string]interface{}{
		"metadata":   metadataToMap(&metadata),
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if update.MarkdownContent != nil {
		row["markdown_content"] = sanitizeText(*update.MarkdownContent)
	} else if update.Status != domain.StatusExtracted {
		// markdown_content must stay empty outside the extracted state.
		row["markdown_content"] = ""
	}

	q := client.From("highlights").
		Update(row, "representation", "").
		Eq("id", highlightID).
		Eq("user_id", userID)
	if update.ExpectedUpdatedAt != nil {
		q = q.Eq("updated_at", update.ExpectedUpdatedAt.UTC().Format(time.RFC3339Nano))
	}

	data, _, err := q.Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to update highlight status: %w", err)
	}

	rows, err := unmarshalRows(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		if update.ExpectedUpdatedAt != nil {
			// Row exists (we just read it) but the conditional write missed.
			return nil, domain.ErrConcurrentUpdate
		}
		return nil, domain.ErrHighlightNotFound
	}
	return mapToHighlight(rows[0]), nil
}

func (r *HighlightRepository) Delete(userID, highlightID string) error {
	client := r.supabaseClient.DB()
	if client == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	data, _, err := client.From("highlights").
		Delete("representation", "").
		Eq("id", highlightID).
		Eq("user_id", userID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete highlight: %w", err)
	}

	rows, err := unmarshalRows(data)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return domain.ErrHighlightNotFound
	}
	return nil
}

func unmarshalRows(data []byte) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	if len(data) == 0 {
		return rows, nil
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return rows, nil
}

func metadataToMap(m *domain.HighlightMetadata) map[string]interface{} {
	out := map[string]interface{}{
		"content_status": string(m.ContentStatus),
	}
	if m.QueuedAt != nil {
		out["queued_at"] = m.QueuedAt.UTC().Format(time.RFC3339Nano)
	}
	if m.ExtractedAt != nil {
		out["extracted_at"] = m.ExtractedAt.UTC().Format(time.RFC3339Nano)
	}
	if len(m.ExtractionErrors) > 0 {
		out["extraction_errors"] = m.ExtractionErrors
	}
	if m.AttemptCount > 0 {
		out["attempt_count"] = m.AttemptCount
	}
	return out
}

func mapToHighlight(data map[string]interface{}) *domain.Highlight {
	h := &domain.Highlight{
		ID:              getString(data, "id"),
		UserID:          getString(data, "user_id"),
		HighlightedText: getString(data, "highlighted_text"),
		PageURL:         getString(data, "page_url"),
		PageTitle:       getString(data, "page_title"),
		Domain:          getString(data, "domain"),
		MarkdownContent: getString(data, "markdown_content"),
	}

	if raw, ok := data["metadata"].(map[string]interface{}); ok {
		h.Metadata = mapToMetadata(raw)
	} else {
		h.Metadata.ContentStatus = domain.StatusPending
	}

	h.CreatedAt = parseTimestamp(getString(data, "created_at"))
	h.UpdatedAt = parseTimestamp(getString(data, "updated_at"))
	return h
}

func mapToMetadata(raw map[string]interface{}) domain.HighlightMetadata {
	m := domain.HighlightMetadata{
		ContentStatus: domain.ParseContentStatus(getString(raw, "content_status")),
	}
	if ts := parseTimestamp(getString(raw, "queued_at")); !ts.IsZero() {
		m.QueuedAt = &ts
	}
	if ts := parseTimestamp(getString(raw, "extracted_at")); !ts.IsZero() {
		m.ExtractedAt = &ts
	}
	if errs, ok := raw["extraction_errors"].([]interface{}); ok {
		for _, e := range errs {
			if s, ok := e.(string); ok {
				m.ExtractionErrors = append(m.ExtractionErrors, s)
			}
		}
	}
	if count, ok := raw["attempt_count"].(float64); ok {
		m.AttemptCount = int(count)
	}
	return m
}

func getString(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

var reControl = regexp.MustCompile(`[\x00]`)

// sanitizeText removes characters that PostgreSQL rejects in text fields (notably NUL bytes).
func sanitizeText(s string) string {
	if s == "" {
		return s
	}
	// Remove any NUL bytes.
	s = reControl.ReplaceAllString(s, "")
	// Also remove escaped unicode NUL sequences that can appear in extracted content.
	s = strings.ReplaceAll(s, "\\u0000", "")
	return s
}

// escapeSearchTerm neutralizes PostgREST filter metacharacters in a
// user-supplied search term.
func escapeSearchTerm(s string) string {
	replacer := strings.NewReplacer(",", " ", "(", " ", ")", " ", "*", " ", "%", " ")
	return strings.TrimSpace(replacer.Replace(s))
}
