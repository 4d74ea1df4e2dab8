package extractions

import (
	"context"
	"time"
)

// CompletionUpdate is everything a finished run publishes at once.
type CompletionUpdate struct {
	Result             map[string]any
	Category           string
	CategoryConfidence float64
	Source             string
	ConfidenceReason   string
	TextStrategy       string
	QualityScore       int
	PromptHash         string
	Session            *SessionSummary
	CompletedAt        time.Time
}

// Repo defines persistence operations for extractions.
type Repo interface {
	Create(ctx context.Context, extraction Extraction) (Extraction, error)
	GetByID(ctx context.Context, extractionID string) (Extraction, error)
	// GetOrCreateForDocument reuses an in-flight or completed extraction for
	// the document, or creates one with the next generation number. A failed
	// latest extraction is reused only when allowRetry is set.
	GetOrCreateForDocument(ctx context.Context, extraction Extraction, allowRetry bool) (Extraction, bool, error)
	UpdateStatusResultAndError(ctx context.Context, extractionID, status string, result map[string]any, errorCode *string, errorMessage *string, errorRetryable *bool, startedAt *time.Time, completedAt *time.Time) error
	UpdateRaw(ctx context.Context, extractionID string, raw any) error
	// CompleteIfCurrent publishes a result only if no newer generation exists
	// for the same document; otherwise it returns ErrStaleGeneration and the
	// row is marked superseded instead of completed.
	CompleteIfCurrent(ctx context.Context, extractionID string, update CompletionUpdate) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Extraction, error)
	// LatestForDocument returns the highest-generation extraction for a document.
	LatestForDocument(ctx context.Context, userID, documentID string) (Extraction, error)
}
