package extractions

import "time"

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	// StatusSuperseded marks a run that finished after a newer generation
	// was started for the same document; its result is never published.
	StatusSuperseded = "superseded"
)

// Source tags record which pipeline path produced the result.
const (
	SourceLLM           = "llm"
	SourceHeuristic     = "heuristic"
	SourceLowConfidence = "low-confidence"
)

// Extraction represents one structured-extraction job over a stored document.
type Extraction struct {
	ID         string `json:"id"`
	DocumentID string `json:"documentId"`
	UserID     string `json:"userId"`
	Kind       string `json:"kind"`

	// Generation orders runs for the same document. A run only publishes
	// its result if no newer generation exists, so a slow older run can
	// never overwrite a newer one.
	Generation int64 `json:"generation"`

	Status string `json:"status"`

	Category           string  `json:"category,omitempty"`
	CategoryConfidence float64 `json:"categoryConfidence,omitempty"`
	Source             string  `json:"source,omitempty"`
	ConfidenceReason   string  `json:"confidenceReason,omitempty"`
	TextStrategy       string  `json:"textStrategy,omitempty"`
	QualityScore       int     `json:"qualityScore,omitempty"`

	Provider   string `json:"provider,omitempty"`
	Model      string `json:"model,omitempty"`
	PromptHash string `json:"promptHash,omitempty"`

	Result map[string]any `json:"result,omitempty"`
	Raw    map[string]any `json:"-"`

	Session *SessionSummary `json:"session,omitempty"`

	ErrorCode      string  `json:"errorCode,omitempty"`
	ErrorMessage   *string `json:"errorMessage,omitempty"`
	ErrorRetryable bool    `json:"errorRetryable,omitempty"`

	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
