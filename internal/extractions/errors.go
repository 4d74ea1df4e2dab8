package extractions

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidKind           = errors.New("unknown extraction kind")
	ErrRetryRequired         = errors.New("retry required")
	ErrStaleGeneration       = errors.New("stale generation")
	ErrJobQueueNotConfigured = errors.New("job queue not configured")
)

const (
	ErrorCodeValidation        = "VALIDATION_ERROR"
	ErrorCodeLLMTimeout        = "LLM_TIMEOUT"
	ErrorCodeLLMSchemaMismatch = "LLM_SCHEMA_MISMATCH"
	ErrorCodeStorage           = "STORAGE_ERROR"
	ErrorCodeInternal          = "INTERNAL_ERROR"
)
