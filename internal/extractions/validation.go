package extractions

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"cvparse-backend/internal/llm"
	"cvparse-backend/internal/records"
)

// FieldError is a single schema violation at a specific field path.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SchemaError carries the full violation list from a failed validation.
type SchemaError struct {
	Errors []FieldError
}

func (e *SchemaError) Error() string {
	var sb strings.Builder
	sb.WriteString("schema validation failed:")
	for _, fe := range e.Errors {
		sb.WriteString(" ")
		sb.WriteString(fe.Field)
		sb.WriteString(": ")
		sb.WriteString(fe.Message)
		sb.WriteString(";")
	}
	return sb.String()
}

// StripCodeFences removes a surrounding markdown code fence, if present.
// Models wrap JSON in ```json blocks despite instructions not to.
func StripCodeFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if i := strings.Index(trimmed, "\n"); i >= 0 {
		// drop the language tag line ("json")
		trimmed = trimmed[i+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func validateAgainst(schema *gojsonschema.Schema, raw json.RawMessage) error {
	result, err := schema.Validate(gojsonschema.NewStringLoader(string(raw)))
	if err != nil {
		return fmt.Errorf("schema validate: %w", err)
	}
	if result.Valid() {
		return nil
	}
	schemaErr := &SchemaError{}
	for _, desc := range result.Errors() {
		schemaErr.Errors = append(schemaErr.Errors, FieldError{
			Field:   desc.Field(),
			Message: desc.Description(),
		})
	}
	return schemaErr
}

// ValidateCandidate checks raw JSON against the candidate schema and decodes it.
func ValidateCandidate(raw json.RawMessage) (records.CandidateRecord, error) {
	if err := validateAgainst(candidateSchema, raw); err != nil {
		return records.CandidateRecord{}, err
	}
	var rec records.CandidateRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return records.CandidateRecord{}, fmt.Errorf("candidate decode: %w", err)
	}
	return rec, nil
}

// ValidateJobPosting checks raw JSON against the job posting schema and decodes it.
func ValidateJobPosting(raw json.RawMessage) (records.JobPosting, error) {
	if err := validateAgainst(jobPostingSchema, raw); err != nil {
		return records.JobPosting{}, err
	}
	var rec records.JobPosting
	if err := json.Unmarshal(raw, &rec); err != nil {
		return records.JobPosting{}, fmt.Errorf("job posting decode: %w", err)
	}
	return rec, nil
}

const repairSystemMessage = "Fix the JSON to satisfy all schema constraints. Keep content the same. Every key must be present. Output JSON only."

// ExtractValidated calls the LLM, strips code fences and validates against the
// schema for the document kind, retrying once with a repair instruction on a
// schema mismatch.
func ExtractValidated(ctx context.Context, client llm.Client, input llm.ExtractInput) (json.RawMessage, error) {
	raw, err := client.Extract(ctx, input)
	if err != nil {
		return nil, err
	}
	raw = json.RawMessage(StripCodeFences(string(raw)))
	if err := validateForKind(input.Kind, raw); err == nil {
		return raw, nil
	} else {
		log.Printf("extraction validation kind=%s attempt=1 error=%s", input.Kind, sanitizeError(err))
	}

	ctxRetry := llm.WithExtraSystemMessage(ctx, repairSystemMessage)
	rawRetry, err := client.Extract(ctxRetry, input)
	if err != nil {
		return nil, err
	}
	rawRetry = json.RawMessage(StripCodeFences(string(rawRetry)))
	if err := validateForKind(input.Kind, rawRetry); err != nil {
		log.Printf("extraction validation kind=%s attempt=2 error=%s", input.Kind, sanitizeError(err))
		return nil, err
	}
	return rawRetry, nil
}

func validateForKind(kind llm.DocumentKind, raw json.RawMessage) error {
	if kind == llm.KindJob {
		return validateAgainst(jobPostingSchema, raw)
	}
	return validateAgainst(candidateSchema, raw)
}
