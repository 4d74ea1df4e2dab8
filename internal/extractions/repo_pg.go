package extractions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const extractionColumns = `
id, document_id, user_id, kind, generation, status,
category, category_confidence, source, confidence_reason, text_strategy, quality_score,
provider, model, prompt_hash, result, raw, session,
error_code, error_message, error_retryable, started_at, completed_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExtraction(row rowScanner) (Extraction, error) {
	var e Extraction
	var category, source, reason, textStrategy sql.NullString
	var categoryConfidence sql.NullFloat64
	var qualityScore sql.NullInt64
	var provider, model, promptHash sql.NullString
	var result, raw, session sql.NullString
	var errorCode, errorMessage sql.NullString
	var errorRetryable sql.NullBool
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&e.ID,
		&e.DocumentID,
		&e.UserID,
		&e.Kind,
		&e.Generation,
		&e.Status,
		&category,
		&categoryConfidence,
		&source,
		&reason,
		&textStrategy,
		&qualityScore,
		&provider,
		&model,
		&promptHash,
		&result,
		&raw,
		&session,
		&errorCode,
		&errorMessage,
		&errorRetryable,
		&startedAt,
		&completedAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return Extraction{}, err
	}
	if category.Valid {
		e.Category = category.String
	}
	if categoryConfidence.Valid {
		e.CategoryConfidence = categoryConfidence.Float64
	}
	if source.Valid {
		e.Source = source.String
	}
	if reason.Valid {
		e.ConfidenceReason = reason.String
	}
	if textStrategy.Valid {
		e.TextStrategy = textStrategy.String
	}
	if qualityScore.Valid {
		e.QualityScore = int(qualityScore.Int64)
	}
	if provider.Valid {
		e.Provider = provider.String
	}
	if model.Valid {
		e.Model = model.String
	}
	if promptHash.Valid {
		e.PromptHash = promptHash.String
	}
	if result.Valid {
		e.Result = map[string]any{}
		if err := json.Unmarshal([]byte(result.String), &e.Result); err != nil {
			e.Result = nil
		}
	}
	if raw.Valid {
		e.Raw = map[string]any{}
		if err := json.Unmarshal([]byte(raw.String), &e.Raw); err != nil {
			e.Raw = nil
		}
	}
	if session.Valid {
		var summary SessionSummary
		if err := json.Unmarshal([]byte(session.String), &summary); err == nil {
			e.Session = &summary
		}
	}
	if errorCode.Valid {
		e.ErrorCode = errorCode.String
	}
	if errorMessage.Valid {
		e.ErrorMessage = &errorMessage.String
	}
	if errorRetryable.Valid {
		e.ErrorRetryable = errorRetryable.Bool
	}
	if startedAt.Valid {
		e.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		e.CompletedAt = &completedAt.Time
	}
	return e, nil
}

// Create inserts a new extraction with the next generation for its document.
func (r *PGRepo) Create(ctx context.Context, extraction Extraction) (Extraction, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Extraction{}, err
	}
	defer tx.Rollback()

	created, err := createWithTx(ctx, tx, extraction)
	if err != nil {
		return Extraction{}, err
	}
	if err := tx.Commit(); err != nil {
		return Extraction{}, err
	}
	return created, nil
}

func createWithTx(ctx context.Context, tx *sql.Tx, extraction Extraction) (Extraction, error) {
	// Lock the document row so concurrent creates serialize and generation
	// numbers stay strictly increasing per document.
	if _, err := tx.ExecContext(ctx, `SELECT id FROM documents WHERE id = $1 AND user_id = $2 FOR UPDATE`, extraction.DocumentID, extraction.UserID); err != nil {
		return Extraction{}, err
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(generation), 0) + 1 FROM extractions WHERE document_id = $1 AND user_id = $2`,
		extraction.DocumentID, extraction.UserID,
	).Scan(&extraction.Generation); err != nil {
		return Extraction{}, err
	}

	const query = `
INSERT INTO extractions (
	id, document_id, user_id, kind, generation, status, provider, model, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := tx.ExecContext(ctx, query,
		extraction.ID,
		extraction.DocumentID,
		extraction.UserID,
		extraction.Kind,
		extraction.Generation,
		extraction.Status,
		extraction.Provider,
		extraction.Model,
		extraction.CreatedAt,
	); err != nil {
		return Extraction{}, err
	}
	return extraction, nil
}

// GetByID returns an extraction by ID.
func (r *PGRepo) GetByID(ctx context.Context, extractionID string) (Extraction, error) {
	const query = `
SELECT ` + extractionColumns + `
FROM extractions
WHERE id = $1 AND deleted_at IS NULL
LIMIT 1`
	e, err := scanExtraction(r.DB.QueryRowContext(ctx, query, extractionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Extraction{}, ErrNotFound
		}
		return Extraction{}, err
	}
	return e, nil
}

// GetOrCreateForDocument returns the latest extraction for a document or creates a new one.
func (r *PGRepo) GetOrCreateForDocument(ctx context.Context, extraction Extraction, allowRetry bool) (Extraction, bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Extraction{}, false, err
	}
	defer tx.Rollback()

	// Serialize per-document to avoid duplicate extraction creation.
	if _, err := tx.ExecContext(ctx, `SELECT id FROM documents WHERE id = $1 AND user_id = $2 FOR UPDATE`, extraction.DocumentID, extraction.UserID); err != nil {
		return Extraction{}, false, err
	}

	latest, err := latestForDocumentTx(ctx, tx, extraction.UserID, extraction.DocumentID)
	if err == nil {
		switch latest.Status {
		case StatusQueued, StatusProcessing, StatusCompleted:
			if err := tx.Commit(); err != nil {
				return Extraction{}, false, err
			}
			return latest, false, nil
		case StatusFailed, StatusSuperseded:
			if !allowRetry {
				if err := tx.Commit(); err != nil {
					return Extraction{}, false, err
				}
				return latest, false, ErrRetryRequired
			}
		}
	} else if !errors.Is(err, sql.ErrNoRows) && !errors.Is(err, ErrNotFound) {
		return Extraction{}, false, err
	}

	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(generation), 0) + 1 FROM extractions WHERE document_id = $1 AND user_id = $2`,
		extraction.DocumentID, extraction.UserID,
	).Scan(&extraction.Generation); err != nil {
		return Extraction{}, false, err
	}

	const insert = `
INSERT INTO extractions (
	id, document_id, user_id, kind, generation, status, provider, model, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := tx.ExecContext(ctx, insert,
		extraction.ID,
		extraction.DocumentID,
		extraction.UserID,
		extraction.Kind,
		extraction.Generation,
		extraction.Status,
		extraction.Provider,
		extraction.Model,
		extraction.CreatedAt,
	); err != nil {
		return Extraction{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return Extraction{}, false, err
	}
	return extraction, true, nil
}

func latestForDocumentTx(ctx context.Context, tx *sql.Tx, userID, documentID string) (Extraction, error) {
	const query = `
SELECT ` + extractionColumns + `
FROM extractions
WHERE document_id = $1 AND user_id = $2 AND deleted_at IS NULL
ORDER BY generation DESC
LIMIT 1`
	e, err := scanExtraction(tx.QueryRowContext(ctx, query, documentID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Extraction{}, ErrNotFound
		}
		return Extraction{}, err
	}
	return e, nil
}

// UpdateStatusResultAndError updates status/result/error fields and timestamps.
func (r *PGRepo) UpdateStatusResultAndError(ctx context.Context, extractionID, status string, result map[string]any, errorCode *string, errorMessage *string, errorRetryable *bool, startedAt *time.Time, completedAt *time.Time) error {
	const query = `
UPDATE extractions
SET status = $1,
    result = COALESCE($2::jsonb, result),
    error_code = COALESCE($3::text, error_code),
    error_message = COALESCE($4::text, error_message),
    error_retryable = CASE
        WHEN $5::boolean IS NOT NULL THEN $5::boolean
        ELSE error_retryable
    END,
    started_at = CASE
        WHEN $6::timestamptz IS NOT NULL THEN $6::timestamptz
        WHEN $1 = 'processing' AND started_at IS NULL THEN now()
        ELSE started_at
    END,
    completed_at = CASE
        WHEN $7::timestamptz IS NOT NULL THEN $7::timestamptz
        WHEN ($1 = 'completed' OR $1 = 'failed') AND completed_at IS NULL THEN now()
        ELSE completed_at
    END,
    updated_at = now()
WHERE id = $8::uuid`

	var payload any
	var err error
	if result != nil {
		payload, err = json.Marshal(result)
		if err != nil {
			return err
		}
	}

	res, err := r.DB.ExecContext(ctx, query, status, payload, errorCode, errorMessage, errorRetryable, startedAt, completedAt, extractionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRaw stores the raw provider payload for debugging.
func (r *PGRepo) UpdateRaw(ctx context.Context, extractionID string, raw any) error {
	const query = `
UPDATE extractions
SET raw = $1::jsonb,
    updated_at = now()
WHERE id = $2::uuid`

	payload, err := marshalJSONB(raw)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, payload, extractionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteIfCurrent publishes a result only if the run is still the newest
// generation for its document; otherwise the row is marked superseded.
func (r *PGRepo) CompleteIfCurrent(ctx context.Context, extractionID string, update CompletionUpdate) error {
	const query = `
UPDATE extractions e
SET status = 'completed',
    result = $1::jsonb,
    category = $2,
    category_confidence = $3,
    source = $4,
    confidence_reason = NULLIF($5, ''),
    text_strategy = $6,
    quality_score = $7,
    prompt_hash = NULLIF($8, ''),
    session = $9::jsonb,
    completed_at = $10::timestamptz,
    updated_at = now()
WHERE e.id = $11::uuid
  AND NOT EXISTS (
      SELECT 1 FROM extractions newer
      WHERE newer.document_id = e.document_id
        AND newer.user_id = e.user_id
        AND newer.generation > e.generation
        AND newer.deleted_at IS NULL
  )`

	resultPayload, err := marshalJSONB(update.Result)
	if err != nil {
		return err
	}
	sessionPayload, err := marshalJSONB(update.Session)
	if err != nil {
		return err
	}

	res, err := r.DB.ExecContext(ctx, query,
		resultPayload,
		update.Category,
		update.CategoryConfidence,
		update.Source,
		update.ConfidenceReason,
		update.TextStrategy,
		update.QualityScore,
		update.PromptHash,
		sessionPayload,
		update.CompletedAt,
		extractionID,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return nil
	}

	// A newer generation exists (or the row is gone). Mark superseded; a
	// missing row surfaces as ErrNotFound.
	const supersede = `
UPDATE extractions
SET status = 'superseded',
    completed_at = $1::timestamptz,
    updated_at = now()
WHERE id = $2::uuid`
	res, err = r.DB.ExecContext(ctx, supersede, update.CompletedAt, extractionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return ErrStaleGeneration
}

// ListByUser lists extractions for a user ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Extraction, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	const query = `
SELECT ` + extractionColumns + `
FROM extractions
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Extraction
	for rows.Next() {
		e, err := scanExtraction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LatestForDocument returns the highest-generation extraction for a document.
func (r *PGRepo) LatestForDocument(ctx context.Context, userID, documentID string) (Extraction, error) {
	const query = `
SELECT ` + extractionColumns + `
FROM extractions
WHERE document_id = $1 AND user_id = $2 AND deleted_at IS NULL
ORDER BY generation DESC
LIMIT 1`
	e, err := scanExtraction(r.DB.QueryRowContext(ctx, query, documentID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Extraction{}, ErrNotFound
		}
		return Extraction{}, err
	}
	return e, nil
}

var _ Repo = (*PGRepo)(nil)

func marshalJSONB(value any) ([]byte, error) {
	if value == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(value)
}
