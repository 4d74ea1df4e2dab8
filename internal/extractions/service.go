package extractions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cvparse-backend/internal/documents"
	"cvparse-backend/internal/heuristic"
	"cvparse-backend/internal/llm"
	"cvparse-backend/internal/queue"
	"cvparse-backend/internal/records"
	"cvparse-backend/internal/shared/metrics"
	"cvparse-backend/internal/shared/storage/object"
	"cvparse-backend/internal/shared/telemetry"
	"cvparse-backend/internal/textextract"
)

// Service contains business logic for extractions.
type Service struct {
	Repo     Repo
	DocRepo  documents.DocumentsRepo
	Store    object.ObjectStore
	LLM      llm.Client
	JobQueue queue.Client
	Provider string
	Model    string
}

// dispatch hands the run to the queue when one is configured, otherwise it
// processes in-process. A failed enqueue degrades to in-process so the run
// still happens.
func (s *Service) dispatch(ctx context.Context, extractionID string) {
	if s.JobQueue != nil {
		msg := queue.Message{
			ExtractionID: extractionID,
			RequestID:    requestIDFromContext(ctx),
			EnqueuedAt:   time.Now().UTC().Format(time.RFC3339),
			Version:      1,
		}
		err := s.JobQueue.Send(ctx, msg)
		if err == nil {
			return
		}
		telemetry.Error("extraction.enqueue", map[string]any{
			"extraction_id": extractionID,
			"error":         sanitizeError(err),
		})
	}
	go s.completeAsync(backgroundWithRequestID(ctx), extractionID)
}

// Create enqueues a new extraction and kicks off asynchronous completion.
func (s *Service) Create(ctx context.Context, documentID, userID, kind string) (Extraction, error) {
	kind, err := normalizeKind(kind)
	if err != nil {
		return Extraction{}, err
	}
	if documentID == "" || userID == "" {
		return Extraction{}, errors.New("documentID and userID are required")
	}

	extraction := Extraction{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		UserID:     userID,
		Kind:       kind,
		Status:     StatusQueued,
		Provider:   normalizeProvider(s.Provider),
		Model:      s.Model,
		CreatedAt:  time.Now().UTC(),
	}

	created, err := s.Repo.Create(ctx, extraction)
	if err != nil {
		return Extraction{}, err
	}

	s.dispatch(ctx, created.ID)

	return created, nil
}

// StartOrReuse enqueues a new extraction or reuses an existing one for
// idempotent requests.
func (s *Service) StartOrReuse(ctx context.Context, documentID, userID, kind string, allowRetry bool) (Extraction, bool, error) {
	kind, err := normalizeKind(kind)
	if err != nil {
		return Extraction{}, false, err
	}
	if documentID == "" || userID == "" {
		return Extraction{}, false, errors.New("documentID and userID are required")
	}

	extraction := Extraction{
		ID:         uuid.NewString(),
		DocumentID: documentID,
		UserID:     userID,
		Kind:       kind,
		Status:     StatusQueued,
		Provider:   normalizeProvider(s.Provider),
		Model:      s.Model,
		CreatedAt:  time.Now().UTC(),
	}

	created, isNew, err := s.Repo.GetOrCreateForDocument(ctx, extraction, allowRetry)
	if err != nil {
		return created, false, err
	}
	if isNew {
		s.dispatch(ctx, created.ID)
	}
	return created, isNew, nil
}

// Get returns an extraction by ID.
func (s *Service) Get(ctx context.Context, extractionID string) (Extraction, error) {
	if extractionID == "" {
		return Extraction{}, errors.New("extractionID is required")
	}
	return s.Repo.GetByID(ctx, extractionID)
}

// List returns extractions for a user ordered newest-first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Extraction, error) {
	if userID == "" {
		return nil, errors.New("userID is required")
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Latest returns the highest-generation extraction for a document.
func (s *Service) Latest(ctx context.Context, userID, documentID string) (Extraction, error) {
	if userID == "" || documentID == "" {
		return Extraction{}, errors.New("userID and documentID are required")
	}
	return s.Repo.LatestForDocument(ctx, userID, documentID)
}

func normalizeKind(kind string) (string, error) {
	switch strings.TrimSpace(strings.ToLower(kind)) {
	case "", string(llm.KindCV):
		return string(llm.KindCV), nil
	case string(llm.KindJob):
		return string(llm.KindJob), nil
	default:
		return "", fmt.Errorf("%w %q", ErrInvalidKind, kind)
	}
}

func normalizeProvider(provider string) string {
	if strings.TrimSpace(provider) == "" {
		return "openai"
	}
	return provider
}

// Process runs the pipeline synchronously for an already-created extraction.
// Queue workers call this directly.
func (s *Service) Process(ctx context.Context, extractionID string) {
	s.completeAsync(ctx, extractionID)
}

func (s *Service) completeAsync(ctx context.Context, extractionID string) {
	defer func() {
		if r := recover(); r != nil {
			s.failExtraction(ctx, extractionID, "", "", fmt.Errorf("panic: %v", r), nil)
		}
	}()
	startedAt := time.Now().UTC()
	if err := s.Repo.UpdateStatusResultAndError(ctx, extractionID, StatusProcessing, nil, nil, nil, nil, &startedAt, nil); err != nil {
		s.failExtraction(ctx, extractionID, "", "", fmt.Errorf("set processing failed: %w", err), &startedAt)
		return
	}

	extraction, err := s.Repo.GetByID(ctx, extractionID)
	if err != nil {
		s.failExtraction(ctx, extractionID, "", "", fmt.Errorf("extraction lookup: %w", err), &startedAt)
		return
	}
	metrics.IncExtractionStarted()
	telemetry.Info("extraction.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           extraction.UserID,
		"document_id":       extraction.DocumentID,
		"extraction_id":     extraction.ID,
		"generation":        extraction.Generation,
		"status":            StatusProcessing,
		"status_transition": "queued->processing",
	})
	if s.DocRepo == nil || s.Store == nil {
		s.failExtraction(ctx, extractionID, extraction.UserID, extraction.DocumentID, errors.New("missing document store dependencies"), &startedAt)
		return
	}

	doc, err := s.DocRepo.GetByID(ctx, extraction.UserID, extraction.DocumentID)
	if err != nil {
		s.failExtraction(ctx, extractionID, extraction.UserID, extraction.DocumentID, fmt.Errorf("document lookup id=%s: %w", extraction.DocumentID, err), &startedAt)
		return
	}

	session := NewSession()

	done := session.Step("acquire_text")
	acquired, err := textextract.AcquireFromStore(ctx, s.Store, doc.StorageKey, doc.MimeType, doc.FileName)
	if err != nil {
		done("error")
		s.failExtraction(ctx, extractionID, extraction.UserID, extraction.DocumentID, fmt.Errorf("document %s mime %s: %w", doc.ID, doc.MimeType, err), &startedAt)
		return
	}
	done(string(acquired.Strategy))
	if doc.ExtractedTextKey == "" {
		extractedKey := doc.StorageKey + ".extracted.txt"
		if err := s.DocRepo.UpdateExtraction(ctx, doc.UserID, doc.ID, extractedKey, time.Now().UTC()); err != nil {
			s.failExtraction(ctx, extractionID, extraction.UserID, extraction.DocumentID, fmt.Errorf("document %s: update extraction key: %w", doc.ID, err), &startedAt)
			return
		}
	}

	update := s.runPipeline(ctx, extractionID, extraction, acquired, session)

	update.CompletedAt = time.Now().UTC()
	update.Session = session.Summary()
	if err := s.Repo.CompleteIfCurrent(ctx, extractionID, update); err != nil {
		if errors.Is(err, ErrStaleGeneration) {
			metrics.IncExtractionSuperseded()
			telemetry.Info("extraction.status", map[string]any{
				"request_id":        requestIDFromContext(ctx),
				"user_id":           extraction.UserID,
				"document_id":       extraction.DocumentID,
				"extraction_id":     extraction.ID,
				"generation":        extraction.Generation,
				"status":            StatusSuperseded,
				"status_transition": "processing->superseded",
			})
			return
		}
		s.failExtraction(ctx, extractionID, extraction.UserID, extraction.DocumentID, fmt.Errorf("set extraction result failed: %w", err), &startedAt)
		return
	}

	metrics.IncExtractionCompleted()
	metrics.ObserveExtractionDurationMs(durationMs(&startedAt, &update.CompletedAt))
	telemetry.Info("extraction.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           extraction.UserID,
		"document_id":       extraction.DocumentID,
		"extraction_id":     extraction.ID,
		"generation":        extraction.Generation,
		"status":            StatusCompleted,
		"status_transition": "processing->completed",
		"source":            update.Source,
		"category":          update.Category,
		"quality_score":     update.QualityScore,
		"text_strategy":     update.TextStrategy,
		"duration_ms":       durationMs(&startedAt, &update.CompletedAt),
	})
}

// runPipeline turns acquired text into a completion update. It never fails:
// every escalation path degrades to the heuristic result.
func (s *Service) runPipeline(ctx context.Context, extractionID string, extraction Extraction, acquired textextract.Acquired, session *Session) CompletionUpdate {
	kind := llm.DocumentKind(extraction.Kind)

	done := session.Step("classify")
	scores := llm.Classify(acquired.Text)
	top := scores[0]
	done(string(top.Category))

	update := CompletionUpdate{
		Category:           string(top.Category),
		CategoryConfidence: top.Confidence,
		TextStrategy:       string(acquired.Strategy),
	}

	done = session.Step("heuristic_extract")
	heuristicResult := heuristicResultForKind(kind, acquired.Text)
	done("ok")

	raw, promptHash, llmErr := s.tryLLM(ctx, acquired.Text, kind, top.Category, session)
	if llmErr != nil {
		update.Source = SourceHeuristic
		update.ConfidenceReason = ""
		update.Result = heuristicResult
		update.QualityScore = scoreForKind(kind, heuristicResult, session)
		telemetry.Info("extraction.fallback", map[string]any{
			"request_id":    requestIDFromContext(ctx),
			"extraction_id": extractionID,
			"reason":        sanitizeError(llmErr),
		})
		return update
	}

	if err := s.Repo.UpdateRaw(ctx, extractionID, buildRawPayload(raw)); err != nil {
		telemetry.Error("extraction.raw_store", map[string]any{
			"extraction_id": extractionID,
			"error":         sanitizeError(err),
		})
	}
	update.PromptHash = promptHash

	done = session.Step("decode")
	result, reason, err := decodeForKind(kind, raw, top.Category)
	if err != nil {
		done("error")
		update.Source = SourceHeuristic
		update.Result = heuristicResult
		update.QualityScore = scoreForKind(kind, heuristicResult, session)
		return update
	}
	done("ok")

	update.Result = result
	update.Source = SourceLLM
	if reason != "" {
		update.Source = SourceLowConfidence
		update.ConfidenceReason = reason
	}
	update.QualityScore = scoreForKind(kind, result, session)
	return update
}

// tryLLM probes the provider and runs the schema-validated extraction call.
// Any failure here means "use the heuristic result", not "fail the run".
func (s *Service) tryLLM(ctx context.Context, text string, kind llm.DocumentKind, category llm.Category, session *Session) (json.RawMessage, string, error) {
	if s.LLM == nil {
		return nil, "", errors.New("llm not configured")
	}

	if prober, ok := s.LLM.(llm.Prober); ok {
		done := session.Step("llm_probe")
		if err := prober.Probe(ctx); err != nil {
			done("unreachable")
			return nil, "", fmt.Errorf("llm probe: %w", err)
		}
		done("ok")
	}

	input := llm.ExtractInput{
		Text:     text,
		Kind:     kind,
		Category: category,
	}
	var promptHash string
	ctxWithHash := llm.WithPromptHashSink(ctx, &promptHash)

	done := session.Step("llm_extract")
	raw, err := ExtractValidated(ctxWithHash, s.LLM, input)
	if err != nil {
		done("error")
		return nil, "", err
	}
	done("ok")
	return raw, promptHash, nil
}

func heuristicResultForKind(kind llm.DocumentKind, text string) map[string]any {
	if kind == llm.KindJob {
		return toResultMap(heuristic.ExtractJobPosting(text))
	}
	return toResultMap(heuristic.ExtractCandidate(text))
}

// decodeForKind validates raw JSON into a result map and, for CVs, reports a
// low-confidence reason when the record looks too thin for its category.
func decodeForKind(kind llm.DocumentKind, raw json.RawMessage, category llm.Category) (map[string]any, string, error) {
	if kind == llm.KindJob {
		rec, err := ValidateJobPosting(raw)
		if err != nil {
			return nil, "", err
		}
		return toResultMap(rec), "", nil
	}
	rec, err := ValidateCandidate(raw)
	if err != nil {
		return nil, "", err
	}
	return toResultMap(rec), lowConfidenceReason(rec, category), nil
}

func scoreForKind(kind llm.DocumentKind, result map[string]any, session *Session) int {
	raw, err := json.Marshal(result)
	if err != nil {
		return 0
	}
	if kind == llm.KindJob {
		var rec records.JobPosting
		if err := json.Unmarshal(raw, &rec); err != nil {
			return 0
		}
		return ScoreJobPosting(rec, session)
	}
	var rec records.CandidateRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return 0
	}
	return ScoreCandidate(rec, session)
}

func toResultMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func (s *Service) failExtraction(ctx context.Context, extractionID, userID, documentID string, err error, startedAt *time.Time) {
	code, retryable := classifyFailure(err)
	msg := sanitizeError(err)
	completedAt := time.Now().UTC()
	if updateErr := s.Repo.UpdateStatusResultAndError(context.Background(), extractionID, StatusFailed, nil, &code, &msg, &retryable, nil, &completedAt); updateErr != nil {
		fmt.Printf("failExtraction: update failed id=%s err=%v orig=%v\n", extractionID, updateErr, err)
	}
	metrics.IncExtractionFailed()
	if startedAt != nil {
		metrics.ObserveExtractionDurationMs(durationMs(startedAt, &completedAt))
	}
	telemetry.Info("extraction.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           userID,
		"document_id":       documentID,
		"extraction_id":     extractionID,
		"status":            StatusFailed,
		"status_transition": "processing->failed",
		"error_code":        code,
		"duration_ms":       durationMs(startedAt, &completedAt),
	})
}

func durationMs(startedAt, completedAt *time.Time) float64 {
	if startedAt == nil || completedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
}

func classifyFailure(err error) (string, bool) {
	if err == nil {
		return ErrorCodeInternal, false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeLLMTimeout, true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "openai request timeout") {
		return ErrorCodeLLMTimeout, true
	}
	if strings.Contains(msg, "timeout") && strings.Contains(msg, "llm") {
		return ErrorCodeLLMTimeout, true
	}
	if strings.Contains(msg, "schema") || strings.Contains(msg, "llm output invalid") {
		return ErrorCodeLLMSchemaMismatch, false
	}
	if strings.Contains(msg, "validation") && !strings.Contains(msg, "llm") {
		return ErrorCodeValidation, false
	}
	if strings.Contains(msg, "document") || strings.Contains(msg, "storage") || strings.Contains(msg, "extraction result") || strings.Contains(msg, "set processing") {
		return ErrorCodeStorage, true
	}
	return ErrorCodeInternal, false
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}

func buildRawPayload(raw json.RawMessage) any {
	if len(raw) == 0 {
		return map[string]any{"rawText": ""}
	}
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err == nil {
		return parsed
	}
	return map[string]any{"rawText": string(raw)}
}
