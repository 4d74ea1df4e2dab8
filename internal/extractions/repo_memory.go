package extractions

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores extractions in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]Extraction
	byUser map[string][]string
	byDoc  map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]Extraction),
		byUser: make(map[string][]string),
		byDoc:  make(map[string][]string),
	}
}

func docKey(userID, documentID string) string {
	return userID + "/" + documentID
}

// Create stores the extraction with the next generation for its document.
func (r *MemoryRepo) Create(ctx context.Context, extraction Extraction) (Extraction, error) {
	if err := ctx.Err(); err != nil {
		return Extraction{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createLocked(extraction), nil
}

func (r *MemoryRepo) createLocked(extraction Extraction) Extraction {
	key := docKey(extraction.UserID, extraction.DocumentID)
	extraction.Generation = r.maxGenerationLocked(key) + 1
	r.byID[extraction.ID] = extraction
	r.byUser[extraction.UserID] = append(r.byUser[extraction.UserID], extraction.ID)
	r.byDoc[key] = append(r.byDoc[key], extraction.ID)
	return extraction
}

func (r *MemoryRepo) maxGenerationLocked(key string) int64 {
	var max int64
	for _, id := range r.byDoc[key] {
		if g := r.byID[id].Generation; g > max {
			max = g
		}
	}
	return max
}

// GetByID returns an extraction by its ID.
func (r *MemoryRepo) GetByID(ctx context.Context, extractionID string) (Extraction, error) {
	if err := ctx.Err(); err != nil {
		return Extraction{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	extraction, ok := r.byID[extractionID]
	if !ok {
		return Extraction{}, ErrNotFound
	}
	return extraction, nil
}

// GetOrCreateForDocument reuses the latest extraction or creates a new one.
func (r *MemoryRepo) GetOrCreateForDocument(ctx context.Context, extraction Extraction, allowRetry bool) (Extraction, bool, error) {
	if err := ctx.Err(); err != nil {
		return Extraction{}, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	latest, ok := r.latestLocked(extraction.UserID, extraction.DocumentID)
	if ok {
		switch latest.Status {
		case StatusQueued, StatusProcessing, StatusCompleted:
			return latest, false, nil
		case StatusFailed, StatusSuperseded:
			if !allowRetry {
				return latest, false, ErrRetryRequired
			}
		}
	}
	created := r.createLocked(extraction)
	return created, true, nil
}

func (r *MemoryRepo) latestLocked(userID, documentID string) (Extraction, bool) {
	ids := r.byDoc[docKey(userID, documentID)]
	var latest Extraction
	found := false
	for _, id := range ids {
		e := r.byID[id]
		if !found || e.Generation > latest.Generation {
			latest = e
			found = true
		}
	}
	return latest, found
}

// UpdateStatusResultAndError updates status/result/error fields and timestamps.
func (r *MemoryRepo) UpdateStatusResultAndError(ctx context.Context, extractionID, status string, result map[string]any, errorCode *string, errorMessage *string, errorRetryable *bool, startedAt *time.Time, completedAt *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	extraction, ok := r.byID[extractionID]
	if !ok {
		return ErrNotFound
	}
	extraction.Status = status
	if result != nil {
		extraction.Result = result
	}
	if errorCode != nil {
		extraction.ErrorCode = *errorCode
	}
	if errorMessage != nil {
		extraction.ErrorMessage = errorMessage
	}
	if errorRetryable != nil {
		extraction.ErrorRetryable = *errorRetryable
	}
	if startedAt != nil {
		extraction.StartedAt = startedAt
	} else if status == StatusProcessing && extraction.StartedAt == nil {
		now := time.Now().UTC()
		extraction.StartedAt = &now
	}
	if completedAt != nil {
		extraction.CompletedAt = completedAt
	} else if (status == StatusCompleted || status == StatusFailed) && extraction.CompletedAt == nil {
		now := time.Now().UTC()
		extraction.CompletedAt = &now
	}
	extraction.UpdatedAt = time.Now().UTC()
	r.byID[extractionID] = extraction
	return nil
}

// UpdateRaw stores the raw provider payload for debugging.
func (r *MemoryRepo) UpdateRaw(ctx context.Context, extractionID string, raw any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	extraction, ok := r.byID[extractionID]
	if !ok {
		return ErrNotFound
	}
	if m, ok := raw.(map[string]any); ok {
		extraction.Raw = m
	} else {
		extraction.Raw = map[string]any{"raw": raw}
	}
	extraction.UpdatedAt = time.Now().UTC()
	r.byID[extractionID] = extraction
	return nil
}

// CompleteIfCurrent publishes a result unless a newer generation exists.
func (r *MemoryRepo) CompleteIfCurrent(ctx context.Context, extractionID string, update CompletionUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	extraction, ok := r.byID[extractionID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	if max := r.maxGenerationLocked(docKey(extraction.UserID, extraction.DocumentID)); extraction.Generation < max {
		extraction.Status = StatusSuperseded
		extraction.CompletedAt = &update.CompletedAt
		extraction.UpdatedAt = now
		r.byID[extractionID] = extraction
		return ErrStaleGeneration
	}

	extraction.Status = StatusCompleted
	extraction.Result = update.Result
	extraction.Category = update.Category
	extraction.CategoryConfidence = update.CategoryConfidence
	extraction.Source = update.Source
	extraction.ConfidenceReason = update.ConfidenceReason
	extraction.TextStrategy = update.TextStrategy
	extraction.QualityScore = update.QualityScore
	extraction.PromptHash = update.PromptHash
	extraction.Session = update.Session
	extraction.CompletedAt = &update.CompletedAt
	extraction.UpdatedAt = now
	r.byID[extractionID] = extraction
	return nil
}

// ListByUser returns extractions for a user, newest first, with limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Extraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	ids := r.byUser[userID]
	out := make([]Extraction, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.byID[id])
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset >= len(out) {
		return []Extraction{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// LatestForDocument returns the highest-generation extraction for a document.
func (r *MemoryRepo) LatestForDocument(ctx context.Context, userID, documentID string) (Extraction, error) {
	if err := ctx.Err(); err != nil {
		return Extraction{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	latest, ok := r.latestLocked(userID, documentID)
	if !ok {
		return Extraction{}, ErrNotFound
	}
	return latest, nil
}

var _ Repo = (*MemoryRepo)(nil)
