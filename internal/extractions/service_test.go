package extractions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cvparse-backend/internal/documents"
	"cvparse-backend/internal/llm"
	"cvparse-backend/internal/shared/storage/object/local"
)

const sampleCVText = `Marie Lefevre
Assistante de Direction
marie.lefevre@example.com
06 12 34 56 78

Expérience professionnelle
03/2021 - Present
Assistante de Direction
Groupe Horizon SA

01/2018 - 02/2021
Office Manager
Atelier Lumière SARL

Compétences
Gestion d'agenda, Organisation, Communication

Langues
Anglais : courant
`

const validCandidateJSON = `{
  "personalInfo": {"name": "Marie Lefevre", "email": "marie.lefevre@example.com", "phone": "06 12 34 56 78"},
  "currentPosition": "Assistante de Direction",
  "skills": ["Gestion d'agenda", "Organisation"],
  "software": ["Excel"],
  "languages": [{"language": "Anglais", "level": "Courant"}],
  "workExperience": [
    {"title": "Assistante de Direction", "company": "Groupe Horizon SA", "startDate": "03/2021", "endDate": "Present"},
    {"title": "Office Manager", "company": "Atelier Lumière SARL", "startDate": "01/2018", "endDate": "02/2021"}
  ],
  "education": [{"degree": "BTS Assistant de Manager", "institution": "Lycée Jean Moulin", "year": "2017"}]
}`

type staticLLMResponse struct {
	resp string
}

func (s staticLLMResponse) Extract(ctx context.Context, input llm.ExtractInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return json.RawMessage(s.resp), nil
}

type failingLLM struct{}

func (failingLLM) Extract(ctx context.Context, input llm.ExtractInput) (json.RawMessage, error) {
	return nil, errors.New("provider unavailable")
}

type unreachableLLM struct{}

func (unreachableLLM) Extract(ctx context.Context, input llm.ExtractInput) (json.RawMessage, error) {
	return json.RawMessage(validCandidateJSON), nil
}

func (unreachableLLM) Probe(ctx context.Context) error {
	return errors.New("connection refused")
}

func setupServiceWithDoc(t *testing.T, llmClient llm.Client) (*Service, *MemoryRepo, *documents.MemoryRepo, string) {
	t.Helper()
	store := local.New(t.TempDir())
	docRepo := documents.NewMemoryRepo()
	repo := NewMemoryRepo()

	userID := "user-1"
	storageKey, _, _, err := store.Save(context.Background(), userID, "cv.txt", bytes.NewReader([]byte(sampleCVText)))
	if err != nil {
		t.Fatalf("save document: %v", err)
	}

	doc := documents.Document{
		ID:         "doc-1",
		UserID:     userID,
		FileName:   "cv.txt",
		MimeType:   "text/plain",
		SizeBytes:  int64(len(sampleCVText)),
		StorageKey: storageKey,
		CreatedAt:  time.Now().UTC(),
	}
	if err := docRepo.Create(context.Background(), doc); err != nil {
		t.Fatalf("create doc: %v", err)
	}

	svc := &Service{
		Repo:    repo,
		DocRepo: docRepo,
		Store:   store,
		LLM:     llmClient,
	}

	return svc, repo, docRepo, doc.ID
}

func createQueued(t *testing.T, repo *MemoryRepo, docID string) Extraction {
	t.Helper()
	created, err := repo.Create(context.Background(), Extraction{
		ID:         "ext-" + time.Now().Format("150405.000000"),
		DocumentID: docID,
		UserID:     "user-1",
		Kind:       string(llm.KindCV),
		Status:     StatusQueued,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create extraction: %v", err)
	}
	return created
}

func TestExtractionCompletesFromLLM(t *testing.T) {
	svc, repo, _, docID := setupServiceWithDoc(t, staticLLMResponse{resp: validCandidateJSON})
	created := createQueued(t, repo, docID)

	svc.completeAsync(context.Background(), created.ID)

	got, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get extraction: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("expected status completed, got %s (error %s)", got.Status, got.ErrorCode)
	}
	if got.Source != SourceLLM {
		t.Fatalf("expected source llm, got %s", got.Source)
	}
	if got.Result == nil {
		t.Fatalf("expected result to be stored")
	}
	pi, ok := got.Result["personalInfo"].(map[string]any)
	if !ok || pi["name"] != "Marie Lefevre" {
		t.Fatalf("expected personalInfo name in result, got %#v", got.Result["personalInfo"])
	}
	if got.Category == "" {
		t.Fatalf("expected category to be set")
	}
	if got.QualityScore <= 0 {
		t.Fatalf("expected positive quality score, got %d", got.QualityScore)
	}
	if got.CompletedAt == nil {
		t.Fatalf("expected completed_at to be set")
	}
	if got.Session == nil || len(got.Session.Steps) == 0 {
		t.Fatalf("expected session steps to be recorded")
	}
}

func TestExtractionFallsBackToHeuristicOnLLMError(t *testing.T) {
	svc, repo, _, docID := setupServiceWithDoc(t, failingLLM{})
	created := createQueued(t, repo, docID)

	svc.completeAsync(context.Background(), created.ID)

	got, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get extraction: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("expected status completed, got %s (error %s)", got.Status, got.ErrorCode)
	}
	if got.Source != SourceHeuristic {
		t.Fatalf("expected source heuristic, got %s", got.Source)
	}
	if got.Result == nil {
		t.Fatalf("expected heuristic result to be stored")
	}
	pi, ok := got.Result["personalInfo"].(map[string]any)
	if !ok || pi["email"] != "marie.lefevre@example.com" {
		t.Fatalf("expected heuristic personalInfo email, got %#v", got.Result["personalInfo"])
	}
}

func TestExtractionFallsBackWhenProbeFails(t *testing.T) {
	svc, repo, _, docID := setupServiceWithDoc(t, unreachableLLM{})
	created := createQueued(t, repo, docID)

	svc.completeAsync(context.Background(), created.ID)

	got, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get extraction: %v", err)
	}
	if got.Source != SourceHeuristic {
		t.Fatalf("expected source heuristic after probe failure, got %s", got.Source)
	}
	if got.Session == nil {
		t.Fatalf("expected session to be recorded")
	}
	found := false
	for _, step := range got.Session.Steps {
		if step.Name == "llm_probe" && step.Outcome == "unreachable" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected llm_probe step with unreachable outcome, got %#v", got.Session.Steps)
	}
}

func TestExtractionLowConfidenceTagged(t *testing.T) {
	thin := `{
  "personalInfo": {"name": "Marie Lefevre", "email": "marie.lefevre@example.com", "phone": "À compléter"},
  "currentPosition": "À compléter",
  "skills": [],
  "software": [],
  "languages": [],
  "workExperience": [{"title": "À compléter", "company": "À compléter", "startDate": "À compléter", "endDate": "À compléter"}],
  "education": []
}`
	svc, repo, _, docID := setupServiceWithDoc(t, staticLLMResponse{resp: thin})
	created := createQueued(t, repo, docID)

	svc.completeAsync(context.Background(), created.ID)

	got, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get extraction: %v", err)
	}
	if got.Status != StatusCompleted {
		t.Fatalf("expected status completed, got %s (error %s)", got.Status, got.ErrorCode)
	}
	if got.Source != SourceLowConfidence {
		t.Fatalf("expected source low-confidence, got %s", got.Source)
	}
	if got.ConfidenceReason == "" {
		t.Fatalf("expected confidence reason to be set")
	}
	// The thin result itself is kept, not replaced.
	pi, ok := got.Result["personalInfo"].(map[string]any)
	if !ok || pi["name"] != "Marie Lefevre" {
		t.Fatalf("expected original result to be preserved, got %#v", got.Result["personalInfo"])
	}
}

func TestExtractionStaleGenerationNeverOverwrites(t *testing.T) {
	svc, repo, _, docID := setupServiceWithDoc(t, staticLLMResponse{resp: validCandidateJSON})

	older, err := repo.Create(context.Background(), Extraction{
		ID: "ext-old", DocumentID: docID, UserID: "user-1",
		Kind: string(llm.KindCV), Status: StatusQueued, CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create older extraction: %v", err)
	}
	newer, err := repo.Create(context.Background(), Extraction{
		ID: "ext-new", DocumentID: docID, UserID: "user-1",
		Kind: string(llm.KindCV), Status: StatusQueued, CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create newer extraction: %v", err)
	}
	if newer.Generation <= older.Generation {
		t.Fatalf("expected newer generation > older, got %d <= %d", newer.Generation, older.Generation)
	}

	svc.completeAsync(context.Background(), newer.ID)
	// The older run finishes after the newer one started and completed.
	svc.completeAsync(context.Background(), older.ID)

	gotOlder, err := repo.GetByID(context.Background(), older.ID)
	if err != nil {
		t.Fatalf("get older extraction: %v", err)
	}
	if gotOlder.Status != StatusSuperseded {
		t.Fatalf("expected older run superseded, got %s", gotOlder.Status)
	}
	if gotOlder.Result != nil {
		t.Fatalf("expected no result published for superseded run")
	}

	gotNewer, err := repo.GetByID(context.Background(), newer.ID)
	if err != nil {
		t.Fatalf("get newer extraction: %v", err)
	}
	if gotNewer.Status != StatusCompleted || gotNewer.Result == nil {
		t.Fatalf("expected newer run completed with result, got %s", gotNewer.Status)
	}

	latest, err := repo.LatestForDocument(context.Background(), "user-1", docID)
	if err != nil {
		t.Fatalf("latest for document: %v", err)
	}
	if latest.ID != newer.ID {
		t.Fatalf("expected latest to be the newer run, got %s", latest.ID)
	}
}

func TestExtractionFailsWhenDocumentMissing(t *testing.T) {
	svc, repo, _, _ := setupServiceWithDoc(t, staticLLMResponse{resp: validCandidateJSON})
	created := createQueued(t, repo, "doc-missing")

	svc.completeAsync(context.Background(), created.ID)

	got, err := repo.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get extraction: %v", err)
	}
	if got.Status != StatusFailed {
		t.Fatalf("expected status failed, got %s", got.Status)
	}
	if got.ErrorCode != ErrorCodeStorage {
		t.Fatalf("expected error code %s, got %s", ErrorCodeStorage, got.ErrorCode)
	}
	if !got.ErrorRetryable {
		t.Fatalf("expected storage failure to be retryable")
	}
}

func TestStartOrReuseIsIdempotent(t *testing.T) {
	svc, _, _, docID := setupServiceWithDoc(t, staticLLMResponse{resp: validCandidateJSON})

	first, isNew, err := svc.StartOrReuse(context.Background(), docID, "user-1", "cv", false)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	if !isNew {
		t.Fatalf("expected first start to create an extraction")
	}

	second, isNew, err := svc.StartOrReuse(context.Background(), docID, "user-1", "cv", false)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if isNew {
		t.Fatalf("expected second start to reuse the existing extraction")
	}
	if second.ID != first.ID {
		t.Fatalf("expected same extraction id, got %s and %s", first.ID, second.ID)
	}
}

func TestNormalizeKindRejectsUnknown(t *testing.T) {
	if _, err := normalizeKind("spreadsheet"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind for unknown kind, got %v", err)
	}
	kind, err := normalizeKind("")
	if err != nil {
		t.Fatalf("empty kind: %v", err)
	}
	if kind != string(llm.KindCV) {
		t.Fatalf("expected empty kind to default to cv, got %s", kind)
	}
}

func TestClassifyFailureCodes(t *testing.T) {
	cases := []struct {
		err       error
		code      string
		retryable bool
	}{
		{context.DeadlineExceeded, ErrorCodeLLMTimeout, true},
		{errors.New("openai request timeout after 120s"), ErrorCodeLLMTimeout, true},
		{errors.New("schema validation failed: personalInfo: required"), ErrorCodeLLMSchemaMismatch, false},
		{errors.New("document lookup id=x: not found"), ErrorCodeStorage, true},
		{errors.New("something odd"), ErrorCodeInternal, false},
	}
	for _, tc := range cases {
		code, retryable := classifyFailure(tc.err)
		if code != tc.code || retryable != tc.retryable {
			t.Fatalf("classifyFailure(%v) = %s/%v, want %s/%v", tc.err, code, retryable, tc.code, tc.retryable)
		}
	}
}
