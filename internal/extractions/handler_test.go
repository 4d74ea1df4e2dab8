package extractions_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"cvparse-backend/internal/bootstrap"
	"cvparse-backend/internal/shared/config"
)

const handlerCVText = `Jean Moreau
jean.moreau@example.com
06 98 76 54 32
Developpeur backend

EXPERIENCE
Developpeur backend - SoftGroupe
Mars 2020 - Present
Developpement d'API et maintenance de services.

Developpeur junior - WebAtelier
Janvier 2018 - Fevrier 2020
Integration et corrections de bugs.

COMPETENCES
Go, PostgreSQL, Docker, Anglais professionnel
`

func buildTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		LocalStoreDir:   t.TempDir(),
		Env:             "dev",
		ObjectStoreType: "local",
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

func uploadDocument(t *testing.T, router *gin.Engine, guestID string) string {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fileWriter, err := writer.CreateFormFile("file", "cv.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write([]byte(handlerCVText)); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Guest-Id", guestID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201 uploading document, got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		DocumentID string `json:"documentId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if created.DocumentID == "" {
		t.Fatalf("expected documentId, got empty")
	}
	return created.DocumentID
}

func startExtraction(t *testing.T, router *gin.Engine, guestID, documentID string) (int, map[string]any) {
	t.Helper()

	payload := `{"documentId":"` + documentID + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extractions", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", guestID)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode extraction response: %v", err)
	}
	return resp.Code, decoded
}

func waitForCompletion(t *testing.T, router *gin.Engine, guestID, extractionID string) map[string]any {
	t.Helper()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/extractions/"+extractionID, nil)
		req.Header.Set("X-Guest-Id", guestID)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected status 200 fetching extraction, got %d: %s", resp.Code, resp.Body.String())
		}
		var decoded map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			t.Fatalf("decode extraction: %v", err)
		}
		if decoded["status"] == "completed" || decoded["status"] == "failed" {
			return decoded
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("extraction %s did not finish in time", extractionID)
	return nil
}

func TestStartExtractionAndFetchResult(t *testing.T) {
	app := buildTestApp(t)
	router := app.Router

	docID := uploadDocument(t, router, "guest-extract")

	code, body := startExtraction(t, router, "guest-extract", docID)
	if code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %v", code, body)
	}
	extractionID, _ := body["extractionId"].(string)
	if extractionID == "" {
		t.Fatalf("expected extractionId, got %v", body)
	}
	if body["generation"].(float64) != 1 {
		t.Fatalf("expected generation 1, got %v", body["generation"])
	}

	final := waitForCompletion(t, router, "guest-extract", extractionID)
	if final["status"] != "completed" {
		t.Fatalf("expected completed, got %v", final)
	}
	if final["result"] == nil {
		t.Fatalf("expected result payload, got %v", final)
	}
	if final["source"] != "heuristic" {
		t.Fatalf("expected heuristic source without a provider, got %v", final["source"])
	}
	if final["textStrategy"] != "plain_utf8" {
		t.Fatalf("expected plain_utf8 strategy, got %v", final["textStrategy"])
	}

	// A second start without retry reuses the finished run.
	codeReuse, bodyReuse := startExtraction(t, router, "guest-extract", docID)
	if codeReuse != http.StatusOK {
		t.Fatalf("expected status 200 on reuse, got %d: %v", codeReuse, bodyReuse)
	}
	if bodyReuse["extractionId"] != extractionID {
		t.Fatalf("expected reuse of %s, got %v", extractionID, bodyReuse["extractionId"])
	}
}

func TestStartExtractionUnknownDocument(t *testing.T) {
	app := buildTestApp(t)

	code, body := startExtraction(t, app.Router, "guest-extract", "not-a-document")
	if code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d: %v", code, body)
	}
}

func TestStartExtractionRequiresDocumentID(t *testing.T) {
	app := buildTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extractions", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "guest-extract")
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestStartExtractionRejectsUnknownKind(t *testing.T) {
	app := buildTestApp(t)
	router := app.Router

	docID := uploadDocument(t, router, "guest-kind")

	payload := `{"documentId":"` + docID + `","kind":"spreadsheet"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/extractions", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "guest-kind")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown kind, got %d: %s", resp.Code, resp.Body.String())
	}
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error.Code != "validation_error" {
		t.Fatalf("expected validation_error, got %q", body.Error.Code)
	}
}

func TestGetExtractionScopedToOwner(t *testing.T) {
	app := buildTestApp(t)
	router := app.Router

	docID := uploadDocument(t, router, "guest-owner")
	code, body := startExtraction(t, router, "guest-owner", docID)
	if code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %v", code, body)
	}
	extractionID := body["extractionId"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/extractions/"+extractionID, nil)
	req.Header.Set("X-Guest-Id", "guest-intruder")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for foreign extraction, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestLatestAndListExtractions(t *testing.T) {
	app := buildTestApp(t)
	router := app.Router

	docID := uploadDocument(t, router, "guest-list")
	code, body := startExtraction(t, router, "guest-list", docID)
	if code != http.StatusAccepted {
		t.Fatalf("expected status 202, got %d: %v", code, body)
	}
	extractionID := body["extractionId"].(string)
	waitForCompletion(t, router, "guest-list", extractionID)

	reqLatest := httptest.NewRequest(http.MethodGet, "/api/v1/extractions/latest?documentId="+docID, nil)
	reqLatest.Header.Set("X-Guest-Id", "guest-list")
	respLatest := httptest.NewRecorder()
	router.ServeHTTP(respLatest, reqLatest)

	if respLatest.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", respLatest.Code, respLatest.Body.String())
	}
	var latest map[string]any
	if err := json.NewDecoder(respLatest.Body).Decode(&latest); err != nil {
		t.Fatalf("decode latest: %v", err)
	}
	if latest["id"] != extractionID {
		t.Fatalf("expected latest id %s, got %v", extractionID, latest["id"])
	}

	reqList := httptest.NewRequest(http.MethodGet, "/api/v1/extractions", nil)
	reqList.Header.Set("X-Guest-Id", "guest-list")
	respList := httptest.NewRecorder()
	router.ServeHTTP(respList, reqList)

	if respList.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", respList.Code, respList.Body.String())
	}
	var listed struct {
		Extractions []map[string]any `json:"extractions"`
	}
	if err := json.NewDecoder(respList.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Extractions) != 1 {
		t.Fatalf("expected 1 extraction, got %d", len(listed.Extractions))
	}
	if listed.Extractions[0]["extractionId"] != extractionID {
		t.Fatalf("expected listed id %s, got %v", extractionID, listed.Extractions[0]["extractionId"])
	}
}
