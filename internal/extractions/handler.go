package extractions

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cvparse-backend/internal/documents"
	"cvparse-backend/internal/shared/server/middleware"
	"cvparse-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the extractions service.
type Handler struct {
	Svc     *Service
	DocRepo documents.DocumentsRepo
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, docRepo documents.DocumentsRepo) *Handler {
	return &Handler{Svc: svc, DocRepo: docRepo}
}

// RegisterRoutes attaches extraction routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/extractions", h.startExtraction)
	rg.GET("/extractions", h.listExtractions)
	rg.GET("/extractions/latest", h.latestExtraction)
	rg.GET("/extractions/:id", h.getExtraction)
}

type startExtractionRequest struct {
	DocumentID string `json:"documentId"`
	Kind       string `json:"kind"`
	Retry      bool   `json:"retry"`
}

func (h *Handler) startExtraction(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req startExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.DocumentID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "documentId is required", nil)
		return
	}

	if _, err := h.DocRepo.GetByID(c.Request.Context(), userID, req.DocumentID); err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start extraction", nil)
		}
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	extraction, created, err := h.Svc.StartOrReuse(ctx, req.DocumentID, userID, req.Kind, req.Retry)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidKind):
			respond.Error(c, http.StatusBadRequest, "validation_error", "kind must be cv or job", nil)
		case errors.Is(err, ErrRetryRequired):
			respond.Error(c, http.StatusConflict, "retry_required", "previous extraction failed; retry explicitly", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start extraction", nil)
		}
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusAccepted
	}
	respond.JSON(c, status, gin.H{
		"extractionId": extraction.ID,
		"status":       extraction.Status,
		"generation":   extraction.Generation,
		"kind":         extraction.Kind,
	})
}

func (h *Handler) getExtraction(c *gin.Context) {
	extractionID := c.Param("id")
	if extractionID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "extraction id is required", nil)
		return
	}

	extraction, err := h.Svc.Get(c.Request.Context(), extractionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "extraction not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch extraction", nil)
		}
		return
	}
	if extraction.UserID != middleware.UserIDFromContext(c) {
		respond.Error(c, http.StatusNotFound, "not_found", "extraction not found", nil)
		return
	}

	respond.JSON(c, http.StatusOK, extractionResponse(extraction))
}

func (h *Handler) latestExtraction(c *gin.Context) {
	documentID := c.Query("documentId")
	if documentID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "documentId is required", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)

	extraction, err := h.Svc.Latest(c.Request.Context(), userID, documentID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "no extraction for document", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch extraction", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, extractionResponse(extraction))
}

func (h *Handler) listExtractions(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	extractions, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list extractions", nil)
		return
	}

	resp := make([]gin.H, 0, len(extractions))
	for _, e := range extractions {
		item := gin.H{
			"extractionId": e.ID,
			"documentId":   e.DocumentID,
			"kind":         e.Kind,
			"generation":   e.Generation,
			"status":       e.Status,
			"createdAt":    e.CreatedAt,
		}
		if e.Status == StatusCompleted {
			item["source"] = e.Source
			item["category"] = e.Category
			item["qualityScore"] = e.QualityScore
		}
		resp = append(resp, item)
	}
	respond.JSON(c, http.StatusOK, gin.H{"extractions": resp})
}

func extractionResponse(e Extraction) gin.H {
	resp := gin.H{
		"id":         e.ID,
		"documentId": e.DocumentID,
		"kind":       e.Kind,
		"generation": e.Generation,
		"status":     e.Status,
		"createdAt":  e.CreatedAt,
	}
	if e.Status == StatusCompleted && e.Result != nil {
		resp["result"] = e.Result
		resp["source"] = e.Source
		resp["category"] = e.Category
		resp["categoryConfidence"] = e.CategoryConfidence
		resp["qualityScore"] = e.QualityScore
		resp["textStrategy"] = e.TextStrategy
		if e.ConfidenceReason != "" {
			resp["confidenceReason"] = e.ConfidenceReason
		}
		if e.Session != nil {
			resp["session"] = e.Session
		}
	}
	if e.Status == StatusFailed {
		resp["errorCode"] = e.ErrorCode
		if e.ErrorMessage != nil {
			resp["errorMessage"] = *e.ErrorMessage
		}
		resp["errorRetryable"] = e.ErrorRetryable
	}
	return resp
}
