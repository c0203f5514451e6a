// Package handler contains the HTTP controllers.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"pdf-rag-go/internal/apperr"
	"pdf-rag-go/internal/service"
	"pdf-rag-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// DocumentHandler serves the document lifecycle endpoints.
type DocumentHandler struct {
	docService service.DocumentService
}

// NewDocumentHandler creates a DocumentHandler.
func NewDocumentHandler(docService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{docService: docService}
}

type uploadRequest struct {
	Filename string `json:"filename" binding:"required"`
}

type pdfIDRequest struct {
	PDFID uint `json:"pdf_id" binding:"required"`
}

// UploadPDF handles POST /upload-pdf: presign an upload URL and create the
// PENDING record.
func (h *DocumentHandler) UploadPDF(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename is required"})
		return
	}

	ticket, err := h.docService.RequestUpload(c.Request.Context(), req.Filename)
	if err != nil {
		abortWithError(c, err, "UploadPDF")
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// ConfirmUpload handles POST /upload-pdf-confirm: PENDING -> UPLOADED.
func (h *DocumentHandler) ConfirmUpload(c *gin.Context) {
	var req pdfIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pdf_id is required"})
		return
	}

	doc, err := h.docService.ConfirmUpload(c.Request.Context(), req.PDFID)
	if err != nil {
		abortWithError(c, err, "ConfirmUpload")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "PDF upload confirmed successfully",
		"pdf_id":  doc.ID,
	})
}

// ParsePDF handles POST /parse-pdf: UPLOADED -> INDEXED.
func (h *DocumentHandler) ParsePDF(c *gin.Context) {
	var req pdfIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pdf_id is required"})
		return
	}

	doc, err := h.docService.Parse(c.Request.Context(), req.PDFID)
	if err != nil {
		abortWithError(c, err, "ParsePDF")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "PDF parsed and indexed successfully",
		"pdf_id":          doc.ID,
		"vector_index_id": doc.VectorIndexID,
	})
}

// ListPDFs handles GET /list-pdfs with skip/limit pagination.
func (h *DocumentHandler) ListPDFs(c *gin.Context) {
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		skip = 0
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	docs, total, err := h.docService.List(c.Request.Context(), skip, limit)
	if err != nil {
		abortWithError(c, err, "ListPDFs")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pdfs":        docs,
		"total_count": total,
		"skip":        skip,
		"limit":       limit,
	})
}

// GetPDF handles GET /pdfs/:id.
func (h *DocumentHandler) GetPDF(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	doc, err := h.docService.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err, "GetPDF")
		return
	}
	c.JSON(http.StatusOK, doc)
}

// DeletePDF handles DELETE /pdfs/:id.
func (h *DocumentHandler) DeletePDF(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.docService.Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, err, "DeletePDF")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "PDF deleted successfully"})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pdf id"})
		return 0, false
	}
	return uint(id), true
}

// abortWithError maps the service error taxonomy onto HTTP statuses:
// precondition violations become 4xx, collaborator failures 5xx.
func abortWithError(c *gin.Context, err error, op string) {
	var (
		notFound       *apperr.NotFoundError
		conflict       *apperr.ConflictError
		invalidState   *apperr.InvalidStateError
		alreadyIndexed *apperr.AlreadyIndexedError
		notUploaded    *apperr.NotUploadedError
	)
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &invalidState), errors.As(err, &alreadyIndexed), errors.As(err, &notUploaded):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrParse), errors.Is(err, apperr.ErrEmbedding):
		log.Errorf("[%s] processing failed: %v", op, err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrBlob), errors.Is(err, apperr.ErrIndex):
		log.Errorf("[%s] collaborator failed: %v", op, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		log.Errorf("[%s] unexpected error: %v", op, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
