package handler

import (
	"mime"
	"net/http"
	"time"

	"github.com/carehours/backend/internal/application/document"
	"github.com/gin-gonic/gin"
)

// DocumentHandler handles generated PDF document HTTP requests
type DocumentHandler struct {
	BaseHandler
	documentService *document.DocumentService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentService *document.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// Generate godoc
// @ID           generateDocument
// @Summary      Render a PDF for an invoice, community invoice, timesheet or payroll import
// @Description  A failed render is stored with status failed and its error
// @Tags         documents
// @Accept       json
// @Produce      json
// @Param        request body document.GenerateDocumentRequest true "Kind and owner"
// @Success      201 {object} APIResponse[document.DocumentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents [post]
func (h *DocumentHandler) Generate(c *gin.Context) {
	var req document.GenerateDocumentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	doc, err := h.documentService.Generate(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// GetByID godoc
// @ID           getDocumentById
// @Summary      Get a document record
// @Tags         documents
// @Produce      json
// @Param        id path string true "Document ID" format(uuid)
// @Success      200 {object} APIResponse[document.DocumentResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id} [get]
func (h *DocumentHandler) GetByID(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	doc, err := h.documentService.GetByID(c.Request.Context(), tenantID, id)
	h.respond(c, doc, err)
}

// List godoc
// @ID           listDocuments
// @Summary      List documents
// @Tags         documents
// @Produce      json
// @Param        kind      query string false "Kind" Enums(invoice, community_invoice, timesheet, payroll_summary)
// @Param        owner_id  query string false "Owner ID" format(uuid)
// @Param        status    query string false "Status" Enums(pending, generated, failed)
// @Param        page      query int    false "Page" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]document.DocumentResponse]
// @Security     BearerAuth
// @Router       /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	var filter document.DocumentListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	docs, total, err := h.documentService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, docs, total, filter.Page, filter.PageSize)
}

// Download godoc
// @ID           downloadDocument
// @Summary      Download a generated PDF
// @Description  Redirects to a presigned URL when object storage supports it, otherwise streams the file. With link=true the presigned URL is returned as JSON instead.
// @Tags         documents
// @Produce      application/pdf
// @Param        id   path  string true  "Document ID" format(uuid)
// @Param        link query bool   false "Return the presigned URL as JSON"
// @Success      200 {file} binary
// @Success      307
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id}/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}

	result, err := h.documentService.Download(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.URL != "" {
		if c.Query("link") == "true" {
			h.Success(c, DownloadData{URL: result.URL, ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339)})
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, result.URL)
		return
	}

	defer result.Body.Close()
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": result.FileName})
	c.DataFromReader(http.StatusOK, result.Size, result.ContentType, result.Body, map[string]string{
		"Content-Disposition": disposition,
	})
}

// Delete godoc
// @ID           deleteDocument
// @Summary      Delete a document and its stored file
// @Tags         documents
// @Param        id path string true "Document ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	tenantID, id, ok := h.scoped(c)
	if !ok {
		return
	}
	if err := h.documentService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
