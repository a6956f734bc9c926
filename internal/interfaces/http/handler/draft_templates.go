package handler

import (
	"github.com/erp/orderdesk/internal/domain/trade"
	"github.com/erp/orderdesk/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SaveTemplateRequest exports the draft as a template
type SaveTemplateRequest struct {
	Name        string   `json:"name" binding:"required,max=200"`
	Description string   `json:"description" binding:"max=2000"`
	Tags        []string `json:"tags"`
}

// ListTemplates returns the local templates
// GET /draft/templates
func (h *DraftHandler) ListTemplates(c *gin.Context) {
	templates := h.draft.Templates()
	h.SuccessWithMeta(c, templates, dto.Meta{Total: int64(len(templates))})
}

// SaveTemplate exports the draft as a local template
// POST /draft/templates
func (h *DraftHandler) SaveTemplate(c *gin.Context) {
	var req SaveTemplateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	tpl, err := h.draft.SaveTemplate(req.Name, req.Description, req.Tags)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, tpl)
}

// DeleteTemplate removes a local template
// DELETE /draft/templates/:id
func (h *DraftHandler) DeleteTemplate(c *gin.Context) {
	if err := h.draft.DeleteTemplate(c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// LoadTemplate copies a local template into the draft
// POST /draft/templates/:id/load
func (h *DraftHandler) LoadTemplate(c *gin.Context) {
	h.syncCatalog(c)
	skipped, err := h.draft.LoadTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"draft": h.draft.View(), "skipped_product_ids": skipped})
}

// PreviewTemplate loads the posted template into the draft for preview
// POST /draft/templates/preview
func (h *DraftHandler) PreviewTemplate(c *gin.Context) {
	var tpl trade.Template
	if !h.BindJSON(c, &tpl) {
		return
	}
	preview, err := h.draft.PreviewTemplate(tpl)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, preview)
}
