package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/crimow28-boop/ins-radiolab/internal/checklist"
	"github.com/crimow28-boop/ins-radiolab/internal/model"
)

// ListChecklists handles GET /api/checklists.
func (h *Handler) ListChecklists(c *gin.Context) {
	lists, err := h.store.ListChecklists(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lists)
}

// GetChecklist handles GET /api/checklists/:code.
func (h *Handler) GetChecklist(c *gin.Context) {
	def, err := h.store.GetChecklist(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, def)
}

type putChecklistRequest struct {
	Name  string            `json:"name" binding:"required"`
	Items []checklist.Field `json:"items"`
}

// PutChecklist handles PUT /api/checklists/:code. The stored definition is
// replaced as a whole.
func (h *Handler) PutChecklist(c *gin.Context) {
	var req putChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := checklist.Validate(req.Items); err != nil {
		respondError(c, err)
		return
	}

	def := &model.InspectionChecklist{
		Code:  strings.TrimSpace(c.Param("code")),
		Name:  req.Name,
		Items: req.Items,
	}
	if def.Items == nil {
		def.Items = []checklist.Field{}
	}
	if err := h.store.SaveChecklist(c.Request.Context(), def); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, def)
}

type duplicateChecklistRequest struct {
	SourceCode string `json:"source_code" binding:"required"`
	Name       string `json:"name"`
}

// DuplicateChecklist handles POST /api/checklists/:code/duplicate. Every
// field of the copy gets a fresh id.
func (h *Handler) DuplicateChecklist(c *gin.Context) {
	var req duplicateChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	src, err := h.store.GetChecklist(ctx, req.SourceCode)
	if err != nil {
		respondError(c, err)
		return
	}

	name := req.Name
	if name == "" {
		name = src.Name + " (עותק)"
	}
	def := &model.InspectionChecklist{
		Code:  strings.TrimSpace(c.Param("code")),
		Name:  name,
		Items: checklist.Duplicate(src.Items, nil),
	}
	if err := h.store.SaveChecklist(ctx, def); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, def)
}

type moveItemRequest struct {
	From *int `json:"from" binding:"required"`
	To   *int `json:"to" binding:"required"`
}

// MoveChecklistItem handles POST /api/checklists/:code/move, reordering the
// top-level items.
func (h *Handler) MoveChecklistItem(c *gin.Context) {
	var req moveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	def, err := h.store.GetChecklist(ctx, c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	items, err := checklist.Move(def.Items, *req.From, *req.To)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	def.ID = 0 // upserted by code
	def.Items = items
	if err := h.store.SaveChecklist(ctx, def); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, def)
}

// DeleteChecklist handles DELETE /api/checklists/:code.
func (h *Handler) DeleteChecklist(c *gin.Context) {
	if err := h.store.DeleteChecklist(c.Request.Context(), c.Param("code")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
