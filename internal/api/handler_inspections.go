package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/crimow28-boop/ins-radiolab/internal/inspection"
	"github.com/crimow28-boop/ins-radiolab/internal/model"
	"github.com/crimow28-boop/ins-radiolab/internal/parse"
	"github.com/crimow28-boop/ins-radiolab/internal/store"
)

const defaultListLimit = 100

// ListInspections handles GET /api/inspections?status=&card_id=&serial=&limit=.
func (h *Handler) ListInspections(c *gin.Context) {
	f := store.InspectionFilter{Limit: defaultListLimit}

	switch status := c.Query("status"); status {
	case "", model.InspectionStatusDraft, model.InspectionStatusCompleted:
		f.Status = status
	default:
		badRequest(c, "invalid status")
		return
	}
	if raw := c.Query("card_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(c, "invalid card_id")
			return
		}
		f.CardID = &id
	}
	if raw := c.Query("serial"); raw != "" {
		serial, err := parse.NormalizeSerial(raw)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		f.Serial = serial
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(c, "invalid limit")
			return
		}
		f.Limit = n
	}
	if maxRows := h.export.MaxRows; maxRows > 0 && f.Limit > maxRows {
		f.Limit = maxRows
	}

	inspections, err := h.store.ListInspections(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inspections)
}

// GetInspection handles GET /api/inspections/:id.
func (h *Handler) GetInspection(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	insp, err := h.store.GetInspection(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, insp)
}

// DeleteInspection handles DELETE /api/inspections/:id.
func (h *Handler) DeleteInspection(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SaveDraft handles PUT /api/inspections/draft.
func (h *Handler) SaveDraft(c *gin.Context) {
	var req inspection.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	insp, err := h.svc.SaveDraft(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, insp)
}

// SubmitInspection handles POST /api/inspections/submit. Missing required
// answers are reported with 422 and the list of their labels.
func (h *Handler) SubmitInspection(c *gin.Context) {
	var req inspection.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	insp, err := h.svc.Submit(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, insp)
}

// NextInspectionNumber handles GET /api/inspections/next-number.
func (h *Handler) NextInspectionNumber(c *gin.Context) {
	n, err := h.svc.PeekNumber(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inspection_number": n})
}
