package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/crimow28-boop/ins-radiolab/internal/model"
	"github.com/crimow28-boop/ins-radiolab/internal/parse"
)

type cardRequest struct {
	Kind        string   `json:"kind" binding:"required,oneof=routine special"`
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Devices     []string `json:"devices"`
	IsActive    *bool    `json:"is_active"`
	Order       int      `json:"order"`
}

func (r cardRequest) card() model.Card {
	devices := make([]string, 0, len(r.Devices))
	seen := make(map[string]bool, len(r.Devices))
	for _, raw := range r.Devices {
		serial, err := parse.NormalizeSerial(raw)
		if err != nil || seen[serial] {
			continue
		}
		seen[serial] = true
		devices = append(devices, serial)
	}
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return model.Card{
		Kind:        r.Kind,
		Title:       r.Title,
		Description: r.Description,
		Devices:     devices,
		IsActive:    active,
		Order:       r.Order,
	}
}

// ListCards handles GET /api/cards?kind=.
func (h *Handler) ListCards(c *gin.Context) {
	cards, err := h.store.ListCards(c.Request.Context(), c.Query("kind"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

// GetCard handles GET /api/cards/:id.
func (h *Handler) GetCard(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	card, err := h.store.GetCard(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

// CreateCard handles POST /api/cards.
func (h *Handler) CreateCard(c *gin.Context) {
	var req cardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	card := req.card()
	if err := h.store.CreateCard(c.Request.Context(), &card); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, card)
}

// UpdateCard handles PUT /api/cards/:id.
func (h *Handler) UpdateCard(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req cardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	card := req.card()
	card.ID = id
	if err := h.store.UpdateCard(ctx, &card); err != nil {
		respondError(c, err)
		return
	}
	updated, err := h.store.GetCard(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// CardProgress handles GET /api/cards/:id/progress.
func (h *Handler) CardProgress(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.CardProgress(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type approveCardRequest struct {
	PIN string `json:"pin" binding:"required"`
}

// ApproveCard handles POST /api/cards/:id/approve. A wrong PIN is answered
// with 403.
func (h *Handler) ApproveCard(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req approveCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.svc.ApproveCard(c.Request.Context(), id, req.PIN); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
