package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/crimow28-boop/ins-radiolab/internal/model"
)

type settingRequest struct {
	Value string `json:"value" binding:"required"`
}

func settingKey(c *gin.Context) (string, bool) {
	key := c.Param("key")
	if !model.KnownSetting(key) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown setting " + key})
		return "", false
	}
	return key, true
}

// GetSetting handles GET /api/settings/:key. Admin screens read the current
// manager PIN through it, including after an approval rotated it.
func (h *Handler) GetSetting(c *gin.Context) {
	key, ok := settingKey(c)
	if !ok {
		return
	}
	value, err := h.store.GetSetting(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

// PutSetting handles PUT /api/settings/:key.
func (h *Handler) PutSetting(c *gin.Context) {
	key, ok := settingKey(c)
	if !ok {
		return
	}
	var req settingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	value := strings.TrimSpace(req.Value)
	if value == "" {
		badRequest(c, "empty value")
		return
	}
	if err := h.store.PutSetting(c.Request.Context(), key, value); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}
