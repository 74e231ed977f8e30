package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/crimow28-boop/ins-radiolab/internal/parse"
	"github.com/crimow28-boop/ins-radiolab/internal/store"
)

// ListFaults handles GET /api/faults?resolved=&serial=.
func (h *Handler) ListFaults(c *gin.Context) {
	var f store.FaultFilter
	if raw := c.Query("resolved"); raw != "" {
		resolved, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "invalid resolved")
			return
		}
		f.Resolved = &resolved
	}
	if raw := c.Query("serial"); raw != "" {
		serial, err := parse.NormalizeSerial(raw)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		f.Serial = serial
	}

	faults, err := h.store.ListFaults(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, faults)
}

// ResolveFault handles POST /api/faults/:id/resolve.
func (h *Handler) ResolveFault(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	fault, err := h.store.ResolveFault(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fault)
}
