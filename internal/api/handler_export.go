package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crimow28-boop/ins-radiolab/internal/export"
	"github.com/crimow28-boop/ins-radiolab/internal/inspection"
)

// ExportCard handles GET /api/cards/:id/export.csv and export.pdf.
func (h *Handler) ExportCard(f export.Format) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		r, err := h.svc.CardReport(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		h.sendReport(c, r, f)
	}
}

// ExportAll handles GET /api/export.csv and export.pdf.
func (h *Handler) ExportAll(f export.Format) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, err := h.svc.GlobalReport(c.Request.Context(), h.export.MaxRows)
		if err != nil {
			respondError(c, err)
			return
		}
		h.sendReport(c, r, f)
	}
}

func (h *Handler) sendReport(c *gin.Context, r *inspection.Report, f export.Format) {
	var buf bytes.Buffer
	name, err := h.svc.Render(&buf, r, f, export.PDFOptions{
		FontPath:    h.export.PDFFontPath,
		GeneratedAt: inspection.In(time.Now(), h.export.Timezone),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(name)))
	c.Data(http.StatusOK, f.ContentType(), buf.Bytes())
}
