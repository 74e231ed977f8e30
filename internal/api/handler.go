package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"github.com/crimow28-boop/ins-radiolab/config"
	"github.com/crimow28-boop/ins-radiolab/internal/checklist"
	"github.com/crimow28-boop/ins-radiolab/internal/inspection"
	"github.com/crimow28-boop/ins-radiolab/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	svc     *inspection.Service
	webpush *webpush.Options
	export  config.ExportConfig
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, svc *inspection.Service, webpushOptions *webpush.Options, exportCfg config.ExportConfig) *Handler {
	return &Handler{
		store:   s,
		svc:     svc,
		webpush: webpushOptions,
		export:  exportCfg,
	}
}

// respondError maps domain errors onto HTTP statuses. Anything unexpected is
// logged and answered with 500.
func respondError(c *gin.Context, err error) {
	var verr *inspection.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Error(), "missing": verr.Missing})
	case errors.Is(err, store.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrDraftConflict), errors.Is(err, store.ErrNotDraft), errors.Is(err, store.ErrAlreadyExists):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, inspection.ErrInvalidPIN):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, inspection.ErrNoDevices), errors.Is(err, checklist.ErrInvalidDefinition):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// idParam parses the numeric path parameter name.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
