package api

import (
	"context"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/crimow28-boop/ins-radiolab/config"
	"github.com/crimow28-boop/ins-radiolab/internal/export"
	"github.com/crimow28-boop/ins-radiolab/internal/inspection"
	"github.com/crimow28-boop/ins-radiolab/internal/metrics"
	"github.com/crimow28-boop/ins-radiolab/internal/mw"
	"github.com/crimow28-boop/ins-radiolab/internal/store"
)

// NewRouter creates and configures a new Gin router. Background upkeep of
// the middleware stops when ctx is done.
func NewRouter(ctx context.Context, cfg *config.Config, s store.Store, svc *inspection.Service, m *metrics.Metrics, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, svc, webpushOptions, cfg.Export)

	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)
	go limiter.RunEviction(ctx, time.Minute, 10*time.Minute)

	// Checklist definitions and cards are read far more often than written.
	caching := mw.NewResponseCache(cfg.Server.CacheTTL).Cache()

	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	api := r.Group("/api")
	api.Use(limiter.RateLimit())
	{
		checklists := api.Group("/checklists", caching)
		checklists.GET("", handler.ListChecklists)
		checklists.GET("/:code", handler.GetChecklist)
		checklists.PUT("/:code", handler.PutChecklist)
		checklists.POST("/:code/duplicate", handler.DuplicateChecklist)
		checklists.POST("/:code/move", handler.MoveChecklistItem)
		checklists.DELETE("/:code", handler.DeleteChecklist)

		api.GET("/devices", handler.ListDevices)
		api.POST("/devices", handler.CreateDevice)
		api.GET("/devices/:serial", handler.GetDevice)
		api.PUT("/devices/:serial", handler.UpdateDevice)
		api.DELETE("/devices/:serial", handler.DeleteDevice)
		api.GET("/devices/:serial/history", handler.DeviceHistory)
		api.GET("/devices/:serial/checklist", handler.DeviceChecklist)

		api.GET("/inspections", handler.ListInspections)
		api.GET("/inspections/next-number", handler.NextInspectionNumber)
		api.PUT("/inspections/draft", handler.SaveDraft)
		api.POST("/inspections/submit", handler.SubmitInspection)
		api.GET("/inspections/:id", handler.GetInspection)
		api.DELETE("/inspections/:id", handler.DeleteInspection)

		api.GET("/faults", handler.ListFaults)
		api.POST("/faults/:id/resolve", handler.ResolveFault)

		api.GET("/cards", caching, handler.ListCards)
		api.POST("/cards", caching, handler.CreateCard)
		api.GET("/cards/:id", caching, handler.GetCard)
		api.PUT("/cards/:id", caching, handler.UpdateCard)
		api.POST("/cards/:id/approve", caching, handler.ApproveCard)
		api.GET("/cards/:id/progress", handler.CardProgress)
		api.GET("/cards/:id/export.csv", handler.ExportCard(export.FormatCSV))
		api.GET("/cards/:id/export.pdf", handler.ExportCard(export.FormatPDF))

		api.GET("/export.csv", handler.ExportAll(export.FormatCSV))
		api.GET("/export.pdf", handler.ExportAll(export.FormatPDF))

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/settings/:key", handler.GetSetting)
		api.PUT("/settings/:key", handler.PutSetting)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
