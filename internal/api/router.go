package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"calibration-qa-backend/internal/model"
	"calibration-qa-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router. responses holds cached
// GET bodies; it is flushed by any mutation and may be shared with other
// writers, such as the scheduler.
func NewRouter(h *Handler, limiter *mw.IPRateLimiter, responses *cache.Cache, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID(), mw.Logger(log), mw.CORS())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	caching := mw.Cache(responses, cache.DefaultExpiration)

	api := r.Group("/api")
	if limiter != nil {
		api.Use(limiter.Middleware())
	}
	{
		api.POST("/auth/login", h.Login)
		api.GET("/auth/users", h.ListUsers)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	authed := api.Group("")
	authed.Use(mw.JWTAuth(h.tokens), mw.Invalidate(responses))
	{
		authed.GET("/auth/me", h.Me)

		authed.GET("/dashboard/stats", caching, h.DashboardStats)
		authed.GET("/dashboard/due-soon", caching, h.DueSoon)
		authed.GET("/dashboard/insight", h.Insight)

		authed.GET("/instruments", h.ListInstruments)
		authed.POST("/instruments", h.CreateInstrument)
		authed.GET("/instruments/:id", h.GetInstrument)
		authed.PUT("/instruments/:id", h.UpdateInstrument)
		authed.DELETE("/instruments/:id", h.DeleteInstrument)
		authed.GET("/instruments/:id/history", h.InstrumentHistory)
		authed.POST("/instruments/:id/calibrations", h.SubmitCalibration)

		authed.GET("/schedule", h.Schedule)
		authed.POST("/schedule/bulk", h.BulkSchedule)
		authed.GET("/schedule/export", h.ExportSchedule)
		authed.GET("/schedule/import/template", h.ImportTemplate)
		authed.POST("/schedule/import/preview", h.PreviewImport)
		authed.POST("/schedule/import", h.CommitImport)

		authed.GET("/jobs", h.ListJobs)
		authed.POST("/jobs", h.StartJob)
		authed.GET("/jobs/:id", h.GetJob)
		authed.POST("/jobs/:id/condition", h.SubmitCondition)
		authed.POST("/jobs/:id/readings", h.SubmitReadings)
		authed.POST("/jobs/:id/back", h.StepBack)
		authed.POST("/jobs/:id/complete", h.CompleteJob)

		authed.GET("/certificates", caching, h.ListCertificates)
		authed.GET("/certificates/:id", caching, h.GetCertificate)
		authed.GET("/certificates/:id/verify", h.VerifyCertificate)
		authed.POST("/certificates/:id/approve",
			mw.RequireRole(model.RoleSupervisor, model.RoleQA), h.ApproveCertificate)

		authed.GET("/qualification/progress", h.QualificationProgress)
		authed.GET("/qualification/protocols", h.ListProtocols)
		authed.POST("/qualification/protocols", h.CreateProtocol)
		authed.GET("/qualification/protocols/:id", h.GetProtocol)
		authed.PUT("/qualification/protocols/:id", h.UpdateProtocol)
		authed.DELETE("/qualification/protocols/:id", h.DeleteProtocol)
	}

	admin := authed.Group("")
	admin.Use(mw.RequireRole(model.RoleAdmin, model.RoleQA))
	{
		admin.GET("/audit", h.ListAudit)
		admin.POST("/audit", h.AddAuditNote)
		admin.GET("/audit/export", h.ExportAudit)

		admin.GET("/settings", h.GetSettings)
		admin.PUT("/settings", h.UpdateSettings)
	}

	return r
}
