package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/visit-builder-api/internal/middleware"
	"github.com/noah-isme/visit-builder-api/internal/models"
)

// RouteDeps collects what RegisterRoutes mounts.
type RouteDeps struct {
	Builder *ScheduleBuilderHandler
	Metrics *MetricsHandler
	Tokens  middleware.TokenValidator
	// RateLimit is nil when throttling is disabled.
	RateLimit *middleware.RateLimitConfig
	Logger    *zap.Logger
}

// RegisterRoutes mounts ops endpoints at the root and builder endpoints under prefix.
func RegisterRoutes(r *gin.Engine, prefix string, deps RouteDeps) {
	if deps.Metrics != nil {
		r.GET("/health", deps.Metrics.Health)
		r.GET("/ready", deps.Metrics.Ready)
		r.GET("/metrics", deps.Metrics.Prometheus)
		r.GET("/metrics/summary", deps.Metrics.Summary)
	}
	if deps.Builder == nil {
		return
	}

	api := r.Group(prefix)
	api.Use(middleware.JWT(deps.Tokens))
	if deps.RateLimit != nil {
		api.Use(middleware.RateLimit(*deps.RateLimit, deps.Logger))
	}
	api.Use(middleware.RequireRoles(models.RoleCoach, models.RoleAdmin, models.RoleSuperAdmin))

	h := deps.Builder
	sessions := api.Group("/builder/sessions")
	sessions.POST("", h.Open)
	sessions.GET("/:id", h.Snapshot)
	sessions.DELETE("/:id", h.Close)
	sessions.POST("/:id/selection", h.Select)
	sessions.POST("/:id/selection/multi", h.ToggleMultiSelect)
	sessions.DELETE("/:id/selection/:teacherId", h.Deselect)
	sessions.POST("/:id/drag", h.StartDragging)
	sessions.DELETE("/:id/drag", h.StopDragging)
	sessions.PUT("/:id/hover", h.SetHover)
	sessions.POST("/:id/drop", h.Drop)
	sessions.POST("/:id/assignments", h.Assign)
	sessions.DELETE("/:id/assignments", h.Discard)
	sessions.DELETE("/:id/assignments/:teacherId", h.RemoveAssignment)
	sessions.PATCH("/:id/assignments/:teacherId/purpose", h.UpdatePurpose)
	sessions.POST("/:id/save", h.Save)
	sessions.POST("/:id/checkpoint", h.Checkpoint)
	sessions.POST("/:id/restore", h.Restore)
	sessions.GET("/:id/accountability", h.Accountability)
}
