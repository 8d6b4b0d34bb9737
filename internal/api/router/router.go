package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/config"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/api/handler"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/api/middleware"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/pkg/jwt"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/pkg/redis"
)

// 角色
const (
	roleAdmin       = "admin"
	roleCoordinator = "coordinator"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	// Recovery 在最外层，Sentry 上报 panic 后重新抛出由其兜底
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Sentry())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))

	// ── 健康检查 ──
	r.GET("/health", h.Health.Health)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb, logger))
	{
		manage := middleware.RoleAuth(roleAdmin, roleCoordinator)

		// 查重（录入时高频调用）
		v1.GET("/identity/check",
			middleware.RateLimit(rdb, cfg.RateLimit.DuplicateCheckPerMinute, time.Minute),
			h.Identity.Check)

		// 外勤草稿
		drafts := v1.Group("/drafts")
		{
			drafts.POST("", h.Intake.CreateDraft)
			drafts.GET("", h.Intake.ListDrafts)
			drafts.DELETE("/:id", manage, h.Intake.DeleteDraft)
		}

		// 志愿者主档
		volunteers := v1.Group("/volunteers")
		{
			volunteers.POST("", h.Intake.CreateVolunteer)
			volunteers.GET("/:id", h.Intake.GetVolunteer)
			volunteers.PUT("/:id/status", manage, h.Intake.UpdateStatus)
			volunteers.GET("/:id/attendance", h.Intake.GetAttendance)
		}

		// 研究与分配
		studies := v1.Group("/studies")
		{
			studies.POST("", manage, h.Study.CreateStudy)
			studies.GET("", h.Study.ListStudies)
			studies.GET("/:code", h.Study.GetStudy)
			studies.POST("/:code/assignments", manage, h.Study.Assign)
			studies.GET("/:code/assignments", h.Study.ListAssignments)
		}

		// 名册轮询
		v1.GET("/roster", h.Roster.GetRoster)
		v1.GET("/sync/contract", h.Roster.GetContract)

		// 考勤
		attendance := v1.Group("/attendance")
		{
			attendance.POST("/toggle", h.Attendance.Toggle)
			attendance.POST("/bulk", h.Attendance.BulkToggle)
			attendance.POST("/rapid",
				middleware.RateLimit(rdb, cfg.RateLimit.RapidEntryPerMinute, time.Minute),
				h.Attendance.RapidEntry)
		}
	}

	return r
}
