package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/dto"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/service"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/pkg/response"
)

// Pinger 依赖存活检查（数据库）；nil 表示不检查
type Pinger func(ctx context.Context) error

// HealthHandler 存活检查
type HealthHandler struct {
	syncSvc service.SyncService
	ping    Pinger
}

// NewHealthHandler 创建 HealthHandler
func NewHealthHandler(syncSvc service.SyncService, ping Pinger) *HealthHandler {
	return &HealthHandler{syncSvc: syncSvc, ping: ping}
}

// Health 存活检查，附带服务端时间供前台校准
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	resp := dto.HealthResponse{
		Status:     "ok",
		ServerTime: h.syncSvc.Contract().ServerTime,
	}

	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			_ = c.Error(err)
			resp.Status = "degraded"
			c.JSON(http.StatusServiceUnavailable, response.Response{Code: 50002, Message: "数据库不可用", Data: resp})
			return
		}
	}

	response.OK(c, resp)
}
