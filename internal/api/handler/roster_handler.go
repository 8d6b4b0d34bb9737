package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/dto"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/service"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/pkg/response"
)

// RosterHandler 名册轮询 HTTP 处理器
type RosterHandler struct {
	syncSvc service.SyncService
}

// NewRosterHandler 创建 RosterHandler
func NewRosterHandler(syncSvc service.SyncService) *RosterHandler {
	return &RosterHandler{syncSvc: syncSvc}
}

// GetRoster 名册快照；If-None-Match 命中当前版本时返回 304
// GET /api/v1/roster?scope=
func (h *RosterHandler) GetRoster(c *gin.Context) {
	var req dto.RosterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	snap, err := h.syncSvc.Snapshot(c.Request.Context(), req.Scope, c.GetHeader("If-None-Match"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.Header("ETag", snap.ETag)
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Poll-Interval", strconv.FormatInt(int64(h.syncSvc.PollInterval().Seconds()), 10))

	if snap.NotModified {
		response.NotModified(c)
		return
	}
	response.OK(c, snap.Roster)
}

// GetContract 客户端轮询约定
// GET /api/v1/sync/contract
func (h *RosterHandler) GetContract(c *gin.Context) {
	response.OK(c, h.syncSvc.Contract())
}
