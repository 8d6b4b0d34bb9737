package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/dto"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/service"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/pkg/response"
)

// AttendanceHandler 考勤 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// Toggle 单人签到/签退
// 状态变更被拒绝属于正常结果：200 + changed=false
// POST /api/v1/attendance/toggle
func (h *AttendanceHandler) Toggle(c *gin.Context) {
	var req dto.ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.Toggle(c.Request.Context(), &req, actorID)
	h.respondToggle(c, result, err)
}

// BulkToggle 批量签到/签退，逐个成员返回结果
// POST /api/v1/attendance/bulk
func (h *AttendanceHandler) BulkToggle(c *gin.Context) {
	var req dto.BulkToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.BulkToggle(c.Request.Context(), &req, actorID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// RapidEntry 扫码快速签到
// POST /api/v1/attendance/rapid
func (h *AttendanceHandler) RapidEntry(c *gin.Context) {
	var req dto.RapidEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.RapidEntry(c.Request.Context(), req.VolunteerID, actorID)
	h.respondToggle(c, result, err)
}

func (h *AttendanceHandler) respondToggle(c *gin.Context, result *dto.ToggleResponse, err error) {
	var te *service.TransitionError
	switch {
	case err == nil:
		response.OK(c, result)
	case errors.As(err, &te):
		response.OK(c, te.Response())
	default:
		handleError(c, err)
	}
}
