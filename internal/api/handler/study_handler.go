package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/dto"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/service"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/pkg/response"
)

// StudyHandler 研究模块 HTTP 处理器
type StudyHandler struct {
	studySvc service.StudyService
}

// NewStudyHandler 创建 StudyHandler
func NewStudyHandler(studySvc service.StudyService) *StudyHandler {
	return &StudyHandler{studySvc: studySvc}
}

// CreateStudy 创建研究
// POST /api/v1/studies
func (h *StudyHandler) CreateStudy(c *gin.Context) {
	var req dto.CreateStudyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.studySvc.Create(c.Request.Context(), &req, actorID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.Created(c, result)
}

// ListStudies 研究列表
// GET /api/v1/studies
func (h *StudyHandler) ListStudies(c *gin.Context) {
	list, err := h.studySvc.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetStudy 研究详情
// GET /api/v1/studies/:code
func (h *StudyHandler) GetStudy(c *gin.Context) {
	result, err := h.studySvc.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// Assign 分配志愿者到研究（重复分配只更新访视日期）
// POST /api/v1/studies/:code/assignments
func (h *StudyHandler) Assign(c *gin.Context) {
	var req dto.AssignVolunteerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.studySvc.Assign(c.Request.Context(), c.Param("code"), &req, actorID)
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, result)
}

// ListAssignments 研究的分配列表
// GET /api/v1/studies/:code/assignments
func (h *StudyHandler) ListAssignments(c *gin.Context) {
	list, err := h.studySvc.ListAssignments(c.Request.Context(), c.Param("code"))
	if err != nil {
		handleError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}
