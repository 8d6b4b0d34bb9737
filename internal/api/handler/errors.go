package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/service"
	pkgerrors "github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/pkg/errors"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/pkg/response"
)

// 业务错误码
const (
	codeValidation        = 10001
	codeBodyTooLarge      = 10005
	codeVolunteerNotFound = 20001
	codeDraftNotFound     = 20002
	codeStudyNotFound     = 20003
	codeDuplicate         = 20101
	codeVersionConflict   = 20102
	codeStudyCodeTaken    = 20103
	codeCancelled         = 50001
)

// handleError 将 Service 错误映射为统一响应
// 5xx 通过 c.Error 交给日志与 Sentry 中间件
func handleError(c *gin.Context, err error) {
	var dup *service.DuplicateError
	switch {
	case errors.As(err, &dup):
		response.ConflictWithData(c, codeDuplicate, "志愿者主档已存在", dup.Match)
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, codeVersionConflict, "记录已被修改，请刷新后重试")
	case errors.Is(err, service.ErrStudyCodeTaken):
		response.Conflict(c, codeStudyCodeTaken, "研究编号已存在")
	case errors.Is(err, service.ErrVolunteerNotFound):
		response.NotFound(c, codeVolunteerNotFound, "志愿者不存在")
	case errors.Is(err, service.ErrDraftNotFound):
		response.NotFound(c, codeDraftNotFound, "草稿不存在或已归档")
	case errors.Is(err, service.ErrStudyNotFound):
		response.NotFound(c, codeStudyNotFound, "研究不存在")
	case errors.Is(err, service.ErrValidation):
		response.BadRequest(c, codeValidation, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		response.Error(c, http.StatusServiceUnavailable, codeCancelled, "请求已取消或超时")
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

// bindError 请求绑定失败；请求体超过 BodyLimit 时返回 413
func bindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, codeBodyTooLarge, "请求体过大")
		return
	}
	response.BadRequest(c, codeValidation, "参数校验失败")
}
