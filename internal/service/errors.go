package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/dto"
)

// ── 错误分类 ──
// 具体业务错误通过 errors.Is 归入以下类别，Handler 按类别映射 HTTP 状态

var (
	ErrValidation = errors.New("参数校验失败")
	ErrNotFound   = errors.New("资源不存在")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string        { return e.msg }
func (e *kindError) Is(target error) bool { return target == e.kind }

func validationError(msg string) error { return &kindError{kind: ErrValidation, msg: msg} }
func notFoundError(msg string) error   { return &kindError{kind: ErrNotFound, msg: msg} }

// ── 业务错误 ──

var (
	ErrVolunteerNotFound = notFoundError("志愿者不存在")
	ErrDraftNotFound     = notFoundError("草稿不存在或已归档")
	ErrStudyNotFound     = notFoundError("研究不存在")

	ErrInvalidContact    = validationError("手机号格式无效")
	ErrInvalidDate       = validationError("日期格式无效")
	ErrInvalidStatus     = validationError("审核状态无效")
	ErrEmptyBatch        = validationError("批量列表不能为空")
	ErrBatchTooLarge     = validationError("批量数量超过上限")
	ErrStudyDateInvalid  = validationError("结束日期不能早于开始日期")
	ErrReservedStudyCode = validationError("研究编号不能使用保留词")

	ErrStudyCodeTaken     = errors.New("研究编号已存在")
	ErrDuplicateVolunteer = errors.New("志愿者主档已存在")
)

// ── 状态变更拒绝 ──

var (
	ErrInvalidTransition    = errors.New("考勤状态变更被拒绝")
	ErrAlreadyInState       = errors.New("已处于目标状态")
	ErrOpenInOtherStudy     = errors.New("已在其他研究签到，需先签退")
	ErrVolunteerNotApproved = errors.New("志愿者未审核通过")
)

// TransitionError 考勤状态变更被拒绝，携带当前推导状态
// errors.Is(err, ErrInvalidTransition) 恒成立，Unwrap 得到具体原因
type TransitionError struct {
	VolunteerID string
	Current     string  // IN / OUT
	StudyCode   *string // Current 所在的作用域，nil 为通用
	Reason      error
}

func (e *TransitionError) Error() string {
	scope := "通用"
	if e.StudyCode != nil {
		scope = *e.StudyCode
	}
	return fmt.Sprintf("%s: volunteer=%s scope=%s current=%s", e.Reason, e.VolunteerID, scope, e.Current)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

func (e *TransitionError) Unwrap() error { return e.Reason }

// Response 无操作结果：调用方按"成功但无变化"处理
func (e *TransitionError) Response() *dto.ToggleResponse {
	return &dto.ToggleResponse{
		VolunteerID: e.VolunteerID,
		Changed:     false,
		NoOp:        true,
		Reason:      ReasonCode(e),
		State:       e.Current,
		StudyCode:   e.StudyCode,
	}
}

// DuplicateError 主档查重命中，阻止建档
type DuplicateError struct {
	Match *dto.MatchResult
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s (match_type=%s, master_id=%s)", ErrDuplicateVolunteer, e.Match.MatchType, e.Match.MasterID)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicateVolunteer }

// ReasonCode 错误的机器可读原因，用于批量失败项与无操作响应
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyInState):
		return "already_in_state"
	case errors.Is(err, ErrOpenInOtherStudy):
		return "open_in_other_study"
	case errors.Is(err, ErrVolunteerNotApproved):
		return "not_approved"
	case errors.Is(err, ErrVolunteerNotFound):
		return "volunteer_not_found"
	case errors.Is(err, ErrStudyNotFound):
		return "study_not_found"
	case errors.Is(err, ErrValidation):
		return "invalid_request"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "storage_error"
	}
}
