package dto

// ── 考勤模块 DTO ──

// ToggleRequest 单人签到/签退
// Action 为空时取当前状态的反向；FilterScope 为调用方当前的名册筛选
type ToggleRequest struct {
	VolunteerID string  `json:"volunteer_id" binding:"required"`
	Action      string  `json:"action"       binding:"omitempty,oneof=IN OUT"`
	StudyCode   *string `json:"study_code"   binding:"omitempty,max=50"`
	FilterScope string  `json:"filter_scope" binding:"omitempty,max=50"`
}

// ToggleResponse 状态变更结果
// Changed=false 时为无操作（重复请求或无法解析的作用域），Reason 给出原因
type ToggleResponse struct {
	VolunteerID string  `json:"volunteer_id"`
	Changed     bool    `json:"changed"`
	NoOp        bool    `json:"no_op"`
	Reason      string  `json:"reason,omitempty"`
	State       string  `json:"state"`
	StudyCode   *string `json:"study_code,omitempty"`
	EventID     string  `json:"event_id,omitempty"`
	OccurredAt  string  `json:"occurred_at,omitempty"`
}

// BulkToggleRequest 批量签到/签退
type BulkToggleRequest struct {
	VolunteerIDs []string `json:"volunteer_ids" binding:"required"`
	Action       string   `json:"action"        binding:"required,oneof=IN OUT"`
	StudyCode    *string  `json:"study_code"    binding:"omitempty,max=50"`
	FilterScope  string   `json:"filter_scope"  binding:"omitempty,max=50"`
}

// BulkFailure 批量中单个失败成员
type BulkFailure struct {
	VolunteerID  string `json:"volunteer_id"`
	Reason       string `json:"reason"`
	CurrentState string `json:"current_state,omitempty"`
}

// BulkToggleResponse 批量结果：成功数 + 失败数 == 请求数
type BulkToggleResponse struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// RapidEntryRequest 扫码快速签到
type RapidEntryRequest struct {
	VolunteerID string `json:"volunteer_id" binding:"required"`
}

// AttendanceEventResponse 考勤事件
type AttendanceEventResponse struct {
	Seq        int64   `json:"seq"`
	EventID    string  `json:"event_id"`
	StudyCode  *string `json:"study_code,omitempty"`
	Action     string  `json:"action"`
	OccurredAt string  `json:"occurred_at"`
	ActorID    string  `json:"actor_id"`
}

// HistoryRequest 考勤历史查询参数
type HistoryRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// PresenceResponse 志愿者当前在场情况与最近事件
type PresenceResponse struct {
	VolunteerID    string                    `json:"volunteer_id"`
	State          string                    `json:"state"`
	CheckedInStudy *string                   `json:"checked_in_study,omitempty"`
	CheckedInAt    string                    `json:"checked_in_at,omitempty"`
	Events         []AttendanceEventResponse `json:"events"`
}
