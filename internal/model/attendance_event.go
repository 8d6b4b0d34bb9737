package model

import "time"

// 考勤动作
const (
	ActionIn  = "IN"
	ActionOut = "OUT"
)

// AttendanceEvent 考勤事件（只追加），对应 attendance_events
// 当前状态 = 同一 (volunteer_id, study_code) 下 seq 最大事件的 action；无事件视为 OUT
type AttendanceEvent struct {
	Seq         int64     `gorm:"primaryKey;autoIncrement"                       json:"seq"`
	EventID     string    `gorm:"type:uuid;not null;default:gen_random_uuid()"   json:"event_id"`
	VolunteerID string    `gorm:"type:uuid;not null"                             json:"volunteer_id"`
	StudyCode   *string   `gorm:"type:varchar(50)"                               json:"study_code,omitempty"` // nil = 通用（不区分研究）
	Action      string    `gorm:"type:varchar(3);not null"                       json:"action"`
	OccurredAt  time.Time `gorm:"not null"                                       json:"occurred_at"`
	ActorID     string    `gorm:"type:varchar(64);not null"                      json:"actor_id"`
}

// TableName 指定表名
func (AttendanceEvent) TableName() string { return "attendance_events" }

// ScopeKey 作用域标识，通用考勤为空串
func (e *AttendanceEvent) ScopeKey() string {
	if e.StudyCode == nil {
		return ""
	}
	return *e.StudyCode
}

// IsIn 是否为签到事件
func (e *AttendanceEvent) IsIn() bool { return e.Action == ActionIn }

// SameScope 两个作用域是否相同（nil 与 nil 相同）
func SameScope(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
