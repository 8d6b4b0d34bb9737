package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BaseModel 通用审计字段（所有业务模型嵌入）
// 操作人来自外部认证服务，不强制为 uuid
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:varchar(64)"                   json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:varchar(64)"                   json:"updated_by,omitempty"`
}

// SoftDeleteModel 支持软删除（归档）的审计字段
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"            json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:varchar(64)" json:"deleted_by,omitempty"`
}

// VersionedModel 支持乐观锁的模型
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}

// ── 日期工具 ──

// DateLayout 对外统一的日期格式
const DateLayout = "2006-01-02"

// DateOf 取 t 在其所在时区的日历日期，统一落为 UTC 零点
func DateOf(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// DateKey 日期的 yyyy-mm-dd 表示
func DateKey(d datatypes.Date) string {
	return time.Time(d).Format(DateLayout)
}

// ParseDate 解析 yyyy-mm-dd
func ParseDate(s string) (datatypes.Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return datatypes.Date{}, err
	}
	return DateOf(t), nil
}

// OptionalDateKey 可空日期的字符串表示，nil 返回空串
func OptionalDateKey(d *datatypes.Date) string {
	if d == nil {
		return ""
	}
	return DateKey(*d)
}
