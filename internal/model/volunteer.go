package model

import "gorm.io/datatypes"

// 审核状态
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// IsValidApprovalStatus 校验审核状态取值
func IsValidApprovalStatus(s string) bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// Volunteer 志愿者主档（master），对应 volunteers
// volunteer_id 创建后不可变；contact / id_proof_number 的唯一性由查重在写入前保证
type Volunteer struct {
	VolunteerID    string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"volunteer_id"`
	SubjectCode    *string         `gorm:"type:varchar(50)"                               json:"subject_code,omitempty"` // 研究审核通过后分配
	LegacyID       *string         `gorm:"type:varchar(50)"                               json:"legacy_id,omitempty"`
	Contact        string          `gorm:"type:varchar(20);not null;default:''"           json:"contact"`
	IDProofType    *string         `gorm:"type:varchar(30)"                               json:"id_proof_type,omitempty"`
	IDProofNumber  *string         `gorm:"type:varchar(50)"                               json:"id_proof_number,omitempty"` // 大写规范化
	Name           string          `gorm:"type:varchar(200);not null"                     json:"name"`
	Gender         *string         `gorm:"type:varchar(20)"                               json:"gender,omitempty"`
	Age            *int            `json:"age,omitempty"`
	DOB            *datatypes.Date `gorm:"column:dob"                                     json:"dob,omitempty"`
	Address        *string         `gorm:"type:text"                                      json:"address,omitempty"`
	ApprovalStatus string          `gorm:"type:varchar(20);not null;default:'pending'"    json:"approval_status"`
	SourceDraftID  *string         `gorm:"type:uuid"                                      json:"source_draft_id,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (Volunteer) TableName() string { return "volunteers" }

// IsApproved 是否已审核通过
func (v *Volunteer) IsApproved() bool { return v.ApprovalStatus == ApprovalApproved }
