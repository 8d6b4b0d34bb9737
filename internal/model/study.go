package model

import (
	"time"

	"gorm.io/datatypes"
)

// Study 临床研究，对应 studies
type Study struct {
	StudyCode string          `gorm:"type:varchar(50);primaryKey" json:"study_code"`
	Name      string          `gorm:"type:varchar(200);not null"  json:"name"`
	StartDate datatypes.Date  `gorm:"not null"                    json:"start_date"`
	EndDate   *datatypes.Date `json:"end_date,omitempty"` // 为空表示未定结束日期
	BaseModel
}

// TableName 指定表名
func (Study) TableName() string { return "studies" }

// IsOngoing start_date ≤ today ≤ end_date；无结束日期时只要求已开始
func (s *Study) IsOngoing(today datatypes.Date) bool {
	t := time.Time(today)
	if time.Time(s.StartDate).After(t) {
		return false
	}
	if s.EndDate != nil && time.Time(*s.EndDate).Before(t) {
		return false
	}
	return true
}

// StudyAssignment 志愿者与研究的关联，对应 study_assignments
// (volunteer_id, study_code) 唯一
type StudyAssignment struct {
	AssignmentID       string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	VolunteerID        string          `gorm:"type:uuid;not null"                             json:"volunteer_id"`
	StudyCode          string          `gorm:"type:varchar(50);not null"                      json:"study_code"`
	ScheduledVisitDate *datatypes.Date `json:"scheduled_visit_date,omitempty"`
	BaseModel

	// 关联
	Volunteer *Volunteer `gorm:"foreignKey:VolunteerID;references:VolunteerID" json:"volunteer,omitempty"`
}

// TableName 指定表名
func (StudyAssignment) TableName() string { return "study_assignments" }

// IsScheduledOn 计划访视日是否为指定日期
func (a *StudyAssignment) IsScheduledOn(day datatypes.Date) bool {
	return a.ScheduledVisitDate != nil && DateKey(*a.ScheduledVisitDate) == DateKey(day)
}
