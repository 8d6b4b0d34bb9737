package repository

import "gorm.io/gorm"

// Repository 所有 Repository 的聚合入口（RecordStore）
type Repository struct {
	Draft      DraftRepository
	Volunteer  VolunteerRepository
	Study      StudyRepository
	Assignment AssignmentRepository
	Attendance AttendanceRepository
	Sync       SyncRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Draft:      NewDraftRepo(db),
		Volunteer:  NewVolunteerRepo(db),
		Study:      NewStudyRepo(db),
		Assignment: NewAssignmentRepo(db),
		Attendance: NewAttendanceRepo(db),
		Sync:       NewSyncRepo(db),
	}
}
