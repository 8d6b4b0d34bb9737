package dto

// ── 研究模块 DTO ──

// CreateStudyRequest 创建研究请求
type CreateStudyRequest struct {
	StudyCode string `json:"study_code" binding:"required,max=50"`
	Name      string `json:"name"       binding:"required,max=200"`
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date"   binding:"omitempty,datetime=2006-01-02"`
}

// StudyResponse 研究信息
type StudyResponse struct {
	StudyCode string `json:"study_code"`
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date,omitempty"`
	Ongoing   bool   `json:"ongoing"`
	CreatedAt string `json:"created_at"`
}

// AssignVolunteerRequest 分配志愿者到研究
type AssignVolunteerRequest struct {
	VolunteerID        string `json:"volunteer_id"         binding:"required,uuid"`
	ScheduledVisitDate string `json:"scheduled_visit_date" binding:"omitempty,datetime=2006-01-02"`
}

// AssignmentResponse 研究分配信息
type AssignmentResponse struct {
	AssignmentID       string `json:"assignment_id"`
	VolunteerID        string `json:"volunteer_id"`
	StudyCode          string `json:"study_code"`
	ScheduledVisitDate string `json:"scheduled_visit_date,omitempty"`
}
