package dto

// ── 外勤草稿 DTO ──

// CreateDraftRequest 外勤采集创建请求
type CreateDraftRequest struct {
	FirstName  string  `json:"first_name"  binding:"required,max=100"`
	MiddleName *string `json:"middle_name" binding:"omitempty,max=100"`
	Surname    string  `json:"surname"     binding:"required,max=100"`
	DOB        string  `json:"dob"         binding:"omitempty,datetime=2006-01-02"`
	Gender     *string `json:"gender"      binding:"omitempty,max=20"`
	Contact    string  `json:"contact"     binding:"required,max=32"`
	Location   *string `json:"location"    binding:"omitempty,max=200"`
	Address    *string `json:"address"     binding:"omitempty,max=1000"`
}

// CreateDraftResponse 外勤采集创建响应
type CreateDraftResponse struct {
	DraftID string `json:"draft_id"`
}

// DraftResponse 草稿信息
type DraftResponse struct {
	DraftID    string  `json:"draft_id"`
	FirstName  string  `json:"first_name"`
	MiddleName *string `json:"middle_name,omitempty"`
	Surname    string  `json:"surname"`
	FullName   string  `json:"full_name"`
	DOB        string  `json:"dob,omitempty"`
	Gender     *string `json:"gender,omitempty"`
	Contact    string  `json:"contact"`
	Location   *string `json:"location,omitempty"`
	Address    *string `json:"address,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// DraftListRequest 草稿列表查询参数
type DraftListRequest struct {
	PaginationRequest
}

// ── 志愿者主档 DTO ──

// CreateVolunteerRequest 预筛建档请求
// DraftID 非空时从该草稿转正；Force 为 true 时忽略主档查重命中
type CreateVolunteerRequest struct {
	DraftID       *string `json:"draft_id"        binding:"omitempty,uuid"`
	Name          string  `json:"name"            binding:"required,max=200"`
	Contact       string  `json:"contact"         binding:"required,max=32"`
	IDProofType   *string `json:"id_proof_type"   binding:"omitempty,max=30"`
	IDProofNumber *string `json:"id_proof_number" binding:"omitempty,max=64"`
	LegacyID      *string `json:"legacy_id"       binding:"omitempty,max=50"`
	Gender        *string `json:"gender"          binding:"omitempty,max=20"`
	Age           *int    `json:"age"             binding:"omitempty,min=0,max=150"`
	DOB           string  `json:"dob"             binding:"omitempty,datetime=2006-01-02"`
	Address       *string `json:"address"         binding:"omitempty,max=1000"`
	Force         bool    `json:"force"`
}

// CreateVolunteerResponse 预筛建档响应
type CreateVolunteerResponse struct {
	VolunteerID     string `json:"volunteer_id"`
	ApprovalStatus  string `json:"approval_status"`
	PromotedDraftID string `json:"promoted_draft_id,omitempty"`
}

// VolunteerResponse 志愿者主档信息
type VolunteerResponse struct {
	VolunteerID    string  `json:"volunteer_id"`
	SubjectCode    *string `json:"subject_code,omitempty"`
	LegacyID       *string `json:"legacy_id,omitempty"`
	Contact        string  `json:"contact"`
	IDProofType    *string `json:"id_proof_type,omitempty"`
	IDProofNumber  *string `json:"id_proof_number,omitempty"`
	Name           string  `json:"name"`
	Gender         *string `json:"gender,omitempty"`
	Age            *int    `json:"age,omitempty"`
	DOB            string  `json:"dob,omitempty"`
	Address        *string `json:"address,omitempty"`
	ApprovalStatus string  `json:"approval_status"`
	SourceDraftID  *string `json:"source_draft_id,omitempty"`
	Version        int     `json:"version"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// UpdateStatusRequest 审核状态更新请求
// Version 提供时必须与当前版本一致，否则按乐观锁冲突处理
type UpdateStatusRequest struct {
	Status      string  `json:"status"       binding:"required,oneof=pending approved rejected"`
	SubjectCode *string `json:"subject_code" binding:"omitempty,max=50"`
	Version     *int    `json:"version"      binding:"omitempty,min=1"`
}
