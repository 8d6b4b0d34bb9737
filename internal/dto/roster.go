package dto

// ── 名册 / 同步模块 DTO ──

// RosterRequest 名册查询参数；Scope 为研究编号或保留词，空表示全部已审核志愿者
type RosterRequest struct {
	Scope string `form:"scope" binding:"omitempty,max=50"`
}

// RosterEntry 名册行，附带该作用域下的当前考勤状态
type RosterEntry struct {
	VolunteerID    string   `json:"volunteer_id"`
	SubjectCode    *string  `json:"subject_code,omitempty"`
	Name           string   `json:"name"`
	Contact        string   `json:"contact"`
	ApprovalStatus string   `json:"approval_status"`
	StudyCodes     []string `json:"study_codes,omitempty"`
	State          string   `json:"state"`
	LastEventAt    string   `json:"last_event_at,omitempty"`
	CheckedInStudy *string  `json:"checked_in_study,omitempty"`
}

// RosterResponse 名册快照
type RosterResponse struct {
	Scope   string        `json:"scope"`
	Today   string        `json:"today"`
	Version string        `json:"version"`
	Count   int           `json:"count"`
	Entries []RosterEntry `json:"entries"`
}

// SyncContractResponse 轮询约定
type SyncContractResponse struct {
	DashboardPollIntervalMs  int64  `json:"dashboard_poll_interval_ms"`
	DuplicateCheckDebounceMs int64  `json:"duplicate_check_debounce_ms"`
	RapidEntryCacheMs        int64  `json:"rapid_entry_cache_ms"`
	ServerTime               string `json:"server_time"`
	Timezone                 string `json:"timezone"`
}
