package dto

// ── 查重模块 DTO ──

// 命中位置
const (
	MatchLocationMaster = "master"
	MatchLocationField  = "field"
)

// 命中依据
const (
	MatchTypeIDProof = "id_proof"
	MatchTypeContact = "contact"
)

// IdentityCheckRequest 查重请求（两项至少提供一项，均为空时直接返回未命中）
type IdentityCheckRequest struct {
	Contact       string `form:"contact"          binding:"omitempty,max=32"`
	IDProofNumber string `form:"id_proof_number"  binding:"omitempty,max=64"`
}

// MatchResult 查重结果
// Location=master 时带 MasterID；Location=field 时带完整草稿
type MatchResult struct {
	Exists    bool           `json:"exists"`
	Location  string         `json:"location,omitempty"`
	MatchType string         `json:"match_type,omitempty"`
	MasterID  string         `json:"master_id,omitempty"`
	Draft     *DraftResponse `json:"draft,omitempty"`
}
