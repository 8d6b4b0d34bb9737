package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/dto"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/service"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/pkg/response"
)

// IdentityHandler 查重 HTTP 处理器
type IdentityHandler struct {
	identitySvc service.IdentityService
}

// NewIdentityHandler 创建 IdentityHandler
func NewIdentityHandler(identitySvc service.IdentityService) *IdentityHandler {
	return &IdentityHandler{identitySvc: identitySvc}
}

// Check 录入时的实时查重，永不因存储故障报错
// GET /api/v1/identity/check?contact=&id_proof_number=
func (h *IdentityHandler) Check(c *gin.Context) {
	var req dto.IdentityCheckRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	response.OK(c, h.identitySvc.Resolve(c.Request.Context(), req.Contact, req.IDProofNumber))
}
