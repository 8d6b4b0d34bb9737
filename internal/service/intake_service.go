package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/dto"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/model"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/repository"
	pkgerrors "github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/pkg/errors"
)

// IntakeService 外勤采集与预筛建档
type IntakeService interface {
	CreateDraft(ctx context.Context, req *dto.CreateDraftRequest, actorID string) (*dto.CreateDraftResponse, error)
	ListDrafts(ctx context.Context, req *dto.DraftListRequest) ([]dto.DraftResponse, int64, error)
	DeleteDraft(ctx context.Context, id string, actorID string) error
	CreateVolunteer(ctx context.Context, req *dto.CreateVolunteerRequest, actorID string) (*dto.CreateVolunteerResponse, error)
	GetVolunteer(ctx context.Context, id string) (*dto.VolunteerResponse, error)
	UpdateStatus(ctx context.Context, id string, req *dto.UpdateStatusRequest, actorID string) (*dto.VolunteerResponse, error)
}

type intakeService struct {
	repo     *repository.Repository
	identity IdentityService
	logger   *zap.Logger
}

// NewIntakeService 创建 IntakeService 实例
func NewIntakeService(repo *repository.Repository, identity IdentityService, logger *zap.Logger) IntakeService {
	return &intakeService{repo: repo, identity: identity, logger: logger}
}

// ────────────────────── Draft ──────────────────────

func (s *intakeService) CreateDraft(ctx context.Context, req *dto.CreateDraftRequest, actorID string) (*dto.CreateDraftResponse, error) {
	contact, ok := NormalizeContact(req.Contact)
	if !ok {
		return nil, ErrInvalidContact
	}
	dob, err := parseOptionalDate(req.DOB)
	if err != nil {
		return nil, err
	}

	draft := &model.Draft{
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		Surname:    req.Surname,
		DOB:        dob,
		Gender:     req.Gender,
		Contact:    contact,
		Location:   req.Location,
		Address:    req.Address,
	}
	draft.CreatedBy = &actorID
	draft.UpdatedBy = &actorID

	if err := s.repo.Draft.Create(ctx, draft); err != nil {
		s.logger.Error("创建草稿失败", zap.Error(err))
		return nil, pkgerrors.Storage("create_draft", err)
	}

	s.logger.Info("外勤草稿已创建", zap.String("draft_id", draft.DraftID), zap.String("actor_id", actorID))
	return &dto.CreateDraftResponse{DraftID: draft.DraftID}, nil
}

func (s *intakeService) ListDrafts(ctx context.Context, req *dto.DraftListRequest) ([]dto.DraftResponse, int64, error) {
	drafts, total, err := s.repo.Draft.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出草稿失败", zap.Error(err))
		return nil, 0, pkgerrors.Storage("list_drafts", err)
	}

	result := make([]dto.DraftResponse, 0, len(drafts))
	for i := range drafts {
		result = append(result, *toDraftResponse(&drafts[i]))
	}
	return result, total, nil
}

func (s *intakeService) DeleteDraft(ctx context.Context, id string, actorID string) error {
	if !isUUID(id) {
		return ErrDraftNotFound
	}
	if err := s.repo.Draft.Delete(ctx, id, actorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDraftNotFound
		}
		s.logger.Error("归档草稿失败", zap.String("draft_id", id), zap.Error(err))
		return pkgerrors.Storage("delete_draft", err)
	}
	return nil
}

// ────────────────────── Volunteer ──────────────────────

func (s *intakeService) CreateVolunteer(ctx context.Context, req *dto.CreateVolunteerRequest, actorID string) (*dto.CreateVolunteerResponse, error) {
	contact, ok := NormalizeContact(req.Contact)
	if !ok {
		return nil, ErrInvalidContact
	}
	var idProof *string
	if req.IDProofNumber != nil {
		if p, ok := NormalizeIDProof(*req.IDProofNumber); ok {
			idProof = &p
		}
	}
	dob, err := parseOptionalDate(req.DOB)
	if err != nil {
		return nil, err
	}

	proofRaw := ""
	if idProof != nil {
		proofRaw = *idProof
	}
	match := s.identity.Resolve(ctx, contact, proofRaw)
	if match.Exists && match.Location == dto.MatchLocationMaster && !req.Force {
		return nil, &DuplicateError{Match: match}
	}

	draftID := ""
	if req.DraftID != nil {
		draftID = *req.DraftID
		if _, err := s.repo.Draft.GetByID(ctx, draftID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrDraftNotFound
			}
			s.logger.Error("查询草稿失败", zap.String("draft_id", draftID), zap.Error(err))
			return nil, pkgerrors.Storage("get_draft", err)
		}
	} else if match.Exists && match.Location == dto.MatchLocationField && match.Draft != nil {
		draftID = match.Draft.DraftID
	}

	v := &model.Volunteer{
		LegacyID:       req.LegacyID,
		Contact:        contact,
		IDProofType:    req.IDProofType,
		IDProofNumber:  idProof,
		Name:           req.Name,
		Gender:         req.Gender,
		Age:            req.Age,
		DOB:            dob,
		Address:        req.Address,
		ApprovalStatus: model.ApprovalPending,
	}
	v.CreatedBy = &actorID
	v.UpdatedBy = &actorID

	if draftID != "" {
		err = s.repo.Volunteer.PromoteDraft(ctx, v, draftID, actorID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 并发转正：草稿已被其他请求归档
			return nil, ErrDraftNotFound
		}
	} else {
		err = s.repo.Volunteer.Create(ctx, v)
	}
	if err != nil {
		s.logger.Error("创建志愿者主档失败", zap.String("draft_id", draftID), zap.Error(err))
		return nil, pkgerrors.Storage("create_volunteer", err)
	}

	s.logger.Info("志愿者主档已创建",
		zap.String("volunteer_id", v.VolunteerID),
		zap.String("promoted_draft_id", draftID),
		zap.Bool("forced", req.Force && match.Exists),
		zap.String("actor_id", actorID),
	)

	return &dto.CreateVolunteerResponse{
		VolunteerID:     v.VolunteerID,
		ApprovalStatus:  v.ApprovalStatus,
		PromotedDraftID: draftID,
	}, nil
}

func (s *intakeService) GetVolunteer(ctx context.Context, id string) (*dto.VolunteerResponse, error) {
	v, err := s.getVolunteer(ctx, id)
	if err != nil {
		return nil, err
	}
	return toVolunteerResponse(v), nil
}

func (s *intakeService) UpdateStatus(ctx context.Context, id string, req *dto.UpdateStatusRequest, actorID string) (*dto.VolunteerResponse, error) {
	if !model.IsValidApprovalStatus(req.Status) {
		return nil, ErrInvalidStatus
	}

	v, err := s.getVolunteer(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Version != nil && *req.Version != v.Version {
		return nil, pkgerrors.ErrOptimisticLock
	}

	previous := v.ApprovalStatus
	v.ApprovalStatus = req.Status
	if req.SubjectCode != nil {
		v.SubjectCode = req.SubjectCode
	}
	v.UpdatedBy = &actorID

	if err := s.repo.Volunteer.UpdateStatus(ctx, v); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, err
		}
		s.logger.Error("更新审核状态失败", zap.String("volunteer_id", id), zap.Error(err))
		return nil, pkgerrors.Storage("update_status", err)
	}

	s.logger.Info("审核状态已更新",
		zap.String("volunteer_id", id),
		zap.String("from", previous),
		zap.String("to", v.ApprovalStatus),
		zap.String("actor_id", actorID),
	)
	return toVolunteerResponse(v), nil
}

func (s *intakeService) getVolunteer(ctx context.Context, id string) (*model.Volunteer, error) {
	if !isUUID(id) {
		return nil, ErrVolunteerNotFound
	}
	v, err := s.repo.Volunteer.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVolunteerNotFound
		}
		s.logger.Error("查询志愿者失败", zap.String("volunteer_id", id), zap.Error(err))
		return nil, pkgerrors.Storage("get_volunteer", err)
	}
	return v, nil
}

// ── 转换 ──

func parseOptionalDate(s string) (*datatypes.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return nil, ErrInvalidDate
	}
	return &d, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func toDraftResponse(d *model.Draft) *dto.DraftResponse {
	return &dto.DraftResponse{
		DraftID:    d.DraftID,
		FirstName:  d.FirstName,
		MiddleName: d.MiddleName,
		Surname:    d.Surname,
		FullName:   d.FullName(),
		DOB:        model.OptionalDateKey(d.DOB),
		Gender:     d.Gender,
		Contact:    d.Contact,
		Location:   d.Location,
		Address:    d.Address,
		CreatedAt:  formatTime(d.CreatedAt),
	}
}

func toVolunteerResponse(v *model.Volunteer) *dto.VolunteerResponse {
	return &dto.VolunteerResponse{
		VolunteerID:    v.VolunteerID,
		SubjectCode:    v.SubjectCode,
		LegacyID:       v.LegacyID,
		Contact:        v.Contact,
		IDProofType:    v.IDProofType,
		IDProofNumber:  v.IDProofNumber,
		Name:           v.Name,
		Gender:         v.Gender,
		Age:            v.Age,
		DOB:            model.OptionalDateKey(v.DOB),
		Address:        v.Address,
		ApprovalStatus: v.ApprovalStatus,
		SourceDraftID:  v.SourceDraftID,
		Version:        v.Version,
		CreatedAt:      formatTime(v.CreatedAt),
		UpdatedAt:      formatTime(v.UpdatedAt),
	}
}
