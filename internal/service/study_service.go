package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/dto"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/model"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/repository"
	pkgerrors "github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/pkg/errors"
)

// StudyService 研究与研究分配
type StudyService interface {
	Create(ctx context.Context, req *dto.CreateStudyRequest, actorID string) (*dto.StudyResponse, error)
	Get(ctx context.Context, code string) (*dto.StudyResponse, error)
	List(ctx context.Context) ([]dto.StudyResponse, error)
	// Assign 幂等：同一志愿者重复分配只更新访视日期
	Assign(ctx context.Context, code string, req *dto.AssignVolunteerRequest, actorID string) (*dto.AssignmentResponse, error)
	ListAssignments(ctx context.Context, code string) ([]dto.AssignmentResponse, error)
}

type studyService struct {
	repo   *repository.Repository
	clock  Clock
	logger *zap.Logger
}

// NewStudyService 创建 StudyService 实例
func NewStudyService(repo *repository.Repository, clock Clock, logger *zap.Logger) StudyService {
	return &studyService{repo: repo, clock: clock, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *studyService) Create(ctx context.Context, req *dto.CreateStudyRequest, actorID string) (*dto.StudyResponse, error) {
	code := NormalizeStudyCode(req.StudyCode)
	if code == "" {
		return nil, validationError("研究编号不能为空")
	}
	if IsReservedScope(code) {
		return nil, ErrReservedStudyCode
	}

	start, err := model.ParseDate(req.StartDate)
	if err != nil {
		return nil, ErrInvalidDate
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	if end != nil && time.Time(*end).Before(time.Time(start)) {
		return nil, ErrStudyDateInvalid
	}

	if _, err := s.repo.Study.GetByCode(ctx, code); err == nil {
		return nil, ErrStudyCodeTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询研究失败", zap.String("study_code", code), zap.Error(err))
		return nil, pkgerrors.Storage("get_study", err)
	}

	study := &model.Study{
		StudyCode: code,
		Name:      req.Name,
		StartDate: start,
		EndDate:   end,
	}
	study.CreatedBy = &actorID
	study.UpdatedBy = &actorID

	if err := s.repo.Study.Create(ctx, study); err != nil {
		s.logger.Error("创建研究失败", zap.String("study_code", code), zap.Error(err))
		return nil, pkgerrors.Storage("create_study", err)
	}

	return s.toStudyResponse(study), nil
}

// ────────────────────── Query ──────────────────────

func (s *studyService) Get(ctx context.Context, code string) (*dto.StudyResponse, error) {
	study, err := s.getStudy(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.toStudyResponse(study), nil
}

func (s *studyService) List(ctx context.Context) ([]dto.StudyResponse, error) {
	studies, err := s.repo.Study.List(ctx)
	if err != nil {
		s.logger.Error("列出研究失败", zap.Error(err))
		return nil, pkgerrors.Storage("list_studies", err)
	}

	result := make([]dto.StudyResponse, 0, len(studies))
	for i := range studies {
		result = append(result, *s.toStudyResponse(&studies[i]))
	}
	return result, nil
}

// ────────────────────── Assignment ──────────────────────

func (s *studyService) Assign(ctx context.Context, code string, req *dto.AssignVolunteerRequest, actorID string) (*dto.AssignmentResponse, error) {
	study, err := s.getStudy(ctx, code)
	if err != nil {
		return nil, err
	}

	if !isUUID(req.VolunteerID) {
		return nil, ErrVolunteerNotFound
	}
	if _, err := s.repo.Volunteer.GetByID(ctx, req.VolunteerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVolunteerNotFound
		}
		s.logger.Error("查询志愿者失败", zap.String("volunteer_id", req.VolunteerID), zap.Error(err))
		return nil, pkgerrors.Storage("get_volunteer", err)
	}

	visit, err := parseOptionalDate(req.ScheduledVisitDate)
	if err != nil {
		return nil, err
	}

	a := &model.StudyAssignment{
		VolunteerID:        req.VolunteerID,
		StudyCode:          study.StudyCode,
		ScheduledVisitDate: visit,
	}
	a.CreatedBy = &actorID
	a.UpdatedBy = &actorID

	if err := s.repo.Assignment.Upsert(ctx, a); err != nil {
		s.logger.Error("分配研究失败",
			zap.String("study_code", study.StudyCode),
			zap.String("volunteer_id", req.VolunteerID),
			zap.Error(err),
		)
		return nil, pkgerrors.Storage("upsert_assignment", err)
	}

	return toAssignmentResponse(a), nil
}

func (s *studyService) ListAssignments(ctx context.Context, code string) ([]dto.AssignmentResponse, error) {
	study, err := s.getStudy(ctx, code)
	if err != nil {
		return nil, err
	}

	assignments, err := s.repo.Assignment.ListByStudy(ctx, study.StudyCode)
	if err != nil {
		s.logger.Error("列出研究分配失败", zap.String("study_code", study.StudyCode), zap.Error(err))
		return nil, pkgerrors.Storage("list_assignments", err)
	}

	result := make([]dto.AssignmentResponse, 0, len(assignments))
	for i := range assignments {
		result = append(result, *toAssignmentResponse(&assignments[i]))
	}
	return result, nil
}

// ── 内部方法 ──

func (s *studyService) getStudy(ctx context.Context, code string) (*model.Study, error) {
	code = NormalizeStudyCode(code)
	study, err := s.repo.Study.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudyNotFound
		}
		s.logger.Error("查询研究失败", zap.String("study_code", code), zap.Error(err))
		return nil, pkgerrors.Storage("get_study", err)
	}
	return study, nil
}

func (s *studyService) toStudyResponse(study *model.Study) *dto.StudyResponse {
	return &dto.StudyResponse{
		StudyCode: study.StudyCode,
		Name:      study.Name,
		StartDate: model.DateKey(study.StartDate),
		EndDate:   model.OptionalDateKey(study.EndDate),
		Ongoing:   study.IsOngoing(s.clock.Today()),
		CreatedAt: formatTime(study.CreatedAt),
	}
}

func toAssignmentResponse(a *model.StudyAssignment) *dto.AssignmentResponse {
	return &dto.AssignmentResponse{
		AssignmentID:       a.AssignmentID,
		VolunteerID:        a.VolunteerID,
		StudyCode:          a.StudyCode,
		ScheduledVisitDate: model.OptionalDateKey(a.ScheduledVisitDate),
	}
}
