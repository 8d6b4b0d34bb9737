package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/config"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/dto"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/model"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/repository"
	pkgerrors "github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/pkg/errors"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/pkg/keylock"
)

const defaultHistoryLimit = 20

// AttendanceService 考勤状态机
//
// 每个志愿者同一时刻至多一个未签退的签到。签退总是落在该签到的研究上，
// 与调用方当前查看的作用域无关。同一志愿者的变更串行执行，不同志愿者完全并行。
type AttendanceService interface {
	// Toggle 单人签到/签退；拒绝时返回 *TransitionError
	Toggle(ctx context.Context, req *dto.ToggleRequest, actorID string) (*dto.ToggleResponse, error)
	// BulkToggle 逐个独立处理，单个失败不影响其他成员
	BulkToggle(ctx context.Context, req *dto.BulkToggleRequest, actorID string) (*dto.BulkToggleResponse, error)
	// RapidEntry 扫码签到；已签到时返回 ErrAlreadyInState 的 *TransitionError
	RapidEntry(ctx context.Context, volunteerID, actorID string) (*dto.ToggleResponse, error)
	Presence(ctx context.Context, volunteerID string, limit int) (*dto.PresenceResponse, error)
	History(ctx context.Context, volunteerID string, limit int) ([]dto.AttendanceEventResponse, error)
}

type attendanceService struct {
	repo   *repository.Repository
	clock  Clock
	cfg    *config.AttendanceConfig
	locks  *keylock.Locker
	logger *zap.Logger
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(repo *repository.Repository, clock Clock, cfg *config.AttendanceConfig, logger *zap.Logger) AttendanceService {
	return &attendanceService{
		repo:   repo,
		clock:  clock,
		cfg:    cfg,
		locks:  keylock.New(),
		logger: logger,
	}
}

type toggleInput struct {
	volunteerID string
	action      string // 空串表示按当前状态取反
	studyCode   *string
	filterScope string
	actorID     string
}

// ────────────────────── Toggle ──────────────────────

func (s *attendanceService) Toggle(ctx context.Context, req *dto.ToggleRequest, actorID string) (*dto.ToggleResponse, error) {
	return s.toggle(ctx, toggleInput{
		volunteerID: req.VolunteerID,
		action:      req.Action,
		studyCode:   req.StudyCode,
		filterScope: req.FilterScope,
		actorID:     actorID,
	})
}

func (s *attendanceService) RapidEntry(ctx context.Context, volunteerID, actorID string) (*dto.ToggleResponse, error) {
	return s.toggle(ctx, toggleInput{
		volunteerID: volunteerID,
		action:      model.ActionIn,
		actorID:     actorID,
	})
}

func (s *attendanceService) toggle(ctx context.Context, in toggleInput) (*dto.ToggleResponse, error) {
	if !isUUID(in.volunteerID) {
		return nil, ErrVolunteerNotFound
	}
	if in.action != "" && in.action != model.ActionIn && in.action != model.ActionOut {
		return nil, validationError("action 只能为 IN 或 OUT")
	}

	// 签到作用域只读研究/分配表，在加锁前解析；错误推迟到确认需要签到时再返回
	var inScope *string
	var inScopeErr error
	if in.action != model.ActionOut {
		inScope, inScopeErr = s.resolveCheckInScope(ctx, in.volunteerID, in.studyCode, in.filterScope)
	}

	unlock, err := s.locks.Lock(ctx, in.volunteerID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var event *model.AttendanceEvent
	err = s.repo.Attendance.WithVolunteerLock(ctx, in.volunteerID, func(tx repository.AttendanceRepository, v *model.Volunteer) error {
		latest, err := tx.LatestPerScope(ctx, []string{in.volunteerID})
		if err != nil {
			return pkgerrors.Storage("latest_per_scope", err)
		}
		open := newDerivedStates(latest).open(in.volunteerID)

		if !v.IsApproved() {
			return s.rejection(in.volunteerID, open, nil, ErrVolunteerNotApproved)
		}

		action := in.action
		if action == "" {
			action = model.ActionIn
			if open != nil {
				action = model.ActionOut
			}
		}

		var scope *string
		if action == model.ActionOut {
			if open == nil {
				return &TransitionError{
					VolunteerID: in.volunteerID,
					Current:     model.ActionOut,
					StudyCode:   in.studyCode,
					Reason:      ErrAlreadyInState,
				}
			}
			// 签退对称：忽略调用方的作用域，落在签到时的研究上
			scope = open.StudyCode
		} else {
			if inScopeErr != nil {
				return inScopeErr
			}
			scope = inScope
			if open != nil {
				reason := ErrOpenInOtherStudy
				if model.SameScope(open.StudyCode, scope) {
					reason = ErrAlreadyInState
				}
				return s.rejection(in.volunteerID, open, scope, reason)
			}
		}

		event = &model.AttendanceEvent{
			EventID:     uuid.NewString(),
			VolunteerID: in.volunteerID,
			StudyCode:   scope,
			Action:      action,
			OccurredAt:  s.clock.Now(),
			ActorID:     in.actorID,
		}
		if err := tx.Append(ctx, event); err != nil {
			return pkgerrors.Storage("append_event", err)
		}
		return nil
	})
	if err != nil {
		return nil, s.mapToggleError(in.volunteerID, err)
	}

	s.logger.Info("考勤写入",
		zap.String("volunteer_id", in.volunteerID),
		zap.String("action", event.Action),
		zap.String("study_code", event.ScopeKey()),
		zap.String("actor_id", in.actorID),
	)

	return &dto.ToggleResponse{
		VolunteerID: in.volunteerID,
		Changed:     true,
		State:       event.Action,
		StudyCode:   event.StudyCode,
		EventID:     event.EventID,
		OccurredAt:  formatTime(event.OccurredAt),
	}, nil
}

// rejection 构造拒绝结果；存在未签退签到时 Current=IN 并指向其研究
func (s *attendanceService) rejection(volunteerID string, open *model.AttendanceEvent, requested *string, reason error) *TransitionError {
	te := &TransitionError{
		VolunteerID: volunteerID,
		Current:     model.ActionOut,
		StudyCode:   requested,
		Reason:      reason,
	}
	if open != nil {
		te.Current = model.ActionIn
		te.StudyCode = open.StudyCode
	}
	return te
}

func (s *attendanceService) mapToggleError(volunteerID string, err error) error {
	var te *TransitionError
	switch {
	case errors.As(err, &te):
		return te
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrVolunteerNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	s.logger.Error("考勤写入失败", zap.String("volunteer_id", volunteerID), zap.Error(err))
	if pkgerrors.IsStorage(err) {
		return err
	}
	return pkgerrors.Storage("toggle", err)
}

// resolveCheckInScope 签到作用域：显式研究 → 当前筛选（非保留词）→ 今天唯一的计划访视 → 通用
func (s *attendanceService) resolveCheckInScope(ctx context.Context, volunteerID string, studyCode *string, filterScope string) (*string, error) {
	if studyCode != nil {
		if code := NormalizeStudyCode(*studyCode); code != "" {
			if IsReservedScope(code) {
				return nil, ErrReservedStudyCode
			}
			return s.existingStudy(ctx, code)
		}
	}

	if code := NormalizeStudyCode(filterScope); code != "" && !IsReservedScope(code) {
		return s.existingStudy(ctx, code)
	}

	scheduled, err := s.repo.Assignment.ListScheduledForVolunteer(ctx, volunteerID, s.clock.Today())
	if err != nil {
		return nil, pkgerrors.Storage("list_scheduled_for_volunteer", err)
	}
	if len(scheduled) == 1 {
		code := scheduled[0].StudyCode
		return &code, nil
	}
	return nil, nil
}

func (s *attendanceService) existingStudy(ctx context.Context, code string) (*string, error) {
	if _, err := s.repo.Study.GetByCode(ctx, code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudyNotFound
		}
		return nil, pkgerrors.Storage("get_study", err)
	}
	return &code, nil
}

// ────────────────────── BulkToggle ──────────────────────

type bulkOutcome struct {
	resp *dto.ToggleResponse
	err  error
}

func (s *attendanceService) BulkToggle(ctx context.Context, req *dto.BulkToggleRequest, actorID string) (*dto.BulkToggleResponse, error) {
	n := len(req.VolunteerIDs)
	if n == 0 {
		return nil, ErrEmptyBatch
	}
	if n > s.cfg.BulkMaxSize {
		return nil, ErrBatchTooLarge
	}
	if req.Action != model.ActionIn && req.Action != model.ActionOut {
		return nil, validationError("action 只能为 IN 或 OUT")
	}

	outcomes := make([]bulkOutcome, n)
	var g errgroup.Group
	g.SetLimit(s.cfg.BulkConcurrency)
	for i, id := range req.VolunteerIDs {
		i, id := i, id
		g.Go(func() error {
			resp, err := s.toggle(ctx, toggleInput{
				volunteerID: id,
				action:      req.Action,
				studyCode:   req.StudyCode,
				filterScope: req.FilterScope,
				actorID:     actorID,
			})
			outcomes[i] = bulkOutcome{resp: resp, err: err}
			return nil
		})
	}
	_ = g.Wait()

	result := &dto.BulkToggleResponse{
		Succeeded: make([]string, 0, n),
		Failed:    make([]dto.BulkFailure, 0),
	}
	for i, o := range outcomes {
		if o.err == nil {
			result.Succeeded = append(result.Succeeded, req.VolunteerIDs[i])
			continue
		}
		failure := dto.BulkFailure{
			VolunteerID: req.VolunteerIDs[i],
			Reason:      ReasonCode(o.err),
		}
		var te *TransitionError
		if errors.As(o.err, &te) {
			failure.CurrentState = te.Current
		}
		result.Failed = append(result.Failed, failure)
	}

	s.logger.Info("批量考勤完成",
		zap.String("action", req.Action),
		zap.Int("total", n),
		zap.Int("succeeded", len(result.Succeeded)),
		zap.Int("failed", len(result.Failed)),
		zap.String("actor_id", actorID),
	)
	return result, nil
}

// ────────────────────── Presence / History ──────────────────────

func (s *attendanceService) Presence(ctx context.Context, volunteerID string, limit int) (*dto.PresenceResponse, error) {
	history, err := s.History(ctx, volunteerID, limit)
	if err != nil {
		return nil, err
	}

	latest, err := s.repo.Attendance.LatestPerScope(ctx, []string{volunteerID})
	if err != nil {
		s.logger.Error("查询在场状态失败", zap.String("volunteer_id", volunteerID), zap.Error(err))
		return nil, pkgerrors.Storage("latest_per_scope", err)
	}

	resp := &dto.PresenceResponse{
		VolunteerID: volunteerID,
		State:       model.ActionOut,
		Events:      history,
	}
	if open := newDerivedStates(latest).open(volunteerID); open != nil {
		resp.State = model.ActionIn
		resp.CheckedInStudy = open.StudyCode
		resp.CheckedInAt = formatTime(open.OccurredAt)
	}
	return resp, nil
}

func (s *attendanceService) History(ctx context.Context, volunteerID string, limit int) ([]dto.AttendanceEventResponse, error) {
	if !isUUID(volunteerID) {
		return nil, ErrVolunteerNotFound
	}
	if _, err := s.repo.Volunteer.GetByID(ctx, volunteerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVolunteerNotFound
		}
		s.logger.Error("查询志愿者失败", zap.String("volunteer_id", volunteerID), zap.Error(err))
		return nil, pkgerrors.Storage("get_volunteer", err)
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	events, err := s.repo.Attendance.ListByVolunteer(ctx, volunteerID, limit)
	if err != nil {
		s.logger.Error("查询考勤历史失败", zap.String("volunteer_id", volunteerID), zap.Error(err))
		return nil, pkgerrors.Storage("list_events", err)
	}

	result := make([]dto.AttendanceEventResponse, 0, len(events))
	for i := range events {
		e := &events[i]
		result = append(result, dto.AttendanceEventResponse{
			Seq:        e.Seq,
			EventID:    e.EventID,
			StudyCode:  e.StudyCode,
			Action:     e.Action,
			OccurredAt: formatTime(e.OccurredAt),
			ActorID:    e.ActorID,
		})
	}
	return result, nil
}
