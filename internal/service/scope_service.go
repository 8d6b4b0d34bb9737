package service

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/dto"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/model"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/repository"
	pkgerrors "github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/pkg/errors"
)

// 名册保留词
const (
	ScopeScheduledToday = "SCHEDULED_TODAY"
	ScopeActiveStudies  = "ACTIVE_STUDIES"
)

// IsReservedScope 是否为保留词（不可作为研究编号）
func IsReservedScope(scope string) bool {
	return scope == ScopeScheduledToday || scope == ScopeActiveStudies
}

// ScopeKind 名册作用域类型
type ScopeKind int

const (
	ScopeGeneral ScopeKind = iota
	ScopeStudy
	ScopeReserved
)

// RosterQuery 作用域解析结果：成员及每人匹配的研究编号
type RosterQuery struct {
	Scope      string
	Kind       ScopeKind
	StudyCode  *string // Kind=ScopeStudy 时为该研究
	Today      datatypes.Date
	Volunteers []model.Volunteer
	StudyCodes map[string][]string // volunteer_id → 已排序的匹配研究编号
}

// ScopeService 名册作用域解析
type ScopeService interface {
	Resolve(ctx context.Context, scope string) (*RosterQuery, error)
	// Roster 解析作用域并为每行附带当前考勤状态
	Roster(ctx context.Context, scope string) (*dto.RosterResponse, error)
}

type scopeService struct {
	repo   *repository.Repository
	clock  Clock
	logger *zap.Logger
}

// NewScopeService 创建 ScopeService 实例
func NewScopeService(repo *repository.Repository, clock Clock, logger *zap.Logger) ScopeService {
	return &scopeService{repo: repo, clock: clock, logger: logger}
}

// ────────────────────── Resolve ──────────────────────

func (s *scopeService) Resolve(ctx context.Context, scope string) (*RosterQuery, error) {
	scope = NormalizeStudyCode(scope)
	q := &RosterQuery{
		Scope:      scope,
		Today:      s.clock.Today(),
		StudyCodes: make(map[string][]string),
	}

	var assignments []model.StudyAssignment
	var err error

	switch {
	case scope == "":
		q.Kind = ScopeGeneral
		q.Volunteers, err = s.repo.Volunteer.ListApproved(ctx)
		if err != nil {
			return nil, s.storageErr("list_approved", scope, err)
		}
		return q, nil

	case scope == ScopeScheduledToday:
		q.Kind = ScopeReserved
		assignments, err = s.repo.Assignment.ListScheduledOn(ctx, q.Today)
		if err != nil {
			return nil, s.storageErr("list_scheduled", scope, err)
		}

	case scope == ScopeActiveStudies:
		q.Kind = ScopeReserved
		studies, err := s.repo.Study.ListActive(ctx, q.Today)
		if err != nil {
			return nil, s.storageErr("list_active_studies", scope, err)
		}
		codes := make([]string, 0, len(studies))
		for i := range studies {
			codes = append(codes, studies[i].StudyCode)
		}
		assignments, err = s.repo.Assignment.ListByStudies(ctx, codes)
		if err != nil {
			return nil, s.storageErr("list_assignments", scope, err)
		}

	default:
		q.Kind = ScopeStudy
		if _, err := s.repo.Study.GetByCode(ctx, scope); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrStudyNotFound
			}
			return nil, s.storageErr("get_study", scope, err)
		}
		code := scope
		q.StudyCode = &code
		assignments, err = s.repo.Assignment.ListByStudy(ctx, scope)
		if err != nil {
			return nil, s.storageErr("list_assignments", scope, err)
		}
	}

	ids := make([]string, 0, len(assignments))
	for i := range assignments {
		a := &assignments[i]
		if _, seen := q.StudyCodes[a.VolunteerID]; !seen {
			ids = append(ids, a.VolunteerID)
		}
		q.StudyCodes[a.VolunteerID] = appendUnique(q.StudyCodes[a.VolunteerID], a.StudyCode)
	}
	for id := range q.StudyCodes {
		sort.Strings(q.StudyCodes[id])
	}

	q.Volunteers, err = s.repo.Volunteer.ListByIDs(ctx, ids)
	if err != nil {
		return nil, s.storageErr("list_volunteers", scope, err)
	}
	return q, nil
}

// ────────────────────── Roster ──────────────────────

func (s *scopeService) Roster(ctx context.Context, scope string) (*dto.RosterResponse, error) {
	q, err := s.Resolve(ctx, scope)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(q.Volunteers))
	for i := range q.Volunteers {
		ids = append(ids, q.Volunteers[i].VolunteerID)
	}
	events, err := s.repo.Attendance.LatestPerScope(ctx, ids)
	if err != nil {
		return nil, s.storageErr("latest_per_scope", q.Scope, err)
	}
	states := newDerivedStates(events)

	entries := make([]dto.RosterEntry, 0, len(q.Volunteers))
	for i := range q.Volunteers {
		v := &q.Volunteers[i]
		entry := dto.RosterEntry{
			VolunteerID:    v.VolunteerID,
			SubjectCode:    v.SubjectCode,
			Name:           v.Name,
			Contact:        v.Contact,
			ApprovalStatus: v.ApprovalStatus,
			StudyCodes:     q.StudyCodes[v.VolunteerID],
			State:          model.ActionOut,
		}

		open := states.open(v.VolunteerID)
		if open != nil {
			entry.CheckedInStudy = open.StudyCode
		}

		var latest *model.AttendanceEvent
		switch q.Kind {
		case ScopeGeneral:
			latest = states.latest(v.VolunteerID, nil)
		case ScopeStudy:
			latest = states.latest(v.VolunteerID, q.StudyCode)
		case ScopeReserved:
			// 保留词名册跨研究，显示任意作用域下的在场情况
			latest = open
			if latest == nil {
				latest = states.mostRecent(v.VolunteerID)
			}
		}
		if latest != nil {
			entry.State = latest.Action
			entry.LastEventAt = formatTime(latest.OccurredAt)
		}

		entries = append(entries, entry)
	}

	return &dto.RosterResponse{
		Scope:   q.Scope,
		Today:   model.DateKey(q.Today),
		Count:   len(entries),
		Entries: entries,
	}, nil
}

func (s *scopeService) storageErr(op, scope string, err error) error {
	s.logger.Error("名册查询失败", zap.String("op", op), zap.String("scope", scope), zap.Error(err))
	return pkgerrors.Storage(op, err)
}

// ── 推导状态 ──

// derivedStates 由每个 (志愿者, 作用域) 的最新事件推导的状态
type derivedStates struct {
	byScope map[string]map[string]*model.AttendanceEvent
}

func newDerivedStates(events []model.AttendanceEvent) *derivedStates {
	d := &derivedStates{byScope: make(map[string]map[string]*model.AttendanceEvent)}
	for i := range events {
		e := &events[i]
		scopes, ok := d.byScope[e.VolunteerID]
		if !ok {
			scopes = make(map[string]*model.AttendanceEvent)
			d.byScope[e.VolunteerID] = scopes
		}
		if cur, ok := scopes[e.ScopeKey()]; !ok || e.Seq > cur.Seq {
			scopes[e.ScopeKey()] = e
		}
	}
	return d
}

// latest 指定作用域下的最新事件，nil 表示从未有事件（OUT）
func (d *derivedStates) latest(volunteerID string, studyCode *string) *model.AttendanceEvent {
	key := ""
	if studyCode != nil {
		key = *studyCode
	}
	return d.byScope[volunteerID][key]
}

// open 当前未签退的签到事件；历史数据存在多个时取最新
func (d *derivedStates) open(volunteerID string) *model.AttendanceEvent {
	var found *model.AttendanceEvent
	for _, e := range d.byScope[volunteerID] {
		if e.IsIn() && (found == nil || e.Seq > found.Seq) {
			found = e
		}
	}
	return found
}

func (d *derivedStates) mostRecent(volunteerID string) *model.AttendanceEvent {
	var found *model.AttendanceEvent
	for _, e := range d.byScope[volunteerID] {
		if found == nil || e.Seq > found.Seq {
			found = e
		}
	}
	return found
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
