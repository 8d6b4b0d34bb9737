package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/model"
)

// AttendanceRepository 考勤事件日志数据访问接口（只追加）
type AttendanceRepository interface {
	Append(ctx context.Context, event *model.AttendanceEvent) error
	// LatestByScope 每个志愿者在指定作用域下的最新事件；studyCode 为 nil 表示通用考勤
	LatestByScope(ctx context.Context, volunteerIDs []string, studyCode *string) ([]model.AttendanceEvent, error)
	// LatestPerScope 每个 (志愿者, 作用域) 的最新事件
	LatestPerScope(ctx context.Context, volunteerIDs []string) ([]model.AttendanceEvent, error)
	ListByVolunteer(ctx context.Context, volunteerID string, limit int) ([]model.AttendanceEvent, error)
	// WithVolunteerLock 在事务中锁定志愿者行后执行 fn；志愿者不存在返回 gorm.ErrRecordNotFound
	WithVolunteerLock(ctx context.Context, volunteerID string, fn func(tx AttendanceRepository, v *model.Volunteer) error) error
}

// Watermark 名册相关数据的变更水位
type Watermark struct {
	AttendanceSeq int64
	VolunteersAt  *time.Time
	AssignmentsAt *time.Time
	StudiesAt     *time.Time
}

// SyncRepository 轮询同步所需的变更水位查询
type SyncRepository interface {
	Watermark(ctx context.Context) (*Watermark, error)
}

// ── Attendance Repository 实现 ──

type attendanceRepo struct {
	db *gorm.DB
}

// NewAttendanceRepo 创建 AttendanceRepository 实例
func NewAttendanceRepo(db *gorm.DB) AttendanceRepository {
	return &attendanceRepo{db: db}
}

func (r *attendanceRepo) Append(ctx context.Context, event *model.AttendanceEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *attendanceRepo) LatestByScope(ctx context.Context, volunteerIDs []string, studyCode *string) ([]model.AttendanceEvent, error) {
	if len(volunteerIDs) == 0 {
		return nil, nil
	}

	var events []model.AttendanceEvent
	var err error
	if studyCode == nil {
		err = r.db.WithContext(ctx).Raw(`
			SELECT DISTINCT ON (volunteer_id) *
			FROM attendance_events
			WHERE volunteer_id IN ? AND study_code IS NULL
			ORDER BY volunteer_id, seq DESC`, volunteerIDs).
			Scan(&events).Error
	} else {
		err = r.db.WithContext(ctx).Raw(`
			SELECT DISTINCT ON (volunteer_id) *
			FROM attendance_events
			WHERE volunteer_id IN ? AND study_code = ?
			ORDER BY volunteer_id, seq DESC`, volunteerIDs, *studyCode).
			Scan(&events).Error
	}
	return events, err
}

func (r *attendanceRepo) LatestPerScope(ctx context.Context, volunteerIDs []string) ([]model.AttendanceEvent, error) {
	if len(volunteerIDs) == 0 {
		return nil, nil
	}

	var events []model.AttendanceEvent
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT ON (volunteer_id, study_code) *
		FROM attendance_events
		WHERE volunteer_id IN ?
		ORDER BY volunteer_id, study_code, seq DESC`, volunteerIDs).
		Scan(&events).Error
	return events, err
}

func (r *attendanceRepo) ListByVolunteer(ctx context.Context, volunteerID string, limit int) ([]model.AttendanceEvent, error) {
	var events []model.AttendanceEvent
	err := r.db.WithContext(ctx).
		Where("volunteer_id = ?", volunteerID).
		Order("seq DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *attendanceRepo) WithVolunteerLock(ctx context.Context, volunteerID string, fn func(tx AttendanceRepository, v *model.Volunteer) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v model.Volunteer
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("volunteer_id = ?", volunteerID).
			First(&v).Error; err != nil {
			return err
		}
		return fn(&attendanceRepo{db: tx}, &v)
	})
}

// ── Sync Repository 实现 ──

type syncRepo struct {
	db *gorm.DB
}

// NewSyncRepo 创建 SyncRepository 实例
func NewSyncRepo(db *gorm.DB) SyncRepository {
	return &syncRepo{db: db}
}

func (r *syncRepo) Watermark(ctx context.Context) (*Watermark, error) {
	var row struct {
		AttendanceSeq int64
		VolunteersAt  *time.Time
		AssignmentsAt *time.Time
		StudiesAt     *time.Time
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			(SELECT COALESCE(MAX(seq), 0) FROM attendance_events) AS attendance_seq,
			(SELECT MAX(updated_at) FROM volunteers)              AS volunteers_at,
			(SELECT MAX(updated_at) FROM study_assignments)       AS assignments_at,
			(SELECT MAX(updated_at) FROM studies)                 AS studies_at`).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &Watermark{
		AttendanceSeq: row.AttendanceSeq,
		VolunteersAt:  row.VolunteersAt,
		AssignmentsAt: row.AssignmentsAt,
		StudiesAt:     row.StudiesAt,
	}, nil
}
