package repository

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/model"
)

// StudyRepository 研究项目数据访问接口
type StudyRepository interface {
	Create(ctx context.Context, study *model.Study) error
	GetByCode(ctx context.Context, code string) (*model.Study, error)
	List(ctx context.Context) ([]model.Study, error)
	// ListActive 进行中的研究：start_date ≤ today 且 (end_date 为空或 ≥ today)
	ListActive(ctx context.Context, today datatypes.Date) ([]model.Study, error)
}

// AssignmentRepository 研究分配数据访问接口
type AssignmentRepository interface {
	// Upsert 以 (volunteer_id, study_code) 为键插入或更新访视日期
	Upsert(ctx context.Context, a *model.StudyAssignment) error
	ListByStudy(ctx context.Context, studyCode string) ([]model.StudyAssignment, error)
	ListByStudies(ctx context.Context, studyCodes []string) ([]model.StudyAssignment, error)
	ListScheduledOn(ctx context.Context, day datatypes.Date) ([]model.StudyAssignment, error)
	ListScheduledForVolunteer(ctx context.Context, volunteerID string, day datatypes.Date) ([]model.StudyAssignment, error)
}

// ── Study Repository 实现 ──

type studyRepo struct {
	db *gorm.DB
}

// NewStudyRepo 创建 StudyRepository 实例
func NewStudyRepo(db *gorm.DB) StudyRepository {
	return &studyRepo{db: db}
}

func (r *studyRepo) Create(ctx context.Context, study *model.Study) error {
	return r.db.WithContext(ctx).Create(study).Error
}

func (r *studyRepo) GetByCode(ctx context.Context, code string) (*model.Study, error) {
	var study model.Study
	err := r.db.WithContext(ctx).
		Where("study_code = ?", code).
		First(&study).Error
	if err != nil {
		return nil, err
	}
	return &study, nil
}

func (r *studyRepo) List(ctx context.Context) ([]model.Study, error) {
	var studies []model.Study
	err := r.db.WithContext(ctx).
		Order("start_date DESC, study_code ASC").
		Find(&studies).Error
	return studies, err
}

func (r *studyRepo) ListActive(ctx context.Context, today datatypes.Date) ([]model.Study, error) {
	day := model.DateKey(today)
	var studies []model.Study
	err := r.db.WithContext(ctx).
		Where("start_date <= ?::date AND (end_date IS NULL OR end_date >= ?::date)", day, day).
		Order("study_code ASC").
		Find(&studies).Error
	return studies, err
}

// ── Assignment Repository 实现 ──

type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Upsert(ctx context.Context, a *model.StudyAssignment) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "volunteer_id"}, {Name: "study_code"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"scheduled_visit_date": a.ScheduledVisitDate,
				"updated_by":           a.UpdatedBy,
				"updated_at":           gorm.Expr("NOW()"),
			}),
		}).
		Create(a).Error
}

func (r *assignmentRepo) ListByStudy(ctx context.Context, studyCode string) ([]model.StudyAssignment, error) {
	var assignments []model.StudyAssignment
	err := r.db.WithContext(ctx).
		Where("study_code = ?", studyCode).
		Order("scheduled_visit_date ASC NULLS LAST, created_at ASC").
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepo) ListByStudies(ctx context.Context, studyCodes []string) ([]model.StudyAssignment, error) {
	if len(studyCodes) == 0 {
		return nil, nil
	}
	var assignments []model.StudyAssignment
	err := r.db.WithContext(ctx).
		Where("study_code IN ?", studyCodes).
		Order("volunteer_id ASC, study_code ASC").
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepo) ListScheduledOn(ctx context.Context, day datatypes.Date) ([]model.StudyAssignment, error) {
	var assignments []model.StudyAssignment
	err := r.db.WithContext(ctx).
		Where("scheduled_visit_date = ?::date", model.DateKey(day)).
		Order("volunteer_id ASC, study_code ASC").
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepo) ListScheduledForVolunteer(ctx context.Context, volunteerID string, day datatypes.Date) ([]model.StudyAssignment, error) {
	var assignments []model.StudyAssignment
	err := r.db.WithContext(ctx).
		Where("volunteer_id = ? AND scheduled_visit_date = ?::date", volunteerID, model.DateKey(day)).
		Order("study_code ASC").
		Find(&assignments).Error
	return assignments, err
}
