package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/model"
	pkgerrors "github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/pkg/errors"
)

// VolunteerRepository 志愿者主档数据访问接口
type VolunteerRepository interface {
	Create(ctx context.Context, v *model.Volunteer) error
	GetByID(ctx context.Context, id string) (*model.Volunteer, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Volunteer, error)
	ListApproved(ctx context.Context) ([]model.Volunteer, error)
	FindByContact(ctx context.Context, contact string) (*model.Volunteer, error)
	FindByIDProof(ctx context.Context, idProof string) (*model.Volunteer, error)
	// UpdateStatus 乐观锁更新审核状态与受试者编号
	UpdateStatus(ctx context.Context, v *model.Volunteer) error
	// PromoteDraft 同一事务内创建主档并归档草稿；草稿不存在返回 gorm.ErrRecordNotFound
	PromoteDraft(ctx context.Context, v *model.Volunteer, draftID, actorID string) error
}

type volunteerRepo struct {
	db *gorm.DB
}

// NewVolunteerRepo 创建 VolunteerRepository 实例
func NewVolunteerRepo(db *gorm.DB) VolunteerRepository {
	return &volunteerRepo{db: db}
}

func (r *volunteerRepo) Create(ctx context.Context, v *model.Volunteer) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *volunteerRepo) GetByID(ctx context.Context, id string) (*model.Volunteer, error) {
	var v model.Volunteer
	err := r.db.WithContext(ctx).
		Where("volunteer_id = ?", id).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *volunteerRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Volunteer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var volunteers []model.Volunteer
	err := r.db.WithContext(ctx).
		Where("volunteer_id IN ?", ids).
		Order("name ASC, volunteer_id ASC").
		Find(&volunteers).Error
	return volunteers, err
}

func (r *volunteerRepo) ListApproved(ctx context.Context) ([]model.Volunteer, error) {
	var volunteers []model.Volunteer
	err := r.db.WithContext(ctx).
		Where("approval_status = ?", model.ApprovalApproved).
		Order("name ASC, volunteer_id ASC").
		Find(&volunteers).Error
	return volunteers, err
}

func (r *volunteerRepo) FindByContact(ctx context.Context, contact string) (*model.Volunteer, error) {
	var v model.Volunteer
	err := r.db.WithContext(ctx).
		Where("contact = ?", contact).
		Order("created_at ASC").
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *volunteerRepo) FindByIDProof(ctx context.Context, idProof string) (*model.Volunteer, error) {
	var v model.Volunteer
	err := r.db.WithContext(ctx).
		Where("id_proof_number = ?", idProof).
		Order("created_at ASC").
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *volunteerRepo) UpdateStatus(ctx context.Context, v *model.Volunteer) error {
	oldVersion := v.Version
	result := r.db.WithContext(ctx).
		Model(v).
		Where("volunteer_id = ? AND version = ?", v.VolunteerID, oldVersion).
		Updates(map[string]interface{}{
			"approval_status": v.ApprovalStatus,
			"subject_code":    v.SubjectCode,
			"updated_by":      v.UpdatedBy,
			"updated_at":      gorm.Expr("NOW()"),
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	v.Version = oldVersion + 1
	return nil
}

func (r *volunteerRepo) PromoteDraft(ctx context.Context, v *model.Volunteer, draftID, actorID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Draft{}).
			Where("draft_id = ?", draftID).
			Updates(map[string]interface{}{
				"deleted_by": actorID,
				"deleted_at": gorm.Expr("NOW()"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		v.SourceDraftID = &draftID
		return tx.Create(v).Error
	})
}
