package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/model"
)

// DraftRepository 外勤草稿数据访问接口
type DraftRepository interface {
	Create(ctx context.Context, draft *model.Draft) error
	GetByID(ctx context.Context, id string) (*model.Draft, error)
	// FindByContact 按规范化手机号查找最早的一条未归档草稿
	FindByContact(ctx context.Context, contact string) (*model.Draft, error)
	List(ctx context.Context, offset, limit int) ([]model.Draft, int64, error)
	Delete(ctx context.Context, id string, deletedBy string) error
}

type draftRepo struct {
	db *gorm.DB
}

// NewDraftRepo 创建 DraftRepository 实例
func NewDraftRepo(db *gorm.DB) DraftRepository {
	return &draftRepo{db: db}
}

func (r *draftRepo) Create(ctx context.Context, draft *model.Draft) error {
	return r.db.WithContext(ctx).Create(draft).Error
}

func (r *draftRepo) GetByID(ctx context.Context, id string) (*model.Draft, error) {
	var draft model.Draft
	err := r.db.WithContext(ctx).
		Where("draft_id = ?", id).
		First(&draft).Error
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *draftRepo) FindByContact(ctx context.Context, contact string) (*model.Draft, error) {
	var draft model.Draft
	err := r.db.WithContext(ctx).
		Where("contact = ?", contact).
		Order("created_at ASC").
		First(&draft).Error
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

func (r *draftRepo) List(ctx context.Context, offset, limit int) ([]model.Draft, int64, error) {
	var drafts []model.Draft
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Draft{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&drafts).Error; err != nil {
		return nil, 0, err
	}

	return drafts, total, nil
}

func (r *draftRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Draft{}).
		Where("draft_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
