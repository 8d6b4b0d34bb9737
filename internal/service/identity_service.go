package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/dto"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/repository"
)

// IdentityService 志愿者查重（纯读）
type IdentityService interface {
	// Resolve 按 证件号→主档 / 手机号→主档 / 手机号→草稿 的优先级返回首个命中
	// 输入无法规范化时视为未提供；存储失败降级为未命中，不阻塞录入
	Resolve(ctx context.Context, contact, idProof string) *dto.MatchResult
}

type identityService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewIdentityService 创建 IdentityService 实例
func NewIdentityService(repo *repository.Repository, logger *zap.Logger) IdentityService {
	return &identityService{repo: repo, logger: logger}
}

func (s *identityService) Resolve(ctx context.Context, contact, idProof string) *dto.MatchResult {
	phone, hasPhone := NormalizeContact(contact)
	proof, hasProof := NormalizeIDProof(idProof)
	if !hasPhone && !hasProof {
		return &dto.MatchResult{Exists: false}
	}

	if hasProof {
		v, err := s.repo.Volunteer.FindByIDProof(ctx, proof)
		if err == nil {
			return &dto.MatchResult{
				Exists:    true,
				Location:  dto.MatchLocationMaster,
				MatchType: dto.MatchTypeIDProof,
				MasterID:  v.VolunteerID,
			}
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return s.degrade("按证件号查主档", err)
		}
	}

	if !hasPhone {
		return &dto.MatchResult{Exists: false}
	}

	v, err := s.repo.Volunteer.FindByContact(ctx, phone)
	if err == nil {
		return &dto.MatchResult{
			Exists:    true,
			Location:  dto.MatchLocationMaster,
			MatchType: dto.MatchTypeContact,
			MasterID:  v.VolunteerID,
		}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return s.degrade("按手机号查主档", err)
	}

	d, err := s.repo.Draft.FindByContact(ctx, phone)
	if err == nil {
		return &dto.MatchResult{
			Exists:    true,
			Location:  dto.MatchLocationField,
			MatchType: dto.MatchTypeContact,
			Draft:     toDraftResponse(d),
		}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return s.degrade("按手机号查草稿", err)
	}

	return &dto.MatchResult{Exists: false}
}

func (s *identityService) degrade(op string, err error) *dto.MatchResult {
	s.logger.Warn("查重降级为未命中", zap.String("op", op), zap.Error(err))
	return &dto.MatchResult{Exists: false}
}
