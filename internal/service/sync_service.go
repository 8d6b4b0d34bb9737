package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/config"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/dto"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/model"
	"github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/internal/repository"
	pkgerrors "github.com/automationaimascotspincontrol-art/Volunteer-Enrollment2-sub000/pkg/errors"
)

// Snapshot 名册轮询结果；NotModified 为 true 时 Roster 为空
type Snapshot struct {
	ETag        string
	NotModified bool
	Roster      *dto.RosterResponse
}

// SyncService 客户端轮询约定与名册快照
type SyncService interface {
	Contract() *dto.SyncContractResponse
	// Version 名册版本：考勤/志愿者/分配任一变化、跨天或作用域不同都会改变
	Version(ctx context.Context, scope string) (string, error)
	// Snapshot ifNoneMatch 与当前版本一致时只查版本、不构建名册
	Snapshot(ctx context.Context, scope, ifNoneMatch string) (*Snapshot, error)
	PollInterval() time.Duration
}

type syncService struct {
	repo   *repository.Repository
	scope  ScopeService
	clock  Clock
	cfg    *config.SyncConfig
	logger *zap.Logger
}

// NewSyncService 创建 SyncService 实例
func NewSyncService(repo *repository.Repository, scope ScopeService, clock Clock, cfg *config.SyncConfig, logger *zap.Logger) SyncService {
	return &syncService{repo: repo, scope: scope, clock: clock, cfg: cfg, logger: logger}
}

func (s *syncService) Contract() *dto.SyncContractResponse {
	return &dto.SyncContractResponse{
		DashboardPollIntervalMs:  s.cfg.DashboardPollInterval.Milliseconds(),
		DuplicateCheckDebounceMs: s.cfg.DuplicateCheckDebounce.Milliseconds(),
		RapidEntryCacheMs:        s.cfg.RapidEntryCache.Milliseconds(),
		ServerTime:               formatTime(s.clock.Now()),
		Timezone:                 s.clock.Location().String(),
	}
}

func (s *syncService) PollInterval() time.Duration {
	return s.cfg.DashboardPollInterval
}

func (s *syncService) Version(ctx context.Context, scope string) (string, error) {
	w, err := s.repo.Sync.Watermark(ctx)
	if err != nil {
		s.logger.Error("读取变更水位失败", zap.Error(err))
		return "", pkgerrors.Storage("watermark", err)
	}

	raw := fmt.Sprintf("%d|%s|%s|%s|%s|%s",
		w.AttendanceSeq,
		watermarkTime(w.VolunteersAt),
		watermarkTime(w.AssignmentsAt),
		watermarkTime(w.StudiesAt),
		model.DateKey(s.clock.Today()),
		NormalizeStudyCode(scope),
	)
	sum := sha256.Sum256([]byte(raw))
	return `"` + hex.EncodeToString(sum[:12]) + `"`, nil
}

func (s *syncService) Snapshot(ctx context.Context, scope, ifNoneMatch string) (*Snapshot, error) {
	etag, err := s.Version(ctx, scope)
	if err != nil {
		return nil, err
	}
	if etagMatches(ifNoneMatch, etag) {
		return &Snapshot{ETag: etag, NotModified: true}, nil
	}

	roster, err := s.scope.Roster(ctx, scope)
	if err != nil {
		return nil, err
	}
	roster.Version = etag
	return &Snapshot{ETag: etag, Roster: roster}, nil
}

func watermarkTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// etagMatches 按 If-None-Match 的弱比较规则匹配（逗号分隔列表、W/ 前缀、*）
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
