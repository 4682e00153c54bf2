// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"time"

	"fanwall-go/internal/apperr"
	"fanwall-go/internal/model"
	"fanwall-go/internal/repository"
	"fanwall-go/pkg/log"
	"fanwall-go/pkg/token"
)

// 校验不通过时返回给粉丝的人类可读原因。
const (
	ReasonNotFound     = "链接不存在"
	ReasonInactive     = "链接已停用"
	ReasonExpired      = "链接已过期"
	ReasonQuotaReached = "链接配额已用尽"
)

// Verdict 是链接校验的结论：有效，或带一条人类可读原因的无效。
type Verdict struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// LinkService 接口定义了上传链接的签发、校验与管理操作。
type LinkService interface {
	Issue(ctx context.Context, eventID, creativeID string, expirationHours, maxUploads int) (*model.UploadLink, error)
	Fetch(ctx context.Context, linkID string) (*model.UploadLink, error)
	Validate(ctx context.Context, linkID string) (Verdict, error)
	IncrementUsage(ctx context.Context, linkID string) error
	Deactivate(ctx context.Context, linkID string) error
	ListForEvent(ctx context.Context, eventID string) ([]model.UploadLink, error)
}

type linkService struct {
	linkRepo repository.LinkRepository
	clock    Clock
}

// NewLinkService 创建一个新的 LinkService 实例。
func NewLinkService(linkRepo repository.LinkRepository, clock Clock) LinkService {
	if clock == nil {
		clock = SystemClock()
	}
	return &linkService{linkRepo: linkRepo, clock: clock}
}

// Issue 为一个活动签发新的上传链接。
// 有效期与配额未指定时使用默认值（24 小时 / 10 次）。
func (s *linkService) Issue(ctx context.Context, eventID, creativeID string, expirationHours, maxUploads int) (*model.UploadLink, error) {
	if expirationHours <= 0 {
		expirationHours = model.DefaultLinkExpirationHours
	}
	if maxUploads <= 0 {
		maxUploads = model.DefaultLinkMaxUploads
	}

	link := &model.UploadLink{
		ID:             token.GenerateRandomID(16),
		EventID:        eventID,
		CreativeID:     creativeID,
		ExpiresAt:      s.clock.Now().Add(time.Duration(expirationHours) * time.Hour),
		MaxUploads:     maxUploads,
		CurrentUploads: 0,
		IsActive:       true,
	}
	if err := s.linkRepo.Create(ctx, link); err != nil {
		log.Errorf("[LinkService] 创建上传链接失败, eventId: %s, error: %v", eventID, err)
		return nil, err
	}
	log.Infof("[LinkService] 已签发上传链接 %s, eventId: %s, 有效期 %d 小时, 配额 %d", link.ID, eventID, expirationHours, maxUploads)
	return link, nil
}

// Fetch 返回链接记录，不存在时返回 NotFoundError。
func (s *linkService) Fetch(ctx context.Context, linkID string) (*model.UploadLink, error) {
	return s.linkRepo.Get(ctx, linkID)
}

// Validate 校验链接可用性，按固定顺序检查：不存在 → 已停用 → 已过期 → 配额用尽。
// 第一个不通过的检查决定返回的原因。过期与配额在此实时计算，存储中的
// is_active 只反映创作者的主动撤销。
func (s *linkService) Validate(ctx context.Context, linkID string) (Verdict, error) {
	link, err := s.linkRepo.Get(ctx, linkID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return Verdict{Valid: false, Reason: ReasonNotFound}, nil
		}
		return Verdict{}, err
	}
	if !link.IsActive {
		return Verdict{Valid: false, Reason: ReasonInactive}, nil
	}
	if link.IsExpired(s.clock.Now()) {
		return Verdict{Valid: false, Reason: ReasonExpired}, nil
	}
	if link.QuotaReached() {
		return Verdict{Valid: false, Reason: ReasonQuotaReached}, nil
	}
	return Verdict{Valid: true}, nil
}

// IncrementUsage 把链接用量加一。底层是条件更新（current_uploads < max_uploads
// 时才生效），配额竞争由数据库仲裁；一旦成功不可回退，没有任何减量操作。
func (s *linkService) IncrementUsage(ctx context.Context, linkID string) error {
	return s.linkRepo.IncrementUsage(ctx, linkID)
}

// Deactivate 停用链接。幂等操作。
func (s *linkService) Deactivate(ctx context.Context, linkID string) error {
	log.Infof("[LinkService] 停用上传链接 %s", linkID)
	return s.linkRepo.Deactivate(ctx, linkID)
}

// ListForEvent 返回某个活动下的全部链接，供创作者管理视图使用。
func (s *linkService) ListForEvent(ctx context.Context, eventID string) ([]model.UploadLink, error) {
	return s.linkRepo.ListByEvent(ctx, eventID)
}
