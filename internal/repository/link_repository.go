// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"context"
	"errors"

	"fanwall-go/internal/apperr"
	"fanwall-go/internal/model"

	"gorm.io/gorm"
)

// LinkRepository 接口定义了上传链接相关的数据持久化操作。
type LinkRepository interface {
	Create(ctx context.Context, link *model.UploadLink) error
	Get(ctx context.Context, id string) (*model.UploadLink, error)
	Save(ctx context.Context, link *model.UploadLink) error
	ListByEvent(ctx context.Context, eventID string) ([]model.UploadLink, error)
	Deactivate(ctx context.Context, id string) error
	IncrementUsage(ctx context.Context, id string) error
}

// linkRepository 是 LinkRepository 接口的 GORM 实现，所有调用经过统一重试器。
type linkRepository struct {
	db    *gorm.DB
	retry *Retryer
}

// NewLinkRepository 创建一个新的 LinkRepository 实例。
func NewLinkRepository(db *gorm.DB, retry *Retryer) LinkRepository {
	return &linkRepository{db: db, retry: retry}
}

// Create 在数据库中创建一条上传链接记录。
func (r *linkRepository) Create(ctx context.Context, link *model.UploadLink) error {
	return r.retry.Do(ctx, "link.create", func() error {
		return apperr.Transient("link.create", r.db.WithContext(ctx).Create(link).Error)
	})
}

// Get 根据链接 ID 检索上传链接。不存在时返回 NotFoundError。
func (r *linkRepository) Get(ctx context.Context, id string) (*model.UploadLink, error) {
	var link model.UploadLink
	err := r.retry.Do(ctx, "link.get", func() error {
		err := r.db.WithContext(ctx).Where("id = ?", id).First(&link).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperr.NotFoundError{Resource: "上传链接", ID: id}
		}
		return apperr.Transient("link.get", err)
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// Save 整体写回一条上传链接记录。
func (r *linkRepository) Save(ctx context.Context, link *model.UploadLink) error {
	return r.retry.Do(ctx, "link.save", func() error {
		return apperr.Transient("link.save", r.db.WithContext(ctx).Save(link).Error)
	})
}

// ListByEvent 查找某个活动下的全部上传链接，供创作者的管理视图使用。
func (r *linkRepository) ListByEvent(ctx context.Context, eventID string) ([]model.UploadLink, error) {
	var links []model.UploadLink
	err := r.retry.Do(ctx, "link.listByEvent", func() error {
		return apperr.Transient("link.listByEvent",
			r.db.WithContext(ctx).Where("event_id = ?", eventID).Order("created_at desc").Find(&links).Error)
	})
	return links, err
}

// Deactivate 将链接标记为停用。幂等：重复停用不报错。
func (r *linkRepository) Deactivate(ctx context.Context, id string) error {
	return r.retry.Do(ctx, "link.deactivate", func() error {
		tx := r.db.WithContext(ctx).Model(&model.UploadLink{}).
			Where("id = ?", id).
			UpdateColumn("is_active", false)
		if tx.Error != nil {
			return apperr.Transient("link.deactivate", tx.Error)
		}
		if tx.RowsAffected == 0 {
			// 区分“不存在”与“已经是 false”
			var count int64
			if err := r.db.WithContext(ctx).Model(&model.UploadLink{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return apperr.Transient("link.deactivate", err)
			}
			if count == 0 {
				return &apperr.NotFoundError{Resource: "上传链接", ID: id}
			}
		}
		return nil
	})
}

// IncrementUsage 以条件更新的方式把 current_uploads 加一：
// 只有 current_uploads < max_uploads 时更新才会生效，配额判断由数据库原子执行，
// 从根上消除“先校验后自增”的竞态。条件不满足时返回 QuotaExceededError。
func (r *linkRepository) IncrementUsage(ctx context.Context, id string) error {
	return r.retry.Do(ctx, "link.incrementUsage", func() error {
		tx := r.db.WithContext(ctx).Model(&model.UploadLink{}).
			Where("id = ? AND current_uploads < max_uploads", id).
			UpdateColumn("current_uploads", gorm.Expr("current_uploads + 1"))
		if tx.Error != nil {
			return apperr.Transient("link.incrementUsage", tx.Error)
		}
		if tx.RowsAffected == 0 {
			var count int64
			if err := r.db.WithContext(ctx).Model(&model.UploadLink{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return apperr.Transient("link.incrementUsage", err)
			}
			if count == 0 {
				return &apperr.NotFoundError{Resource: "上传链接", ID: id}
			}
			return &apperr.QuotaExceededError{LinkID: id}
		}
		return nil
	})
}
