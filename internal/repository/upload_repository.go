// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"context"
	"errors"
	"time"

	"fanwall-go/internal/apperr"
	"fanwall-go/internal/model"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// galleryCacheTTL 是活动相册缓存的有效期。
const galleryCacheTTL = 10 * time.Minute

// UploadRepository 接口定义了上传记录相关的数据持久化操作。
// 所有读取都以 (id, event_id) 复合键限定在单个活动范围内。
type UploadRepository interface {
	Create(ctx context.Context, item *model.UploadItem) error
	Get(ctx context.Context, id, eventID string) (*model.UploadItem, error)
	Save(ctx context.Context, item *model.UploadItem) error
	ListByEvent(ctx context.Context, eventID string) ([]model.UploadItem, error)
	ListByUser(ctx context.Context, userID string) ([]model.UploadItem, error)
	ListByStatus(ctx context.Context, eventID string, status model.UploadStatus) ([]model.UploadItem, error)
	ListStalledProcessing(ctx context.Context, cutoff time.Time) ([]model.UploadItem, error)
	UpdateStatus(ctx context.Context, id, eventID string, status model.UploadStatus) error

	// 活动相册缓存 (Redis)
	GetCachedGallery(ctx context.Context, eventID string) ([]byte, bool, error)
	SetCachedGallery(ctx context.Context, eventID string, payload []byte) error
	InvalidateGallery(ctx context.Context, eventID string) error
}

// uploadRepository 是 UploadRepository 接口的 GORM+Redis 实现。
type uploadRepository struct {
	db          *gorm.DB
	redisClient *redis.Client
	retry       *Retryer
}

// NewUploadRepository 创建一个新的 UploadRepository 实例。
func NewUploadRepository(db *gorm.DB, redisClient *redis.Client, retry *Retryer) UploadRepository {
	return &uploadRepository{db: db, redisClient: redisClient, retry: retry}
}

// galleryCacheKey generates the redis key for one event's gallery cache.
func galleryCacheKey(eventID string) string {
	return "gallery:" + eventID
}

// Create 在数据库中创建一条上传记录。
func (r *uploadRepository) Create(ctx context.Context, item *model.UploadItem) error {
	return r.retry.Do(ctx, "upload.create", func() error {
		return apperr.Transient("upload.create", r.db.WithContext(ctx).Create(item).Error)
	})
}

// Get 根据复合键检索上传记录。不存在时返回 NotFoundError。
func (r *uploadRepository) Get(ctx context.Context, id, eventID string) (*model.UploadItem, error) {
	var item model.UploadItem
	err := r.retry.Do(ctx, "upload.get", func() error {
		err := r.db.WithContext(ctx).Where("id = ? AND event_id = ?", id, eventID).First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperr.NotFoundError{Resource: "上传记录", ID: id}
		}
		return apperr.Transient("upload.get", err)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Save 整体写回一条上传记录。
func (r *uploadRepository) Save(ctx context.Context, item *model.UploadItem) error {
	return r.retry.Do(ctx, "upload.save", func() error {
		return apperr.Transient("upload.save", r.db.WithContext(ctx).Save(item).Error)
	})
}

// ListByEvent 查找某个活动下的全部上传记录。
func (r *uploadRepository) ListByEvent(ctx context.Context, eventID string) ([]model.UploadItem, error) {
	var items []model.UploadItem
	err := r.retry.Do(ctx, "upload.listByEvent", func() error {
		return apperr.Transient("upload.listByEvent",
			r.db.WithContext(ctx).Where("event_id = ?", eventID).Order("uploaded_at desc").Find(&items).Error)
	})
	return items, err
}

// ListByUser 查找某个上传者提交的全部记录（跨活动）。
func (r *uploadRepository) ListByUser(ctx context.Context, userID string) ([]model.UploadItem, error) {
	var items []model.UploadItem
	err := r.retry.Do(ctx, "upload.listByUser", func() error {
		return apperr.Transient("upload.listByUser",
			r.db.WithContext(ctx).Where("user_id = ?", userID).Order("uploaded_at desc").Find(&items).Error)
	})
	return items, err
}

// ListByStatus 按生命周期状态查找某个活动下的上传记录，驱动审核队列视图。
func (r *uploadRepository) ListByStatus(ctx context.Context, eventID string, status model.UploadStatus) ([]model.UploadItem, error) {
	var items []model.UploadItem
	err := r.retry.Do(ctx, "upload.listByStatus", func() error {
		return apperr.Transient("upload.listByStatus",
			r.db.WithContext(ctx).Where("event_id = ? AND status = ?", eventID, status).Order("uploaded_at asc").Find(&items).Error)
	})
	return items, err
}

// ListStalledProcessing 返回所有早于 cutoff 未更新、仍停留在 processing 的上传。
func (r *uploadRepository) ListStalledProcessing(ctx context.Context, cutoff time.Time) ([]model.UploadItem, error) {
	var items []model.UploadItem
	err := r.retry.Do(ctx, "upload.listStalledProcessing", func() error {
		return apperr.Transient("upload.listStalledProcessing",
			r.db.WithContext(ctx).Where("status = ? AND updated_at < ?", model.StatusProcessing, cutoff).Find(&items).Error)
	})
	return items, err
}

// UpdateStatus 直接写入目标状态并刷新时间戳。状态机校验由服务层负责。
func (r *uploadRepository) UpdateStatus(ctx context.Context, id, eventID string, status model.UploadStatus) error {
	return r.retry.Do(ctx, "upload.updateStatus", func() error {
		tx := r.db.WithContext(ctx).Model(&model.UploadItem{}).
			Where("id = ? AND event_id = ?", id, eventID).
			Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
		if tx.Error != nil {
			return apperr.Transient("upload.updateStatus", tx.Error)
		}
		if tx.RowsAffected == 0 {
			return &apperr.NotFoundError{Resource: "上传记录", ID: id}
		}
		return nil
	})
}

// GetCachedGallery 读取活动相册缓存。缓存未命中不算错误。
func (r *uploadRepository) GetCachedGallery(ctx context.Context, eventID string) ([]byte, bool, error) {
	payload, err := r.redisClient.Get(ctx, galleryCacheKey(eventID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, apperr.Transient("gallery.cacheGet", err)
	}
	return payload, true, nil
}

// SetCachedGallery 写入活动相册缓存。
func (r *uploadRepository) SetCachedGallery(ctx context.Context, eventID string, payload []byte) error {
	return apperr.Transient("gallery.cacheSet",
		r.redisClient.Set(ctx, galleryCacheKey(eventID), payload, galleryCacheTTL).Err())
}

// InvalidateGallery 删除活动相册缓存。任何状态变更后都应调用。
func (r *uploadRepository) InvalidateGallery(ctx context.Context, eventID string) error {
	return apperr.Transient("gallery.cacheDel",
		r.redisClient.Del(ctx, galleryCacheKey(eventID)).Err())
}
