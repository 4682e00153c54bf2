// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"context"

	"fanwall-go/internal/apperr"
	"fanwall-go/internal/model"

	"gorm.io/gorm"
)

// NotificationRepository 接口定义了通知记录的持久化操作。通知只创建不修改。
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID string) ([]model.Notification, error)
}

// notificationRepository 是 NotificationRepository 接口的 GORM 实现。
type notificationRepository struct {
	db    *gorm.DB
	retry *Retryer
}

// NewNotificationRepository 创建一个新的 NotificationRepository 实例。
func NewNotificationRepository(db *gorm.DB, retry *Retryer) NotificationRepository {
	return &notificationRepository{db: db, retry: retry}
}

// Create 写入一条通知记录。
func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.retry.Do(ctx, "notification.create", func() error {
		return apperr.Transient("notification.create", r.db.WithContext(ctx).Create(n).Error)
	})
}

// ListByUser 按时间倒序返回某个上传者收到的全部通知。
func (r *notificationRepository) ListByUser(ctx context.Context, userID string) ([]model.Notification, error) {
	var list []model.Notification
	err := r.retry.Do(ctx, "notification.listByUser", func() error {
		return apperr.Transient("notification.listByUser",
			r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&list).Error)
	})
	return list, err
}
