// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"time"

	"fanwall-go/internal/apperr"
	"fanwall-go/internal/model"
	"fanwall-go/internal/repository"
	"fanwall-go/pkg/log"
)

// downloadURLExpiry 是审核通过后签名下载链接的有效期。
const downloadURLExpiry = 15 * time.Minute

// ModerationService 接口定义了审核网关的业务操作。
// 审核裁决先落库，再尽力而为地发通知与维护检索索引：
// 通知或索引失败绝不回滚已生效的裁决。
type ModerationService interface {
	Approve(ctx context.Context, id, eventID string) error
	Reject(ctx context.Context, id, eventID, reason string) error
	ListPending(ctx context.Context, eventID string) ([]model.UploadItem, error)
	ListByStatus(ctx context.Context, eventID string, status model.UploadStatus) ([]model.UploadItem, error)
	GenerateDownloadURL(ctx context.Context, id, eventID string) (string, error)
	ListNotifications(ctx context.Context, userID string) ([]model.Notification, error)
}

type moderationService struct {
	uploadRepo       repository.UploadRepository
	notificationRepo repository.NotificationRepository
	store            ObjectStore
	indexer          UploadIndexer
}

// NewModerationService 创建一个新的 ModerationService 实例。
func NewModerationService(uploadRepo repository.UploadRepository, notificationRepo repository.NotificationRepository, store ObjectStore, indexer UploadIndexer) ModerationService {
	return &moderationService{
		uploadRepo:       uploadRepo,
		notificationRepo: notificationRepo,
		store:            store,
		indexer:          indexer,
	}
}

// Approve 把一条处理完成的上传标记为通过，写入检索索引并通知上传者。
// 只有 completed 状态可以被通过。
func (s *moderationService) Approve(ctx context.Context, id, eventID string) error {
	item, err := s.uploadRepo.Get(ctx, id, eventID)
	if err != nil {
		return err
	}
	if !model.CanTransition(item.Status, model.StatusApproved) {
		return &apperr.ValidationError{Field: "status", Reason: fmt.Sprintf("状态 %s 的上传不能被通过", item.Status)}
	}
	if err := s.uploadRepo.UpdateStatus(ctx, id, eventID, model.StatusApproved); err != nil {
		return err
	}
	if err := s.uploadRepo.InvalidateGallery(ctx, eventID); err != nil {
		log.Warnf("[ModerationService] 相册缓存失效失败, eventId: %s, error: %v", eventID, err)
	}

	// 裁决已生效，索引与通知均为尽力而为
	doc := model.GalleryDocument{
		UploadID:     item.ID,
		EventID:      item.EventID,
		UploaderName: item.UploaderName,
		FileType:     item.FileType,
		FileURL:      item.FileURL,
		ThumbnailURL: item.ThumbnailURL,
		UploadedAt:   item.UploadedAt.Format(time.RFC3339),
	}
	if err := s.indexer.IndexUpload(ctx, doc); err != nil {
		log.Warnf("[ModerationService] 写入相册索引失败, uploadId: %s, error: %v", id, err)
	}
	s.notify(ctx, item, model.NotificationUploadApproved, "你的上传已通过审核")

	log.Infof("[ModerationService] 上传审核通过, uploadId: %s, eventId: %s", id, eventID)
	return nil
}

// Reject 驳回一条上传，带上驳回原因，并从检索索引中移除。
// pending / processing / completed 均可被驳回。
func (s *moderationService) Reject(ctx context.Context, id, eventID, reason string) error {
	item, err := s.uploadRepo.Get(ctx, id, eventID)
	if err != nil {
		return err
	}
	if !model.CanTransition(item.Status, model.StatusRejected) {
		return &apperr.ValidationError{Field: "status", Reason: fmt.Sprintf("状态 %s 的上传不能被驳回", item.Status)}
	}
	if err := s.uploadRepo.UpdateStatus(ctx, id, eventID, model.StatusRejected); err != nil {
		return err
	}
	if err := s.uploadRepo.InvalidateGallery(ctx, eventID); err != nil {
		log.Warnf("[ModerationService] 相册缓存失效失败, eventId: %s, error: %v", eventID, err)
	}

	if err := s.indexer.DeleteUpload(ctx, id); err != nil {
		log.Warnf("[ModerationService] 从相册索引移除失败, uploadId: %s, error: %v", id, err)
	}
	msg := "你的上传未通过审核"
	if reason != "" {
		msg = fmt.Sprintf("你的上传未通过审核: %s", reason)
	}
	s.notify(ctx, item, model.NotificationUploadRejected, msg)

	log.Infof("[ModerationService] 上传已驳回, uploadId: %s, eventId: %s, 原因: %s", id, eventID, reason)
	return nil
}

// ListPending 返回某个活动下等待审核的上传（处理已完成但尚未裁决）。
func (s *moderationService) ListPending(ctx context.Context, eventID string) ([]model.UploadItem, error) {
	return s.uploadRepo.ListByStatus(ctx, eventID, model.StatusCompleted)
}

// ListByStatus 按审核状态筛选某个活动下的上传。
func (s *moderationService) ListByStatus(ctx context.Context, eventID string, status model.UploadStatus) ([]model.UploadItem, error) {
	return s.uploadRepo.ListByStatus(ctx, eventID, status)
}

// GenerateDownloadURL 为已通过审核的上传签发限时下载链接，并通知上传者。
// 未通过审核的上传不允许下载。
func (s *moderationService) GenerateDownloadURL(ctx context.Context, id, eventID string) (string, error) {
	item, err := s.uploadRepo.Get(ctx, id, eventID)
	if err != nil {
		return "", err
	}
	if item.Status != model.StatusApproved {
		return "", &apperr.ValidationError{Field: "status", Reason: "只有审核通过的上传才能生成下载链接"}
	}
	url, err := s.store.PresignedGetURL(ctx, item.FileKey, downloadURLExpiry)
	if err != nil {
		log.Errorf("[ModerationService] 生成下载链接失败, uploadId: %s, error: %v", id, err)
		return "", err
	}
	s.notify(ctx, item, model.NotificationDownloadReady, "你的上传下载链接已就绪")
	return url, nil
}

// ListNotifications 返回某个上传者收到的全部通知。
func (s *moderationService) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	return s.notificationRepo.ListByUser(ctx, userID)
}

// notify 写入一条通知。失败只记日志，不影响主流程。
func (s *moderationService) notify(ctx context.Context, item *model.UploadItem, kind, message string) {
	n := &model.Notification{
		UserID:  item.UserID,
		Type:    kind,
		Message: message,
		Metadata: model.JSONColumn[model.NotificationMetadata]{
			Data:  model.NotificationMetadata{UploadID: item.ID, EventID: item.EventID},
			Valid: true,
		},
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		log.Warnf("[ModerationService] 写入通知失败, uploadId: %s, type: %s, error: %v", item.ID, kind, err)
	}
}
