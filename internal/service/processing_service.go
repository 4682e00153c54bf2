// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"

	"fanwall-go/internal/model"
	"fanwall-go/internal/repository"
	"fanwall-go/pkg/log"
	"fanwall-go/pkg/tasks"
)

// ProcessingResultView 是对外呈现的处理结果快照。
// StartProcessing 的调用方必须检查 Status 字段而不是依赖错误返回：
// 任务提交失败时它返回一个 failed 结果而不是错误。
type ProcessingResultView struct {
	Status     model.ProcessingStatus `json:"status"`
	Metadata   *model.VideoMetadata   `json:"metadata,omitempty"`
	Thumbnails []string               `json:"thumbnails,omitempty"`
	Variants   []model.Variant        `json:"variants,omitempty"`
	Error      string                 `json:"error,omitempty"`
}

// DefaultProcessingOptions 返回处理任务的默认选项：
// 生成 3 张缩略图，转码 1080p/6Mbps、720p/2.5Mbps、480p/1Mbps，提取元数据。
func DefaultProcessingOptions() tasks.ProcessingOptions {
	return tasks.ProcessingOptions{
		GenerateThumbnails: true,
		ThumbnailCount:     3,
		Qualities: []tasks.Quality{
			{Width: 1920, Height: 1080, Bitrate: 6000000},
			{Width: 1280, Height: 720, Bitrate: 2500000},
			{Width: 854, Height: 480, Bitrate: 1000000},
		},
		ExtractMetadata: true,
	}
}

// ProcessingService 接口定义了处理编排相关的业务操作。
// 它是唯一知道如何把黑盒任务结果翻译成生命周期语言的组件。
type ProcessingService interface {
	StartProcessing(ctx context.Context, uploadID, eventID, fileKey string, opts *tasks.ProcessingOptions) ProcessingResultView
	GetProcessingStatus(ctx context.Context, uploadID, eventID string) (ProcessingResultView, error)
	CancelProcessing(ctx context.Context, uploadID, eventID string) error
	RetryProcessing(ctx context.Context, uploadID, eventID string, opts *tasks.ProcessingOptions) (ProcessingResultView, error)
	HandleResult(ctx context.Context, result tasks.ProcessingResult) error
	HandleProgress(ctx context.Context, event tasks.ProgressEvent) error
	GetProgress(ctx context.Context, uploadID string) (repository.Progress, bool, error)
}

type processingService struct {
	uploadRepo    repository.UploadRepository
	progressStore repository.ProgressStore
	queue         JobQueue
	store         ObjectStore
}

// NewProcessingService 创建一个新的 ProcessingService 实例。
func NewProcessingService(uploadRepo repository.UploadRepository, progressStore repository.ProgressStore, queue JobQueue, store ObjectStore) ProcessingService {
	return &processingService{
		uploadRepo:    uploadRepo,
		progressStore: progressStore,
		queue:         queue,
		store:         store,
	}
}

// StartProcessing 把上传置为 processing 并向外部异步函数提交任务。
// 提交失败时把记录置为 rejected 并返回 failed 结果，不抛错误。
func (s *processingService) StartProcessing(ctx context.Context, uploadID, eventID, fileKey string, opts *tasks.ProcessingOptions) ProcessingResultView {
	log.Infof("[ProcessingService] 开始处理编排, uploadId: %s, eventId: %s", uploadID, eventID)

	options := DefaultProcessingOptions()
	if opts != nil {
		options = *opts
	}

	item, err := s.uploadRepo.Get(ctx, uploadID, eventID)
	if err != nil {
		log.Errorf("[ProcessingService] 读取上传记录失败, uploadId: %s, error: %v", uploadID, err)
		return ProcessingResultView{Status: model.ProcessingFailed, Error: err.Error()}
	}

	item.Status = model.StatusProcessing
	item.ProcessingStatus = model.ProcessingInProgress
	item.ProcessingError = ""
	if err := s.uploadRepo.Save(ctx, item); err != nil {
		log.Errorf("[ProcessingService] 写入 processing 状态失败, uploadId: %s, error: %v", uploadID, err)
		return ProcessingResultView{Status: model.ProcessingFailed, Error: err.Error()}
	}
	_ = s.uploadRepo.InvalidateGallery(ctx, eventID)

	job := tasks.ProcessingJob{
		UploadID: uploadID,
		EventID:  eventID,
		FileKey:  fileKey,
		Options:  options,
	}
	if err := s.queue.SubmitJob(ctx, job); err != nil {
		log.Errorf("[ProcessingService] 提交处理任务失败, uploadId: %s, error: %v", uploadID, err)
		s.markRejected(ctx, uploadID, eventID, err.Error())
		return ProcessingResultView{Status: model.ProcessingFailed, Error: err.Error()}
	}

	log.Infof("[ProcessingService] 处理任务已提交, uploadId: %s", uploadID)
	return ProcessingResultView{Status: model.ProcessingInProgress}
}

// markRejected 是提交失败后的补偿动作：生命周期置为 rejected，处理状态置为 failed。
func (s *processingService) markRejected(ctx context.Context, uploadID, eventID, reason string) {
	item, err := s.uploadRepo.Get(ctx, uploadID, eventID)
	if err != nil {
		log.Warnf("[ProcessingService] 补偿读取失败, uploadId: %s, error: %v", uploadID, err)
		return
	}
	item.Status = model.StatusRejected
	item.ProcessingStatus = model.ProcessingFailed
	item.ProcessingError = reason
	if err := s.uploadRepo.Save(ctx, item); err != nil {
		log.Warnf("[ProcessingService] 补偿写入 rejected 失败, uploadId: %s, error: %v", uploadID, err)
		return
	}
	_ = s.uploadRepo.InvalidateGallery(ctx, eventID)
}

// GetProcessingStatus 从存储的记录推导处理结果快照。
// 元数据遵循全有或全无：六个子字段缺任何一个都整体视为缺失。
func (s *processingService) GetProcessingStatus(ctx context.Context, uploadID, eventID string) (ProcessingResultView, error) {
	item, err := s.uploadRepo.Get(ctx, uploadID, eventID)
	if err != nil {
		return ProcessingResultView{}, err
	}

	view := ProcessingResultView{
		Status: item.ProcessingStatus,
		Error:  item.ProcessingError,
	}
	if item.Metadata.Valid && item.Metadata.Data.Complete() {
		view.Metadata = item.Metadata.Data
	}
	if item.ThumbnailURLs.Valid {
		view.Thumbnails = item.ThumbnailURLs.Data
	}
	if item.Variants.Valid {
		view.Variants = item.Variants.Data
	}
	return view, nil
}

// CancelProcessing 请求取消在途任务，然后把记录置为 cancelled。
// 与 StartProcessing 的软失败策略不同：上传不存在时这里返回错误。
// 取消是协作式的，是否真正停止取决于外部函数。
func (s *processingService) CancelProcessing(ctx context.Context, uploadID, eventID string) error {
	item, err := s.uploadRepo.Get(ctx, uploadID, eventID)
	if err != nil {
		return err
	}

	if err := s.queue.CancelJob(ctx, uploadID, eventID); err != nil {
		log.Warnf("[ProcessingService] 发送取消请求失败, uploadId: %s, error: %v", uploadID, err)
	}

	if !model.CanTransition(item.Status, model.StatusCancelled) {
		return fmt.Errorf("上传 %s 当前状态 %s 不可取消", uploadID, item.Status)
	}
	item.Status = model.StatusCancelled
	if err := s.uploadRepo.Save(ctx, item); err != nil {
		return err
	}
	_ = s.uploadRepo.InvalidateGallery(ctx, eventID)
	log.Infof("[ProcessingService] 已取消处理, uploadId: %s", uploadID)
	return nil
}

// RetryProcessing 重新读取存储的 fileKey 并再次发起处理。不重置任何配额计数。
func (s *processingService) RetryProcessing(ctx context.Context, uploadID, eventID string, opts *tasks.ProcessingOptions) (ProcessingResultView, error) {
	item, err := s.uploadRepo.Get(ctx, uploadID, eventID)
	if err != nil {
		return ProcessingResultView{}, err
	}
	log.Infof("[ProcessingService] 重试处理, uploadId: %s, fileKey: %s", uploadID, item.FileKey)
	return s.StartProcessing(ctx, uploadID, eventID, item.FileKey, opts), nil
}

// HandleResult 把外部函数回报的终态结果调和到生命周期上。
// 已取消的上传忽略迟到的结果。
func (s *processingService) HandleResult(ctx context.Context, result tasks.ProcessingResult) error {
	log.Infof("[ProcessingService] 收到处理结果, uploadId: %s, status: %s", result.UploadID, result.Status)

	item, err := s.uploadRepo.Get(ctx, result.UploadID, result.EventID)
	if err != nil {
		return err
	}
	if item.Status.IsTerminal() {
		log.Warnf("[ProcessingService] 上传 %s 已处于终态 %s，忽略迟到结果", item.ID, item.Status)
		return nil
	}

	switch result.Status {
	case "completed":
		s.applyArtifacts(item, result)
		item.ProcessingStatus = model.ProcessingCompleted
		item.ProcessingError = ""
		if model.CanTransition(item.Status, model.StatusCompleted) {
			item.Status = model.StatusCompleted
		}

	case "failed":
		item.ProcessingStatus = model.ProcessingFailed
		item.ProcessingError = result.Error
		if model.CanTransition(item.Status, model.StatusRejected) {
			item.Status = model.StatusRejected
		}

	case "cancelled":
		if model.CanTransition(item.Status, model.StatusCancelled) {
			item.Status = model.StatusCancelled
		}

	default:
		return fmt.Errorf("未知的处理结果状态: %s", result.Status)
	}

	if err := s.uploadRepo.Save(ctx, item); err != nil {
		return err
	}
	return s.uploadRepo.InvalidateGallery(ctx, result.EventID)
}

// applyArtifacts 把处理产物（缩略图、画质版本、元数据）写入上传记录。
func (s *processingService) applyArtifacts(item *model.UploadItem, result tasks.ProcessingResult) {
	if len(result.Thumbnails) > 0 {
		urls := make([]string, 0, len(result.Thumbnails))
		for _, key := range result.Thumbnails {
			urls = append(urls, s.store.PublicURL(key))
		}
		item.ThumbnailURL = urls[0]
		item.ThumbnailURLs = model.JSONColumn[[]string]{Data: urls, Valid: true}
	}
	if len(result.Variants) > 0 {
		variants := make([]model.Variant, 0, len(result.Variants))
		for _, v := range result.Variants {
			variants = append(variants, model.Variant{
				Quality: v.Quality,
				Width:   v.Width,
				Height:  v.Height,
				Bitrate: v.Bitrate,
				URL:     s.store.PublicURL(v.Key),
			})
		}
		item.Variants = model.JSONColumn[[]model.Variant]{Data: variants, Valid: true}
	}
	if result.Metadata != nil {
		item.Metadata = model.JSONColumn[*model.VideoMetadata]{
			Data: &model.VideoMetadata{
				DurationSeconds: result.Metadata.DurationSeconds,
				Width:           result.Metadata.Width,
				Height:          result.Metadata.Height,
				Codec:           result.Metadata.Codec,
				Bitrate:         result.Metadata.Bitrate,
				FPS:             result.Metadata.FPS,
			},
			Valid: true,
		}
	}
}

// HandleProgress 记录一条进度事件，供轮询与 WebSocket 流读取。尽力而为。
func (s *processingService) HandleProgress(ctx context.Context, event tasks.ProgressEvent) error {
	return s.progressStore.Set(ctx, repository.Progress{
		UploadID:         event.UploadID,
		Phase:            event.Phase,
		BytesTransferred: event.BytesTransferred,
		Percent:          event.Percent,
	})
}

// GetProgress 是进度的轮询读取口。
func (s *processingService) GetProgress(ctx context.Context, uploadID string) (repository.Progress, bool, error) {
	return s.progressStore.Get(ctx, uploadID)
}
