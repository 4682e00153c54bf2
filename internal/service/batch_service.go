// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"

	"fanwall-go/internal/apperr"
	"fanwall-go/internal/model"
	"fanwall-go/internal/repository"
	"fanwall-go/pkg/log"
	"fanwall-go/pkg/token"
)

// BatchItemError 记录批处理中单个条目的失败。
type BatchItemError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BatchResult 汇总一次批处理的逐条结果。条目之间相互隔离：
// 任何一条失败都不影响其余条目的执行，也没有整体回滚。
type BatchResult struct {
	Successful []string         `json:"successful"`
	Failed     []BatchItemError `json:"failed"`
}

// ok/fail 是构建批处理结果的小工具。
func (r *BatchResult) ok(id string) {
	r.Successful = append(r.Successful, id)
}

func (r *BatchResult) fail(id string, err error) {
	r.Failed = append(r.Failed, BatchItemError{ID: id, Error: err.Error()})
}

// BatchService 接口定义了面向多条上传的批量操作。
type BatchService interface {
	UpdateStatuses(ctx context.Context, eventID string, ids []string, status model.UploadStatus) *BatchResult
	ProcessUploads(ctx context.Context, eventID string, ids []string) *BatchResult
	AddToPlaylist(ctx context.Context, playlistID string, uploadIDs []string) *BatchResult
	RemoveFromPlaylist(ctx context.Context, playlistID string, uploadIDs []string) *BatchResult
	CreatePlaylist(ctx context.Context, eventID, creativeID, name string) (*model.Playlist, error)
	GetPlaylist(ctx context.Context, id string) (*model.Playlist, []model.PlaylistEntry, error)
}

type batchService struct {
	uploadRepo   repository.UploadRepository
	playlistRepo repository.PlaylistRepository
	uploadSvc    UploadService
	processor    ProcessingService
}

// NewBatchService 创建一个新的 BatchService 实例。
func NewBatchService(uploadRepo repository.UploadRepository, playlistRepo repository.PlaylistRepository, uploadSvc UploadService, processor ProcessingService) BatchService {
	return &batchService{
		uploadRepo:   uploadRepo,
		playlistRepo: playlistRepo,
		uploadSvc:    uploadSvc,
		processor:    processor,
	}
}

// UpdateStatuses 对一组上传逐条执行状态转移。
// 每条独立走状态机校验，失败条目记入结果但不中断其余条目。
func (s *batchService) UpdateStatuses(ctx context.Context, eventID string, ids []string, status model.UploadStatus) *BatchResult {
	result := &BatchResult{}
	for _, id := range ids {
		if err := s.uploadSvc.SetStatus(ctx, id, eventID, status); err != nil {
			result.fail(id, err)
			continue
		}
		result.ok(id)
	}
	log.Infof("[BatchService] 批量状态更新完成, eventId: %s, 成功: %d, 失败: %d", eventID, len(result.Successful), len(result.Failed))
	return result
}

// ProcessUploads 把一组上传逐条送入异步处理。
// 每条先核对记录仍属于该活动；提交失败的条目由处理服务补偿为 rejected。
func (s *batchService) ProcessUploads(ctx context.Context, eventID string, ids []string) *BatchResult {
	result := &BatchResult{}
	for _, id := range ids {
		item, err := s.uploadRepo.Get(ctx, id, eventID)
		if err != nil {
			result.fail(id, err)
			continue
		}
		if item.EventID != eventID {
			result.fail(id, &apperr.ValidationError{Field: "eventId", Reason: "上传不属于该活动"})
			continue
		}
		if !item.IsVideo() {
			result.fail(id, &apperr.ValidationError{Field: "fileType", Reason: "只有视频需要异步处理"})
			continue
		}
		view := s.processor.StartProcessing(ctx, item.ID, item.EventID, item.FileKey, nil)
		if view.Status == model.ProcessingFailed {
			result.fail(id, fmt.Errorf("提交处理任务失败: %s", view.Error))
			continue
		}
		result.ok(id)
	}
	log.Infof("[BatchService] 批量送处理完成, eventId: %s, 成功: %d, 失败: %d", eventID, len(result.Successful), len(result.Failed))
	return result
}

// AddToPlaylist 把一组上传逐条加入播放列表。重复加入按成功处理。
func (s *batchService) AddToPlaylist(ctx context.Context, playlistID string, uploadIDs []string) *BatchResult {
	result := &BatchResult{}
	playlist, err := s.playlistRepo.Get(ctx, playlistID)
	if err != nil {
		// 播放列表本身不存在时所有条目整体失败
		for _, id := range uploadIDs {
			result.fail(id, err)
		}
		return result
	}
	for _, id := range uploadIDs {
		if _, err := s.uploadRepo.Get(ctx, id, playlist.EventID); err != nil {
			result.fail(id, err)
			continue
		}
		if err := s.playlistRepo.AddEntry(ctx, playlistID, id); err != nil {
			result.fail(id, err)
			continue
		}
		result.ok(id)
	}
	log.Infof("[BatchService] 批量加入播放列表完成, playlistId: %s, 成功: %d, 失败: %d", playlistID, len(result.Successful), len(result.Failed))
	return result
}

// RemoveFromPlaylist 把一组上传逐条移出播放列表。条目不存在按成功处理。
func (s *batchService) RemoveFromPlaylist(ctx context.Context, playlistID string, uploadIDs []string) *BatchResult {
	result := &BatchResult{}
	for _, id := range uploadIDs {
		if err := s.playlistRepo.RemoveEntry(ctx, playlistID, id); err != nil {
			result.fail(id, err)
			continue
		}
		result.ok(id)
	}
	return result
}

// CreatePlaylist 为活动创建一个空播放列表。
func (s *batchService) CreatePlaylist(ctx context.Context, eventID, creativeID, name string) (*model.Playlist, error) {
	if name == "" {
		return nil, &apperr.ValidationError{Field: "name", Reason: "播放列表名称不能为空"}
	}
	p := &model.Playlist{
		ID:         token.GenerateRandomID(16),
		EventID:    eventID,
		CreativeID: creativeID,
		Name:       name,
	}
	if err := s.playlistRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	log.Infof("[BatchService] 播放列表创建成功, playlistId: %s, eventId: %s", p.ID, eventID)
	return p, nil
}

// GetPlaylist 返回播放列表及其按位置排序的条目。
func (s *batchService) GetPlaylist(ctx context.Context, id string) (*model.Playlist, []model.PlaylistEntry, error) {
	p, err := s.playlistRepo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.playlistRepo.ListEntries(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return p, entries, nil
}
