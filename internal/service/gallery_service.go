// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"encoding/json"

	"fanwall-go/internal/model"
	"fanwall-go/internal/repository"
	"fanwall-go/pkg/log"
)

// GalleryService 接口定义了面向展示端的相册查询。
// 相册只包含审核通过的上传；列表结果走 Redis 缓存，检索走 Elasticsearch。
type GalleryService interface {
	Gallery(ctx context.Context, eventID string) ([]model.UploadItem, error)
	Search(ctx context.Context, eventID, query string, size int) ([]model.GalleryHit, error)
}

type galleryService struct {
	uploadRepo repository.UploadRepository
	indexer    UploadIndexer
}

// NewGalleryService 创建一个新的 GalleryService 实例。
func NewGalleryService(uploadRepo repository.UploadRepository, indexer UploadIndexer) GalleryService {
	return &galleryService{uploadRepo: uploadRepo, indexer: indexer}
}

// Gallery 返回某个活动下全部审核通过的上传，优先命中缓存。
// 缓存读写失败都只记日志，退回数据库查询。
func (s *galleryService) Gallery(ctx context.Context, eventID string) ([]model.UploadItem, error) {
	payload, hit, err := s.uploadRepo.GetCachedGallery(ctx, eventID)
	if err != nil {
		log.Warnf("[GalleryService] 读取相册缓存失败, eventId: %s, error: %v", eventID, err)
	}
	if hit {
		var items []model.UploadItem
		if err := json.Unmarshal(payload, &items); err == nil {
			return items, nil
		}
		log.Warnf("[GalleryService] 相册缓存内容损坏, eventId: %s", eventID)
	}

	items, err := s.uploadRepo.ListByStatus(ctx, eventID, model.StatusApproved)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(items); err == nil {
		if err := s.uploadRepo.SetCachedGallery(ctx, eventID, payload); err != nil {
			log.Warnf("[GalleryService] 写入相册缓存失败, eventId: %s, error: %v", eventID, err)
		}
	}
	return items, nil
}

// Search 在相册索引中按上传者名称检索审核通过的上传。
func (s *galleryService) Search(ctx context.Context, eventID, query string, size int) ([]model.GalleryHit, error) {
	if size <= 0 || size > 100 {
		size = 20
	}
	hits, err := s.indexer.Search(ctx, eventID, query, size)
	if err != nil {
		log.Errorf("[GalleryService] 相册检索失败, eventId: %s, query: %s, error: %v", eventID, query, err)
		return nil, err
	}
	return hits, nil
}
