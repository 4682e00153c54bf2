package service

import (
	"context"
	"encoding/json"
	"testing"

	"fanwall-go/internal/model"
)

func TestGalleryCacheMissPopulatesCache(t *testing.T) {
	uploadRepo := newFakeUploadRepo()
	svc := NewGalleryService(uploadRepo, newFakeIndexer())

	uploadRepo.put(&model.UploadItem{ID: "a", EventID: "evt1", Status: model.StatusApproved})
	uploadRepo.put(&model.UploadItem{ID: "b", EventID: "evt1", Status: model.StatusCompleted}) // 未过审，不应出现
	uploadRepo.put(&model.UploadItem{ID: "c", EventID: "evt2", Status: model.StatusApproved})  // 其他活动

	items, err := svc.Gallery(context.Background(), "evt1")
	if err != nil {
		t.Fatalf("Gallery 返回错误: %v", err)
	}
	if len(items) != 1 || items[0].ID != "a" {
		t.Fatalf("相册应只含 evt1 已过审的上传: %+v", items)
	}

	payload, ok := uploadRepo.cache["evt1"]
	if !ok {
		t.Fatal("查询后应回填缓存")
	}
	var cached []model.UploadItem
	if err := json.Unmarshal(payload, &cached); err != nil || len(cached) != 1 {
		t.Errorf("缓存内容应为同一结果集: %s", payload)
	}
}

func TestGalleryCacheHitSkipsDatabase(t *testing.T) {
	uploadRepo := newFakeUploadRepo()
	svc := NewGalleryService(uploadRepo, newFakeIndexer())

	cached := []model.UploadItem{{ID: "cached", EventID: "evt1", Status: model.StatusApproved}}
	payload, _ := json.Marshal(cached)
	uploadRepo.cache["evt1"] = payload
	// 数据库中放一条不同的记录，命中缓存时不应看到它
	uploadRepo.put(&model.UploadItem{ID: "fresh", EventID: "evt1", Status: model.StatusApproved})

	items, err := svc.Gallery(context.Background(), "evt1")
	if err != nil {
		t.Fatalf("Gallery 返回错误: %v", err)
	}
	if len(items) != 1 || items[0].ID != "cached" {
		t.Errorf("命中缓存时应直接返回缓存内容: %+v", items)
	}
}

func TestGalleryCorruptCacheFallsBack(t *testing.T) {
	uploadRepo := newFakeUploadRepo()
	svc := NewGalleryService(uploadRepo, newFakeIndexer())

	uploadRepo.cache["evt1"] = []byte("{not json")
	uploadRepo.put(&model.UploadItem{ID: "a", EventID: "evt1", Status: model.StatusApproved})

	items, err := svc.Gallery(context.Background(), "evt1")
	if err != nil {
		t.Fatalf("缓存损坏时应退回数据库查询: %v", err)
	}
	if len(items) != 1 || items[0].ID != "a" {
		t.Errorf("退回查询的结果不符: %+v", items)
	}
	var repaired []model.UploadItem
	if err := json.Unmarshal(uploadRepo.cache["evt1"], &repaired); err != nil {
		t.Error("损坏的缓存应被有效内容覆盖")
	}
}

func TestGallerySearchClampsSize(t *testing.T) {
	indexer := newFakeIndexer()
	svc := NewGalleryService(newFakeUploadRepo(), indexer)

	tests := []struct {
		name string
		size int
		want int
	}{
		{"零值取默认", 0, 20},
		{"负数取默认", -5, 20},
		{"超上限取默认", 500, 20},
		{"合法值保留", 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Search(context.Background(), "evt1", "张三", tt.size); err != nil {
				t.Fatalf("Search 返回错误: %v", err)
			}
			if indexer.lastSize != tt.want {
				t.Errorf("size = %d, 期望 %d", indexer.lastSize, tt.want)
			}
		})
	}
}

func TestGallerySearchMatchesUploader(t *testing.T) {
	indexer := newFakeIndexer()
	svc := NewGalleryService(newFakeUploadRepo(), indexer)

	_ = indexer.IndexUpload(context.Background(), model.GalleryDocument{
		UploadID: "a", EventID: "evt1", UploaderName: "张三",
	})
	_ = indexer.IndexUpload(context.Background(), model.GalleryDocument{
		UploadID: "b", EventID: "evt2", UploaderName: "张三",
	})

	hits, err := svc.Search(context.Background(), "evt1", "张三", 10)
	if err != nil {
		t.Fatalf("Search 返回错误: %v", err)
	}
	if len(hits) != 1 || hits[0].UploadID != "a" {
		t.Errorf("检索应限定在指定活动内: %+v", hits)
	}
}
