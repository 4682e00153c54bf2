package service

import (
	"context"
	"testing"

	"fanwall-go/internal/model"
)

func newBatchFixture() (*fakeUploadRepo, *fakePlaylistRepo, *fakeQueue, BatchService) {
	uploadRepo := newFakeUploadRepo()
	playlistRepo := newFakePlaylistRepo()
	queue := &fakeQueue{}
	store := newFakeStore()
	linkSvc := NewLinkService(newFakeLinkRepo(), nil)
	procSvc := NewProcessingService(uploadRepo, newFakeProgressStore(), queue, store)
	uploadSvc := NewUploadService(uploadRepo, linkSvc, store, procSvc)
	svc := NewBatchService(uploadRepo, playlistRepo, uploadSvc, procSvc)
	return uploadRepo, playlistRepo, queue, svc
}

// 批处理条目相互隔离：一条失败不影响其余。
func TestBatchUpdateStatusesPartialFailure(t *testing.T) {
	uploadRepo, _, _, svc := newBatchFixture()
	uploadRepo.put(&model.UploadItem{ID: "a", EventID: "evt1", Status: model.StatusCompleted})
	uploadRepo.put(&model.UploadItem{ID: "b", EventID: "evt1", Status: model.StatusCancelled}) // 终态，不可转移
	uploadRepo.put(&model.UploadItem{ID: "c", EventID: "evt1", Status: model.StatusCompleted})

	result := svc.UpdateStatuses(context.Background(), "evt1", []string{"a", "b", "missing", "c"}, model.StatusApproved)

	if len(result.Successful) != 2 {
		t.Errorf("应有 2 条成功, 实际 %v", result.Successful)
	}
	if len(result.Failed) != 2 {
		t.Fatalf("应有 2 条失败, 实际 %v", result.Failed)
	}

	storedA, _ := uploadRepo.Get(context.Background(), "a", "evt1")
	storedC, _ := uploadRepo.Get(context.Background(), "c", "evt1")
	if storedA.Status != model.StatusApproved || storedC.Status != model.StatusApproved {
		t.Error("失败条目不应阻止其余条目生效")
	}
	storedB, _ := uploadRepo.Get(context.Background(), "b", "evt1")
	if storedB.Status != model.StatusCancelled {
		t.Error("非法转移的条目应保持原状态")
	}
}

func TestBatchProcessUploadsChecksMembership(t *testing.T) {
	uploadRepo, _, queue, svc := newBatchFixture()
	uploadRepo.put(&model.UploadItem{
		ID: "v1", EventID: "evt1", FileType: model.FileTypeVideo,
		FileKey: "k1", Status: model.StatusPending,
	})
	uploadRepo.put(&model.UploadItem{
		ID: "img", EventID: "evt1", FileType: model.FileTypeImage,
		Status: model.StatusPending,
	})

	result := svc.ProcessUploads(context.Background(), "evt1", []string{"v1", "img", "ghost"})

	if len(result.Successful) != 1 || result.Successful[0] != "v1" {
		t.Errorf("只有视频 v1 应成功: %+v", result)
	}
	if len(result.Failed) != 2 {
		t.Errorf("图片与不存在的条目应失败: %+v", result.Failed)
	}
	if len(queue.jobs) != 1 || queue.jobs[0].UploadID != "v1" {
		t.Errorf("只应提交 v1 的处理任务: %v", queue.jobs)
	}
}

func TestBatchPlaylistLifecycle(t *testing.T) {
	uploadRepo, playlistRepo, _, svc := newBatchFixture()
	uploadRepo.put(&model.UploadItem{ID: "a", EventID: "evt1", Status: model.StatusApproved})
	uploadRepo.put(&model.UploadItem{ID: "b", EventID: "evt1", Status: model.StatusApproved})

	playlist, err := svc.CreatePlaylist(context.Background(), "evt1", "creative1", "精选集")
	if err != nil {
		t.Fatalf("CreatePlaylist 返回错误: %v", err)
	}

	result := svc.AddToPlaylist(context.Background(), playlist.ID, []string{"a", "b", "ghost"})
	if len(result.Successful) != 2 || len(result.Failed) != 1 {
		t.Fatalf("加入结果不符: %+v", result)
	}

	// 重复加入按成功处理
	again := svc.AddToPlaylist(context.Background(), playlist.ID, []string{"a"})
	if len(again.Successful) != 1 {
		t.Errorf("重复加入应视为成功: %+v", again)
	}

	_, entries, err := svc.GetPlaylist(context.Background(), playlist.ID)
	if err != nil {
		t.Fatalf("GetPlaylist 返回错误: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("播放列表应有 2 条成员, 实际 %d", len(entries))
	}

	removed := svc.RemoveFromPlaylist(context.Background(), playlist.ID, []string{"a"})
	if len(removed.Successful) != 1 {
		t.Errorf("移除应成功: %+v", removed)
	}
	entriesAfter, _ := playlistRepo.ListEntries(context.Background(), playlist.ID)
	if len(entriesAfter) != 1 || entriesAfter[0].UploadID != "b" {
		t.Errorf("移除后应只剩 b: %+v", entriesAfter)
	}
}

func TestBatchAddToMissingPlaylist(t *testing.T) {
	_, _, _, svc := newBatchFixture()
	result := svc.AddToPlaylist(context.Background(), "ghost", []string{"a", "b"})
	if len(result.Successful) != 0 || len(result.Failed) != 2 {
		t.Fatalf("播放列表不存在时所有条目应失败: %+v", result)
	}
}
