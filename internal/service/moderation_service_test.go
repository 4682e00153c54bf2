package service

import (
	"context"
	"errors"
	"testing"

	"fanwall-go/internal/apperr"
	"fanwall-go/internal/model"
)

func newModerationFixture() (*fakeUploadRepo, *fakeNotificationRepo, *fakeIndexer, ModerationService) {
	uploadRepo := newFakeUploadRepo()
	notifRepo := &fakeNotificationRepo{}
	indexer := newFakeIndexer()
	svc := NewModerationService(uploadRepo, notifRepo, newFakeStore(), indexer)
	return uploadRepo, notifRepo, indexer, svc
}

func completedUpload(id, eventID string) *model.UploadItem {
	return &model.UploadItem{
		ID: id, EventID: eventID, UserID: "fanA", UploaderName: "粉丝A",
		FileKey: "events/" + eventID + "/uploads/" + id + ".mp4",
		FileType: model.FileTypeVideo,
		Status:   model.StatusCompleted, ProcessingStatus: model.ProcessingCompleted,
	}
}

func TestApproveIndexesAndNotifies(t *testing.T) {
	uploadRepo, notifRepo, indexer, svc := newModerationFixture()
	uploadRepo.put(completedUpload("u1", "evt1"))

	if err := svc.Approve(context.Background(), "u1", "evt1"); err != nil {
		t.Fatalf("Approve 返回错误: %v", err)
	}

	stored, _ := uploadRepo.Get(context.Background(), "u1", "evt1")
	if stored.Status != model.StatusApproved {
		t.Errorf("状态应为 approved, 实际 %s", stored.Status)
	}
	if _, ok := indexer.indexed["u1"]; !ok {
		t.Error("通过审核的上传应写入相册索引")
	}
	if len(notifRepo.created) != 1 || notifRepo.created[0].Type != model.NotificationUploadApproved {
		t.Errorf("应写入一条通过通知: %+v", notifRepo.created)
	}
}

// 只有 completed 可以被通过。
func TestApproveStatusGate(t *testing.T) {
	tests := []struct {
		status  model.UploadStatus
		wantErr bool
	}{
		{model.StatusPending, true},
		{model.StatusProcessing, true},
		{model.StatusCompleted, false},
		{model.StatusApproved, true},
		{model.StatusRejected, true},
		{model.StatusCancelled, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			uploadRepo, _, _, svc := newModerationFixture()
			item := completedUpload("u1", "evt1")
			item.Status = tt.status
			uploadRepo.put(item)

			err := svc.Approve(context.Background(), "u1", "evt1")
			if (err != nil) != tt.wantErr {
				t.Errorf("Approve(%s) err=%v, wantErr=%v", tt.status, err, tt.wantErr)
			}
		})
	}
}

// 通知失败不回滚已生效的裁决。
func TestApproveNotificationFailureDoesNotRollback(t *testing.T) {
	uploadRepo, notifRepo, _, svc := newModerationFixture()
	notifRepo.createErr = errBoom
	uploadRepo.put(completedUpload("u1", "evt1"))

	if err := svc.Approve(context.Background(), "u1", "evt1"); err != nil {
		t.Fatalf("通知失败不应让 Approve 报错: %v", err)
	}
	stored, _ := uploadRepo.Get(context.Background(), "u1", "evt1")
	if stored.Status != model.StatusApproved {
		t.Errorf("裁决应保持生效, 实际 %s", stored.Status)
	}
}

// 索引失败同样不回滚。
func TestApproveIndexFailureDoesNotRollback(t *testing.T) {
	uploadRepo, _, indexer, svc := newModerationFixture()
	indexer.indexErr = errBoom
	uploadRepo.put(completedUpload("u1", "evt1"))

	if err := svc.Approve(context.Background(), "u1", "evt1"); err != nil {
		t.Fatalf("索引失败不应让 Approve 报错: %v", err)
	}
}

func TestRejectRemovesFromIndex(t *testing.T) {
	uploadRepo, notifRepo, indexer, svc := newModerationFixture()
	uploadRepo.put(completedUpload("u1", "evt1"))
	indexer.indexed["u1"] = model.GalleryDocument{UploadID: "u1"}

	if err := svc.Reject(context.Background(), "u1", "evt1", "画面模糊"); err != nil {
		t.Fatalf("Reject 返回错误: %v", err)
	}
	stored, _ := uploadRepo.Get(context.Background(), "u1", "evt1")
	if stored.Status != model.StatusRejected {
		t.Errorf("状态应为 rejected, 实际 %s", stored.Status)
	}
	if _, ok := indexer.indexed["u1"]; ok {
		t.Error("驳回后应从相册索引移除")
	}
	if len(notifRepo.created) != 1 || notifRepo.created[0].Type != model.NotificationUploadRejected {
		t.Fatalf("应写入一条驳回通知: %+v", notifRepo.created)
	}
}

func TestGenerateDownloadURLOnlyApproved(t *testing.T) {
	uploadRepo, notifRepo, _, svc := newModerationFixture()
	item := completedUpload("u1", "evt1")
	uploadRepo.put(item)

	_, err := svc.GenerateDownloadURL(context.Background(), "u1", "evt1")
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("未通过审核的上传不应可下载, 实际: %v", err)
	}

	item.Status = model.StatusApproved
	uploadRepo.put(item)
	url, err := svc.GenerateDownloadURL(context.Background(), "u1", "evt1")
	if err != nil {
		t.Fatalf("GenerateDownloadURL 返回错误: %v", err)
	}
	if url == "" {
		t.Error("应返回签名链接")
	}
	if len(notifRepo.created) != 1 || notifRepo.created[0].Type != model.NotificationDownloadReady {
		t.Errorf("应写入一条下载就绪通知: %+v", notifRepo.created)
	}
}
