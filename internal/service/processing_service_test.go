package service

import (
	"context"
	"testing"

	"fanwall-go/internal/apperr"
	"fanwall-go/internal/model"
	"fanwall-go/pkg/tasks"
)

func newProcessingFixture() (*fakeUploadRepo, *fakeQueue, *fakeProgressStore, ProcessingService) {
	uploadRepo := newFakeUploadRepo()
	queue := &fakeQueue{}
	progress := newFakeProgressStore()
	svc := NewProcessingService(uploadRepo, progress, queue, newFakeStore())
	return uploadRepo, queue, progress, svc
}

func pendingVideo(id, eventID string) *model.UploadItem {
	return &model.UploadItem{
		ID: id, EventID: eventID, UserID: "u1",
		FileKey: "events/" + eventID + "/uploads/" + id + ".mp4",
		FileType: model.FileTypeVideo,
		Status:   model.StatusPending, ProcessingStatus: model.ProcessingPending,
	}
}

func TestStartProcessingSubmitsJob(t *testing.T) {
	uploadRepo, queue, _, svc := newProcessingFixture()
	uploadRepo.put(pendingVideo("u1", "evt1"))

	view := svc.StartProcessing(context.Background(), "u1", "evt1", "events/evt1/uploads/u1.mp4", nil)
	if view.Status != model.ProcessingInProgress {
		t.Fatalf("期望 in progress, 实际 %s", view.Status)
	}
	if len(queue.jobs) != 1 {
		t.Fatalf("应提交一个任务, 实际 %d", len(queue.jobs))
	}
	job := queue.jobs[0]
	if !job.Options.GenerateThumbnails || len(job.Options.Qualities) != 3 {
		t.Errorf("未指定选项时应使用默认选项: %+v", job.Options)
	}

	stored, _ := uploadRepo.Get(context.Background(), "u1", "evt1")
	if stored.Status != model.StatusProcessing || stored.ProcessingStatus != model.ProcessingInProgress {
		t.Errorf("记录应进入 processing, 实际 %s/%s", stored.Status, stored.ProcessingStatus)
	}
}

// 任务提交失败是软失败：返回 failed 视图而非错误，记录补偿为 rejected。
func TestStartProcessingSubmitFailure(t *testing.T) {
	uploadRepo, queue, _, svc := newProcessingFixture()
	queue.submitErr = errBoom
	uploadRepo.put(pendingVideo("u1", "evt1"))

	view := svc.StartProcessing(context.Background(), "u1", "evt1", "k", nil)
	if view.Status != model.ProcessingFailed {
		t.Fatalf("提交失败应返回 failed 视图, 实际 %s", view.Status)
	}
	if view.Error == "" {
		t.Error("failed 视图应携带错误信息")
	}

	stored, _ := uploadRepo.Get(context.Background(), "u1", "evt1")
	if stored.Status != model.StatusRejected {
		t.Errorf("提交失败应补偿为 rejected, 实际 %s", stored.Status)
	}
	if stored.ProcessingStatus != model.ProcessingFailed {
		t.Errorf("处理状态应为 failed, 实际 %s", stored.ProcessingStatus)
	}
}

func TestHandleResultCompletedAppliesArtifacts(t *testing.T) {
	uploadRepo, _, _, svc := newProcessingFixture()
	item := pendingVideo("u1", "evt1")
	item.Status = model.StatusProcessing
	item.ProcessingStatus = model.ProcessingInProgress
	uploadRepo.put(item)

	err := svc.HandleResult(context.Background(), tasks.ProcessingResult{
		UploadID: "u1", EventID: "evt1", Status: "completed",
		Thumbnails: []string{"events/evt1/thumbnails/u1/0.jpg"},
		Variants: []tasks.ResultVariant{
			{Quality: "720p", Width: 1280, Height: 720, Bitrate: 2500000, Key: "events/evt1/variants/u1/720p.mp4"},
		},
		Metadata: &tasks.ResultMetadata{
			DurationSeconds: 12.5, Width: 1920, Height: 1080, Codec: "h264", Bitrate: 6000000, FPS: 30,
		},
	})
	if err != nil {
		t.Fatalf("HandleResult 返回错误: %v", err)
	}

	stored, _ := uploadRepo.Get(context.Background(), "u1", "evt1")
	if stored.Status != model.StatusCompleted {
		t.Errorf("成功结果应进入 completed, 实际 %s", stored.Status)
	}
	if !stored.ThumbnailURLs.Valid || len(stored.ThumbnailURLs.Data) != 1 {
		t.Error("缩略图应写入记录")
	}
	if !stored.Variants.Valid || stored.Variants.Data[0].Quality != "720p" {
		t.Error("画质版本应写入记录")
	}
	if !stored.Metadata.Valid || !stored.Metadata.Data.Complete() {
		t.Error("元数据应完整写入")
	}
}

func TestHandleResultFailedRejects(t *testing.T) {
	uploadRepo, _, _, svc := newProcessingFixture()
	item := pendingVideo("u1", "evt1")
	item.Status = model.StatusProcessing
	uploadRepo.put(item)

	err := svc.HandleResult(context.Background(), tasks.ProcessingResult{
		UploadID: "u1", EventID: "evt1", Status: "failed", Error: "编码器崩溃",
	})
	if err != nil {
		t.Fatalf("HandleResult 返回错误: %v", err)
	}
	stored, _ := uploadRepo.Get(context.Background(), "u1", "evt1")
	if stored.Status != model.StatusRejected {
		t.Errorf("失败结果应进入 rejected, 实际 %s", stored.Status)
	}
	if stored.ProcessingError != "编码器崩溃" {
		t.Errorf("处理错误应保留, 实际 %q", stored.ProcessingError)
	}
}

// 终态上传忽略迟到的结果。
func TestHandleResultLateResultIgnored(t *testing.T) {
	uploadRepo, _, _, svc := newProcessingFixture()
	item := pendingVideo("u1", "evt1")
	item.Status = model.StatusCancelled
	uploadRepo.put(item)

	err := svc.HandleResult(context.Background(), tasks.ProcessingResult{
		UploadID: "u1", EventID: "evt1", Status: "completed",
	})
	if err != nil {
		t.Fatalf("迟到结果应被静默忽略: %v", err)
	}
	stored, _ := uploadRepo.Get(context.Background(), "u1", "evt1")
	if stored.Status != model.StatusCancelled {
		t.Errorf("已取消的上传不应被迟到结果覆盖, 实际 %s", stored.Status)
	}
}

func TestHandleResultUnknownStatus(t *testing.T) {
	uploadRepo, _, _, svc := newProcessingFixture()
	uploadRepo.put(pendingVideo("u1", "evt1"))

	err := svc.HandleResult(context.Background(), tasks.ProcessingResult{
		UploadID: "u1", EventID: "evt1", Status: "exploded",
	})
	if err == nil {
		t.Fatal("未知状态应返回错误")
	}
}

// 元数据全有或全无：缺任何子字段都整体不呈现。
func TestGetProcessingStatusMetadataAllOrNothing(t *testing.T) {
	uploadRepo, _, _, svc := newProcessingFixture()
	item := pendingVideo("u1", "evt1")
	item.ProcessingStatus = model.ProcessingCompleted
	item.Metadata = model.JSONColumn[*model.VideoMetadata]{
		Data:  &model.VideoMetadata{DurationSeconds: 10, Width: 1920, Height: 1080, Codec: "h264", Bitrate: 0, FPS: 30},
		Valid: true,
	}
	uploadRepo.put(item)

	view, err := svc.GetProcessingStatus(context.Background(), "u1", "evt1")
	if err != nil {
		t.Fatalf("GetProcessingStatus 返回错误: %v", err)
	}
	if view.Metadata != nil {
		t.Error("缺少 bitrate 的元数据应整体视为缺失")
	}
}

// 与 StartProcessing 的软失败不同：取消不存在的上传返回错误。
func TestCancelProcessingNotFound(t *testing.T) {
	_, _, _, svc := newProcessingFixture()
	err := svc.CancelProcessing(context.Background(), "nope", "evt1")
	if !apperr.IsNotFound(err) {
		t.Fatalf("期望 NotFoundError, 实际: %v", err)
	}
}

func TestCancelProcessingCooperative(t *testing.T) {
	uploadRepo, queue, _, svc := newProcessingFixture()
	item := pendingVideo("u1", "evt1")
	item.Status = model.StatusProcessing
	uploadRepo.put(item)

	if err := svc.CancelProcessing(context.Background(), "u1", "evt1"); err != nil {
		t.Fatalf("CancelProcessing 返回错误: %v", err)
	}
	if len(queue.cancels) != 1 || queue.cancels[0] != "u1" {
		t.Errorf("应发送一次取消请求: %v", queue.cancels)
	}
	stored, _ := uploadRepo.Get(context.Background(), "u1", "evt1")
	if stored.Status != model.StatusCancelled {
		t.Errorf("取消后应进入 cancelled, 实际 %s", stored.Status)
	}
}

func TestProgressRoundTrip(t *testing.T) {
	_, _, _, svc := newProcessingFixture()

	err := svc.HandleProgress(context.Background(), tasks.ProgressEvent{
		UploadID: "u1", EventID: "evt1", Phase: "transcoding", BytesTransferred: 1024, Percent: 40,
	})
	if err != nil {
		t.Fatalf("HandleProgress 返回错误: %v", err)
	}
	progress, found, err := svc.GetProgress(context.Background(), "u1")
	if err != nil || !found {
		t.Fatalf("GetProgress: found=%v, err=%v", found, err)
	}
	if progress.Phase != "transcoding" || progress.Percent != 40 {
		t.Errorf("进度内容不一致: %+v", progress)
	}

	_, found, err = svc.GetProgress(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("GetProgress 返回错误: %v", err)
	}
	if found {
		t.Error("未知上传不应有进度")
	}
}

// 处理中的上传没有超时：状态只由结果消息推进。
func TestProcessingHasNoTimeout(t *testing.T) {
	uploadRepo, _, _, svc := newProcessingFixture()
	item := pendingVideo("u1", "evt1")
	item.Status = model.StatusProcessing
	item.ProcessingStatus = model.ProcessingInProgress
	uploadRepo.put(item)

	view, err := svc.GetProcessingStatus(context.Background(), "u1", "evt1")
	if err != nil {
		t.Fatalf("GetProcessingStatus 返回错误: %v", err)
	}
	if view.Status != model.ProcessingInProgress {
		t.Errorf("没有结果消息时处理状态应保持 in progress, 实际 %s", view.Status)
	}
}
