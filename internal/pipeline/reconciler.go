// Package pipeline 负责把外部处理函数的异步结果调和回上传记录。
package pipeline

import (
	"context"
	"time"

	"fanwall-go/internal/repository"
	"fanwall-go/internal/service"
	"fanwall-go/pkg/log"
	"fanwall-go/pkg/tasks"
)

// Reconciler 是结果主题消费循环的处理方：终态结果与进度事件
// 都经由它转交给处理服务落库。它实现了 kafka.ResultHandler。
type Reconciler struct {
	processor  service.ProcessingService
	uploadRepo repository.UploadRepository
}

// NewReconciler 创建一个新的 Reconciler 实例。
func NewReconciler(processor service.ProcessingService, uploadRepo repository.UploadRepository) *Reconciler {
	return &Reconciler{processor: processor, uploadRepo: uploadRepo}
}

// HandleResult 把外部函数的终态结果应用到上传记录。
// 已处于终态的记录会忽略迟到结果，由处理服务内部裁决。
func (r *Reconciler) HandleResult(ctx context.Context, result tasks.ProcessingResult) error {
	log.Infof("[Reconciler] 收到处理结果, uploadId: %s, status: %s", result.UploadID, result.Status)
	return r.processor.HandleResult(ctx, result)
}

// HandleProgress 记录一条进度事件，供轮询与推送接口读取。
func (r *Reconciler) HandleProgress(ctx context.Context, event tasks.ProgressEvent) error {
	return r.processor.HandleProgress(ctx, event)
}

// WatchStalled 周期性扫描长时间停留在 processing 的上传并记录告警。
// 处理中的上传没有超时机制，状态只由外部函数的结果消息推进，
// 这里只做可观测，不做任何状态变更。
func (r *Reconciler) WatchStalled(ctx context.Context, interval, stallAfter time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx, stallAfter)
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context, stallAfter time.Duration) {
	items, err := r.uploadRepo.ListStalledProcessing(ctx, time.Now().Add(-stallAfter))
	if err != nil {
		log.Warnf("[Reconciler] 扫描 processing 上传失败: %v", err)
		return
	}
	for i := range items {
		log.Warnf("[Reconciler] 上传长时间停留在 processing, uploadId: %s, eventId: %s, 最近更新: %s",
			items[i].ID, items[i].EventID, items[i].UpdatedAt.Format(time.RFC3339))
	}
}
