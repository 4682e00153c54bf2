// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"io"
	"time"

	"fanwall-go/internal/model"
	"fanwall-go/pkg/tasks"
)

// ObjectStore 抽象对象存储：写入、删除、签名下载链接与公开地址。
// 由 pkg/storage 的 MinIO 客户端实现，测试中用内存假实现替换。
type ObjectStore interface {
	PutObject(ctx context.Context, objectKey, contentType string, reader io.Reader, size int64) error
	RemoveObject(ctx context.Context, objectKey string) error
	PresignedGetURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
	PublicURL(objectKey string) string
}

// JobQueue 抽象外部异步处理函数的提交与取消入口。
// 由 pkg/kafka 的 Producer 实现。
type JobQueue interface {
	SubmitJob(ctx context.Context, job tasks.ProcessingJob) error
	CancelJob(ctx context.Context, uploadID, eventID string) error
}

// UploadIndexer 抽象相册检索索引。由 pkg/es 的客户端实现。
type UploadIndexer interface {
	IndexUpload(ctx context.Context, doc model.GalleryDocument) error
	DeleteUpload(ctx context.Context, uploadID string) error
	Search(ctx context.Context, eventID, query string, size int) ([]model.GalleryHit, error)
}

// Clock 抽象当前时间，让过期判断可以在测试中被精确控制。
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock 返回基于系统时间的 Clock。
func SystemClock() Clock { return systemClock{} }
