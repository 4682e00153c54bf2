// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"context"
	"encoding/json"
	"time"

	"fanwall-go/internal/apperr"

	"github.com/go-redis/redis/v8"
)

// progressTTL 是进度记录在 Redis 中的保留时间。
const progressTTL = time.Hour

// Progress 是某个上传当前的处理进度快照。
// 它取代了原始实现的进度回调：调用方轮询读取，或通过 WebSocket 流订阅。
type Progress struct {
	UploadID         string    `json:"uploadId"`
	Phase            string    `json:"phase"`
	BytesTransferred int64     `json:"bytesTransferred"`
	Percent          int       `json:"percent"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ProgressStore 接口定义了处理进度的读写操作。
type ProgressStore interface {
	Set(ctx context.Context, p Progress) error
	Get(ctx context.Context, uploadID string) (Progress, bool, error)
}

// progressStore 是 ProgressStore 接口的 Redis 实现。
type progressStore struct {
	redisClient *redis.Client
}

// NewProgressStore 创建一个新的 ProgressStore 实例。
func NewProgressStore(redisClient *redis.Client) ProgressStore {
	return &progressStore{redisClient: redisClient}
}

func progressKey(uploadID string) string {
	return "progress:" + uploadID
}

// Set 写入一条进度快照，带固定 TTL。
func (s *progressStore) Set(ctx context.Context, p Progress) error {
	p.UpdatedAt = time.Now()
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return apperr.Transient("progress.set",
		s.redisClient.Set(ctx, progressKey(p.UploadID), payload, progressTTL).Err())
}

// Get 读取进度快照。不存在时第二个返回值为 false。
func (s *progressStore) Get(ctx context.Context, uploadID string) (Progress, bool, error) {
	payload, err := s.redisClient.Get(ctx, progressKey(uploadID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Progress{}, false, nil
		}
		return Progress{}, false, apperr.Transient("progress.get", err)
	}
	var p Progress
	if err := json.Unmarshal(payload, &p); err != nil {
		return Progress{}, false, err
	}
	return p, true, nil
}
