// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"context"
	"time"

	"fanwall-go/internal/apperr"
	"fanwall-go/pkg/log"
)

// 重试策略的默认参数。
const (
	DefaultRetryAttempts  = 3
	DefaultRetryBaseDelay = 100 * time.Millisecond
)

// Retryer 是数据访问的统一重试器：有界次数、指数退避（基础延迟逐次翻倍）。
// 所有仓储调用都经过它，重试策略因此集中在一处并可独立测试。
// 除重试参数外无任何状态，可在并发流程间共享。
type Retryer struct {
	attempts  int
	baseDelay time.Duration
}

// NewRetryer 创建一个新的 Retryer。参数非法时落回默认值。
func NewRetryer(attempts int, baseDelay time.Duration) *Retryer {
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultRetryBaseDelay
	}
	return &Retryer{attempts: attempts, baseDelay: baseDelay}
}

// Do 执行 fn，失败且错误为临时性故障时按指数退避重试，
// 直到成功或次数耗尽，最终把最后一次的错误原样上抛。
// 校验、不存在、配额类错误不重试，立即返回。
func (r *Retryer) Do(ctx context.Context, op string, fn func() error) error {
	var err error
	delay := r.baseDelay
	for attempt := 1; attempt <= r.attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !apperr.IsTransient(err) {
			return err
		}
		if attempt == r.attempts {
			break
		}
		log.Warnf("[Retryer] 操作 '%s' 第 %d 次失败，%v 后重试: %v", op, attempt, delay, err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	log.Errorf("[Retryer] 操作 '%s' 在 %d 次尝试后仍然失败: %v", op, r.attempts, err)
	return err
}

// Attempts 返回配置的最大尝试次数。
func (r *Retryer) Attempts() int {
	return r.attempts
}
