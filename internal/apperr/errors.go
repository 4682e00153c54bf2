// Package apperr 定义了核心业务使用的带标签错误类型。
// 调用方通过 errors.As / errors.Is 区分错误种类，而不是依赖字符串匹配。
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError 表示请求参数或文件校验失败，永远不会被重试。
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("校验失败: %s: %s", e.Field, e.Reason)
}

// NotFoundError 表示链接或上传记录不存在，属于终态错误。
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s 不存在: %s", e.Resource, e.ID)
}

// QuotaExceededError 表示上传链接的配额已用尽。
type QuotaExceededError struct {
	LinkID string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("上传链接配额已用尽: %s", e.LinkID)
}

// LinkExpiredError 表示上传链接已过期。
type LinkExpiredError struct {
	LinkID string
}

func (e *LinkExpiredError) Error() string {
	return fmt.Sprintf("上传链接已过期: %s", e.LinkID)
}

// LinkInactiveError 表示上传链接已被创作者主动停用。
type LinkInactiveError struct {
	LinkID string
}

func (e *LinkInactiveError) Error() string {
	return fmt.Sprintf("上传链接已停用: %s", e.LinkID)
}

// ProcessingError 表示外部异步处理函数执行失败。
// 编排器会把它吸收为 rejected 状态，不向调用方抛出。
type ProcessingError struct {
	UploadID string
	Reason   string
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("处理失败 (uploadId=%s): %s", e.UploadID, e.Reason)
}

// TransientError 标记一次可重试的基础设施故障（网络、存储抖动）。
// 只有被它包裹的错误才会进入重试路径。
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("临时性故障 (%s): %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient 将底层错误包装为临时性故障。err 为 nil 时返回 nil。
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Op: op, Err: err}
}

// IsTransient 判断错误链上是否存在临时性故障标记。
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsNotFound 判断错误链上是否存在“不存在”错误。
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
