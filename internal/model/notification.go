// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// 通知类型常量。
const (
	NotificationUploadApproved = "upload_approved"
	NotificationUploadRejected = "upload_rejected"
	NotificationDownloadReady  = "download_ready"
)

// NotificationMetadata 指向触发通知的上传记录。
type NotificationMetadata struct {
	UploadID string `json:"uploadId"`
	EventID  string `json:"eventId,omitempty"`
}

// Notification 定义了 notifications 表的 ORM 模型。
// 通知只创建不修改，由审核网关与下载跟踪器在状态变更后写入。
type Notification struct {
	ID        uint                             `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string                           `gorm:"type:varchar(64);not null;index" json:"userId"`
	Type      string                           `gorm:"type:varchar(32);not null" json:"type"`
	Message   string                           `gorm:"type:varchar(512);not null" json:"message"`
	Metadata  JSONColumn[NotificationMetadata] `gorm:"type:text" json:"metadata"`
	CreatedAt time.Time                        `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Notification) TableName() string {
	return "notifications"
}
