// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// 上传链接的默认有效期与默认配额。
const (
	DefaultLinkExpirationHours = 24
	DefaultLinkMaxUploads      = 10
)

// UploadLink 定义了 upload_links 表的 ORM 模型。
// 它是一个不可猜测的能力令牌：粉丝只凭链接 ID 即可向某个活动提交内容。
// 注意：IsActive 只表示“创作者主动撤销”，过期与配额在校验时实时计算，
// 存储中不会因为过期而把 IsActive 回写为 false。
type UploadLink struct {
	ID             string    `gorm:"type:char(32);primaryKey" json:"id"`
	EventID        string    `gorm:"type:varchar(64);not null;index" json:"eventId"`
	CreativeID     string    `gorm:"type:varchar(64);not null;index" json:"creativeId"`
	ExpiresAt      time.Time `gorm:"not null" json:"expiresAt"`
	MaxUploads     int       `gorm:"not null" json:"maxUploads"`
	CurrentUploads int       `gorm:"not null;default:0" json:"currentUploads"`
	IsActive       bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (UploadLink) TableName() string {
	return "upload_links"
}

// IsExpired 判断链接在给定时刻是否已过期。
func (l *UploadLink) IsExpired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// QuotaReached 判断链接配额是否已用尽。
func (l *UploadLink) QuotaReached() bool {
	return l.CurrentUploads >= l.MaxUploads
}
