// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// Playlist 定义了 playlists 表的 ORM 模型。
// 创作者用它把一个活动内的若干上传组合成可播放的集合。
type Playlist struct {
	ID         string    `gorm:"type:char(32);primaryKey" json:"id"`
	EventID    string    `gorm:"type:varchar(64);not null;index" json:"eventId"`
	CreativeID string    `gorm:"type:varchar(64);not null" json:"creativeId"`
	Name       string    `gorm:"type:varchar(128);not null" json:"name"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Playlist) TableName() string {
	return "playlists"
}

// PlaylistEntry 定义了 playlist_entries 表的 ORM 模型，记录播放列表成员关系。
type PlaylistEntry struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PlaylistID string    `gorm:"type:char(32);not null;uniqueIndex:uniq_playlist_upload" json:"playlistId"`
	UploadID   string    `gorm:"type:char(32);not null;uniqueIndex:uniq_playlist_upload" json:"uploadId"`
	Position   int       `gorm:"not null;default:0" json:"position"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (PlaylistEntry) TableName() string {
	return "playlist_entries"
}
