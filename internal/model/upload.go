// Package model 定义了与数据库表对应的 Go 结构体。
package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// UploadStatus 表示上传记录的生命周期状态。
type UploadStatus string

// 生命周期状态只能沿状态机向前流转，终态之后不再变化。
const (
	StatusPending    UploadStatus = "pending"
	StatusProcessing UploadStatus = "processing"
	StatusCompleted  UploadStatus = "completed"
	StatusApproved   UploadStatus = "approved"
	StatusRejected   UploadStatus = "rejected"
	StatusCancelled  UploadStatus = "cancelled"
)

// ProcessingStatus 独立于审核状态，跟踪外部异步处理任务的进展。
type ProcessingStatus string

const (
	ProcessingPending    ProcessingStatus = "pending"
	ProcessingInProgress ProcessingStatus = "processing"
	ProcessingCompleted  ProcessingStatus = "completed"
	ProcessingFailed     ProcessingStatus = "failed"
)

// FileType 区分视频与图片：只有视频会进入异步处理流程。
const (
	FileTypeVideo = "video"
	FileTypeImage = "image"
)

// statusTransitions 编码了状态机的全部合法边。
// pending 一旦离开就不会再回来；approved/rejected/cancelled 为终态。
var statusTransitions = map[UploadStatus][]UploadStatus{
	StatusPending:    {StatusProcessing, StatusCompleted, StatusRejected, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusRejected, StatusCancelled},
	StatusCompleted:  {StatusApproved, StatusRejected},
}

// CanTransition 判断状态机上是否存在 from → to 的合法边。
func CanTransition(from, to UploadStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal 判断一个状态是否为终态。
func (s UploadStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// VideoMetadata 记录处理成功后提取的媒体元数据。
// 六个字段要么全部存在，要么整体视为缺失（见 Complete）。
type VideoMetadata struct {
	DurationSeconds float64 `json:"durationSeconds"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Codec           string  `json:"codec"`
	Bitrate         int     `json:"bitrate"`
	FPS             float64 `json:"fps"`
}

// Complete 判断六个子字段是否全部有值。任何一个缺失都按整体缺失处理。
func (m *VideoMetadata) Complete() bool {
	if m == nil {
		return false
	}
	return m.DurationSeconds > 0 && m.Width > 0 && m.Height > 0 &&
		m.Codec != "" && m.Bitrate > 0 && m.FPS > 0
}

// Variant 表示处理产出的一个备选画质版本（例如 720p）。
type Variant struct {
	Quality string `json:"quality"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Bitrate int    `json:"bitrate"`
	URL     string `json:"url"`
}

// JSONColumn 把任意可序列化的值以 JSON 文本落到数据库列。
type JSONColumn[T any] struct {
	Data  T
	Valid bool
}

// Value 实现 driver.Valuer。
func (c JSONColumn[T]) Value() (driver.Value, error) {
	if !c.Valid {
		return nil, nil
	}
	b, err := json.Marshal(c.Data)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner。
func (c *JSONColumn[T]) Scan(value interface{}) error {
	if value == nil {
		c.Valid = false
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("JSONColumn: 不支持的数据库列类型")
	}
	if len(raw) == 0 {
		c.Valid = false
		return nil
	}
	if err := json.Unmarshal(raw, &c.Data); err != nil {
		return err
	}
	c.Valid = true
	return nil
}

// MarshalJSON 让 JSON 输出直接呈现列内容而不是包装结构。
func (c JSONColumn[T]) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Data)
}

// UnmarshalJSON 实现 json.Unmarshaler。
func (c *JSONColumn[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		c.Valid = false
		return nil
	}
	if err := json.Unmarshal(data, &c.Data); err != nil {
		return err
	}
	c.Valid = true
	return nil
}

// UploadItem 定义了 upload_items 表的 ORM 模型。
// 所有查询都以 (id, event_id) 复合键限定在单个活动范围内。
type UploadItem struct {
	ID               string                     `gorm:"type:char(32);primaryKey" json:"id"`
	EventID          string                     `gorm:"type:varchar(64);primaryKey" json:"eventId"`
	UserID           string                     `gorm:"type:varchar(64);not null;index" json:"userId"`
	UploaderName     string                     `gorm:"type:varchar(128)" json:"uploaderName"`
	FileKey          string                     `gorm:"type:varchar(255);not null" json:"fileKey"`
	FileURL          string                     `gorm:"type:varchar(512)" json:"fileUrl"`
	FileType         string                     `gorm:"type:varchar(16);not null" json:"fileType"`
	FileSize         int64                      `gorm:"not null" json:"fileSize"`
	Status           UploadStatus               `gorm:"type:varchar(16);not null;default:pending;index" json:"status"`
	ProcessingStatus ProcessingStatus           `gorm:"type:varchar(16);not null;default:pending" json:"processingStatus"`
	ProcessingError  string                     `gorm:"type:varchar(512)" json:"processingError,omitempty"`
	ThumbnailURL     string                     `gorm:"type:varchar(512)" json:"thumbnailUrl,omitempty"`
	ThumbnailURLs    JSONColumn[[]string]       `gorm:"type:text" json:"thumbnailUrls"`
	Variants         JSONColumn[[]Variant]      `gorm:"type:text" json:"variants"`
	Metadata         JSONColumn[*VideoMetadata] `gorm:"type:text" json:"metadata"`
	UploadedAt       time.Time                  `gorm:"autoCreateTime" json:"uploadedAt"`
	UpdatedAt        time.Time                  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (UploadItem) TableName() string {
	return "upload_items"
}

// IsVideo 判断该上传是否需要进入异步处理流程。
func (u *UploadItem) IsVideo() bool {
	return u.FileType == FileTypeVideo
}
