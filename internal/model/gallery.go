// Package model 定义了与数据库表对应的 Go 结构体。
package model

// GalleryDocument 定义了存储在 Elasticsearch 中的相册文档结构。
// 只有通过审核的上传才会被索引，用于创作者侧的相册检索。
type GalleryDocument struct {
	UploadID     string `json:"upload_id"`
	EventID      string `json:"event_id"`
	UploaderName string `json:"uploader_name"`
	FileType     string `json:"file_type"`
	FileURL      string `json:"file_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	UploadedAt   string `json:"uploaded_at"`
}

// GalleryHit 定义了返回给前端的单条检索结果。
type GalleryHit struct {
	UploadID     string  `json:"uploadId"`
	EventID      string  `json:"eventId"`
	UploaderName string  `json:"uploaderName"`
	FileType     string  `json:"fileType"`
	FileURL      string  `json:"fileUrl"`
	ThumbnailURL string  `json:"thumbnailUrl,omitempty"`
	Score        float64 `json:"score"`
}
