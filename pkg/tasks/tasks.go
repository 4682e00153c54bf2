// Package tasks defines the payloads exchanged with the external processing function over Kafka.
package tasks

// Quality 描述一个转码目标画质（宽、高、码率三元组）。
type Quality struct {
	Width   int `json:"width"`
	Height  int `json:"height"`
	Bitrate int `json:"bitrate"`
}

// ProcessingOptions 控制外部处理函数的行为。
type ProcessingOptions struct {
	GenerateThumbnails bool      `json:"generateThumbnails"`
	ThumbnailCount     int       `json:"thumbnailCount"`
	Qualities          []Quality `json:"qualities"`
	ExtractMetadata    bool      `json:"extractMetadata"`
}

// ProcessingJob 是提交给外部异步处理函数的任务负载。
type ProcessingJob struct {
	UploadID string            `json:"uploadId"`
	EventID  string            `json:"eventId"`
	FileKey  string            `json:"fileKey"`
	Options  ProcessingOptions `json:"options"`
	Cancel   bool              `json:"cancel,omitempty"` // true 表示请求取消在途任务
}

// ResultVariant 是处理结果中的一个画质产物。
type ResultVariant struct {
	Quality string `json:"quality"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Bitrate int    `json:"bitrate"`
	Key     string `json:"key"`
}

// ResultMetadata 是处理结果携带的媒体元数据。
type ResultMetadata struct {
	DurationSeconds float64 `json:"durationSeconds"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Codec           string  `json:"codec"`
	Bitrate         int     `json:"bitrate"`
	FPS             float64 `json:"fps"`
}

// ProcessingResult 是外部处理函数写回结果主题的消息。
type ProcessingResult struct {
	UploadID   string          `json:"uploadId"`
	EventID    string          `json:"eventId"`
	Status     string          `json:"status"` // completed | failed | cancelled
	Error      string          `json:"error,omitempty"`
	Metadata   *ResultMetadata `json:"metadata,omitempty"`
	Thumbnails []string        `json:"thumbnails,omitempty"`
	Variants   []ResultVariant `json:"variants,omitempty"`
}

// 结果主题消息的种类。
const (
	KindResult   = "result"
	KindProgress = "progress"
)

// ResultEnvelope 是结果主题上的统一消息信封。
// 外部处理函数既回报终态结果，也回报过程中的进度事件。
type ResultEnvelope struct {
	Kind     string            `json:"kind"`
	Result   *ProcessingResult `json:"result,omitempty"`
	Progress *ProgressEvent    `json:"progress,omitempty"`
}

// ProgressEvent 是处理过程中的进度事件（阶段 + 已传输字节数）。
type ProgressEvent struct {
	UploadID         string `json:"uploadId"`
	EventID          string `json:"eventId"`
	Phase            string `json:"phase"` // downloading | transcoding | thumbnailing | uploading
	BytesTransferred int64  `json:"bytesTransferred"`
	Percent          int    `json:"percent"`
}
