// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"fanwall-go/internal/apperr"
	"fanwall-go/internal/config"
	"fanwall-go/internal/model"
	"fanwall-go/internal/repository"
	"fanwall-go/pkg/log"
	"fanwall-go/pkg/token"
)

// UploadPolicy 是一条命名的文件校验策略：MIME 白名单 + 大小上限。
// 粉丝视频通道与通用上传表单各有一条独立策略，可在配置中覆盖。
type UploadPolicy struct {
	Name             string
	AllowedMIMETypes []string
	MaxSizeBytes     int64
}

// FanVideoPolicy 返回粉丝视频上传通道的默认策略（仅视频，500 MB）。
func FanVideoPolicy() UploadPolicy {
	return UploadPolicy{
		Name:             "fan_video",
		AllowedMIMETypes: []string{"video/mp4", "video/quicktime", "video/x-m4v"},
		MaxSizeBytes:     500 * 1024 * 1024,
	}
}

// GeneralPolicy 返回通用上传表单的默认策略（视频+图片，100 MB）。
func GeneralPolicy() UploadPolicy {
	return UploadPolicy{
		Name:             "general",
		AllowedMIMETypes: []string{"video/mp4", "video/quicktime", "image/jpeg", "image/png"},
		MaxSizeBytes:     100 * 1024 * 1024,
	}
}

// PolicyFromConfig 用配置中的覆盖值修订一条默认策略。
func PolicyFromConfig(base UploadPolicy, override config.UploadPolicyConfig) UploadPolicy {
	if len(override.AllowedMIMETypes) > 0 {
		base.AllowedMIMETypes = override.AllowedMIMETypes
	}
	if override.MaxSizeBytes > 0 {
		base.MaxSizeBytes = override.MaxSizeBytes
	}
	return base
}

// Validate 按策略校验文件描述。违反时返回 ValidationError，不触碰任何存储。
func (p UploadPolicy) Validate(mimeType string, size int64) error {
	allowed := false
	for _, m := range p.AllowedMIMETypes {
		if strings.EqualFold(m, mimeType) {
			allowed = true
			break
		}
	}
	if !allowed {
		return &apperr.ValidationError{Field: "fileType", Reason: fmt.Sprintf("不支持的文件类型 %s", mimeType)}
	}
	if size <= 0 {
		return &apperr.ValidationError{Field: "fileSize", Reason: "文件大小无效"}
	}
	if size > p.MaxSizeBytes {
		return &apperr.ValidationError{Field: "fileSize", Reason: fmt.Sprintf("文件超过 %d 字节上限", p.MaxSizeBytes)}
	}
	return nil
}

// UploadDescriptor 是创建上传所需的描述信息，二进制内容单独传入。
type UploadDescriptor struct {
	EventID      string
	UserID       string
	UploaderName string
	FileName     string
	MIMEType     string
	FileSize     int64
}

// UploadService 接口定义了上传生命周期相关的业务操作。
type UploadService interface {
	Create(ctx context.Context, linkID string, desc UploadDescriptor, file io.Reader, policy UploadPolicy) (*model.UploadItem, error)
	Get(ctx context.Context, id, eventID string) (*model.UploadItem, error)
	ListForEvent(ctx context.Context, eventID string) ([]model.UploadItem, error)
	ListForUser(ctx context.Context, userID string) ([]model.UploadItem, error)
	SetStatus(ctx context.Context, id, eventID string, status model.UploadStatus) error
	Remove(ctx context.Context, id, eventID string) error
	Replace(ctx context.Context, id, eventID string, desc UploadDescriptor, file io.Reader, policy UploadPolicy) (*model.UploadItem, error)
}

type uploadService struct {
	uploadRepo repository.UploadRepository
	linkSvc    LinkService
	store      ObjectStore
	processor  ProcessingService
}

// NewUploadService 创建一个新的 UploadService 实例。
func NewUploadService(uploadRepo repository.UploadRepository, linkSvc LinkService, store ObjectStore, processor ProcessingService) UploadService {
	return &uploadService{
		uploadRepo: uploadRepo,
		linkSvc:    linkSvc,
		store:      store,
		processor:  processor,
	}
}

// fileTypeOf 由 MIME 类型推断记录的粗分类（video / image）。
func fileTypeOf(mimeType string) string {
	if strings.HasPrefix(mimeType, "video/") {
		return model.FileTypeVideo
	}
	return model.FileTypeImage
}

// objectKeyFor generates the storage key for one upload's primary asset.
func objectKeyFor(eventID, uploadID, fileName string) string {
	ext := ""
	if i := strings.LastIndex(fileName, "."); i >= 0 {
		ext = strings.ToLower(fileName[i:])
	}
	return fmt.Sprintf("events/%s/uploads/%s%s", eventID, uploadID, ext)
}

// thumbnailKeyFor 是处理产物缩略图的约定存储前缀。
func thumbnailKeyFor(eventID, uploadID string) string {
	return fmt.Sprintf("events/%s/thumbnails/%s", eventID, uploadID)
}

// Create 通过上传链接接收一份粉丝提交：
// 校验文件 → 校验链接 → 写入对象存储 → 创建 pending 记录 → 条件递增链接用量。
// 文件校验失败时不触碰任何存储；链接校验失败以类型化错误抛出。
// 用量递增发生在二进制落盘之后，且一旦成功不可回退。
func (s *uploadService) Create(ctx context.Context, linkID string, desc UploadDescriptor, file io.Reader, policy UploadPolicy) (*model.UploadItem, error) {
	log.Infof("[UploadService] 接收上传, linkId: %s, eventId: %s, 类型: %s, 大小: %d", linkID, desc.EventID, desc.MIMEType, desc.FileSize)

	// 1. 文件校验。失败时不发生任何存储调用。
	if err := policy.Validate(desc.MIMEType, desc.FileSize); err != nil {
		log.Warnf("[UploadService] 文件校验未通过: %v", err)
		return nil, err
	}

	// 2. 链接校验。校验结论在创建路径上转换为类型化错误。
	link, err := s.linkSvc.Fetch(ctx, linkID)
	if err != nil {
		return nil, err
	}
	verdict, err := s.linkSvc.Validate(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if !verdict.Valid {
		return nil, verdictError(linkID, verdict.Reason)
	}
	if link.EventID != desc.EventID {
		return nil, &apperr.ValidationError{Field: "eventId", Reason: "链接不属于该活动"}
	}

	// 3. 写入对象存储并创建 pending 记录。
	uploadID := token.GenerateRandomID(16)
	fileKey := objectKeyFor(desc.EventID, uploadID, desc.FileName)
	if err := s.store.PutObject(ctx, fileKey, desc.MIMEType, file, desc.FileSize); err != nil {
		log.Errorf("[UploadService] 写入对象存储失败, fileKey: %s, error: %v", fileKey, err)
		return nil, err
	}

	item := &model.UploadItem{
		ID:               uploadID,
		EventID:          desc.EventID,
		UserID:           desc.UserID,
		UploaderName:     desc.UploaderName,
		FileKey:          fileKey,
		FileURL:          s.store.PublicURL(fileKey),
		FileType:         fileTypeOf(desc.MIMEType),
		FileSize:         desc.FileSize,
		Status:           model.StatusPending,
		ProcessingStatus: model.ProcessingPending,
	}
	if err := s.uploadRepo.Create(ctx, item); err != nil {
		log.Errorf("[UploadService] 创建上传记录失败, uploadId: %s, error: %v", uploadID, err)
		return nil, err
	}

	// 4. 条件递增链接用量。配额竞争由数据库仲裁。
	if err := s.linkSvc.IncrementUsage(ctx, linkID); err != nil {
		return nil, err
	}

	// 5. 视频送入异步处理；图片跳过处理直接进入待审核。
	if item.IsVideo() {
		result := s.processor.StartProcessing(ctx, item.ID, item.EventID, item.FileKey, nil)
		if result.Status == model.ProcessingFailed {
			log.Warnf("[UploadService] 视频处理提交失败, uploadId: %s, error: %s", item.ID, result.Error)
		} else {
			item.Status = model.StatusProcessing
			item.ProcessingStatus = model.ProcessingInProgress
		}
	} else {
		if err := s.uploadRepo.UpdateStatus(ctx, item.ID, item.EventID, model.StatusCompleted); err != nil {
			log.Warnf("[UploadService] 图片置为 completed 失败, uploadId: %s, error: %v", item.ID, err)
		} else {
			item.Status = model.StatusCompleted
		}
	}

	log.Infof("[UploadService] 上传创建成功, uploadId: %s, eventId: %s", item.ID, item.EventID)
	return item, nil
}

// verdictError 把链接校验结论映射为创建路径上的类型化错误。
func verdictError(linkID, reason string) error {
	switch reason {
	case ReasonInactive:
		return &apperr.LinkInactiveError{LinkID: linkID}
	case ReasonExpired:
		return &apperr.LinkExpiredError{LinkID: linkID}
	case ReasonQuotaReached:
		return &apperr.QuotaExceededError{LinkID: linkID}
	default:
		return &apperr.NotFoundError{Resource: "上传链接", ID: linkID}
	}
}

// Get 读取单条上传记录。
func (s *uploadService) Get(ctx context.Context, id, eventID string) (*model.UploadItem, error) {
	return s.uploadRepo.Get(ctx, id, eventID)
}

// ListForEvent 返回某个活动下的全部上传。
func (s *uploadService) ListForEvent(ctx context.Context, eventID string) ([]model.UploadItem, error) {
	return s.uploadRepo.ListByEvent(ctx, eventID)
}

// ListForUser 返回某个上传者的全部上传。
func (s *uploadService) ListForUser(ctx context.Context, userID string) ([]model.UploadItem, error) {
	return s.uploadRepo.ListByUser(ctx, userID)
}

// SetStatus 执行一次生命周期转移并使相册缓存失效。
// 状态机只允许向前流转：非法转移返回 ValidationError。
func (s *uploadService) SetStatus(ctx context.Context, id, eventID string, status model.UploadStatus) error {
	item, err := s.uploadRepo.Get(ctx, id, eventID)
	if err != nil {
		return err
	}
	if item.Status == status {
		return nil
	}
	if !model.CanTransition(item.Status, status) {
		return &apperr.ValidationError{Field: "status", Reason: fmt.Sprintf("不允许从 %s 转移到 %s", item.Status, status)}
	}
	if err := s.uploadRepo.UpdateStatus(ctx, id, eventID, status); err != nil {
		return err
	}
	if err := s.uploadRepo.InvalidateGallery(ctx, eventID); err != nil {
		log.Warnf("[UploadService] 相册缓存失效失败, eventId: %s, error: %v", eventID, err)
	}
	return nil
}

// Remove 删除主资产与缩略图（尽力而为），然后把记录标记为 rejected。
// 行被保留作为审计与通知历史的墓碑，这是有意的软删除。
func (s *uploadService) Remove(ctx context.Context, id, eventID string) error {
	item, err := s.uploadRepo.Get(ctx, id, eventID)
	if err != nil {
		return err
	}

	if err := s.store.RemoveObject(ctx, item.FileKey); err != nil {
		log.Errorf("[UploadService] 删除主资产失败, fileKey: %s, error: %v", item.FileKey, err)
		return err
	}
	// 缩略图删除是尽力而为的
	if item.ThumbnailURLs.Valid {
		for i := range item.ThumbnailURLs.Data {
			key := fmt.Sprintf("%s/%d.jpg", thumbnailKeyFor(eventID, id), i)
			if err := s.store.RemoveObject(ctx, key); err != nil {
				log.Warnf("[UploadService] 删除缩略图失败, key: %s, error: %v", key, err)
			}
		}
	}

	item.Status = model.StatusRejected
	if err := s.uploadRepo.Save(ctx, item); err != nil {
		return err
	}
	if err := s.uploadRepo.InvalidateGallery(ctx, eventID); err != nil {
		log.Warnf("[UploadService] 相册缓存失效失败, eventId: %s, error: %v", eventID, err)
	}
	log.Infof("[UploadService] 上传已移除（软删除为 rejected）, uploadId: %s", id)
	return nil
}

// Replace 用新文件替换一份上传：删除旧资产，重新写入，并把记录重置回 pending。
// 保留 id/eventId/userId 不变。
func (s *uploadService) Replace(ctx context.Context, id, eventID string, desc UploadDescriptor, file io.Reader, policy UploadPolicy) (*model.UploadItem, error) {
	if err := policy.Validate(desc.MIMEType, desc.FileSize); err != nil {
		return nil, err
	}

	item, err := s.uploadRepo.Get(ctx, id, eventID)
	if err != nil {
		return nil, err
	}

	// 删除旧资产；缩略图尽力而为
	if err := s.store.RemoveObject(ctx, item.FileKey); err != nil {
		log.Warnf("[UploadService] 替换时删除旧主资产失败, fileKey: %s, error: %v", item.FileKey, err)
	}
	if item.ThumbnailURLs.Valid {
		for i := range item.ThumbnailURLs.Data {
			key := fmt.Sprintf("%s/%d.jpg", thumbnailKeyFor(eventID, id), i)
			_ = s.store.RemoveObject(ctx, key)
		}
	}

	fileKey := objectKeyFor(eventID, id, desc.FileName)
	if err := s.store.PutObject(ctx, fileKey, desc.MIMEType, file, desc.FileSize); err != nil {
		return nil, err
	}

	item.FileKey = fileKey
	item.FileURL = s.store.PublicURL(fileKey)
	item.FileType = fileTypeOf(desc.MIMEType)
	item.FileSize = desc.FileSize
	item.Status = model.StatusPending
	item.ProcessingStatus = model.ProcessingPending
	item.ProcessingError = ""
	item.ThumbnailURL = ""
	item.ThumbnailURLs = model.JSONColumn[[]string]{}
	item.Variants = model.JSONColumn[[]model.Variant]{}
	item.Metadata = model.JSONColumn[*model.VideoMetadata]{}
	if err := s.uploadRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	if err := s.uploadRepo.InvalidateGallery(ctx, eventID); err != nil {
		log.Warnf("[UploadService] 相册缓存失效失败, eventId: %s, error: %v", eventID, err)
	}

	log.Infof("[UploadService] 上传已替换并重置为 pending, uploadId: %s", id)
	return item, nil
}
