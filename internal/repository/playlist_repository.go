// Package repository 定义了与数据库进行数据交换的接口和实现。
package repository

import (
	"context"
	"errors"

	"fanwall-go/internal/apperr"
	"fanwall-go/internal/model"

	"gorm.io/gorm"
)

// PlaylistRepository 接口定义了播放列表及其成员关系的持久化操作。
type PlaylistRepository interface {
	Create(ctx context.Context, p *model.Playlist) error
	Get(ctx context.Context, id string) (*model.Playlist, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Playlist, error)
	AddEntry(ctx context.Context, playlistID, uploadID string) error
	RemoveEntry(ctx context.Context, playlistID, uploadID string) error
	ListEntries(ctx context.Context, playlistID string) ([]model.PlaylistEntry, error)
}

// playlistRepository 是 PlaylistRepository 接口的 GORM 实现。
type playlistRepository struct {
	db    *gorm.DB
	retry *Retryer
}

// NewPlaylistRepository 创建一个新的 PlaylistRepository 实例。
func NewPlaylistRepository(db *gorm.DB, retry *Retryer) PlaylistRepository {
	return &playlistRepository{db: db, retry: retry}
}

// Create 创建一个播放列表。
func (r *playlistRepository) Create(ctx context.Context, p *model.Playlist) error {
	return r.retry.Do(ctx, "playlist.create", func() error {
		return apperr.Transient("playlist.create", r.db.WithContext(ctx).Create(p).Error)
	})
}

// Get 根据 ID 检索播放列表。不存在时返回 NotFoundError。
func (r *playlistRepository) Get(ctx context.Context, id string) (*model.Playlist, error) {
	var p model.Playlist
	err := r.retry.Do(ctx, "playlist.get", func() error {
		err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperr.NotFoundError{Resource: "播放列表", ID: id}
		}
		return apperr.Transient("playlist.get", err)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByEvent 查找某个活动下的全部播放列表。
func (r *playlistRepository) ListByEvent(ctx context.Context, eventID string) ([]model.Playlist, error) {
	var list []model.Playlist
	err := r.retry.Do(ctx, "playlist.listByEvent", func() error {
		return apperr.Transient("playlist.listByEvent",
			r.db.WithContext(ctx).Where("event_id = ?", eventID).Find(&list).Error)
	})
	return list, err
}

// AddEntry 把一条上传加入播放列表。重复加入视为成功（唯一索引兜底）。
func (r *playlistRepository) AddEntry(ctx context.Context, playlistID, uploadID string) error {
	return r.retry.Do(ctx, "playlist.addEntry", func() error {
		var position int64
		if err := r.db.WithContext(ctx).Model(&model.PlaylistEntry{}).
			Where("playlist_id = ?", playlistID).Count(&position).Error; err != nil {
			return apperr.Transient("playlist.addEntry", err)
		}
		entry := &model.PlaylistEntry{
			PlaylistID: playlistID,
			UploadID:   uploadID,
			Position:   int(position),
		}
		err := r.db.WithContext(ctx).Create(entry).Error
		if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return apperr.Transient("playlist.addEntry", err)
	})
}

// RemoveEntry 把一条上传移出播放列表。成员不存在时视为成功。
func (r *playlistRepository) RemoveEntry(ctx context.Context, playlistID, uploadID string) error {
	return r.retry.Do(ctx, "playlist.removeEntry", func() error {
		return apperr.Transient("playlist.removeEntry",
			r.db.WithContext(ctx).
				Where("playlist_id = ? AND upload_id = ?", playlistID, uploadID).
				Delete(&model.PlaylistEntry{}).Error)
	})
}

// ListEntries 按位置顺序返回播放列表的全部成员。
func (r *playlistRepository) ListEntries(ctx context.Context, playlistID string) ([]model.PlaylistEntry, error) {
	var entries []model.PlaylistEntry
	err := r.retry.Do(ctx, "playlist.listEntries", func() error {
		return apperr.Transient("playlist.listEntries",
			r.db.WithContext(ctx).Where("playlist_id = ?", playlistID).Order("position asc").Find(&entries).Error)
	})
	return entries, err
}
