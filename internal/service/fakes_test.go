package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"fanwall-go/internal/apperr"
	"fanwall-go/internal/model"
	"fanwall-go/internal/repository"
	"fanwall-go/pkg/tasks"
)

// fakeClock 返回固定时间，便于精确控制过期判断。
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// fakeLinkRepo 是 LinkRepository 的内存实现。
type fakeLinkRepo struct {
	mu    sync.Mutex
	links map[string]*model.UploadLink

	createErr    error
	incrementErr error
}

func newFakeLinkRepo() *fakeLinkRepo {
	return &fakeLinkRepo{links: map[string]*model.UploadLink{}}
}

func (r *fakeLinkRepo) Create(ctx context.Context, link *model.UploadLink) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *link
	r.links[link.ID] = &cp
	return nil
}

func (r *fakeLinkRepo) Get(ctx context.Context, id string) (*model.UploadLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.links[id]
	if !ok {
		return nil, &apperr.NotFoundError{Resource: "上传链接", ID: id}
	}
	cp := *link
	return &cp, nil
}

func (r *fakeLinkRepo) Save(ctx context.Context, link *model.UploadLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *link
	r.links[link.ID] = &cp
	return nil
}

func (r *fakeLinkRepo) ListByEvent(ctx context.Context, eventID string) ([]model.UploadLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.UploadLink
	for _, l := range r.links {
		if l.EventID == eventID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *fakeLinkRepo) Deactivate(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.links[id]
	if !ok {
		return &apperr.NotFoundError{Resource: "上传链接", ID: id}
	}
	link.IsActive = false
	return nil
}

// IncrementUsage 复刻条件更新语义：配额满时返回 QuotaExceededError。
func (r *fakeLinkRepo) IncrementUsage(ctx context.Context, id string) error {
	if r.incrementErr != nil {
		return r.incrementErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	link, ok := r.links[id]
	if !ok {
		return &apperr.NotFoundError{Resource: "上传链接", ID: id}
	}
	if link.CurrentUploads >= link.MaxUploads {
		return &apperr.QuotaExceededError{LinkID: id}
	}
	link.CurrentUploads++
	return nil
}

// fakeUploadRepo 是 UploadRepository 的内存实现。
type fakeUploadRepo struct {
	mu    sync.Mutex
	items map[string]*model.UploadItem

	createErr error
	saveErr   error
	cache     map[string][]byte
}

func newFakeUploadRepo() *fakeUploadRepo {
	return &fakeUploadRepo{
		items: map[string]*model.UploadItem{},
		cache: map[string][]byte{},
	}
}

func uploadKey(id, eventID string) string { return eventID + "/" + id }

func (r *fakeUploadRepo) put(item *model.UploadItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *item
	r.items[uploadKey(item.ID, item.EventID)] = &cp
}

func (r *fakeUploadRepo) Create(ctx context.Context, item *model.UploadItem) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.put(item)
	return nil
}

func (r *fakeUploadRepo) Get(ctx context.Context, id, eventID string) (*model.UploadItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[uploadKey(id, eventID)]
	if !ok {
		return nil, &apperr.NotFoundError{Resource: "上传记录", ID: id}
	}
	cp := *item
	return &cp, nil
}

func (r *fakeUploadRepo) Save(ctx context.Context, item *model.UploadItem) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.put(item)
	return nil
}

func (r *fakeUploadRepo) ListByEvent(ctx context.Context, eventID string) ([]model.UploadItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.UploadItem
	for _, it := range r.items {
		if it.EventID == eventID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (r *fakeUploadRepo) ListByUser(ctx context.Context, userID string) ([]model.UploadItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.UploadItem
	for _, it := range r.items {
		if it.UserID == userID {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (r *fakeUploadRepo) ListByStatus(ctx context.Context, eventID string, status model.UploadStatus) ([]model.UploadItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.UploadItem
	for _, it := range r.items {
		if it.EventID == eventID && it.Status == status {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (r *fakeUploadRepo) ListStalledProcessing(ctx context.Context, cutoff time.Time) ([]model.UploadItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.UploadItem
	for _, it := range r.items {
		if it.Status == model.StatusProcessing && it.UpdatedAt.Before(cutoff) {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (r *fakeUploadRepo) UpdateStatus(ctx context.Context, id, eventID string, status model.UploadStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[uploadKey(id, eventID)]
	if !ok {
		return &apperr.NotFoundError{Resource: "上传记录", ID: id}
	}
	item.Status = status
	return nil
}

func (r *fakeUploadRepo) GetCachedGallery(ctx context.Context, eventID string) ([]byte, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	payload, ok := r.cache[eventID]
	return payload, ok, nil
}

func (r *fakeUploadRepo) SetCachedGallery(ctx context.Context, eventID string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[eventID] = payload
	return nil
}

func (r *fakeUploadRepo) InvalidateGallery(ctx context.Context, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, eventID)
	return nil
}

// fakeStore 是 ObjectStore 的内存实现，记录调用以便断言。
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	puts    int
	removed []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) PutObject(ctx context.Context, objectKey, contentType string, reader io.Reader, size int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	data, _ := io.ReadAll(reader)
	s.objects[objectKey] = data
	return nil
}

func (s *fakeStore) RemoveObject(ctx context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectKey)
	s.removed = append(s.removed, objectKey)
	return nil
}

func (s *fakeStore) PresignedGetURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	return "https://signed.example.com/" + objectKey, nil
}

func (s *fakeStore) PublicURL(objectKey string) string {
	return "https://cdn.example.com/" + objectKey
}

// fakeQueue 是 JobQueue 的内存实现。
type fakeQueue struct {
	mu        sync.Mutex
	jobs      []tasks.ProcessingJob
	cancels   []string
	submitErr error
}

func (q *fakeQueue) SubmitJob(ctx context.Context, job tasks.ProcessingJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.submitErr != nil {
		return q.submitErr
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) CancelJob(ctx context.Context, uploadID, eventID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancels = append(q.cancels, uploadID)
	return nil
}

// fakeIndexer 是 UploadIndexer 的内存实现。
type fakeIndexer struct {
	mu       sync.Mutex
	indexed  map[string]model.GalleryDocument
	deleted  []string
	indexErr error
	lastSize int
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{indexed: map[string]model.GalleryDocument{}}
}

func (i *fakeIndexer) IndexUpload(ctx context.Context, doc model.GalleryDocument) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.indexErr != nil {
		return i.indexErr
	}
	i.indexed[doc.UploadID] = doc
	return nil
}

func (i *fakeIndexer) DeleteUpload(ctx context.Context, uploadID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.indexed, uploadID)
	i.deleted = append(i.deleted, uploadID)
	return nil
}

func (i *fakeIndexer) Search(ctx context.Context, eventID, query string, size int) ([]model.GalleryHit, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.lastSize = size
	var hits []model.GalleryHit
	for _, doc := range i.indexed {
		if doc.EventID == eventID && doc.UploaderName == query {
			hits = append(hits, model.GalleryHit{
				UploadID:     doc.UploadID,
				EventID:      doc.EventID,
				UploaderName: doc.UploaderName,
				Score:        1.0,
			})
		}
	}
	return hits, nil
}

// fakeProgressStore 是 ProgressStore 的内存实现。
type fakeProgressStore struct {
	mu   sync.Mutex
	data map[string]repository.Progress
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{data: map[string]repository.Progress{}}
}

func (p *fakeProgressStore) Set(ctx context.Context, progress repository.Progress) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	progress.UpdatedAt = time.Now()
	p.data[progress.UploadID] = progress
	return nil
}

func (p *fakeProgressStore) Get(ctx context.Context, uploadID string) (repository.Progress, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	progress, ok := p.data[uploadID]
	return progress, ok, nil
}

// fakeNotificationRepo 是 NotificationRepository 的内存实现。
type fakeNotificationRepo struct {
	mu        sync.Mutex
	created   []model.Notification
	createErr error
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, *n)
	return nil
}

func (r *fakeNotificationRepo) ListByUser(ctx context.Context, userID string) ([]model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Notification
	for _, n := range r.created {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

// fakePlaylistRepo 是 PlaylistRepository 的内存实现。
type fakePlaylistRepo struct {
	mu        sync.Mutex
	playlists map[string]*model.Playlist
	entries   map[string][]model.PlaylistEntry
	addErr    error
}

func newFakePlaylistRepo() *fakePlaylistRepo {
	return &fakePlaylistRepo{
		playlists: map[string]*model.Playlist{},
		entries:   map[string][]model.PlaylistEntry{},
	}
}

func (r *fakePlaylistRepo) Create(ctx context.Context, p *model.Playlist) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.playlists[p.ID] = &cp
	return nil
}

func (r *fakePlaylistRepo) Get(ctx context.Context, id string) (*model.Playlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.playlists[id]
	if !ok {
		return nil, &apperr.NotFoundError{Resource: "播放列表", ID: id}
	}
	cp := *p
	return &cp, nil
}

func (r *fakePlaylistRepo) ListByEvent(ctx context.Context, eventID string) ([]model.Playlist, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Playlist
	for _, p := range r.playlists {
		if p.EventID == eventID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePlaylistRepo) AddEntry(ctx context.Context, playlistID, uploadID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.addErr != nil {
		return r.addErr
	}
	for _, e := range r.entries[playlistID] {
		if e.UploadID == uploadID {
			return nil
		}
	}
	r.entries[playlistID] = append(r.entries[playlistID], model.PlaylistEntry{
		PlaylistID: playlistID,
		UploadID:   uploadID,
		Position:   len(r.entries[playlistID]),
	})
	return nil
}

func (r *fakePlaylistRepo) RemoveEntry(ctx context.Context, playlistID, uploadID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.entries[playlistID]
	for i, e := range entries {
		if e.UploadID == uploadID {
			r.entries[playlistID] = append(entries[:i], entries[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *fakePlaylistRepo) ListEntries(ctx context.Context, playlistID string) ([]model.PlaylistEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.PlaylistEntry(nil), r.entries[playlistID]...), nil
}

var errBoom = errors.New("boom")
