package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dfryer1193/blogwrite/blog/domain"
)

// callLog records store calls across fakes so tests can assert ordering.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.calls...)
}

type fakeRepo struct {
	log *callLog

	mu        sync.Mutex
	posts     map[string]domain.Post
	seq       int
	createErr error
	updateErr error
	getErr    error
	listErr   error

	// afterUpdate runs once a successful update is stored.
	afterUpdate func()
}

func newFakeRepo(log *callLog, seed ...domain.Post) *fakeRepo {
	r := &fakeRepo{log: log, posts: make(map[string]domain.Post)}
	for _, p := range seed {
		r.put(p)
	}
	return r
}

func (r *fakeRepo) put(p domain.Post) {
	r.seq++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Date(2024, 1, 1, 0, 0, r.seq, 0, time.UTC)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	r.posts[p.ID] = p
}

func (r *fakeRepo) CreatePost(ctx context.Context, p domain.NewPost) (*domain.Post, error) {
	r.log.add("create:%s", p.ID)
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, ok := r.posts[p.ID]; ok {
		return nil, domain.ErrConflict
	}
	status := p.Status
	if status == "" {
		status = domain.StatusActive
	}
	r.put(domain.Post{
		ID:              p.ID,
		Title:           p.Title,
		Content:         p.Content,
		FeaturedImageID: p.FeaturedImageID,
		Status:          status,
		AuthorID:        p.AuthorID,
	})
	post := r.posts[p.ID]
	return &post, nil
}

func (r *fakeRepo) UpdatePost(ctx context.Context, id string, patch domain.PostPatch) (*domain.Post, error) {
	r.log.add("update:%s", id)
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.updateErr != nil {
		return nil, r.updateErr
	}
	post, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.Title != nil {
		post.Title = *patch.Title
	}
	if patch.Content != nil {
		post.Content = *patch.Content
	}
	if patch.FeaturedImageID != nil {
		post.FeaturedImageID = *patch.FeaturedImageID
	}
	if patch.Status != nil {
		post.Status = *patch.Status
	}
	post.UpdatedAt = post.UpdatedAt.Add(time.Second)
	r.posts[id] = post
	if r.afterUpdate != nil {
		r.afterUpdate()
	}
	return &post, nil
}

func (r *fakeRepo) DeletePost(ctx context.Context, id string) (bool, error) {
	r.log.add("deletePost:%s", id)
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return false, domain.ErrNotFound
	}
	delete(r.posts, id)
	return true, nil
}

func (r *fakeRepo) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.getErr != nil {
		return nil, r.getErr
	}
	post, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &post, nil
}

func (r *fakeRepo) GetPosts(ctx context.Context, opts ...domain.ListOption) ([]domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listErr != nil {
		return []domain.Post{}, r.listErr
	}

	options := domain.ResolveListOptions(opts...)
	posts := []domain.Post{}
	for _, p := range r.posts {
		if matchesFilters(p, options.Filters) {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func matchesFilters(p domain.Post, filters []domain.Filter) bool {
	for _, f := range filters {
		var got string
		switch f.Attribute {
		case domain.AttrStatus:
			got = string(p.Status)
		case domain.AttrAuthor:
			got = p.AuthorID
		default:
			return false
		}
		found := false
		for _, v := range f.Values {
			if v == got {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

const testPlaceholder = "https://cdn.example.com/placeholder.png"

type fakeMedia struct {
	log *callLog

	mu        sync.Mutex
	seq       int
	uploadErr error
	failOn    map[string]bool
	urls      map[string]string

	// When set, UploadFile signals started and waits for release.
	started chan struct{}
	release chan struct{}

	// When set, DeleteFile waits for it or for ctx to end.
	deleteGate chan struct{}
}

func newFakeMedia(log *callLog) *fakeMedia {
	return &fakeMedia{
		log:    log,
		failOn: make(map[string]bool),
		urls:   make(map[string]string),
	}
}

func (m *fakeMedia) UploadFile(ctx context.Context, f domain.FileUpload) (string, error) {
	m.log.add("upload")
	if m.started != nil {
		m.started <- struct{}{}
		<-m.release
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	m.seq++
	return fmt.Sprintf("file-%d", m.seq), nil
}

func (m *fakeMedia) DeleteFile(ctx context.Context, fileID string) bool {
	if m.deleteGate != nil {
		select {
		case <-m.deleteGate:
		case <-ctx.Done():
		}
	}
	if ctx.Err() != nil {
		m.log.add("deleteCanceled:%s", fileID)
		return false
	}
	m.log.add("delete:%s", fileID)
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.failOn[fileID]
}

func (m *fakeMedia) ResolveImageURL(ctx context.Context, fileID string, opts domain.ImageOptions) (string, bool) {
	if fileID == "" {
		return "", false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	url, ok := m.urls[fileID]
	return url, ok
}

func (m *fakeMedia) ImageURLOrPlaceholder(ctx context.Context, fileID string, opts domain.ImageOptions) domain.ImageView {
	if url, ok := m.ResolveImageURL(ctx, fileID, opts); ok {
		return domain.ImageView{URL: url}
	}
	return domain.ImageView{URL: testPlaceholder, Placeholder: true}
}

func testImage() *domain.FileUpload {
	return &domain.FileUpload{Name: "cover.png", ContentType: "image/png", Size: 4, Body: strings.NewReader("\x89PNG")}
}
