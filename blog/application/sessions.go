package application

import (
	"sync"

	"github.com/dfryer1193/blogwrite/blog/domain"
)

const newPostKey = "new"

type sessionKey struct {
	userID string
	postID string
}

// FormSessions shares one PostForm per (user, post) so that concurrent
// requests for the same form hit the same in-flight guard.
type FormSessions struct {
	repo  domain.PostRepository
	media domain.MediaResolver
	cfg   FormConfig

	mu    sync.Mutex
	forms map[sessionKey]*PostForm
}

func NewFormSessions(repo domain.PostRepository, media domain.MediaResolver, cfg FormConfig) *FormSessions {
	return &FormSessions{
		repo:  repo,
		media: media,
		cfg:   cfg,
		forms: make(map[sessionKey]*PostForm),
	}
}

func keyFor(identity domain.Identity, post *domain.Post) sessionKey {
	key := sessionKey{userID: identity.UserID, postID: newPostKey}
	if post != nil {
		key.postID = post.ID
	}
	return key
}

// Open returns the form for the user and post, creating it if needed.
// A nil post opens the create form. An idle form still bound to an older
// copy of the post is replaced, so its values never leak into a new submit.
func (s *FormSessions) Open(identity domain.Identity, post *domain.Post) *PostForm {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := keyFor(identity, post)
	if form, ok := s.forms[key]; ok {
		if form.boundTo(post) || form.View().Submitting {
			return form
		}
		form.Dispose()
	}

	form := NewPostForm(s.repo, s.media, identity, post, s.cfg)
	s.forms[key] = form
	return form
}

// View renders the form for the user and post without opening a session.
// A form with a submission running on the same post is shown as is.
func (s *FormSessions) View(identity domain.Identity, post *domain.Post) FormView {
	s.mu.Lock()
	form, ok := s.forms[keyFor(identity, post)]
	s.mu.Unlock()

	if ok && form.boundTo(post) {
		return form.View()
	}
	return NewPostForm(s.repo, s.media, identity, post, s.cfg).View()
}

// Close disposes the form unless a submission is still running on it.
func (s *FormSessions) Close(identity domain.Identity, post *domain.Post, form *PostForm) {
	if form.View().Submitting {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := keyFor(identity, post)
	if current, ok := s.forms[key]; ok && current == form {
		delete(s.forms, key)
	}
	form.Dispose()
}

func (s *FormSessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.forms)
}
