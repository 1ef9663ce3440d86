package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/dfryer1193/blogwrite/blog/domain"
	"github.com/rs/zerolog/log"
)

type FormState string

const (
	StateIdle       FormState = "idle"
	StateValidating FormState = "validating"
	StateUploading  FormState = "uploading"
	StatePersisting FormState = "persisting"
	StateSucceeded  FormState = "succeeded"
	StateFailed     FormState = "failed"
)

// Progress labels shown while a submission runs.
const (
	ProgressStarting   = "Starting..."
	ProgressUploading  = "Uploading image..."
	ProgressProcessing = "Processing image..."
	ProgressCreating   = "Creating post..."
	ProgressUpdating   = "Updating post..."
	ProgressCleanup    = "Cleaning up old image..."
	ProgressSuccess    = "Success! Redirecting..."
)

const (
	defaultRedirectDelay = time.Second
	genericSubmitError   = "Failed to submit. Please try again."
)

type FormConfig struct {
	RedirectDelay time.Duration
}

// Redirect is the navigation scheduled after a successful submission.
type Redirect struct {
	Path  string
	After time.Duration
}

// FormView is a point-in-time copy of the form for rendering.
type FormView struct {
	Mode        string
	State       FormState
	Values      FormValues
	Submitting  bool
	Progress    string
	Error       string
	FieldErrors map[string]string
	Redirect    *Redirect
}

// SubmitRequest starts a submission. Values, when set, replace the form
// values atomically with the in-flight check.
type SubmitRequest struct {
	Values *FormValues
	Image  *domain.FileUpload
}

// PostForm drives one create or edit form. At most one submission runs at a time.
type PostForm struct {
	repo     domain.PostRepository
	media    domain.MediaResolver
	identity domain.Identity
	cfg      FormConfig

	mu          sync.Mutex
	post        *domain.Post
	values      FormValues
	state       FormState
	submitting  bool
	submitted   bool
	progress    string
	errMsg      string
	fieldErrors map[string]string
	redirect    *Redirect
	navigator   func(path string)
	observer    func(from, to FormState)
	timer       *time.Timer
	disposed    bool
}

// NewPostForm opens a create form when post is nil, otherwise an edit form
// pinned to post.ID.
func NewPostForm(repo domain.PostRepository, media domain.MediaResolver, identity domain.Identity, post *domain.Post, cfg FormConfig) *PostForm {
	if cfg.RedirectDelay <= 0 {
		cfg.RedirectDelay = defaultRedirectDelay
	}

	f := &PostForm{
		repo:     repo,
		media:    media,
		identity: identity,
		cfg:      cfg,
		post:     post,
		state:    StateIdle,
		values:   FormValues{Status: domain.StatusActive},
	}
	if post != nil {
		f.values = FormValues{
			Title:   post.Title,
			Slug:    post.ID,
			Content: post.Content,
			Status:  post.Status,
		}
		if f.values.Status == "" {
			f.values.Status = domain.StatusActive
		}
	}
	return f
}

// OnNavigate attaches the callback fired once the redirect delay elapses.
func (f *PostForm) OnNavigate(navigate func(path string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigator = navigate
}

// OnTransition attaches an observer of state changes. It runs with the form
// locked and must not call back into the form.
func (f *PostForm) OnTransition(observe func(from, to FormState)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observer = observe
}

// SetTitle updates the title and, in create mode before the first success,
// re-derives the slug from it.
func (f *PostForm) SetTitle(title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitting {
		return domain.ErrSubmitInProgress
	}
	f.setTitleLocked(title)
	return nil
}

// SetSlug slugifies user input. It reports false when the slug is pinned.
func (f *PostForm) SetSlug(slug string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitting {
		return false, domain.ErrSubmitInProgress
	}
	return f.setSlugLocked(slug), nil
}

func (f *PostForm) SetContent(content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitting {
		return domain.ErrSubmitInProgress
	}
	f.values.Content = content
	return nil
}

func (f *PostForm) SetStatus(status domain.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitting {
		return domain.ErrSubmitInProgress
	}
	f.values.Status = status
	return nil
}

func (f *PostForm) setTitleLocked(title string) {
	f.values.Title = title
	if f.slugEditable() {
		f.values.Slug = Slugify(title)
	}
}

func (f *PostForm) setSlugLocked(slug string) bool {
	if !f.slugEditable() {
		return false
	}
	f.values.Slug = Slugify(slug)
	return true
}

func (f *PostForm) slugEditable() bool {
	return f.post == nil && !f.submitted && f.state == StateIdle
}

// fillLocked applies a full set of values. An empty slug is derived from the title.
func (f *PostForm) fillLocked(v FormValues) {
	f.setTitleLocked(v.Title)
	if strings.TrimSpace(v.Slug) != "" {
		f.setSlugLocked(v.Slug)
	}
	f.values.Content = v.Content
	f.values.Status = v.Status
	if f.values.Status == "" {
		f.values.Status = domain.StatusActive
	}
}

// Submit validates, uploads the new image if any, then creates or updates
// the post. A replaced image is deleted only after the update succeeded.
func (f *PostForm) Submit(ctx context.Context, req SubmitRequest) (*domain.Post, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, domain.ErrSubmitInProgress
	}
	if f.disposed {
		f.mu.Unlock()
		return nil, context.Canceled
	}
	if req.Values != nil {
		f.fillLocked(*req.Values)
	}
	f.submitting = true
	f.errMsg = ""
	f.fieldErrors = nil
	f.redirect = nil
	f.progress = ProgressStarting
	f.transitionLocked(StateValidating)
	values := f.values
	existing := f.post
	f.mu.Unlock()

	post, err := f.run(ctx, values, existing, req.Image)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitting = false

	if err != nil {
		f.failLocked(err)
		return nil, err
	}

	f.post = post
	f.submitted = true
	f.values.Slug = post.ID
	f.progress = ProgressSuccess
	f.redirect = &Redirect{Path: "/post/" + post.ID, After: f.cfg.RedirectDelay}
	f.transitionLocked(StateSucceeded)
	f.scheduleNavigationLocked(f.redirect.Path)
	return post, nil
}

func (f *PostForm) run(ctx context.Context, values FormValues, existing *domain.Post, image *domain.FileUpload) (*domain.Post, error) {
	if f.identity.IsZero() {
		return nil, domain.ErrForbidden
	}
	if existing != nil && existing.AuthorID != f.identity.UserID {
		return nil, domain.ErrForbidden
	}

	if err := newSubmission(values, image).validate(existing == nil); err != nil {
		return nil, err
	}

	if existing == nil {
		return f.create(ctx, values, image)
	}
	return f.update(ctx, values, existing, image)
}

func (f *PostForm) create(ctx context.Context, values FormValues, image *domain.FileUpload) (*domain.Post, error) {
	f.step(StateUploading, ProgressUploading)
	fileID, err := f.media.UploadFile(ctx, *image)
	if err != nil {
		return nil, err
	}

	f.step(StatePersisting, ProgressCreating)
	post, err := f.repo.CreatePost(ctx, domain.NewPost{
		ID:              values.Slug,
		Title:           values.Title,
		Content:         values.Content,
		FeaturedImageID: fileID,
		Status:          values.Status,
		AuthorID:        f.identity.UserID,
	})
	if err != nil {
		f.discardUpload(ctx, fileID)
		return nil, err
	}
	return post, nil
}

func (f *PostForm) update(ctx context.Context, values FormValues, existing *domain.Post, image *domain.FileUpload) (*domain.Post, error) {
	var newFileID string
	if image != nil {
		f.step(StateUploading, ProgressProcessing)
		id, err := f.media.UploadFile(ctx, *image)
		if err != nil {
			return nil, err
		}
		newFileID = id
	}

	f.step(StatePersisting, ProgressUpdating)
	patch := domain.PostPatch{
		Title:   &values.Title,
		Content: &values.Content,
		Status:  &values.Status,
	}
	if newFileID != "" {
		patch.FeaturedImageID = &newFileID
	}

	post, err := f.repo.UpdatePost(ctx, existing.ID, patch)
	if err != nil {
		if newFileID != "" {
			f.discardUpload(ctx, newFileID)
		}
		return nil, err
	}

	if newFileID != "" && existing.FeaturedImageID != "" && existing.FeaturedImageID != newFileID {
		f.step(StatePersisting, ProgressCleanup)
		// the update is stored, so the old file goes even if the caller has left
		if !f.media.DeleteFile(context.WithoutCancel(ctx), existing.FeaturedImageID) {
			log.Warn().Str("postID", existing.ID).Str("fileID", existing.FeaturedImageID).Msg("Old image left behind after update")
		}
	}
	return post, nil
}

// discardUpload removes an image that no document ended up referencing.
func (f *PostForm) discardUpload(ctx context.Context, fileID string) {
	if !f.media.DeleteFile(context.WithoutCancel(ctx), fileID) {
		log.Warn().Str("fileID", fileID).Msg("Failed to remove orphaned upload")
	}
}

func (f *PostForm) step(state FormState, progress string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = progress
	f.transitionLocked(state)
}

func (f *PostForm) failLocked(err error) {
	f.progress = ""

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		f.fieldErrors = verr.Fields
		f.transitionLocked(StateIdle)
		return
	}

	f.errMsg = submitErrorMessage(err)
	f.transitionLocked(StateFailed)
	f.transitionLocked(StateIdle)
}

func submitErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return "You can only edit your own posts"
	case errors.Is(err, domain.ErrConflict):
		return "A post with this slug already exists. Please choose another."
	case errors.Is(err, domain.ErrNotFound):
		return "Post not found"
	case errors.Is(err, domain.ErrUpload):
		return "Failed to upload image"
	}
	return genericSubmitError
}

func (f *PostForm) transitionLocked(to FormState) {
	from := f.state
	f.state = to
	if f.observer != nil && from != to {
		f.observer(from, to)
	}
}

func (f *PostForm) scheduleNavigationLocked(path string) {
	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = time.AfterFunc(f.cfg.RedirectDelay, func() {
		f.mu.Lock()
		navigate := f.navigator
		disposed := f.disposed
		f.mu.Unlock()

		if disposed || navigate == nil {
			return
		}
		navigate(path)
	})
}

// Dispose stops any pending navigation. Later submissions are refused.
func (f *PostForm) Dispose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disposed = true
	if f.timer != nil {
		f.timer.Stop()
	}
}

// boundTo reports whether the form edits this exact revision of post.
func (f *PostForm) boundTo(post *domain.Post) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.post == nil || post == nil:
		return f.post == nil && post == nil
	case f.post.ID != post.ID:
		return false
	}
	return f.post.CreatedAt.Equal(post.CreatedAt) && f.post.UpdatedAt.Equal(post.UpdatedAt)
}

func (f *PostForm) View() FormView {
	f.mu.Lock()
	defer f.mu.Unlock()

	mode := "create"
	if f.post != nil {
		mode = "edit"
	}

	var fieldErrors map[string]string
	if len(f.fieldErrors) > 0 {
		fieldErrors = make(map[string]string, len(f.fieldErrors))
		for k, v := range f.fieldErrors {
			fieldErrors[k] = v
		}
	}

	var redirect *Redirect
	if f.redirect != nil {
		r := *f.redirect
		redirect = &r
	}

	return FormView{
		Mode:        mode,
		State:       f.state,
		Values:      f.values,
		Submitting:  f.submitting,
		Progress:    f.progress,
		Error:       f.errMsg,
		FieldErrors: fieldErrors,
		Redirect:    redirect,
	}
}
