package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dfryer1193/blogwrite/blog/domain"
	"github.com/dfryer1193/blogwrite/shared/store"
	"github.com/rs/zerolog/log"
)

var _ domain.PostRepository = (*PostRepository)(nil)

// PostRepository implements domain.PostRepository on a document store.
// It holds no state beyond the collection it writes to.
type PostRepository struct {
	docs store.Documents
	coll store.Collection
}

func NewPostRepository(docs store.Documents, coll store.Collection) *PostRepository {
	return &PostRepository{
		docs: docs,
		coll: coll,
	}
}

// CreatePost stores a new post under p.ID.
func (r *PostRepository) CreatePost(ctx context.Context, p domain.NewPost) (*domain.Post, error) {
	if p.Status == "" {
		p.Status = domain.StatusActive
	}
	if err := validateNewPost(p); err != nil {
		return nil, err
	}

	doc, err := r.docs.Create(ctx, r.coll, p.ID, map[string]any{
		domain.AttrTitle:         p.Title,
		domain.AttrContent:       p.Content,
		domain.AttrFeaturedImage: nullable(p.FeaturedImageID),
		domain.AttrStatus:        string(p.Status),
		domain.AttrAuthor:        p.AuthorID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create post %s: %w", p.ID, translate(err))
	}

	return toPost(doc), nil
}

// UpdatePost applies the non-nil fields of patch. The author is never changed.
func (r *PostRepository) UpdatePost(ctx context.Context, id string, patch domain.PostPatch) (*domain.Post, error) {
	if id == "" {
		return nil, domain.NewValidationError("id", "post ID cannot be empty")
	}

	fields := map[string]any{}
	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, domain.NewValidationError("title", "title cannot be empty")
		}
		fields[domain.AttrTitle] = *patch.Title
	}
	if patch.Content != nil {
		fields[domain.AttrContent] = *patch.Content
	}
	if patch.FeaturedImageID != nil {
		fields[domain.AttrFeaturedImage] = nullable(*patch.FeaturedImageID)
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, domain.NewValidationError("status", fmt.Sprintf("unknown status %q", *patch.Status))
		}
		fields[domain.AttrStatus] = string(*patch.Status)
	}

	var (
		doc *store.Document
		err error
	)
	if len(fields) == 0 {
		doc, err = r.docs.Get(ctx, r.coll, id)
	} else {
		doc, err = r.docs.Update(ctx, r.coll, id, fields)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update post %s: %w", id, translate(err))
	}

	return toPost(doc), nil
}

// DeletePost removes the post document. Its featured image is left to the caller.
func (r *PostRepository) DeletePost(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, domain.NewValidationError("id", "post ID cannot be empty")
	}

	if err := r.docs.Delete(ctx, r.coll, id); err != nil {
		err = translate(err)
		log.Warn().Err(err).Str("postID", id).Msg("Failed to delete post")
		return false, fmt.Errorf("failed to delete post %s: %w", id, err)
	}
	return true, nil
}

func (r *PostRepository) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}

	doc, err := r.docs.Get(ctx, r.coll, id)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err != nil {
		log.Error().Err(err).Str("postID", id).Msg("Failed to get post")
		return nil, fmt.Errorf("%w: get post %s", domain.ErrRemoteUnavailable, id)
	}

	return toPost(doc), nil
}

// GetPosts lists posts newest first. Without options only active posts are returned.
func (r *PostRepository) GetPosts(ctx context.Context, opts ...domain.ListOption) ([]domain.Post, error) {
	options := domain.ResolveListOptions(opts...)

	queries := make([]store.Query, 0, len(options.Filters))
	for _, f := range options.Filters {
		values := make([]any, len(f.Values))
		for i, v := range f.Values {
			values[i] = v
		}
		queries = append(queries, store.Equal(f.Attribute, values...))
	}

	list, err := r.docs.List(ctx, r.coll, queries...)
	if err != nil {
		log.Error().Err(err).Str("collection", r.coll.String()).Msg("Failed to list posts")
		return []domain.Post{}, fmt.Errorf("%w: list posts", domain.ErrRemoteUnavailable)
	}

	posts := make([]domain.Post, 0, len(list.Documents))
	for i := range list.Documents {
		posts = append(posts, *toPost(&list.Documents[i]))
	}
	return posts, nil
}

func validateNewPost(p domain.NewPost) error {
	fields := map[string]string{}
	if p.ID == "" {
		fields["id"] = "post ID cannot be empty"
	}
	if p.Title == "" {
		fields["title"] = "title cannot be empty"
	}
	if p.AuthorID == "" {
		fields["userId"] = "author cannot be empty"
	}
	if !p.Status.Valid() {
		fields["status"] = fmt.Sprintf("unknown status %q", p.Status)
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// translate maps store errors onto domain errors, keeping the cause.
func translate(err error) error {
	switch {
	case errors.Is(err, store.ErrDocumentNotFound):
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	case errors.Is(err, store.ErrDocumentExists):
		return fmt.Errorf("%w: %w", domain.ErrConflict, err)
	case errors.Is(err, store.ErrUnavailable):
		return fmt.Errorf("%w: %w", domain.ErrRemoteUnavailable, err)
	}
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func toPost(doc *store.Document) *domain.Post {
	return &domain.Post{
		ID:              doc.ID,
		Title:           doc.String(domain.AttrTitle),
		Content:         doc.String(domain.AttrContent),
		FeaturedImageID: doc.String(domain.AttrFeaturedImage),
		Status:          domain.Status(doc.String(domain.AttrStatus)),
		AuthorID:        doc.String(domain.AttrAuthor),
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       orCreated(doc.UpdatedAt, doc.CreatedAt),
	}
}

func orCreated(updated, created time.Time) time.Time {
	if updated.IsZero() {
		return created
	}
	return updated
}
