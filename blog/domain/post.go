package domain

import (
	"context"
	"time"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Post represents a blog post
// The ID is the slug derived from the title at creation and never changes.
type Post struct {
	ID              string
	Title           string
	Content         string
	FeaturedImageID string
	Status          Status
	AuthorID        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (p *Post) HasFeaturedImage() bool {
	return p.FeaturedImageID != ""
}

// NewPost is the payload of CreatePost. An empty Status means active.
type NewPost struct {
	ID              string
	Title           string
	Content         string
	FeaturedImageID string
	Status          Status
	AuthorID        string
}

// PostPatch is a partial update. Nil fields are left untouched; a non-nil
// empty FeaturedImageID clears the image.
type PostPatch struct {
	Title           *string
	Content         *string
	FeaturedImageID *string
	Status          *Status
}

func (p PostPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.FeaturedImageID == nil && p.Status == nil
}

// Filter restricts GetPosts to posts whose attribute equals one of Values.
type Filter struct {
	Attribute string
	Values    []string
}

func StatusIs(statuses ...Status) Filter {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return Filter{Attribute: AttrStatus, Values: values}
}

func AuthorIs(userID string) Filter {
	return Filter{Attribute: AttrAuthor, Values: []string{userID}}
}

// Document attribute names of a stored post.
const (
	AttrTitle         = "title"
	AttrContent       = "content"
	AttrFeaturedImage = "featuredImage"
	AttrStatus        = "status"
	AttrAuthor        = "userId"
)

type ListOptions struct {
	Filters []Filter
	set     bool
}

type ListOption func(*ListOptions)

// WithFilters replaces the default active-only filter. Calling it with no
// filters lists posts of every status.
func WithFilters(filters ...Filter) ListOption {
	return func(o *ListOptions) {
		o.Filters = append(o.Filters, filters...)
		o.set = true
	}
}

// ResolveListOptions applies opts over the default of active posts only.
func ResolveListOptions(opts ...ListOption) ListOptions {
	var o ListOptions
	for _, opt := range opts {
		opt(&o)
	}
	if !o.set {
		o.Filters = []Filter{StatusIs(StatusActive)}
	}
	return o
}

type PostRepository interface {
	CreatePost(ctx context.Context, p NewPost) (*Post, error)
	UpdatePost(ctx context.Context, id string, patch PostPatch) (*Post, error)
	// DeletePost reports false with the reason when nothing was deleted.
	DeletePost(ctx context.Context, id string) (bool, error)
	// GetPost returns ErrNotFound with a nil post when id does not exist.
	GetPost(ctx context.Context, id string) (*Post, error)
	// GetPosts never returns a nil slice, even alongside an error.
	GetPosts(ctx context.Context, opts ...ListOption) ([]Post, error)
}
