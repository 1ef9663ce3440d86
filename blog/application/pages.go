package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dfryer1193/blogwrite/blog/domain"
	"github.com/rs/zerolog/log"
)

type PageState string

const (
	PageLoading   PageState = "loading"
	PageError     PageState = "error"
	PageEmpty     PageState = "empty"
	PagePopulated PageState = "populated"
)

const (
	untitledPost       = "Untitled Post"
	noContent          = "No Content Available"
	listLoadError      = "Failed to load posts. Please try again."
	editRedirectDelay  = 2 * time.Second
	detailNotFound     = "Post Not Found"
	editNotFound       = "Post not found"
	editLoadError      = "Failed to load post"
	editForbiddenError = "You can only edit your own posts"
)

// Notice is the heading and hint shown in place of an empty list.
type Notice struct {
	Title       string
	Description string
}

var (
	homeEmpty = Notice{Title: "No blog posts yet.", Description: "Be the first to create a post!"}
	allEmpty  = Notice{Title: "No posts available", Description: "Check back later for new content"}
)

type PostCard struct {
	ID        string
	Title     string
	Excerpt   string
	Status    domain.Status
	AuthorID  string
	CreatedAt time.Time
	Image     domain.ImageView
}

type ListPage struct {
	State PageState
	Posts []PostCard
	Empty *Notice
	Error string
	Retry bool
}

// DetailImage is the featured image of the detail page. Loading stays set
// when resolution was interrupted; Error is set when the placeholder had
// to stand in for a stored image.
type DetailImage struct {
	domain.ImageView
	Loading bool
	Error   bool
}

type DetailPage struct {
	State       PageState
	Post        *domain.Post
	Title       string
	ContentHTML string
	Image       DetailImage
	IsAuthor    bool
	Error       string
	Redirect    *Redirect
}

type EditPage struct {
	State    PageState
	Post     *domain.Post
	Form     FormView
	Image    domain.ImageView
	Error    string
	Redirect *Redirect
}

// Pages builds the read models of the blog pages.
type Pages struct {
	repo     domain.PostRepository
	media    domain.MediaResolver
	sessions *FormSessions
}

func NewPages(repo domain.PostRepository, media domain.MediaResolver, sessions *FormSessions) *Pages {
	return &Pages{
		repo:     repo,
		media:    media,
		sessions: sessions,
	}
}

// Home lists active posts.
func (p *Pages) Home(ctx context.Context) (ListPage, error) {
	return p.list(ctx, homeEmpty)
}

// AllPosts lists posts of every status.
func (p *Pages) AllPosts(ctx context.Context) (ListPage, error) {
	return p.list(ctx, allEmpty, domain.WithFilters())
}

func (p *Pages) list(ctx context.Context, empty Notice, opts ...domain.ListOption) (ListPage, error) {
	posts, err := p.repo.GetPosts(ctx, opts...)
	if err != nil {
		return ListPage{State: PageError, Posts: []PostCard{}, Error: listLoadError, Retry: true}, err
	}

	cards := make([]PostCard, 0, len(posts))
	for _, post := range posts {
		cards = append(cards, p.card(ctx, post))
	}

	if len(cards) == 0 {
		return ListPage{State: PageEmpty, Posts: cards, Empty: &empty}, nil
	}
	return ListPage{State: PagePopulated, Posts: cards}, nil
}

func (p *Pages) card(ctx context.Context, post domain.Post) PostCard {
	return PostCard{
		ID:        post.ID,
		Title:     displayTitle(post.Title),
		Excerpt:   Excerpt(post.Content),
		Status:    post.Status,
		AuthorID:  post.AuthorID,
		CreatedAt: post.CreatedAt,
		Image:     p.media.ImageURLOrPlaceholder(ctx, post.FeaturedImageID, domain.CardImage),
	}
}

func displayTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return untitledPost
	}
	return title
}

// Detail loads one post. A missing post yields the not-found page with a
// redirect home alongside domain.ErrNotFound.
func (p *Pages) Detail(ctx context.Context, identity domain.Identity, id string) (DetailPage, error) {
	post, err := p.repo.GetPost(ctx, id)
	if err != nil {
		page := DetailPage{State: PageError, Error: detailNotFound}
		if errors.Is(err, domain.ErrNotFound) {
			page.Redirect = &Redirect{Path: "/"}
		}
		return page, err
	}

	page := DetailPage{
		State:       PagePopulated,
		Post:        post,
		Title:       displayTitle(post.Title),
		ContentHTML: post.Content,
		IsAuthor:    !identity.IsZero() && identity.UserID == post.AuthorID,
	}
	if strings.TrimSpace(page.ContentHTML) == "" {
		page.ContentHTML = noContent
	}
	page.Image = p.detailImage(ctx, post)
	return page, nil
}

func (p *Pages) detailImage(ctx context.Context, post *domain.Post) DetailImage {
	view := p.media.ImageURLOrPlaceholder(ctx, post.FeaturedImageID, domain.DetailImage)
	img := DetailImage{ImageView: view}
	if view.Placeholder && post.HasFeaturedImage() {
		if ctx.Err() != nil {
			img.Loading = true
		} else {
			img.Error = true
			log.Warn().Str("postID", post.ID).Str("fileID", post.FeaturedImageID).Msg("Featured image could not be resolved")
		}
	}
	return img
}

// Edit loads the edit form of a post for its author.
func (p *Pages) Edit(ctx context.Context, identity domain.Identity, id string) (EditPage, error) {
	if identity.IsZero() {
		return EditPage{State: PageError, Error: editForbiddenError}, domain.ErrForbidden
	}

	post, err := p.repo.GetPost(ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return EditPage{
			State:    PageError,
			Error:    editNotFound,
			Redirect: &Redirect{Path: "/", After: editRedirectDelay},
		}, err
	case err != nil:
		return EditPage{State: PageError, Error: editLoadError}, err
	}

	if post.AuthorID != identity.UserID {
		return EditPage{State: PageError, Error: editForbiddenError}, domain.ErrForbidden
	}

	return EditPage{
		State: PagePopulated,
		Post:  post,
		Form:  p.sessions.View(identity, post),
		Image: p.media.ImageURLOrPlaceholder(ctx, post.FeaturedImageID, domain.FormImage),
	}, nil
}
