package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dfryer1193/blogwrite/blog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPages(repo *fakeRepo, media *fakeMedia) *Pages {
	return NewPages(repo, media, NewFormSessions(repo, media, FormConfig{}))
}

func TestPages_HomeEmpty(t *testing.T) {
	log := &callLog{}
	pages := newTestPages(newFakeRepo(log), newFakeMedia(log))

	page, err := pages.Home(context.Background())
	require.NoError(t, err)

	assert.Equal(t, PageEmpty, page.State)
	assert.NotNil(t, page.Posts)
	require.NotNil(t, page.Empty)
	assert.Equal(t, "No blog posts yet.", page.Empty.Title)
	assert.Equal(t, "Be the first to create a post!", page.Empty.Description)
}

func TestPages_HomeShowsActivePostsOnly(t *testing.T) {
	log := &callLog{}
	active := existingPost()
	hidden := existingPost()
	hidden.ID = "hidden-post"
	hidden.Status = domain.StatusInactive
	untitled := existingPost()
	untitled.ID = "untitled"
	untitled.Title = "  "
	untitled.Content = "<h2>Heading</h2><p>Body text</p>"
	untitled.FeaturedImageID = ""

	media := newFakeMedia(log)
	media.urls["old-file"] = "https://files.example.com/old-file"
	pages := newTestPages(newFakeRepo(log, active, hidden, untitled), media)

	page, err := pages.Home(context.Background())
	require.NoError(t, err)
	require.Equal(t, PagePopulated, page.State)
	require.Len(t, page.Posts, 2)
	assert.Nil(t, page.Empty)

	// Newest first.
	assert.Equal(t, "untitled", page.Posts[0].ID)
	assert.Equal(t, "Untitled Post", page.Posts[0].Title)
	assert.Equal(t, "Heading Body text", page.Posts[0].Excerpt)
	assert.Equal(t, domain.ImageView{URL: testPlaceholder, Placeholder: true}, page.Posts[0].Image)

	assert.Equal(t, "existing-post", page.Posts[1].ID)
	assert.Equal(t, "Old", page.Posts[1].Excerpt)
	assert.Equal(t, domain.ImageView{URL: "https://files.example.com/old-file"}, page.Posts[1].Image)
}

func TestPages_AllPostsIncludesInactive(t *testing.T) {
	log := &callLog{}
	hidden := existingPost()
	hidden.Status = domain.StatusInactive
	pages := newTestPages(newFakeRepo(log, hidden), newFakeMedia(log))

	home, err := pages.Home(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PageEmpty, home.State)

	all, err := pages.AllPosts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PagePopulated, all.State)
	assert.Len(t, all.Posts, 1)
}

func TestPages_AllPostsEmptyNotice(t *testing.T) {
	log := &callLog{}
	pages := newTestPages(newFakeRepo(log), newFakeMedia(log))

	page, err := pages.AllPosts(context.Background())
	require.NoError(t, err)
	require.NotNil(t, page.Empty)
	assert.Equal(t, "No posts available", page.Empty.Title)
	assert.Equal(t, "Check back later for new content", page.Empty.Description)
}

func TestPages_ListError(t *testing.T) {
	log := &callLog{}
	repo := newFakeRepo(log)
	repo.listErr = domain.ErrRemoteUnavailable
	pages := newTestPages(repo, newFakeMedia(log))

	page, err := pages.Home(context.Background())
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.Equal(t, PageError, page.State)
	assert.Equal(t, "Failed to load posts. Please try again.", page.Error)
	assert.True(t, page.Retry)
	assert.NotNil(t, page.Posts)
}

func TestPages_Detail(t *testing.T) {
	log := &callLog{}
	post := existingPost()
	empty := existingPost()
	empty.ID = "empty-post"
	empty.Content = ""
	empty.FeaturedImageID = ""

	media := newFakeMedia(log)
	media.urls["old-file"] = "https://files.example.com/old-file"
	pages := newTestPages(newFakeRepo(log, post, empty), media)

	t.Run("author sees edit controls", func(t *testing.T) {
		page, err := pages.Detail(context.Background(), author, post.ID)
		require.NoError(t, err)
		assert.Equal(t, PagePopulated, page.State)
		assert.True(t, page.IsAuthor)
		assert.Equal(t, "<p>Old</p>", page.ContentHTML)
		assert.Equal(t, "https://files.example.com/old-file", page.Image.URL)
		assert.False(t, page.Image.Error)
		assert.False(t, page.Image.Loading)
	})

	t.Run("anonymous reader", func(t *testing.T) {
		page, err := pages.Detail(context.Background(), domain.Identity{}, post.ID)
		require.NoError(t, err)
		assert.False(t, page.IsAuthor)
	})

	t.Run("no content", func(t *testing.T) {
		page, err := pages.Detail(context.Background(), author, empty.ID)
		require.NoError(t, err)
		assert.Equal(t, "No Content Available", page.ContentHTML)
		assert.True(t, page.Image.Placeholder)
		assert.False(t, page.Image.Error, "a post without an image is not an error")
	})

	t.Run("not found", func(t *testing.T) {
		page, err := pages.Detail(context.Background(), author, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, PageError, page.State)
		assert.Equal(t, "Post Not Found", page.Error)
		require.NotNil(t, page.Redirect)
		assert.Equal(t, "/", page.Redirect.Path)
	})
}

func TestPages_DetailImageFailure(t *testing.T) {
	log := &callLog{}
	post := existingPost()
	pages := newTestPages(newFakeRepo(log, post), newFakeMedia(log))

	page, err := pages.Detail(context.Background(), author, post.ID)
	require.NoError(t, err)
	assert.True(t, page.Image.Placeholder)
	assert.True(t, page.Image.Error)
	assert.Equal(t, testPlaceholder, page.Image.URL)
}

func TestPages_Edit(t *testing.T) {
	log := &callLog{}
	post := existingPost()
	repo := newFakeRepo(log, post)

	t.Run("author gets the form", func(t *testing.T) {
		media := newFakeMedia(log)
		sessions := NewFormSessions(repo, media, FormConfig{})
		pages := NewPages(repo, media, sessions)

		page, err := pages.Edit(context.Background(), author, post.ID)
		require.NoError(t, err)
		assert.Zero(t, sessions.Len(), "viewing the edit page must not open a form session")
		assert.Equal(t, PagePopulated, page.State)
		assert.Equal(t, "edit", page.Form.Mode)
		assert.Equal(t, FormValues{
			Title:   post.Title,
			Slug:    post.ID,
			Content: post.Content,
			Status:  domain.StatusActive,
		}, page.Form.Values)
		assert.True(t, page.Image.Placeholder)
	})

	t.Run("other user is refused", func(t *testing.T) {
		pages := newTestPages(repo, newFakeMedia(log))
		page, err := pages.Edit(context.Background(), domain.Identity{UserID: "user-2"}, post.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.Equal(t, PageError, page.State)
	})

	t.Run("missing post redirects home", func(t *testing.T) {
		pages := newTestPages(repo, newFakeMedia(log))
		page, err := pages.Edit(context.Background(), author, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, "Post not found", page.Error)
		require.NotNil(t, page.Redirect)
		assert.Equal(t, Redirect{Path: "/", After: 2 * time.Second}, *page.Redirect)
	})

	t.Run("load failure", func(t *testing.T) {
		broken := newFakeRepo(log)
		broken.getErr = domain.ErrRemoteUnavailable
		pages := newTestPages(broken, newFakeMedia(log))
		page, err := pages.Edit(context.Background(), author, post.ID)
		assert.True(t, errors.Is(err, domain.ErrRemoteUnavailable))
		assert.Equal(t, "Failed to load post", page.Error)
		assert.Nil(t, page.Redirect)
	})
}

func TestPages_LoadAsTask(t *testing.T) {
	log := &callLog{}
	pages := newTestPages(newFakeRepo(log, existingPost()), newFakeMedia(log))

	task := Go(context.Background(), pages.Home, nil)
	page, err := task.Wait(context.Background())
	require.NoError(t, err)
	assert.Len(t, page.Posts, 1)
	assert.True(t, strings.HasPrefix(page.Posts[0].Title, "Existing"))
}
