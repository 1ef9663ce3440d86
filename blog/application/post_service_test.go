package application

import (
	"context"
	"testing"
	"time"

	"github.com/dfryer1193/blogwrite/blog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_DeletePost(t *testing.T) {
	withImage := existingPost()
	withoutImage := existingPost()
	withoutImage.ID = "plain-post"
	withoutImage.FeaturedImageID = ""

	tests := []struct {
		name      string
		identity  domain.Identity
		id        string
		wantOK    bool
		wantErr   error
		wantCalls []string
	}{
		{
			name:      "author deletes post and image",
			identity:  author,
			id:        withImage.ID,
			wantOK:    true,
			wantCalls: []string{"deletePost:existing-post", "delete:old-file"},
		},
		{
			name:      "post without image",
			identity:  author,
			id:        withoutImage.ID,
			wantOK:    true,
			wantCalls: []string{"deletePost:plain-post"},
		},
		{
			name:     "missing post deletes nothing",
			identity: author,
			id:       "nope",
			wantErr:  domain.ErrNotFound,
		},
		{
			name:     "other user is refused",
			identity: domain.Identity{UserID: "user-2"},
			id:       withImage.ID,
			wantErr:  domain.ErrForbidden,
		},
		{
			name:    "anonymous is refused",
			id:      withImage.ID,
			wantErr: domain.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &callLog{}
			repo := newFakeRepo(log, withImage, withoutImage)
			svc := NewPostService(repo, newFakeMedia(log))

			ok, err := svc.DeletePost(context.Background(), tt.identity, tt.id)
			require.NoError(t, svc.Close())

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantCalls == nil {
				assert.Empty(t, log.list())
			} else {
				assert.Equal(t, tt.wantCalls, log.list())
			}
		})
	}
}

func TestPostService_CloseWaitsForImageCleanup(t *testing.T) {
	log := &callLog{}
	media := newFakeMedia(log)
	media.deleteGate = make(chan struct{})
	svc := NewPostService(newFakeRepo(log, existingPost()), media)

	ok, err := svc.DeletePost(context.Background(), author, "existing-post")
	require.NoError(t, err)
	require.True(t, ok)

	closed := make(chan error, 1)
	go func() { closed <- svc.Close() }()

	select {
	case <-closed:
		t.Fatal("Close returned before the image cleanup finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(media.deleteGate)
	require.NoError(t, <-closed)
	assert.Equal(t, []string{"deletePost:existing-post", "delete:old-file"}, log.list())
}

func TestPostService_DeletedPostIsGone(t *testing.T) {
	log := &callLog{}
	repo := newFakeRepo(log, existingPost())
	svc := NewPostService(repo, newFakeMedia(log))
	defer svc.Close()

	ok, err := svc.DeletePost(context.Background(), author, "existing-post")
	require.NoError(t, err)
	require.True(t, ok)

	post, err := repo.GetPost(context.Background(), "existing-post")
	assert.Nil(t, post)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
