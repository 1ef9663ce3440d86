package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/dfryer1193/blogwrite/blog/domain"
	"github.com/rs/zerolog/log"
)

type PostService struct {
	repo  domain.PostRepository
	media domain.MediaResolver

	// Service lifecycle context - cancelled when Close() is called
	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

func NewPostService(repo domain.PostRepository, media domain.MediaResolver) *PostService {
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}
	return &PostService{
		repo:   repo,
		media:  media,
		ctx:    ctx,
		cancel: cancel,
		wg:     &wg,
	}
}

// Close waits for queued image cleanups to finish, then releases the
// lifecycle context.
func (s *PostService) Close() error {
	s.wg.Wait()
	s.cancel()

	return nil
}

// DeletePost removes the post document and then, in the background, its
// featured image. Only the author may delete a post.
// Image cleanup uses the service's lifecycle context, not the request context.
func (s *PostService) DeletePost(ctx context.Context, identity domain.Identity, id string) (bool, error) {
	if identity.IsZero() {
		return false, domain.ErrForbidden
	}

	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		return false, err
	}
	if post.AuthorID != identity.UserID {
		return false, domain.ErrForbidden
	}

	deleted, err := s.repo.DeletePost(ctx, id)
	if !deleted {
		if err == nil {
			err = fmt.Errorf("post %s was not deleted", id)
		}
		return false, err
	}

	if post.HasFeaturedImage() {
		fileID := post.FeaturedImageID
		s.wg.Go(func() {
			if !s.media.DeleteFile(s.ctx, fileID) {
				log.Error().Str("postID", id).Str("fileID", fileID).Msg("Failed to delete featured image")
			}
		})
	}

	log.Info().Str("postID", id).Str("userID", identity.UserID).Msg("Post deleted")
	return true, nil
}
