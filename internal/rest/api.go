package rest

import (
	"context"

	"github.com/dfryer1193/blogwrite/blog/application"
	"github.com/dfryer1193/blogwrite/blog/domain"
	"github.com/dfryer1193/blogwrite/internal/middleware"
	"github.com/dfryer1193/blogwrite/shared/store"
	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the HTTP handlers need.
type Deps struct {
	Pages    *application.Pages
	Sessions *application.FormSessions
	Posts    *application.PostService
	Repo     domain.PostRepository
	Renderer application.ContentRenderer

	Files     store.Files
	Previewer store.Previewer

	JWTSecret string
	Ping      func(ctx context.Context) error
}

type handler struct {
	Deps
}

func NewApi(router *gin.Engine, deps Deps) {
	h := &handler{Deps: deps}

	router.GET("/healthz", h.health)

	requireIdentity := middleware.RequireIdentity()

	v1 := router.Group("api/v1", middleware.Authenticate(deps.JWTSecret))
	{
		v1.GET("/pages/home", h.homePage)
		v1.GET("/pages/posts", h.allPostsPage)
		v1.GET("/pages/posts/:id", h.detailPage)
		v1.GET("/pages/posts/:id/edit", requireIdentity, h.editPage)

		v1.GET("/slug", h.previewSlug)

		v1.POST("/posts", requireIdentity, h.createPost)
		v1.PUT("/posts/:id", requireIdentity, h.updatePost)
		v1.DELETE("/posts/:id", requireIdentity, h.deletePost)
	}

	files := router.Group("storage/buckets/:bucket/files/:id")
	{
		files.GET("/view", h.viewFile)
		files.GET("/preview", h.previewFile)
	}
}
