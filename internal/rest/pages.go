package rest

import (
	"context"
	"net/http"

	"github.com/dfryer1193/blogwrite/api"
	"github.com/dfryer1193/blogwrite/blog/application"
	"github.com/dfryer1193/blogwrite/blog/domain"
	"github.com/dfryer1193/blogwrite/internal/middleware"
	"github.com/gin-gonic/gin"
)

// loadPage runs load as a task bound to the request. If the client goes
// away first the task is cancelled and its result dropped.
func loadPage[T any](c *gin.Context, load func(ctx context.Context) (T, error)) (T, error) {
	ctx := c.Request.Context()
	task := application.Go(ctx, load, nil)
	defer task.Cancel()
	return task.Wait(ctx)
}

func (h *handler) homePage(c *gin.Context) {
	h.listPage(c, h.Pages.Home)
}

func (h *handler) allPostsPage(c *gin.Context) {
	h.listPage(c, h.Pages.AllPosts)
}

func (h *handler) listPage(c *gin.Context, load func(context.Context) (application.ListPage, error)) {
	page, err := loadPage(c, load)
	if err != nil {
		if page.State == "" {
			writeError(c, err, "", nil)
			return
		}
		writeError(c, err, page.Error, toListPage(page))
		return
	}
	c.JSON(http.StatusOK, api.OK(toListPage(page)))
}

func (h *handler) detailPage(c *gin.Context) {
	identity := middleware.Identity(c)
	id := c.Param("id")

	page, err := loadPage(c, func(ctx context.Context) (application.DetailPage, error) {
		return h.Pages.Detail(ctx, identity, id)
	})
	if err != nil {
		if page.State == "" {
			writeError(c, err, "", nil)
			return
		}
		writeError(c, err, page.Error, toDetailPage(page))
		return
	}
	c.JSON(http.StatusOK, api.OK(toDetailPage(page)))
}

func (h *handler) editPage(c *gin.Context) {
	identity := middleware.Identity(c)
	id := c.Param("id")

	page, err := loadPage(c, func(ctx context.Context) (application.EditPage, error) {
		return h.Pages.Edit(ctx, identity, id)
	})
	if err != nil {
		if page.State == "" {
			writeError(c, err, "", nil)
			return
		}
		writeError(c, err, page.Error, toEditPage(page))
		return
	}
	c.JSON(http.StatusOK, api.OK(toEditPage(page)))
}

func (h *handler) health(c *gin.Context) {
	if h.Ping != nil {
		if err := h.Ping(c.Request.Context()); err != nil {
			writeError(c, domain.ErrRemoteUnavailable, "Database unreachable", nil)
			return
		}
	}
	c.JSON(http.StatusOK, api.OK(gin.H{"status": "ok"}))
}
