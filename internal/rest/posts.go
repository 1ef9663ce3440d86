package rest

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/dfryer1193/blogwrite/api"
	"github.com/dfryer1193/blogwrite/blog/application"
	"github.com/dfryer1193/blogwrite/blog/domain"
	"github.com/dfryer1193/blogwrite/internal/middleware"
	"github.com/gin-gonic/gin"
)

func (h *handler) previewSlug(c *gin.Context) {
	title := c.Query("title")
	c.JSON(http.StatusOK, api.OK(api.SlugPreview{Title: title, Slug: application.Slugify(title)}))
}

func (h *handler) createPost(c *gin.Context) {
	identity := middleware.Identity(c)

	values := application.FormValues{
		Title:  c.PostForm("title"),
		Slug:   c.PostForm("slug"),
		Status: domain.Status(c.PostForm("status")),
	}
	content, ok := h.content(c, "")
	if !ok {
		return
	}
	values.Content = content

	image, closeImage, ok := formImage(c)
	if !ok {
		return
	}
	defer closeImage()

	form := h.Sessions.Open(identity, nil)
	defer h.Sessions.Close(identity, nil, form)

	h.submit(c, form, values, image, http.StatusCreated)
}

func (h *handler) updatePost(c *gin.Context) {
	identity := middleware.Identity(c)

	post, err := h.Repo.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "", nil)
		return
	}

	form := h.Sessions.Open(identity, post)
	defer h.Sessions.Close(identity, post, form)

	// Fields left out of the request keep their stored values.
	values := form.View().Values
	if title, ok := c.GetPostForm("title"); ok {
		values.Title = title
	}
	if status, ok := c.GetPostForm("status"); ok {
		values.Status = domain.Status(status)
	}
	content, ok := h.content(c, values.Content)
	if !ok {
		return
	}
	values.Content = content

	image, closeImage, ok := formImage(c)
	if !ok {
		return
	}
	defer closeImage()

	h.submit(c, form, values, image, http.StatusOK)
}

func (h *handler) submit(c *gin.Context, form *application.PostForm, values application.FormValues, image *domain.FileUpload, status int) {
	post, err := form.Submit(c.Request.Context(), application.SubmitRequest{
		Values: &values,
		Image:  image,
	})

	if errors.Is(err, domain.ErrSubmitInProgress) {
		writeError(c, err, "", nil)
		return
	}

	view := toFormView(form.View())
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			writeError(c, err, "", gin.H{"fields": verr.Fields, "form": view})
			return
		}
		writeError(c, err, view.Error, gin.H{"form": view})
		return
	}

	c.JSON(status, api.OK(api.SubmitResult{Post: *toPost(post), Form: view}))
}

// content reads the content field, rendering markdown when asked. fallback
// is used when the field is absent.
func (h *handler) content(c *gin.Context, fallback string) (string, bool) {
	content, present := c.GetPostForm("content")
	if !present {
		return fallback, true
	}

	html, err := h.Renderer.Render(content, strings.ToLower(c.PostForm("content_format")))
	if err != nil {
		badRequest(c, err.Error())
		return "", false
	}
	return html, true
}

// formImage opens the optional image field. The returned func closes it.
func formImage(c *gin.Context) (*domain.FileUpload, func(), bool) {
	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, true
	}
	if err != nil {
		badRequest(c, "Invalid image upload")
		return nil, nil, false
	}

	file, err := header.Open()
	if err != nil {
		badRequest(c, "Invalid image upload")
		return nil, nil, false
	}

	return uploadFrom(header, file), func() { _ = file.Close() }, true
}

func uploadFrom(header *multipart.FileHeader, file multipart.File) *domain.FileUpload {
	return &domain.FileUpload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
}

func (h *handler) deletePost(c *gin.Context) {
	id := c.Param("id")

	deleted, err := h.Posts.DeletePost(c.Request.Context(), middleware.Identity(c), id)
	if err != nil {
		writeError(c, err, "", nil)
		return
	}
	c.JSON(http.StatusOK, api.OK(api.DeleteResult{ID: id, Deleted: deleted}))
}
