package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/dfryer1193/blogwrite/api"
	"github.com/dfryer1193/blogwrite/shared/store"
	"github.com/gin-gonic/gin"
)

const fileCacheControl = "public, max-age=31536000, immutable"

func (h *handler) viewFile(c *gin.Context) {
	body, info, err := h.Files.Open(c.Request.Context(), c.Param("bucket"), c.Param("id"))
	if err != nil {
		writeError(c, err, "", nil)
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, info.Size, info.ContentType, body, map[string]string{
		"Cache-Control": fileCacheControl,
	})
}

func (h *handler) previewFile(c *gin.Context) {
	if h.Previewer == nil {
		writeError(c, store.ErrTransformBlocked, "", nil)
		return
	}

	opts, err := previewOptions(c)
	if err == nil {
		err = store.ValidatePreviewOptions(opts)
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, api.Fail(api.CodeInvalidPreviewInput, err.Error(), nil))
		return
	}

	body, err := h.Previewer.Preview(c.Request.Context(), c.Param("bucket"), c.Param("id"), opts)
	if err != nil {
		writeError(c, err, "", nil)
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, -1, "image/jpeg", body, map[string]string{
		"Cache-Control": fileCacheControl,
	})
}

func previewOptions(c *gin.Context) (store.PreviewOptions, error) {
	opts := store.PreviewOptions{Gravity: c.Query("gravity")}

	for key, dst := range map[string]*int{
		"width":   &opts.Width,
		"height":  &opts.Height,
		"quality": &opts.Quality,
	} {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return opts, fmt.Errorf("%s must be an integer", key)
		}
		*dst = n
	}
	return opts, nil
}
