package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/dfryer1193/blogwrite/api"
	"github.com/dfryer1193/blogwrite/blog/domain"
	"github.com/dfryer1193/blogwrite/shared/store"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type failure struct {
	status  int
	code    string
	message string
}

func classify(err error) failure {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return failure{http.StatusBadRequest, api.CodeValidation, "Please fix the highlighted fields"}
	case errors.Is(err, domain.ErrForbidden):
		return failure{http.StatusForbidden, api.CodeForbidden, "You can only edit your own posts"}
	case errors.Is(err, domain.ErrNotFound):
		return failure{http.StatusNotFound, api.CodeNotFound, "Post not found"}
	case errors.Is(err, domain.ErrConflict):
		return failure{http.StatusConflict, api.CodeConflict, "A post with this slug already exists"}
	case errors.Is(err, domain.ErrSubmitInProgress):
		return failure{http.StatusConflict, api.CodeSubmitInProgress, "A submission is already in progress"}
	case errors.Is(err, domain.ErrRemoteUnavailable), errors.Is(err, store.ErrUnavailable):
		return failure{http.StatusServiceUnavailable, api.CodeUnavailable, "Service temporarily unavailable"}
	case errors.Is(err, domain.ErrUpload):
		return failure{http.StatusUnprocessableEntity, api.CodeUploadFailed, "Failed to upload image"}
	case errors.Is(err, store.ErrTransformBlocked):
		return failure{http.StatusForbidden, api.CodeTransformationsOff, "Image transformations are blocked on this project"}
	case errors.Is(err, store.ErrFileNotFound):
		return failure{http.StatusNotFound, api.CodeFileNotFound, "File not found"}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return failure{http.StatusServiceUnavailable, api.CodeUnavailable, "Request cancelled"}
	}
	return failure{http.StatusInternalServerError, api.CodeInternal, "Internal server error"}
}

// writeError maps err to a status and writes the error envelope. An empty
// message uses the default text for the error class.
func writeError(c *gin.Context, err error, message string, details any) {
	f := classify(err)
	if message == "" {
		message = f.message
	}

	_ = c.Error(err)
	if f.status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	}

	c.AbortWithStatusJSON(f.status, api.Fail(f.code, message, details))
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, api.Fail(api.CodeBadRequest, message, nil))
}
