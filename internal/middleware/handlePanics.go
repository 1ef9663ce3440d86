package middleware

import (
	"fmt"
	"net/http"

	"github.com/dfryer1193/blogwrite/api"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// HandlePanics is the recovery callback for gin.CustomRecovery. Panic details
// are logged, never sent to the client.
func HandlePanics() gin.RecoveryFunc {
	return func(c *gin.Context, recovered any) {
		event := log.Error().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path)
		if err, ok := recovered.(error); ok {
			event = event.Err(err)
		} else {
			event = event.Str("panic", fmt.Sprint(recovered))
		}
		event.Msg("Panic recovered")

		c.AbortWithStatusJSON(http.StatusInternalServerError, api.Fail(api.CodeInternal, "Internal server error", nil))
	}
}
