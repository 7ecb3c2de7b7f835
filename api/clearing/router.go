package clearing

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kilianp07/gridmatch/core/logger"
)

// NewRouter mounts the handler on a gin engine. Requests must include an
// Authorization header with "Bearer <token>" when token is non-empty; the
// health check stays public.
func NewRouter(h *Handler, token string, log logger.Logger) *gin.Engine {
	if log == nil {
		log = logger.NopLogger{}
	}
	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Errorf("api panic on %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		abort(c, http.StatusInternalServerError, errors.New("internal error"))
	}))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/clearing", bearer(token))
	api.POST("/match", h.Match)
	api.GET("/logs", h.Logs)
	api.GET("/strategies", h.Strategies)
	return r
}

func bearer(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token != "" && c.GetHeader("Authorization") != "Bearer "+token {
			abort(c, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}
		c.Next()
	}
}
