package v1

import (
	"github.com/gin-gonic/gin"

	"keygate-server/internal/infrastructure/auth"
	"keygate-server/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
	auth     *auth.Validator
}

func NewRoutes(provider *handlers.Provider, authValidator *auth.Validator) *Routes {
	return &Routes{handlers: provider, auth: authValidator}
}

// Register attaches all v1 routes under /v1 prefix. The validation
// route stays public; management routes go through the caller-layer
// capability check.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")

	group.POST("/validate", r.handlers.Validation.Validate)

	keys := group.Group("/keys")
	if r.auth != nil {
		keys.Use(r.auth.Middleware())
	}
	keys.POST("", r.handlers.Keys.Issue)
	keys.GET("", r.handlers.Keys.List)
	keys.GET("/:key", r.handlers.Keys.Stats)
	keys.DELETE("/:key", r.handlers.Keys.Revoke)
}
