package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
	handlers "github.com/oksasatya/go-task-rbac/internal/interface/http"
	"github.com/oksasatya/go-task-rbac/internal/interface/middleware"
)

// UserModule wires /users/me for any caller and /users/assign-role for admins.
type UserModule struct {
	Handler  *handlers.UserHandler
	Verifier middleware.TokenVerifier
	Redis    *redis.Client
}

func NewUserModule(h *handlers.UserHandler, v middleware.TokenVerifier, rdb *redis.Client) *UserModule {
	return &UserModule{Handler: h, Verifier: v, Redis: rdb}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(middleware.Auth(m.Verifier, m.Handler.Logger))
	users.Use(middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		users.GET("/me", m.Handler.Me)
		users.POST("/assign-role",
			middleware.RequireRole(entity.RoleAdmin),
			middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByUserID(), nil),
			m.Handler.AssignRole,
		)
	}
}
