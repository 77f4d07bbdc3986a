package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-task-rbac/internal/domain/entity"
	handlers "github.com/oksasatya/go-task-rbac/internal/interface/http"
	"github.com/oksasatya/go-task-rbac/internal/interface/middleware"
)

// TaskModule wires task routes. Every route needs a verified token;
// delete and export additionally need the admin role.
type TaskModule struct {
	Handler  *handlers.TaskHandler
	Verifier middleware.TokenVerifier
	Redis    *redis.Client
}

func NewTaskModule(h *handlers.TaskHandler, v middleware.TokenVerifier, rdb *redis.Client) *TaskModule {
	return &TaskModule{Handler: h, Verifier: v, Redis: rdb}
}

func (m *TaskModule) Register(rg *gin.RouterGroup) {
	tasks := rg.Group("/tasks")
	tasks.Use(middleware.Auth(m.Verifier, m.Handler.Logger))
	tasks.Use(middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		tasks.GET("", m.Handler.List)
		tasks.POST("", m.Handler.Create)
		tasks.GET("/search", m.Handler.Search)
		tasks.PUT("/:id", m.Handler.Update)

		admin := tasks.Group("")
		admin.Use(middleware.RequireRole(entity.RoleAdmin))
		admin.DELETE("/:id", m.Handler.Delete)
		admin.POST("/export", middleware.RateLimit(m.Redis, 5, time.Minute, middleware.KeyByUserID(), nil), m.Handler.Export)
	}
}
