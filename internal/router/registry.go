package router

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-task-rbac/internal/interface/http"
)

// Module mounts one resource's routes (tasks, users, debug) under /api.
type Module interface {
	Register(api *gin.RouterGroup)
}

// Registry collects modules and the middleware shared by every /api route.
type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	middlewares []gin.HandlerFunc
	modules     []Module
}

// NewRegistry mounts /health on the engine and groups feature modules under /api.
func NewRegistry(engine *gin.Engine) *Registry {
	engine.GET("/health", handlers.Health)
	api := engine.Group("/api")
	return &Registry{Engine: engine, API: api}
}

func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

func (r *Registry) RegisterAll() {
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(r.API)
	}
}
