package router

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-rbac/internal/application"
	"github.com/oksasatya/go-task-rbac/internal/container"
	"github.com/oksasatya/go-task-rbac/internal/infrastructure/gcs"
	pginfra "github.com/oksasatya/go-task-rbac/internal/infrastructure/postgres"
	"github.com/oksasatya/go-task-rbac/internal/infrastructure/search"
	handlers "github.com/oksasatya/go-task-rbac/internal/interface/http"
	"github.com/oksasatya/go-task-rbac/internal/interface/middleware"
	"github.com/oksasatya/go-task-rbac/internal/router/modules"
	mailtpl "github.com/oksasatya/go-task-rbac/pkg/mailer/templates"
)

// Deps is everything the HTTP modules need. A nil Redis disables rate limiting.
type Deps struct {
	Verifier     middleware.TokenVerifier
	Tasks        *application.TaskService
	Roles        *application.RoleService
	Redis        *redis.Client
	Logger       *logrus.Logger
	DebugMetrics bool
}

// Mount adds every feature module to the registry.
func Mount(r *Registry, d Deps) {
	r.Add(modules.NewTaskModule(handlers.NewTaskHandler(d.Tasks, d.Logger), d.Verifier, d.Redis))
	r.Add(modules.NewUserModule(handlers.NewUserHandler(d.Roles, d.Logger), d.Verifier, d.Redis))
	if d.DebugMetrics {
		r.Add(modules.NewDebugModule(d.Redis))
	}
}

func buildTaskService() *application.TaskService {
	cfg := container.GetConfig()
	svc := application.NewTaskService(pginfra.NewTaskRepository(container.GetPGPool()), nil, nil, container.GetLogger())
	if es := container.GetES(); es != nil {
		svc.Index = search.NewTaskIndex(es, cfg.ESTasksIndex)
	}
	if client := container.GetGCS(); client != nil && cfg.GCSBucket != "" {
		svc.Uploader = gcs.NewUploader(client, cfg.GCSBucket)
	}
	return svc
}

func buildRoleService() *application.RoleService {
	cfg := container.GetConfig()
	pool := container.GetPGPool()
	svc := application.NewRoleService(
		container.GetClaimStore(),
		pginfra.NewUserProfileRepository(pool),
		pginfra.NewAuditRepository(pool),
		container.GetLogger(),
	)
	if p := container.GetReconcilePub(); p != nil {
		svc.Reconciler = p
	}
	if p := container.GetEmailPub(); p != nil && cfg.MailSendEnabled {
		svc.Notifier = p
	}
	svc.Mail = mailtpl.Settings{
		AppName:        cfg.AppName,
		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		LogoURL:        cfg.LogoURL,
		SupportURL:     cfg.SupportURL,
		AppURL:         cfg.AppURL,
	}
	return svc
}

// InitModules initializes all application modules from the container and
// registers them with the router registry. Call once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	d := Deps{
		Verifier:     container.GetVerifier(),
		Tasks:        buildTaskService(),
		Roles:        buildRoleService(),
		Logger:       container.GetLogger(),
		DebugMetrics: cfg.DebugMetricsEnabled,
	}
	if cfg.RateLimitEnabled {
		d.Redis = container.GetRedis()
	}
	Mount(r, d)
}
