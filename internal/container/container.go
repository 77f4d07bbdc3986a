package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-rbac/config"
	repo "github.com/oksasatya/go-task-rbac/internal/domain/repository"
	"github.com/oksasatya/go-task-rbac/internal/infrastructure/firebase"
	"github.com/oksasatya/go-task-rbac/pkg/helpers"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	gcsClient   *storage.Client
	esClient    *elasticsearch.Client

	verifier   *firebase.Verifier
	claimStore repo.ClaimStore

	reconcilePub *helpers.RabbitPublisher
	emailPub     *helpers.RabbitPublisher
)

func SetConfig(c *config.Config)    { cfg = c }
func GetConfig() *config.Config     { return cfg }
func SetLogger(l *logrus.Logger)    { logger = l }
func GetLogger() *logrus.Logger     { return logger }
func SetPGPool(p *pgxpool.Pool)     { pgPool = p }
func GetPGPool() *pgxpool.Pool      { return pgPool }
func SetRedis(r *redis.Client)      { redisClient = r }
func GetRedis() *redis.Client       { return redisClient }
func SetGCS(s *storage.Client)      { gcsClient = s }
func GetGCS() *storage.Client       { return gcsClient }
func SetES(c *elasticsearch.Client) { esClient = c }
func GetES() *elasticsearch.Client  { return esClient }

func SetVerifier(v *firebase.Verifier) { verifier = v }
func GetVerifier() *firebase.Verifier  { return verifier }
func SetClaimStore(s repo.ClaimStore)  { claimStore = s }
func GetClaimStore() repo.ClaimStore   { return claimStore }

// Publishers are nil when RabbitMQ is not configured.
func SetReconcilePub(p *helpers.RabbitPublisher) { reconcilePub = p }
func GetReconcilePub() *helpers.RabbitPublisher  { return reconcilePub }
func SetEmailPub(p *helpers.RabbitPublisher)     { emailPub = p }
func GetEmailPub() *helpers.RabbitPublisher      { return emailPub }
