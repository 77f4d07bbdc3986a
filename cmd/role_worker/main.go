package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-task-rbac/config"
	"github.com/oksasatya/go-task-rbac/internal/application"
	"github.com/oksasatya/go-task-rbac/internal/infrastructure/firebase"
	pginfra "github.com/oksasatya/go-task-rbac/internal/infrastructure/postgres"
	"github.com/oksasatya/go-task-rbac/internal/worker"
	"github.com/oksasatya/go-task-rbac/pkg/helpers"
)

// role_worker closes the gap left when a role claim was written but the
// profile upsert failed: it brings the profile in line with the current claim.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-role-worker", cfg.Env)

	if cfg.RabbitMQURL == "" || cfg.RabbitMQReconcileQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	claims, err := firebase.NewClaimStore(ctx, firebase.Credentials{
		File:        cfg.FirebaseCredentialsJSON,
		ProjectID:   cfg.FirebaseProjectID,
		ClientEmail: cfg.FirebaseClientEmail,
		PrivateKey:  cfg.FirebasePrivateKeyPEM(),
	})
	if err != nil {
		log.Fatalf("firebase admin: %v", err)
	}

	roles := application.NewRoleService(claims, pginfra.NewUserProfileRepository(pool), pginfra.NewAuditRepository(pool), logger)

	pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQReconcileQueue)
	if err != nil {
		log.Fatalf("amqp publisher: %v", err)
	}
	defer pub.Close()

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQReconcileQueue, 4)
	if err != nil {
		log.Fatalf("amqp consumer: %v", err)
	}
	defer consumer.Close()

	msgs, err := consumer.Deliveries()
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	h := &worker.ReconcileHandler{
		Roles:       roles,
		Requeue:     pub,
		MaxAttempts: cfg.ReconcileMaxAttempts,
		Backoff:     cfg.ReconcileBackoff,
		Logger:      logger,
	}

	logger.Infof("role worker listening on queue=%s", cfg.RabbitMQReconcileQueue)
	worker.Run(ctx, msgs, h.Handle, logger)
	logger.Info("role worker stopped")
}
