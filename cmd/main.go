package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"insurance-core/internal/auth"
	"insurance-core/internal/config"
	"insurance-core/internal/database/minio"
	"insurance-core/internal/database/postgres"
	"insurance-core/internal/database/redis"
	"insurance-core/internal/event"
	"insurance-core/internal/handlers"
	"insurance-core/internal/models"
	"insurance-core/internal/repository"
	"insurance-core/internal/services"
	"insurance-core/internal/worker"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// bootstrapActor seeds the singleton rows on first start.
var bootstrapActor = models.Actor{ID: "bootstrap", Roles: []models.Role{models.RoleAdmin}}

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.New()

	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		log.Printf("error connect to database: %s", err)
		go postgres.RetryConnectOnFailed(30*time.Second, &db, cfg.PostgresCfg)
	}

	rabbitConn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rabbitConn.Close()
	publisher := event.NewAuditPublisher(rabbitConn)

	redisClient, err := redis.NewRedisClient(cfg.RedisCfg.Host, cfg.RedisCfg.Port, cfg.RedisCfg.Password, cfg.RedisCfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	minioClient, err := minio.NewMinioClient(cfg.MinioCfg)
	if err != nil {
		log.Fatalf("Failed to connect to MinIO: %v", err)
	}

	store := repository.NewStore(db)

	treasuryService := services.NewTreasuryService(store, publisher)
	poolService := services.NewRiskPoolService(store, publisher)
	policyService := services.NewPolicyService(store, publisher, treasuryService)
	claimService := services.NewClaimService(store, publisher, minioClient, policyService, poolService, treasuryService)

	bootstrap(cfg, treasuryService, poolService)

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	authMw := handlers.AuthMiddleware(jwtService)

	app := fiber.New()
	app.Get("/checkhealth", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Insurance core service is healthy")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.NewPolicyHandler(policyService).Register(app, authMw)
	handlers.NewClaimHandler(claimService).Register(app, authMw)
	handlers.NewPoolHandler(poolService).Register(app, authMw)
	handlers.NewTreasuryHandler(treasuryService).Register(app, authMw)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := worker.NewManager(redisClient, policyService, claimService, poolService, treasuryService, cfg.WorkerCfg)
	go manager.Run(ctx)

	go func() {
		slog.Info("starting insurance core service", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
}

// bootstrap creates the singleton treasury and pool rows on first start. An
// already-initialized component is left alone.
func bootstrap(cfg *config.CoreServiceConfig, treasury *services.TreasuryService, pool *services.RiskPoolService) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := treasury.Initialize(ctx, bootstrapActor, cfg.FeeBps, []models.FeeSource{
		models.SourcePolicyLedger,
		models.SourceClaimsProcessor,
		models.SourceSlashing,
	})
	if err != nil && !errors.Is(err, models.ErrAlreadyInitialized) {
		slog.Error("treasury bootstrap failed", "error", err)
	}

	err = pool.Initialize(ctx, bootstrapActor, cfg.PoolCfg.MinProviderStake)
	if err != nil && !errors.Is(err, models.ErrAlreadyInitialized) {
		slog.Error("risk pool bootstrap failed", "error", err)
	}
}
