package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"billed-backend/config"
	"billed-backend/handlers"
	"billed-backend/logger"
	"billed-backend/repository"
	"billed-backend/service"
	"billed-backend/session"
	"billed-backend/storage"
	"billed-backend/store"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	// Load .env from the working directory, then from the project root (relative to cmd/server/)
	cfg, err := config.Load(".env", "../../.env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg, err := logger.New(cfg.Server.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	bills, users, closeDB, err := initRepositories(ctx, cfg, logg)
	if err != nil {
		logg.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer closeDB()

	// Initialize storage
	fileStorage, err := storage.NewStorage(ctx, storage.ConfigFrom(cfg), logg)
	if err != nil {
		logg.Fatal("Failed to initialize storage", zap.Error(err))
	}
	logg.Info("Storage initialized", zap.String("type", cfg.Storage.Type))

	// Initialize session store
	sessions, closeSessions, err := initSessions(ctx, cfg, logg)
	if err != nil {
		logg.Fatal("Failed to initialize session store", zap.Error(err))
	}
	defer closeSessions()

	// Initialize services
	backend := store.NewBackend(bills, fileStorage, logg)
	billsService := service.NewBillsService(service.BillsWithRepository(bills))

	// Initialize handlers
	gin.SetMode(gin.ReleaseMode)
	router, err := handlers.NewRouter(handlers.RouterConfig{
		Bills:              handlers.NewBillHandler(backend, billsService, fileStorage, cfg.App.MaxUploadSize, logg),
		Sessions:           handlers.NewSessionHandler(users, sessions),
		NewBill:            handlers.NewNewBillFormHandler(backend, sessions, cfg.App.SubmitTimeout, cfg.App.MaxUploadSize, logg),
		Log:                logg,
		RateLimitPerMinute: cfg.App.RateLimitPerMinute,
	})
	if err != nil {
		logg.Fatal("Failed to build router", zap.Error(err))
	}
	router.MaxMultipartMemory = cfg.App.MaxUploadSize

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logg.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logg.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("Graceful shutdown failed", zap.Error(err))
	}
}

func initRepositories(ctx context.Context, cfg *config.Config, logg *zap.Logger) (repository.BillRepository, repository.UserRepository, func(), error) {
	if cfg.Database.Driver == "postgres" {
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		logg.Info("Postgres connection established")
		return repository.NewPgBillRepository(pool), repository.NewPgUserRepository(pool), pool.Close, nil
	}

	db, err := repository.OpenSQL(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := repository.Migrate(db, cfg.Database.Driver); err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	logg.Info("Database connection established", zap.String("driver", cfg.Database.Driver))
	return repository.NewSQLBillRepository(db, cfg.Database.Driver),
		repository.NewSQLUserRepository(db),
		func() { db.Close() },
		nil
}

func initSessions(ctx context.Context, cfg *config.Config, logg *zap.Logger) (session.Store, func(), error) {
	if cfg.Session.Backend == "redis" {
		client, err := session.NewRedisClient(cfg.Session.RedisAddr, cfg.Session.RedisPassword, cfg.Session.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		logg.Info("Redis session store connected", zap.String("addr", cfg.Session.RedisAddr))
		return session.NewRedisStore(client, "billed:session:", cfg.Session.TTL), func() { client.Close() }, nil
	}

	mem, err := session.NewMemoryStore(cfg.Session.TTL, logg)
	if err != nil {
		return nil, nil, err
	}
	go mem.StartCleanup(ctx, time.Minute)
	return mem, func() {}, nil
}
