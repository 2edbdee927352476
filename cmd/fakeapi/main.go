// Command fakeapi runs the devmatch dev backend: the REST routes and the chat
// socket the client talks to.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"devmatch/client/internal/api/handler"
	"devmatch/client/internal/chathub"
	"devmatch/client/internal/config"
	"devmatch/client/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupStorage(cfg config.Server, logger *slog.Logger) storage.Storage {
	if cfg.DatabaseDSN == "" {
		logger.Info("using in-memory storage")
		return storage.NewMemory()
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}
	s := storage.NewStorageService(db)
	if err := s.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("postgres connected, migrations complete")
	return s
}

func setupBroadcaster(ctx context.Context, cfg config.Server, logger *slog.Logger) chathub.Broadcaster {
	if cfg.RedisAddr == "" {
		return chathub.NewLocalBroadcaster()
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}
	logger.Info("redis connected", slog.String("addr", cfg.RedisAddr))
	return chathub.NewRedisBroadcaster(rdb, config.BroadcastChannel, logger)
}

func main() {
	config.LoadEnvFile(nil)
	cfg, err := config.LoadServer(os.Getenv)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger := config.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := setupStorage(cfg, logger)
	if n, _ := strconv.Atoi(os.Getenv("SEED_USERS")); n > 0 {
		if _, err := storage.Seed(ctx, store, n, "devmatch", rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))); err != nil {
			logger.Warn("seeding stopped", slog.String("error", err.Error()))
		} else {
			logger.Info("seeded demo users", slog.Int("count", n), slog.String("password", "devmatch"))
		}
	}

	hub := chathub.NewManagerService(store, setupBroadcaster(ctx, cfg, logger), logger)
	h := handler.NewHandler(store, hub, cfg.JWTSecret, logger)

	server := &http.Server{
		Addr:           cfg.ListenAddr,
		Handler:        h.NewRouter(),
		ReadTimeout:    10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error {
		logger.Info("listening", slog.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("fakeapi stopped: %v", err)
	}
}
