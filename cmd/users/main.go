package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ensp1re/Gigmee/config"
	"github.com/ensp1re/Gigmee/internal/queue"
	"github.com/ensp1re/Gigmee/internal/users"
	"github.com/ensp1re/Gigmee/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.AppMode)
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		cfg.Database.User, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Errorf("users: failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := users.NewRepository(pool)
	if err := repo.InitSchema(ctx); err != nil {
		log.Errorf("users: failed to apply schema: %v", err)
		os.Exit(1)
	}

	brokerConn := queue.NewConnection(cfg.Broker.URL, log)
	defer brokerConn.Close()
	producer := queue.NewProducer(brokerConn, log)
	consumer := queue.NewConsumer(brokerConn, log)

	service := users.NewService(repo, repo, repo, producer, log)
	if err := users.RegisterConsumers(ctx, consumer, producer, service, log); err != nil {
		log.Errorf("users: failed to register consumers: %v", err)
		os.Exit(1)
	}

	if cfg.AppMode == logger.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/users-health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Users service is healthy and OK."})
	})

	srv := &http.Server{Addr: ":" + cfg.Users.Port, Handler: engine}
	go func() {
		log.Infof("Users service running on port %s", cfg.Users.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("users server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	log.Infof("Shutting down users service")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
