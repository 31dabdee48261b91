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
	"github.com/ensp1re/Gigmee/internal/chat"
	"github.com/ensp1re/Gigmee/internal/queue"
	"github.com/ensp1re/Gigmee/internal/ws"
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
		log.Errorf("chat: failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := chat.NewRepository(pool)
	if err := repo.InitSchema(ctx); err != nil {
		log.Errorf("chat: failed to apply schema: %v", err)
		os.Exit(1)
	}

	brokerConn := queue.NewConnection(cfg.Broker.URL, log)
	defer brokerConn.Close()
	producer := queue.NewProducer(brokerConn, log)

	hub := ws.NewHub()
	go hub.Run(ctx)

	service := chat.NewMessageService(repo, producer, hub, log)
	handler := chat.NewHandler(service, log)
	socketHandler := chat.NewSocketHandler(hub, log)

	if cfg.AppMode == logger.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/chat-health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Chat service is healthy and OK."})
	})
	engine.GET("/socket", socketHandler.Handle)
	handler.RegisterRoutes(engine)

	srv := &http.Server{Addr: ":" + cfg.Chat.Port, Handler: engine}
	go func() {
		log.Infof("Chat service running on port %s", cfg.Chat.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("chat server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	log.Infof("Shutting down chat service")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}
