package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ensp1re/Gigmee/config"
	"github.com/ensp1re/Gigmee/internal/gateway"
	"github.com/ensp1re/Gigmee/internal/ws"
	"github.com/ensp1re/Gigmee/pkg/logger"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
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

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	hub := ws.NewHub()
	go hub.Run(ctx)

	cache := gateway.NewCache(redisClient, log)
	auth := gateway.NewAuthorizer(cfg.Gateway.JWTSecret)
	socketHandler := gateway.NewSocketHandler(hub, cache, auth, log)

	relay := gateway.NewRelay(cfg.Gateway.ChatSocketURL, hub, cfg.Gateway.RelayMaxAttempts, log)
	go relay.Run(ctx)

	if cfg.AppMode == logger.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/gateway-health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Gateway service is healthy and OK."})
	})
	engine.GET("/socket", socketHandler.Handle)

	srv := &http.Server{Addr: ":" + cfg.Gateway.Port, Handler: engine}
	go func() {
		log.Infof("Gateway service running on port %s", cfg.Gateway.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("gateway server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	log.Infof("Shutting down gateway service")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = redisClient.Close()
}
