package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"estate-market/internal/app"
	"estate-market/internal/core/config"
	"estate-market/internal/core/logger"
	"estate-market/internal/core/server"
	"estate-market/internal/transport/http/router"
)

// The admin listener binds to loopback by default and only serves
// moderation routes; tokens must carry the admin role.
func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad(os.Getenv("CONFIG_PATH"))
	log, cleanup := logger.New(cfg.Log)
	defer cleanup()
	log = log.Named("admin")
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()
	gin.DefaultWriter = logger.ToWriter(log, zapcore.DebugLevel)
	gin.DefaultErrorWriter = logger.ToWriter(log, zapcore.ErrorLevel)

	ctx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	deps, closeAll, err := app.Build(ctx, cfg, log)
	stop()
	if err != nil {
		log.Fatal("bootstrap failed", zap.Error(err))
	}

	r := router.NewAdminEngine(deps)

	errLog, _ := logger.ToStdLogger(log, zapcore.ErrorLevel)
	addr := server.Addr(cfg.App.Admin.Host, cfg.App.Admin.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
		errLog,
	)
	log.Info("admin api starting", zap.String("addr", addr), zap.String("config", app.Describe(cfg)))

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("admin api start failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdown); err != nil {
		log.Warn("admin api shutdown", zap.Error(err))
	}
	closeAll(shutdown)
	log.Info("admin api stopped gracefully")
}
