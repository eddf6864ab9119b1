package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-engine/internal/api"
	"recipe-engine/internal/infrastructure/config"
	"recipe-engine/internal/infrastructure/store"
	"recipe-engine/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定（內含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("store_driver", cfg.Store.Driver),
		zap.Bool("openrouter_enabled", cfg.OpenRouter.Enabled),
		zap.String("openrouter_model", cfg.OpenRouter.Model),
	)

	// 初始化儲存
	openCtx, cancelOpen := context.WithTimeout(context.Background(), 10*time.Second)
	kv, err := store.Open(openCtx, cfg.Store)
	cancelOpen()
	if err != nil {
		common.LogFatal("Failed to open store", zap.Error(err))
	}
	defer kv.Close()

	// 設置路由
	router, err := api.SetupRouter(cfg, api.NewServices(cfg, kv))
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}
