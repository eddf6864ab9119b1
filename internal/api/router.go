package api

import (
	"context"
	"net/http"
	"time"

	cacheHandler "recipe-engine/internal/api/handlers/cache"
	dictionaryHandler "recipe-engine/internal/api/handlers/dictionary"
	"recipe-engine/internal/api/handlers/health"
	ingredientHandler "recipe-engine/internal/api/handlers/ingredient"
	"recipe-engine/internal/api/middleware"
	"recipe-engine/internal/infrastructure/config"
	"recipe-engine/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	// 超時設置
	timeoutDuration = 60 * time.Second
	// 請求體大小限制 (1MB)
	maxBodySize = 1 << 20
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc *Services) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(maxBodySize))
	router.Use(requestTimeout(timeoutDuration))

	// 健康檢查與指標
	healthHandler := health.NewHandler(cfg, svc.Store, svc.Generator)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API 路由組
	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	dedup := middleware.Deduplication(middleware.NewDeduplicator(cfg.RateLimit.DedupWindow))
	{
		ingredients := ingredientHandler.NewHandler(svc.Resolver)
		ingredientGroup := api.Group("/ingredients")
		{
			ingredientGroup.POST("/resolve", ingredients.HandleResolve)
			ingredientGroup.POST("/nutrition", ingredients.HandleNutrition)
		}

		dict := dictionaryHandler.NewHandler(svc.Dictionary, svc.Translations)
		dictionaryGroup := api.Group("/dictionary")
		{
			dictionaryGroup.GET("", dict.HandleReverseLookup)
			dictionaryGroup.GET("/:term", dict.HandleLookup)
			dictionaryGroup.POST("", dedup, dict.HandleAdd)
			dictionaryGroup.POST("/:term/promote", dedup, dict.HandlePromote)
		}

		cache := cacheHandler.NewHandler(svc.RecipeCache)
		cacheGroup := api.Group("/cache")
		{
			cacheGroup.POST("", dedup, cache.HandleStore)
			cacheGroup.POST("/lookup", cache.HandleLookup)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.Bool("generative_enabled", svc.Generator != nil),
		zap.Bool("cache_enabled", svc.RecipeCache != nil),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}

// requestTimeout 設置請求超時，處理器未回應且超時時回傳 504
func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeout),
			)
			c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrorResponse{
				Code:    common.ErrCodeRequestTimeout,
				Message: common.ErrRequestTimeout.Message,
			})
		}
	}
}
