package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	aiservice "recipe-engine/internal/core/ai/service"
	"recipe-engine/internal/infrastructure/config"
	"recipe-engine/internal/infrastructure/store"
	"recipe-engine/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 就緒檢查讀取的探測鍵
const (
	probePK = "HEALTH"
	probeSK = "PROBE"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status     string                 `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	Version    string                 `json:"version"`
	Store      string                 `json:"store"`
	Generative *GenerativeStatus      `json:"generative,omitempty"`
	Runtime    map[string]interface{} `json:"runtime"`
}

// GenerativeStatus 生成式服務狀態
type GenerativeStatus struct {
	Model   string `json:"model"`
	Breaker string `json:"breaker"`
}

// Handler 健康檢查處理器
type Handler struct {
	cfg       *config.Config
	store     store.KeyValueStore
	generator *aiservice.Service
}

// NewHandler generator 可為 nil
func NewHandler(cfg *config.Config, kv store.KeyValueStore, generator *aiservice.Service) *Handler {
	return &Handler{cfg: cfg, store: kv, generator: generator}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.cfg.App.Version,
		Store:     h.cfg.Store.Driver,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if h.generator != nil {
		response.Generative = &GenerativeStatus{
			Model:   h.cfg.OpenRouter.Model,
			Breaker: h.generator.State(),
		}
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)
	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 儲存可讀取才算就緒；斷路器開啟只降級，不影響就緒
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if _, err := h.store.Get(ctx, probePK, probeSK); err != nil {
		common.LogWarn("Readiness check failed", zap.Error(err))
		c.JSON(common.ErrServiceUnavailable.Status, common.ErrorResponse{
			Code:    common.ErrServiceUnavailable.Code,
			Message: common.ErrServiceUnavailable.Message,
			Details: err.Error(),
		})
		return
	}

	resp := gin.H{"status": "ready"}
	if h.generator != nil && !h.generator.Available() {
		resp["generative"] = "degraded"
	}
	c.JSON(http.StatusOK, resp)
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
