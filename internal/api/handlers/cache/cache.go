package cache

import (
	"encoding/json"
	"net/http"

	"recipe-engine/internal/api/handlers"
	"recipe-engine/internal/core/recipecache"
	"recipe-engine/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StoreRequest 寫入快取
type StoreRequest struct {
	Ingredients     []string             `json:"ingredients" binding:"required"`
	Settings        recipecache.Settings `json:"settings"`
	Recipes         []json.RawMessage    `json:"recipes" binding:"required"`
	FullIngredients []string             `json:"full_ingredients,omitempty"`
}

// StoreResponse 寫入結果
type StoreResponse struct {
	CacheKey  string `json:"cache_key"`
	ExpiresAt int64  `json:"expires_at"`
}

// Handler 食譜快取處理器；svc 為 nil 表示快取停用
type Handler struct {
	svc *recipecache.Service
}

// NewHandler 創建快取處理器
func NewHandler(svc *recipecache.Service) *Handler {
	return &Handler{svc: svc}
}

// HandleLookup POST /cache/lookup
func (h *Handler) HandleLookup(c *gin.Context) {
	if h.svc == nil {
		handlers.RespondError(c, common.ErrCacheDisabled)
		return
	}
	var req recipecache.Request
	if !handlers.BindJSON(c, &req) {
		return
	}

	res, err := h.svc.Lookup(c.Request.Context(), req)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	common.LogInfo("快取查詢",
		zap.String("cache_key", res.CacheKey),
		zap.String("source", string(res.Source)),
		zap.Float64("score", res.Score),
	)
	c.JSON(http.StatusOK, res)
}

// HandleStore POST /cache
func (h *Handler) HandleStore(c *gin.Context) {
	if h.svc == nil {
		handlers.RespondError(c, common.ErrCacheDisabled)
		return
	}
	var req StoreRequest
	if !handlers.BindJSON(c, &req) {
		return
	}
	if len(req.Ingredients) == 0 || len(req.Recipes) == 0 {
		handlers.RespondError(c, common.NewValidationError("ingredients and recipes must not be empty"))
		return
	}

	entry, err := h.svc.Store(c.Request.Context(),
		recipecache.Request{Ingredients: req.Ingredients, Settings: req.Settings},
		req.Recipes, req.FullIngredients)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, StoreResponse{CacheKey: entry.CacheKey, ExpiresAt: entry.ExpiresAt})
}
