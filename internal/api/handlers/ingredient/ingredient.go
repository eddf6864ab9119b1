package ingredient

import (
	"encoding/json"
	"net/http"

	"recipe-engine/internal/api/handlers"
	core "recipe-engine/internal/core/ingredient"
	"recipe-engine/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ResolveRequest 食材解析請求，每個元素可為字串或舊版物件格式
type ResolveRequest struct {
	Ingredients []json.RawMessage `json:"ingredients" binding:"required"`
	Servings    int               `json:"servings,omitempty"` // 填寫時一併回傳每份營養
}

// ResolveResponse 食材解析結果
type ResolveResponse struct {
	Ingredients []core.ProcessedIngredient `json:"ingredients"`
	Nutrition   *core.NutritionTotals      `json:"nutrition,omitempty"`
}

// NutritionRequest 營養加總請求
type NutritionRequest struct {
	Ingredients []core.ProcessedIngredient `json:"ingredients" binding:"required"`
	Servings    int                        `json:"servings"`
}

// NutritionResponse nutrition 為 null 表示沒有任何營養資料
type NutritionResponse struct {
	Nutrition *core.NutritionTotals `json:"nutrition"`
}

// Handler 食材處理器
type Handler struct {
	resolver *core.Resolver
}

// NewHandler 創建食材處理器
func NewHandler(resolver *core.Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// HandleResolve 解析食材
func (h *Handler) HandleResolve(c *gin.Context) {
	var req ResolveRequest
	if !handlers.BindJSON(c, &req) {
		return
	}

	processed := h.resolver.Resolve(c.Request.Context(), core.DecodeRawInputs(req.Ingredients))
	resp := ResolveResponse{Ingredients: processed}
	if req.Servings > 0 {
		resp.Nutrition = core.AggregateNutrition(processed, req.Servings)
	}

	common.LogDebug("食材解析完成",
		zap.Int("count", len(processed)),
		zap.Bool("has_nutrition", resp.Nutrition != nil),
	)
	c.JSON(http.StatusOK, resp)
}

// HandleNutrition 加總營養
func (h *Handler) HandleNutrition(c *gin.Context) {
	var req NutritionRequest
	if !handlers.BindJSON(c, &req) {
		return
	}
	c.JSON(http.StatusOK, NutritionResponse{
		Nutrition: core.AggregateNutrition(req.Ingredients, req.Servings),
	})
}
