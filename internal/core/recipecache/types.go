package recipecache

import (
	"encoding/json"
	"time"
)

// MealTypeAny 不限餐別
const MealTypeAny = "none"

// Settings 產生食譜時的使用者設定
type Settings struct {
	Servings                int      `json:"servings"`
	MealType                string   `json:"meal_type"`
	MaxTimeMinutes          int      `json:"max_time_minutes"`
	DislikedIngredients     []string `json:"disliked_ingredients,omitempty"`
	PreferredCookingMethods []string `json:"preferred_cooking_methods,omitempty"`
}

// mealType 空字串視為不限
func (s Settings) mealType() string {
	if s.MealType == "" {
		return MealTypeAny
	}
	return s.MealType
}

// Request 一次快取查詢
type Request struct {
	Ingredients []string `json:"ingredients"`
	Settings    Settings `json:"settings"`
}

// Entry 已快取的食譜生成結果
type Entry struct {
	CacheKey    string            `json:"cache_key"`
	Recipes     []json.RawMessage `json:"recipes"`
	Settings    Settings          `json:"settings"`
	Ingredients []string          `json:"ingredients"` // 完整食材集合，為查詢食材的超集
	CreatedAt   time.Time         `json:"created_at"`
	ExpiresAt   int64             `json:"expires_at"`
}

// MatchResult 比對結果
type MatchResult struct {
	IsMatch bool    `json:"is_match"`
	Score   float64 `json:"score,omitempty"`
	Reason  string  `json:"reason,omitempty"`
}
