package dictionary

import "time"

// Provenance 字典資料來源
type Provenance string

const (
	ProvenanceBootstrap Provenance = "bootstrap"
	ProvenanceAI        Provenance = "ai"
	ProvenanceAdmin     Provenance = "admin"
	ProvenancePromoted  Provenance = "promoted"
)

// Nutrition 每 100g 營養成分
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

// Target 英文對應詞
type Target struct {
	Specific string `json:"specific"`
	General  string `json:"general"`
	Category string `json:"category"`
}

// Translation 查詢結果
type Translation struct {
	Target
	Nutrition *Nutrition `json:"nutrition,omitempty"`
}

// Entry 永久字典項目
type Entry struct {
	Source           string     `json:"source"` // 正規化後的越南文 slug
	Target           Target     `json:"target"`
	NutritionPer100g *Nutrition `json:"nutrition_per_100g,omitempty"`
	Provenance       Provenance `json:"provenance"`
	UsageCount       int        `json:"usage_count"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Translation 轉為查詢結果
func (e Entry) Translation() Translation {
	return Translation{Target: e.Target, Nutrition: e.NutritionPer100g}
}

// CachedTranslation 翻譯快取項目（一年 TTL）
type CachedTranslation struct {
	Entry
	ExpiresAt int64 `json:"expires_at"`
}

// InsertStatus 新增字典項目的結果
type InsertStatus int

const (
	// InsertCreated 新建立
	InsertCreated InsertStatus = iota
	// InsertExisting 並發寫入競爭失敗，回傳勝出的既有項目
	InsertExisting
)

func (s InsertStatus) String() string {
	if s == InsertExisting {
		return "existing"
	}
	return "created"
}

// InsertResult insert-or-get 的結果
type InsertResult struct {
	Status InsertStatus
	Entry  Entry
}
