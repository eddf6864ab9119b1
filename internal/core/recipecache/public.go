package recipecache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"recipe-engine/internal/infrastructure/store"
	"recipe-engine/internal/pkg/common"

	"go.uber.org/zap"
)

const (
	publicPK = "CACHE#PUBLIC"
	// 固定長度的 ISO-8601，字典序即時間序
	publicTimeLayout = "2006-01-02T15:04:05.000000000Z"
)

// PublicRecipe 公開動態中的項目，供慢速全文後備搜尋
type PublicRecipe struct {
	CacheKey       string            `json:"cache_key"`
	Titles         []string          `json:"titles"`
	Ingredients    []string          `json:"ingredients"`
	Recipes        []json.RawMessage `json:"recipes"`
	SearchableText string            `json:"searchable_text"`
	CreatedAt      time.Time         `json:"created_at"`
}

// PublishPublic 將快取項目加入公開動態
func (c *Cache) PublishPublic(ctx context.Context, entry Entry) error {
	titles := make([]string, 0, len(entry.Recipes))
	for _, r := range entry.Recipes {
		if t := recipeTitle(r); t != "" {
			titles = append(titles, t)
		}
	}
	pub := PublicRecipe{
		CacheKey:       entry.CacheKey,
		Titles:         titles,
		Ingredients:    entry.Ingredients,
		Recipes:        entry.Recipes,
		SearchableText: strings.ToLower(strings.Join(append(append([]string{}, titles...), entry.Ingredients...), " ")),
		CreatedAt:      entry.CreatedAt,
	}
	data, err := common.Marshal(pub)
	if err != nil {
		return fmt.Errorf("序列化公開項目失敗: %w", err)
	}
	// 同一時間可能有多筆，sort key 加上 uuid
	sk := entry.CreatedAt.UTC().Format(publicTimeLayout) + "#" + common.GenerateUUID()
	return c.store.Put(ctx, store.Item{PK: publicPK, SK: sk, Data: data, ExpiresAt: entry.ExpiresAt})
}

// SearchPublic 由新到舊掃描公開動態，回傳包含所有詞的項目
func (c *Cache) SearchPublic(ctx context.Context, terms []string, limit int) ([]PublicRecipe, error) {
	needles := termSet(terms)
	if len(needles) == 0 {
		return nil, nil
	}
	items, err := c.store.Query(ctx, publicPK, "")
	if err != nil {
		return nil, fmt.Errorf("查詢公開動態失敗: %w", err)
	}

	var out []PublicRecipe
	scanned := 0
	for i := len(items) - 1; i >= 0 && scanned < c.opts.PublicScanLimit; i-- {
		scanned++
		var pub PublicRecipe
		if err := common.Unmarshal(items[i].Data, &pub); err != nil {
			common.LogWarn("略過無法解析的公開項目", zap.String("sk", items[i].SK), zap.Error(err))
			continue
		}
		if containsAll(pub.SearchableText, needles) {
			out = append(out, pub)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func containsAll(text string, needles []string) bool {
	for _, n := range needles {
		if !strings.Contains(text, n) {
			return false
		}
	}
	return true
}

// recipeTitle 取出食譜的 title 或 name
func recipeTitle(raw json.RawMessage) string {
	var r struct {
		Title string `json:"title"`
		Name  string `json:"name"`
	}
	if err := common.Unmarshal(raw, &r); err != nil {
		return ""
	}
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}
