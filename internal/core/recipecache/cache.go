// Package recipecache 快取食譜生成結果，支援精確鍵查詢與以食材反向索引的部分比對。
//
// 主項目與食材索引之間沒有交易保證：索引可能指向已過期或未寫入的項目，
// 讀取端一律視為未命中。
package recipecache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"recipe-engine/internal/infrastructure/store"
	"recipe-engine/internal/metrics"
	"recipe-engine/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	cachePKPrefix      = "AI_CACHE#"
	metadataSK         = "METADATA"
	ingredientSKPrefix = "INGREDIENT#"
	invertedPKPrefix   = "CACHE_INGREDIENT#"

	// DefaultTTL 快取項目保存 24 小時
	DefaultTTL = 24 * time.Hour
	// DefaultIndexBatchSize 每批寫入的索引數
	DefaultIndexBatchSize = 25
)

// Options 快取設定
type Options struct {
	TTL             time.Duration
	IndexBatchSize  int
	Concurrency     int
	PublicScanLimit int
}

// Cache 食譜快取
type Cache struct {
	store store.KeyValueStore
	opts  Options
	now   func() time.Time
}

// New 建立快取
func New(kv store.KeyValueStore, opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.IndexBatchSize <= 0 {
		opts.IndexBatchSize = DefaultIndexBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.PublicScanLimit <= 0 {
		opts.PublicScanLimit = 200
	}
	return &Cache{store: kv, opts: opts, now: time.Now}
}

func cachePK(key string) string {
	return cachePKPrefix + key
}

func invertedPK(term string) string {
	return invertedPKPrefix + term
}

// GetExact 以快取鍵查詢，未命中、已過期或內容無法解析時回傳 (nil, nil)
func (c *Cache) GetExact(ctx context.Context, key string) (*Entry, error) {
	if key == "" {
		return nil, nil
	}
	item, err := c.store.Get(ctx, cachePK(key), metadataSK)
	if err != nil {
		return nil, fmt.Errorf("讀取快取失敗: %w", err)
	}
	if item == nil {
		common.LogCacheMiss("recipe", key)
		return nil, nil
	}
	var entry Entry
	if err := common.Unmarshal(item.Data, &entry); err != nil {
		// 損毀的項目與懸空索引一樣視為未命中
		common.LogWarn("解析快取項目失敗，視為未命中", zap.String("cache_key", key), zap.Error(err))
		return nil, nil
	}
	if entry.ExpiresAt > 0 && c.now().Unix() >= entry.ExpiresAt {
		common.LogCacheMiss("recipe", key)
		return nil, nil
	}
	common.LogCacheHit("recipe", key)
	return &entry, nil
}

// GetPartial 透過食材反向索引取得候選項目（任一食材命中即納入），不做規則比對
func (c *Cache) GetPartial(ctx context.Context, ingredients []string) ([]Entry, error) {
	terms := termSet(ingredients)
	if len(terms) == 0 {
		return nil, nil
	}

	var mu sync.Mutex
	keys := make(map[string]struct{})
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for _, term := range terms {
		g.Go(func() error {
			items, err := c.store.Query(gctx, invertedPK(term), cachePKPrefix)
			if err != nil {
				return fmt.Errorf("查詢食材索引失敗 (%s): %w", term, err)
			}
			mu.Lock()
			for _, it := range items {
				keys[strings.TrimPrefix(it.SK, cachePKPrefix)] = struct{}{}
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	entries := make([]*Entry, len(sorted))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i, key := range sorted {
		g.Go(func() error {
			e, err := c.GetExact(gctx, key)
			if err != nil {
				return err
			}
			entries[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		// 懸空索引
		if e != nil {
			out = append(out, *e)
		}
	}
	return out, nil
}

// Store 寫入主項目與每個完整食材的正向、反向索引
//
// 索引分批寫入，單批失敗只記錄，不回滾。
func (c *Cache) Store(ctx context.Context, key string, recipes []json.RawMessage, settings Settings, fullIngredients []string) (Entry, error) {
	if key == "" {
		return Entry{}, common.NewValidationError("cache key is required")
	}
	now := c.now()
	entry := Entry{
		CacheKey:    key,
		Recipes:     recipes,
		Settings:    settings,
		Ingredients: termSet(fullIngredients),
		CreatedAt:   now.UTC(),
		ExpiresAt:   store.ExpiresIn(now, c.opts.TTL),
	}
	data, err := common.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("序列化快取項目失敗: %w", err)
	}
	if err := c.store.Put(ctx, store.Item{PK: cachePK(key), SK: metadataSK, Data: data, ExpiresAt: entry.ExpiresAt}); err != nil {
		return Entry{}, fmt.Errorf("寫入快取失敗: %w", err)
	}
	metrics.CacheStores.Inc()

	index := make([]store.Item, 0, 2*len(entry.Ingredients))
	for _, term := range entry.Ingredients {
		index = append(index,
			store.Item{PK: cachePK(key), SK: ingredientSKPrefix + term, ExpiresAt: entry.ExpiresAt},
			store.Item{PK: invertedPK(term), SK: cachePK(key), ExpiresAt: entry.ExpiresAt},
		)
	}
	for start := 0; start < len(index); start += c.opts.IndexBatchSize {
		end := min(start+c.opts.IndexBatchSize, len(index))
		if err := c.store.BatchPut(ctx, index[start:end]); err != nil {
			metrics.CacheIndexWriteFailures.Inc()
			common.LogWarn("寫入食材索引失敗",
				zap.String("cache_key", key),
				zap.Int("chunk_start", start),
				zap.Int("chunk_size", end-start),
				zap.Error(err),
			)
		}
	}

	common.LogDebug("寫入食譜快取",
		zap.String("cache_key", key),
		zap.Int("recipes", len(recipes)),
		zap.Int("ingredients", len(entry.Ingredients)),
	)
	return entry, nil
}
