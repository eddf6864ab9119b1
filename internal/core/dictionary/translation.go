package dictionary

import (
	"context"
	"fmt"
	"time"

	"recipe-engine/internal/core/normalize"
	"recipe-engine/internal/infrastructure/store"
	"recipe-engine/internal/pkg/common"
)

// DefaultTranslationTTL AI 翻譯保存一年
const DefaultTranslationTTL = 365 * 24 * time.Hour

// TranslationCache AI 翻譯快取，升級為字典前的緩衝區
type TranslationCache struct {
	store store.KeyValueStore
	ttl   time.Duration
	now   func() time.Time
}

// NewTranslationCache 建立翻譯快取
func NewTranslationCache(kv store.KeyValueStore, ttl time.Duration) *TranslationCache {
	if ttl <= 0 {
		ttl = DefaultTranslationTTL
	}
	return &TranslationCache{store: kv, ttl: ttl, now: time.Now}
}

// Get 以越南文查詢，未命中或已過期回傳 (nil, nil)
func (c *TranslationCache) Get(ctx context.Context, term string) (*CachedTranslation, error) {
	slug := normalize.Slug(term)
	if slug == "" {
		return nil, nil
	}
	return c.get(ctx, slug)
}

func (c *TranslationCache) get(ctx context.Context, slug string) (*CachedTranslation, error) {
	item, err := c.store.Get(ctx, translationCachePK, ingredientSK(slug))
	if err != nil {
		return nil, fmt.Errorf("讀取翻譯快取失敗: %w", err)
	}
	if item == nil {
		return nil, nil
	}
	var cached CachedTranslation
	if err := common.Unmarshal(item.Data, &cached); err != nil {
		return nil, fmt.Errorf("解析翻譯快取失敗: %w", err)
	}
	return &cached, nil
}

// Put 寫入翻譯與英文反向索引
func (c *TranslationCache) Put(ctx context.Context, entry Entry) (CachedTranslation, error) {
	entry.Source = normalize.Slug(entry.Source)
	if entry.Source == "" || normalize.Term(entry.Target.Specific) == "" {
		return CachedTranslation{}, fmt.Errorf("%w: source and target.specific are required", ErrInvalidEntry)
	}
	if entry.Provenance == "" {
		entry.Provenance = ProvenanceAI
	}
	now := c.now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now.UTC()
	}
	cached := CachedTranslation{Entry: entry, ExpiresAt: store.ExpiresIn(now, c.ttl)}

	data, err := common.Marshal(cached)
	if err != nil {
		return CachedTranslation{}, fmt.Errorf("序列化翻譯快取失敗: %w", err)
	}
	ptr, err := common.Marshal(reversePointer{Source: entry.Source})
	if err != nil {
		return CachedTranslation{}, fmt.Errorf("序列化反向索引失敗: %w", err)
	}

	items := []store.Item{
		{PK: translationCachePK, SK: ingredientSK(entry.Source), Data: data, ExpiresAt: cached.ExpiresAt},
		{PK: translationReversePK(entry.Target.Specific), SK: translationReverseSK, Data: ptr, ExpiresAt: cached.ExpiresAt},
	}
	if err := c.store.BatchPut(ctx, items); err != nil {
		return CachedTranslation{}, fmt.Errorf("寫入翻譯快取失敗: %w", err)
	}
	return cached, nil
}

// ReverseLookup 以英文查詢翻譯快取
func (c *TranslationCache) ReverseLookup(ctx context.Context, english string) ([]CachedTranslation, error) {
	pk := translationReversePK(english)
	if pk == "" {
		return nil, nil
	}
	item, err := c.store.Get(ctx, pk, translationReverseSK)
	if err != nil {
		return nil, fmt.Errorf("讀取翻譯反向索引失敗: %w", err)
	}
	if item == nil {
		return nil, nil
	}
	var ptr reversePointer
	if err := common.Unmarshal(item.Data, &ptr); err != nil {
		return nil, fmt.Errorf("解析翻譯反向索引失敗: %w", err)
	}
	cached, err := c.get(ctx, ptr.Source)
	if err != nil || cached == nil {
		return nil, err
	}
	return []CachedTranslation{*cached}, nil
}
