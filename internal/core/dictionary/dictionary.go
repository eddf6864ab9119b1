// Package dictionary 提供越南文→英文食材字典與 AI 翻譯快取。
//
// 字典項目永久保存；寫入採 insert-or-get，並發競爭時回傳勝出者而非錯誤。
package dictionary

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"recipe-engine/internal/core/normalize"
	"recipe-engine/internal/infrastructure/store"
	"recipe-engine/internal/metrics"
	"recipe-engine/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

// Dictionary 永久字典
type Dictionary struct {
	store       store.KeyValueStore
	concurrency int
	now         func() time.Time
}

// New 建立字典，concurrency 為 BatchLookup 的並發上限
func New(kv store.KeyValueStore, concurrency int) *Dictionary {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Dictionary{store: kv, concurrency: concurrency, now: time.Now}
}

// Get 以越南文查詢完整字典項目，不存在時回傳 (nil, nil)
func (d *Dictionary) Get(ctx context.Context, term string) (*Entry, error) {
	slug := normalize.Slug(term)
	if slug == "" {
		return nil, nil
	}
	return d.get(ctx, slug)
}

func (d *Dictionary) get(ctx context.Context, slug string) (*Entry, error) {
	item, err := d.store.Get(ctx, dictionaryPK, ingredientSK(slug))
	if err != nil {
		return nil, fmt.Errorf("讀取字典失敗: %w", err)
	}
	if item == nil {
		return nil, nil
	}
	var entry Entry
	if err := common.Unmarshal(item.Data, &entry); err != nil {
		return nil, fmt.Errorf("解析字典項目失敗: %w", err)
	}
	return &entry, nil
}

// Lookup 查詢翻譯，未命中回傳 (nil, nil)
func (d *Dictionary) Lookup(ctx context.Context, term string) (*Translation, error) {
	entry, err := d.Get(ctx, term)
	if err != nil || entry == nil {
		return nil, err
	}
	t := entry.Translation()
	return &t, nil
}

// ReverseLookup 以英文 specific 詞查詢字典項目
func (d *Dictionary) ReverseLookup(ctx context.Context, english string) ([]Entry, error) {
	pk := dictionaryReversePK(english)
	if pk == "" {
		return nil, nil
	}
	item, err := d.store.Get(ctx, pk, dictionaryReverseSK)
	if err != nil {
		return nil, fmt.Errorf("讀取字典反向索引失敗: %w", err)
	}
	if item == nil {
		return nil, nil
	}
	var ptr reversePointer
	if err := common.Unmarshal(item.Data, &ptr); err != nil {
		return nil, fmt.Errorf("解析字典反向索引失敗: %w", err)
	}
	entry, err := d.get(ctx, ptr.Source)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		// 反向索引指向不存在的項目，視為未命中
		return nil, nil
	}
	return []Entry{*entry}, nil
}

// BatchLookup 並發查詢多個詞，回傳 slug → Translation；單筆失敗視為未命中
func (d *Dictionary) BatchLookup(ctx context.Context, terms []string) map[string]Translation {
	result := make(map[string]Translation, len(terms))
	var mu sync.Mutex

	seen := make(map[string]struct{}, len(terms))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for _, term := range terms {
		slug := normalize.Slug(term)
		if slug == "" {
			continue
		}
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}

		g.Go(func() error {
			entry, err := d.get(gctx, slug)
			if err != nil {
				common.LogWarn("字典查詢失敗，視為未命中",
					zap.String("slug", slug),
					zap.Error(err),
				)
				return nil
			}
			if entry == nil {
				return nil
			}
			mu.Lock()
			result[slug] = entry.Translation()
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return result
}

// AddEntry 新增字典項目
//
// 預先檢查到重複（越南文或英文）回傳 *DuplicateError；
// 條件寫入因並發競爭失敗時，回傳 InsertExisting 與勝出的項目。
func (d *Dictionary) AddEntry(ctx context.Context, entry Entry) (InsertResult, error) {
	entry.Source = normalize.Slug(entry.Source)
	entry.Target.Specific = normalize.Term(entry.Target.Specific)
	if entry.Source == "" || entry.Target.Specific == "" {
		return InsertResult{}, fmt.Errorf("%w: source and target.specific are required", ErrInvalidEntry)
	}
	if entry.Provenance == "" {
		entry.Provenance = ProvenanceAdmin
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = d.now().UTC()
	}

	existing, err := d.get(ctx, entry.Source)
	if err != nil {
		return InsertResult{}, err
	}
	if existing != nil {
		metrics.DictionaryInserts.WithLabelValues("duplicate_vietnamese").Inc()
		return InsertResult{}, &DuplicateError{Field: fieldVietnamese, Term: entry.Source}
	}

	byEnglish, err := d.ReverseLookup(ctx, entry.Target.Specific)
	if err != nil {
		return InsertResult{}, err
	}
	if len(byEnglish) > 0 {
		metrics.DictionaryInserts.WithLabelValues("duplicate_english").Inc()
		return InsertResult{}, &DuplicateError{Field: fieldEnglish, Term: entry.Target.Specific}
	}

	data, err := common.Marshal(entry)
	if err != nil {
		return InsertResult{}, fmt.Errorf("序列化字典項目失敗: %w", err)
	}
	ptr, err := common.Marshal(reversePointer{Source: entry.Source})
	if err != nil {
		return InsertResult{}, fmt.Errorf("序列化反向索引失敗: %w", err)
	}

	err = d.store.PutIfAbsent(ctx,
		store.Item{PK: dictionaryPK, SK: ingredientSK(entry.Source), Data: data},
		store.Item{PK: dictionaryReversePK(entry.Target.Specific), SK: dictionaryReverseSK, Data: ptr},
	)
	switch {
	case err == nil:
		metrics.DictionaryInserts.WithLabelValues("created").Inc()
		common.LogInfo("新增字典項目",
			zap.String("source", entry.Source),
			zap.String("specific", entry.Target.Specific),
			zap.String("provenance", string(entry.Provenance)),
		)
		return InsertResult{Status: InsertCreated, Entry: entry}, nil
	case errors.Is(err, store.ErrConditionFailed):
		return d.resolveRace(ctx, entry)
	default:
		return InsertResult{}, fmt.Errorf("寫入字典失敗: %w", err)
	}
}

// resolveRace 並發寫入失敗後重新讀取勝出的項目
func (d *Dictionary) resolveRace(ctx context.Context, entry Entry) (InsertResult, error) {
	winner, err := d.get(ctx, entry.Source)
	if err != nil {
		return InsertResult{}, err
	}
	if winner == nil {
		// 越南文鍵不存在，衝突來自英文反向索引
		metrics.DictionaryInserts.WithLabelValues("duplicate_english").Inc()
		return InsertResult{}, &DuplicateError{Field: fieldEnglish, Term: entry.Target.Specific}
	}
	metrics.DictionaryInserts.WithLabelValues("existing").Inc()
	common.LogInfo("字典寫入競爭，回傳既有項目", zap.String("source", entry.Source))
	return InsertResult{Status: InsertExisting, Entry: *winner}, nil
}

// Promote 將翻譯快取中的 AI 翻譯提升為永久字典項目
func (d *Dictionary) Promote(ctx context.Context, cache *TranslationCache, term string) (InsertResult, error) {
	cached, err := cache.Get(ctx, term)
	if err != nil {
		return InsertResult{}, err
	}
	if cached == nil {
		return InsertResult{}, fmt.Errorf("%w: %s", ErrTranslationNotFound, normalize.Slug(term))
	}
	entry := cached.Entry
	entry.Provenance = ProvenancePromoted
	entry.CreatedAt = time.Time{}
	return d.AddEntry(ctx, entry)
}
