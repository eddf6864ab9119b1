// Package ingredient 將原始食材文字解析為英文名稱與營養資料。
//
// 解析分三層：永久字典、AI 翻譯快取、生成式模型。任何一層失敗都不會讓
// Resolve 回傳錯誤，最差情況是以 slug 本身作為英文名稱。
package ingredient

import (
	"context"
	"sync"
	"time"

	"recipe-engine/internal/core/dictionary"
	"recipe-engine/internal/core/normalize"
	"recipe-engine/internal/metrics"
	"recipe-engine/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Tier 解析來源
type Tier string

const (
	TierDictionary       Tier = "dictionary"
	TierTranslationCache Tier = "translation-cache"
	TierGenerative       Tier = "generative"
	TierUnknown          Tier = "unknown"
)

// CategoryUnknown 無法解析時的分類
const CategoryUnknown = "unknown"

// ProcessedIngredient 單一食材的解析結果
type ProcessedIngredient struct {
	VietnameseText   string                `json:"vietnamese_text"`
	NormalizedSlug   string                `json:"normalized_slug"`
	EnglishTerm      string                `json:"english_term"`
	Category         string                `json:"category"`
	AmountText       string                `json:"amount_text,omitempty"`
	Notes            string                `json:"notes,omitempty"`
	NutritionPer100g *dictionary.Nutrition `json:"nutrition_per_100g,omitempty"`
	ResolutionTier   Tier                  `json:"resolution_tier"`
}

// Options Resolver 設定
type Options struct {
	Concurrency       int           // 每層的並發上限
	GenerativeTimeout time.Duration // 單一食材的模型呼叫上限
}

// Resolver 三層食材解析
type Resolver struct {
	dict       *dictionary.Dictionary
	cache      *dictionary.TranslationCache
	translator Translator
	opts       Options
}

// NewResolver 建立 Resolver；translator 可為 nil，此時跳過第三層
func NewResolver(dict *dictionary.Dictionary, cache *dictionary.TranslationCache, translator Translator, opts Options) *Resolver {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	return &Resolver{dict: dict, cache: cache, translator: translator, opts: opts}
}

// Resolve 解析所有輸入，輸出順序與輸入一致
func (r *Resolver) Resolve(ctx context.Context, inputs []RawInput) []ProcessedIngredient {
	out := make([]ProcessedIngredient, len(inputs))
	pending := make(map[string]string) // slug → 原文

	for i, in := range inputs {
		c := ToCanonical(in)
		slug := normalize.Slug(c.VietnameseText)
		out[i] = ProcessedIngredient{
			VietnameseText: c.VietnameseText,
			NormalizedSlug: slug,
			AmountText:     c.AmountText,
			Notes:          c.Notes,
		}
		if slug == "" {
			continue
		}
		if _, ok := pending[slug]; !ok {
			pending[slug] = c.VietnameseText
		}
	}

	resolved := make(map[string]resolution, len(pending))

	// 第一層：字典
	slugs := make([]string, 0, len(pending))
	for slug := range pending {
		slugs = append(slugs, slug)
	}
	for slug, t := range r.dict.BatchLookup(ctx, slugs) {
		resolved[slug] = resolution{translation: t, tier: TierDictionary}
	}

	// 第二層：翻譯快取
	r.fanOut(ctx, missing(pending, resolved), resolved, func(ctx context.Context, slug, _ string) (*resolution, error) {
		cached, err := r.cache.Get(ctx, slug)
		if err != nil || cached == nil {
			return nil, err
		}
		return &resolution{translation: cached.Translation(), tier: TierTranslationCache}, nil
	})

	// 第三層：生成式模型
	if r.translator != nil {
		r.fanOut(ctx, missing(pending, resolved), resolved, r.generate)
	}

	for i := range out {
		p := &out[i]
		res, ok := resolved[p.NormalizedSlug]
		if !ok {
			p.EnglishTerm = p.NormalizedSlug
			p.Category = CategoryUnknown
			p.ResolutionTier = TierUnknown
			metrics.IngredientResolutions.WithLabelValues(string(TierUnknown)).Inc()
			continue
		}
		p.EnglishTerm = res.translation.Specific
		p.Category = res.translation.Category
		p.NutritionPer100g = res.translation.Nutrition
		p.ResolutionTier = res.tier
		metrics.IngredientResolutions.WithLabelValues(string(res.tier)).Inc()
	}
	return out
}

type resolution struct {
	translation dictionary.Translation
	tier        Tier
}

// fanOut 並發處理未命中的 slug；錯誤一律記錄後視為未命中
func (r *Resolver) fanOut(ctx context.Context, todo map[string]string, resolved map[string]resolution,
	fn func(ctx context.Context, slug, text string) (*resolution, error)) {
	if len(todo) == 0 {
		return
	}
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)

	for slug, text := range todo {
		g.Go(func() error {
			res, err := fn(ctx, slug, text)
			if err != nil {
				common.LogWarn("食材解析失敗，改用下一層",
					zap.String("slug", slug),
					zap.Error(err),
				)
				return nil
			}
			if res == nil {
				return nil
			}
			mu.Lock()
			resolved[slug] = *res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

// generate 呼叫模型並寫入翻譯快取
func (r *Resolver) generate(ctx context.Context, slug, text string) (*resolution, error) {
	if r.opts.GenerativeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.GenerativeTimeout)
		defer cancel()
	}
	t, err := r.translator.Translate(ctx, text)
	if err != nil {
		return nil, err
	}

	entry := dictionary.Entry{
		Source:           slug,
		Target:           t.Target,
		NutritionPer100g: t.Nutrition,
		Provenance:       dictionary.ProvenanceAI,
	}
	// 寫入失敗不影響本次結果
	if _, err := r.cache.Put(context.WithoutCancel(ctx), entry); err != nil {
		common.LogWarn("寫入翻譯快取失敗",
			zap.String("slug", slug),
			zap.Error(err),
		)
	}
	return &resolution{translation: *t, tier: TierGenerative}, nil
}

func missing(pending map[string]string, resolved map[string]resolution) map[string]string {
	out := make(map[string]string)
	for slug, text := range pending {
		if _, ok := resolved[slug]; !ok {
			out[slug] = text
		}
	}
	return out
}
