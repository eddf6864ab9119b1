package recipecache

import (
	"context"
	"encoding/json"

	"recipe-engine/internal/metrics"
	"recipe-engine/internal/pkg/common"

	"go.uber.org/zap"
)

// Source 查詢結果來源
type Source string

const (
	SourceExact   Source = "exact"
	SourcePartial Source = "partial"
	SourcePublic  Source = "public"
	SourceMiss    Source = "miss"
)

// LookupResult 查詢結果
type LookupResult struct {
	Source   Source         `json:"source"`
	CacheKey string         `json:"cache_key"`
	Entry    *Entry         `json:"entry,omitempty"`
	Score    float64        `json:"score,omitempty"`
	Public   []PublicRecipe `json:"public,omitempty"`
}

// Service 串接鍵產生、精確查詢、部分比對與公開後備搜尋
type Service struct {
	cache          *Cache
	publicFallback bool
}

// NewService 建立服務
func NewService(cache *Cache, publicFallback bool) *Service {
	return &Service{cache: cache, publicFallback: publicFallback}
}

// Lookup 依序嘗試精確、部分、公開動態；皆未命中時回傳 SourceMiss
func (s *Service) Lookup(ctx context.Context, req Request) (LookupResult, error) {
	key := Encode(req.Ingredients, req.Settings)
	res := LookupResult{Source: SourceMiss, CacheKey: key}

	entry, err := s.cache.GetExact(ctx, key)
	if err != nil {
		return res, err
	}
	if entry != nil {
		res.Source, res.Entry, res.Score = SourceExact, entry, maxScore
		metrics.CacheLookups.WithLabelValues(string(SourceExact)).Inc()
		return res, nil
	}

	candidates, err := s.cache.GetPartial(ctx, req.Ingredients)
	if err != nil {
		return res, err
	}
	if best, score, ok := FindBestMatch(req, candidates); ok {
		res.Source, res.Entry, res.Score = SourcePartial, best, score
		metrics.CacheLookups.WithLabelValues(string(SourcePartial)).Inc()
		metrics.CacheMatchScore.Observe(score)
		common.LogInfo("部分比對命中",
			zap.String("cache_key", key),
			zap.String("matched_key", best.CacheKey),
			zap.Float64("score", score),
			zap.Int("candidates", len(candidates)),
		)
		return res, nil
	}

	if s.publicFallback {
		public, err := s.cache.SearchPublic(ctx, req.Ingredients, 5)
		if err != nil {
			// 公開動態只是後備，失敗不影響結果
			common.LogWarn("公開動態搜尋失敗", zap.Error(err))
		} else if len(public) > 0 {
			res.Source, res.Public = SourcePublic, public
			metrics.CacheLookups.WithLabelValues(string(SourcePublic)).Inc()
			return res, nil
		}
	}

	metrics.CacheLookups.WithLabelValues(string(SourceMiss)).Inc()
	return res, nil
}

// Store 以查詢食材產生鍵，並以查詢與完整食材的聯集建立索引
func (s *Service) Store(ctx context.Context, req Request, recipes []json.RawMessage, fullIngredients []string) (Entry, error) {
	key := Encode(req.Ingredients, req.Settings)
	all := append(append([]string{}, req.Ingredients...), fullIngredients...)
	entry, err := s.cache.Store(ctx, key, recipes, req.Settings, all)
	if err != nil {
		return Entry{}, err
	}
	if s.publicFallback {
		if err := s.cache.PublishPublic(ctx, entry); err != nil {
			common.LogWarn("寫入公開動態失敗", zap.String("cache_key", key), zap.Error(err))
		}
	}
	return entry, nil
}
