package api

import (
	"recipe-engine/internal/core/ai/openrouter"
	aiservice "recipe-engine/internal/core/ai/service"
	"recipe-engine/internal/core/dictionary"
	"recipe-engine/internal/core/ingredient"
	"recipe-engine/internal/core/recipecache"
	"recipe-engine/internal/infrastructure/config"
	"recipe-engine/internal/infrastructure/store"
	"recipe-engine/internal/pkg/common"

	"go.uber.org/zap"
)

// Services 路由使用的核心服務
type Services struct {
	Store        store.KeyValueStore
	Dictionary   *dictionary.Dictionary
	Translations *dictionary.TranslationCache
	Resolver     *ingredient.Resolver
	RecipeCache  *recipecache.Service // 快取停用時為 nil
	Generator    *aiservice.Service   // OpenRouter 未啟用時為 nil
}

// NewServices 以設定與儲存組裝所有服務
func NewServices(cfg *config.Config, kv store.KeyValueStore) *Services {
	s := &Services{
		Store:        kv,
		Dictionary:   dictionary.New(kv, cfg.Resolver.Concurrency),
		Translations: dictionary.NewTranslationCache(kv, cfg.Translation.TTL),
	}

	var translator ingredient.Translator
	if cfg.OpenRouter.Enabled {
		client := openrouter.NewClient(cfg.OpenRouter)
		s.Generator = aiservice.NewService(client, cfg.Generative, cfg.OpenRouter.Timeout)
		translator = ingredient.NewGenerativeTranslator(s.Generator)
	} else {
		common.LogWarn("OpenRouter 未啟用，食材解析不使用生成式後備")
	}

	s.Resolver = ingredient.NewResolver(s.Dictionary, s.Translations, translator, ingredient.Options{
		Concurrency:       cfg.Resolver.Concurrency,
		GenerativeTimeout: cfg.Resolver.GenerativeTimeout,
	})

	if cfg.Cache.Enabled {
		cache := recipecache.New(kv, recipecache.Options{
			TTL:             cfg.Cache.TTL,
			IndexBatchSize:  cfg.Cache.IndexBatchSize,
			Concurrency:     cfg.Resolver.Concurrency,
			PublicScanLimit: cfg.Cache.PublicScanLimit,
		})
		s.RecipeCache = recipecache.NewService(cache, cfg.Cache.PublicFallback)
	}

	common.LogInfo("Services initialized",
		zap.String("store", cfg.Store.Driver),
		zap.Bool("generative_enabled", s.Generator != nil),
		zap.Bool("cache_enabled", s.RecipeCache != nil),
		zap.Bool("public_fallback", cfg.Cache.PublicFallback),
	)
	return s
}
