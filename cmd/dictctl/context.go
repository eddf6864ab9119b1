package main

import (
	"context"
	"sync"

	"recipe-engine/internal/core/dictionary"
	"recipe-engine/internal/infrastructure/config"
	"recipe-engine/internal/infrastructure/store"
)

// commandContext 延遲載入設定與儲存，只在需要的子命令開啟
type commandContext struct {
	driverFlag *string

	once  sync.Once
	cfg   *config.Config
	store store.KeyValueStore
	err   error
}

func newCommandContext(driverFlag *string) *commandContext {
	return &commandContext{driverFlag: driverFlag}
}

func (c *commandContext) ensureStore(ctx context.Context) (store.KeyValueStore, *config.Config, error) {
	c.once.Do(func() {
		cfg, err := config.LoadConfig()
		if err != nil {
			c.err = err
			return
		}
		if c.driverFlag != nil && *c.driverFlag != "" {
			cfg.Store.Driver = *c.driverFlag
		}
		kv, err := store.Open(ctx, cfg.Store)
		if err != nil {
			c.err = err
			return
		}
		c.cfg, c.store = cfg, kv
	})
	return c.store, c.cfg, c.err
}

func (c *commandContext) dictionary(ctx context.Context) (*dictionary.Dictionary, *dictionary.TranslationCache, error) {
	kv, cfg, err := c.ensureStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	return dictionary.New(kv, cfg.Resolver.Concurrency), dictionary.NewTranslationCache(kv, cfg.Translation.TTL), nil
}

func (c *commandContext) close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}
