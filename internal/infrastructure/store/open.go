package store

import (
	"context"
	"fmt"

	"recipe-engine/internal/infrastructure/config"
	"recipe-engine/internal/pkg/common"

	"go.uber.org/zap"
)

// Open 依設定建立儲存實作
func Open(ctx context.Context, cfg config.StoreConfig) (KeyValueStore, error) {
	switch cfg.Driver {
	case "memory":
		common.LogInfo("使用記憶體儲存", zap.Duration("清理間隔", cfg.CleanupInterval))
		return NewMemoryStore(cfg.CleanupInterval), nil
	case "redis":
		s, err := NewRedisStore(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		common.LogInfo("使用 Redis 儲存", zap.String("addr", cfg.Redis.Addr), zap.Int("db", cfg.Redis.DB))
		return s, nil
	case "sqlite":
		s, err := NewSQLiteStore(cfg.SQLite.Path, cfg.CleanupInterval)
		if err != nil {
			return nil, err
		}
		common.LogInfo("使用 SQLite 儲存", zap.String("path", cfg.SQLite.Path), zap.Duration("清理間隔", cfg.CleanupInterval))
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
