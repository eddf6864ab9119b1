package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Store       StoreConfig       `mapstructure:"store"`
	OpenRouter  OpenRouterConfig  `mapstructure:"openrouter"`
	Generative  GenerativeConfig  `mapstructure:"generative"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Translation TranslationConfig `mapstructure:"translation"`
	Resolver    ResolverConfig    `mapstructure:"resolver"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	LogLevel    string            `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// StoreConfig 鍵值儲存設定
type StoreConfig struct {
	Driver          string        `mapstructure:"driver"` // memory | redis | sqlite
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	Redis           RedisConfig   `mapstructure:"redis"`
	SQLite          SQLiteConfig  `mapstructure:"sqlite"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SQLiteConfig SQLite 設定
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// GenerativeConfig 生成式服務的保護設定
type GenerativeConfig struct {
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Burst         int           `mapstructure:"burst"`
	Breaker       BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig 斷路器設定
type BreakerConfig struct {
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

// CacheConfig 食譜快取設定
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	TTL             time.Duration `mapstructure:"ttl"`
	IndexBatchSize  int           `mapstructure:"index_batch_size"`
	PublicFallback  bool          `mapstructure:"public_fallback"`
	PublicScanLimit int           `mapstructure:"public_scan_limit"`
}

// TranslationConfig 翻譯快取設定
type TranslationConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// ResolverConfig 食材解析設定
type ResolverConfig struct {
	Concurrency       int           `mapstructure:"concurrency"`
	GenerativeTimeout time.Duration `mapstructure:"generative_timeout"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Requests    int           `mapstructure:"requests"`
	Window      time.Duration `mapstructure:"window"`
	DedupWindow time.Duration `mapstructure:"dedup_window"` // 相同寫入請求的去重時間窗
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 為選用
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	_ = v.BindEnv("openrouter.api_key", "OPENROUTER_API_KEY")
	_ = v.BindEnv("openrouter.model", "OPENROUTER_MODEL")
	_ = v.BindEnv("openrouter.max_tokens", "MODEL_MAX_TOKENS")
	_ = v.BindEnv("store.driver", "STORE_DRIVER")
	_ = v.BindEnv("store.redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("store.redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("store.sqlite.path", "SQLITE_PATH")
	_ = v.BindEnv("cache.enabled", "CACHE_ENABLED")
	_ = v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	_ = v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	_ = v.BindEnv("log_level", "LOG_LEVEL")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// logger 尚未初始化，改用 fmt.Println
	fmt.Println("Loading configuration", "store_driver:", v.GetString("store.driver"), "openrouter_api_key:", maskAPIKey(v.GetString("openrouter.api_key")))

	return decode(v)
}

// Default 回傳只含預設值的設定（CLI 與測試使用）
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		// 預設值必定合法
		panic(err)
	}
	return cfg
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-engine")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")

	// 儲存設定
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.cleanup_interval", "10m")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.sqlite.path", "data/recipe-engine.db")

	// OpenRouter 設定
	v.SetDefault("openrouter.enabled", false)
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "qwen/qwen2.5-72b-instruct:free")
	v.SetDefault("openrouter.max_tokens", 512)
	v.SetDefault("openrouter.timeout", "30s")

	// 生成式服務保護
	v.SetDefault("generative.rate_per_second", 2.0)
	v.SetDefault("generative.burst", 4)
	v.SetDefault("generative.breaker.max_requests", 3)
	v.SetDefault("generative.breaker.interval", "60s")
	v.SetDefault("generative.breaker.timeout", "30s")
	v.SetDefault("generative.breaker.failure_threshold", 5)

	// 食譜快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.index_batch_size", 25)
	v.SetDefault("cache.public_fallback", false)
	v.SetDefault("cache.public_scan_limit", 200)

	// 翻譯快取：一年
	v.SetDefault("translation.ttl", "8760h")

	// 食材解析
	v.SetDefault("resolver.concurrency", 8)
	v.SetDefault("resolver.generative_timeout", "15s")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("rate_limit.dedup_window", "1s")

	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	switch config.Store.Driver {
	case "memory", "redis", "sqlite":
	default:
		return fmt.Errorf("unknown store driver %q", config.Store.Driver)
	}
	if config.Store.Driver == "redis" && config.Store.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required for redis store")
	}
	if config.Store.Driver == "sqlite" && config.Store.SQLite.Path == "" {
		return fmt.Errorf("sqlite path is required for sqlite store")
	}

	if config.Cache.Enabled {
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.IndexBatchSize <= 0 {
			return fmt.Errorf("invalid cache index batch size")
		}
	}

	if config.Translation.TTL <= 0 {
		return fmt.Errorf("invalid translation ttl")
	}
	if config.Resolver.Concurrency <= 0 {
		return fmt.Errorf("invalid resolver concurrency")
	}
	if config.OpenRouter.Enabled && config.OpenRouter.APIKey == "" {
		return fmt.Errorf("openrouter api key is required when openrouter is enabled")
	}

	return nil
}
