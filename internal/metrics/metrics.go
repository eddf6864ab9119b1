// Package metrics 定義 Prometheus 指標，於 /metrics 對外輸出。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookups 食譜快取查詢結果（exact / partial / public / miss）
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipe_cache_lookups_total",
			Help: "Recipe cache lookups by result source",
		},
		[]string{"source"},
	)

	// CacheStores 寫入的快取項目數
	CacheStores = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipe_cache_stores_total",
			Help: "Recipe cache entries written",
		},
	)

	// CacheIndexWriteFailures 食材索引批次寫入失敗次數
	CacheIndexWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipe_cache_index_write_failures_total",
			Help: "Ingredient index chunks that failed to write",
		},
	)

	// CacheMatchScore 部分比對最佳分數分布
	CacheMatchScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recipe_cache_match_score",
			Help:    "Score of the best partial match",
			Buckets: []float64{50, 60, 70, 80, 85, 90, 95, 100},
		},
	)

	// IngredientResolutions 各層級解析次數
	IngredientResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingredient_resolutions_total",
			Help: "Ingredient resolutions by tier",
		},
		[]string{"tier"},
	)

	// DictionaryInserts 字典寫入結果
	DictionaryInserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dictionary_inserts_total",
			Help: "Dictionary insert outcomes",
		},
		[]string{"outcome"},
	)

	// GenerativeRequests 生成式服務呼叫結果
	GenerativeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generative_requests_total",
			Help: "Generative text requests by outcome",
		},
		[]string{"outcome"},
	)

	// GenerativeDuration 生成式服務延遲
	GenerativeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "generative_request_duration_seconds",
			Help:    "Latency of generative text requests",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	// GenerativeBreakerState 斷路器狀態：0=closed, 1=half-open, 2=open
	GenerativeBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "generative_breaker_state",
			Help: "Circuit breaker state for the generative client",
		},
	)
)
