package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recipe-engine/internal/core/ai/provider"
	"recipe-engine/internal/infrastructure/config"
	"recipe-engine/internal/metrics"
	"recipe-engine/internal/pkg/common"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

var (
	// ErrUnavailable 斷路器開啟中，暫停呼叫模型
	ErrUnavailable = errors.New("generative service unavailable")
	// ErrRateLimited 在期限內等不到呼叫額度
	ErrRateLimited = errors.New("generative service rate limited")
)

const breakerName = "generative"

// Service 受保護的生成式服務：限流、斷路器、相同 prompt 合併與逾時
type Service struct {
	generator provider.TextGenerator
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[string]
	group     singleflight.Group
	timeout   time.Duration
}

var _ provider.TextGenerator = (*Service)(nil)

// NewService 包裝 generator，timeout 為單次呼叫上限（0 表示只看呼叫端 ctx）
func NewService(generator provider.TextGenerator, cfg config.GenerativeConfig, timeout time.Duration) *Service {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	threshold := cfg.Breaker.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	metrics.GenerativeBreakerState.Set(0)
	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.GenerativeBreakerState.Set(stateValue(to))
			common.LogWarn("斷路器狀態變更",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Service{
		generator: generator,
		limiter:   rate.NewLimiter(limit, burst),
		breaker:   breaker,
		timeout:   timeout,
	}
}

// Generate 呼叫模型；相同 prompt 同時進行時只會送出一次請求
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	key := strings.TrimSpace(prompt)
	if key == "" {
		return "", common.NewValidationError("prompt is empty")
	}

	ch := s.group.DoChan(key, func() (interface{}, error) {
		return s.call(ctx, key)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Available 斷路器未開啟時回傳 true
func (s *Service) Available() bool {
	return s.breaker.State() != gobreaker.StateOpen
}

// State 斷路器狀態字串
func (s *Service) State() string {
	return s.breaker.State().String()
}

func (s *Service) call(ctx context.Context, prompt string) (string, error) {
	// 共用結果的呼叫不應因第一位呼叫者取消而失敗
	callCtx := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithDeadline(callCtx, deadline)
		defer cancel()
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, s.timeout)
		defer cancel()
	}

	if err := s.limiter.Wait(callCtx); err != nil {
		metrics.GenerativeRequests.WithLabelValues("rate_limited").Inc()
		return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
	}

	start := time.Now()
	out, err := s.breaker.Execute(func() (string, error) {
		return s.generator.Generate(callCtx, prompt)
	})
	metrics.GenerativeDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.GenerativeRequests.WithLabelValues("success").Inc()
		return out, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.GenerativeRequests.WithLabelValues("breaker_open").Inc()
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		metrics.GenerativeRequests.WithLabelValues("error").Inc()
		return "", err
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return 0
}
