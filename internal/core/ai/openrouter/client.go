package openrouter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"recipe-engine/internal/core/ai/provider"
	"recipe-engine/internal/infrastructure/config"
	"recipe-engine/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	// 日誌中保留的回應長度
	maxLoggedBody = 512
)

// Client OpenRouter API 客戶端
type Client struct {
	client *resty.Client
	cfg    config.OpenRouterConfig
}

// Message 消息結構
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request 表示 API 請求
type Request struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// Response OpenRouter 響應結構
type Response struct {
	ID      string    `json:"id"`
	Choices []Choice  `json:"choices"`
	Usage   UsageInfo `json:"usage"`
}

// Choice 選擇結構
type Choice struct {
	Message Message `json:"message"`
}

// UsageInfo 使用量信息
type UsageInfo struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Error 表示 API 錯誤
type Error struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}

var _ provider.TextGenerator = (*Client)(nil)

// NewClient 創建新的 OpenRouter 客戶端
func NewClient(cfg config.OpenRouterConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("HTTP-Referer", "https://recipe-engine.local").
		SetHeader("X-Title", "Recipe Engine").
		SetJSONMarshaler(common.Marshal).
		SetJSONUnmarshaler(common.Unmarshal)

	return &Client{client: client, cfg: cfg}
}

// Model 目前使用的模型
func (c *Client) Model() string {
	return c.cfg.Model
}

// Generate 送出單一 prompt，回傳第一個 choice 的文字
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	req := &Request{
		Model: c.cfg.Model,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: 0.2,
		TopP:        0.9,
	}

	start := time.Now()
	var result Response
	var apiErr Error
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&apiErr).
		Post("/chat/completions")
	if err != nil {
		common.LogAICall(c.cfg.Model, time.Since(start), err)
		return "", fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = truncate(resp.String())
		}
		err := fmt.Errorf("OpenRouter API returned error (status %d): %s", resp.StatusCode(), msg)
		common.LogError("AI service returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("model", c.cfg.Model),
			zap.String("response", truncate(resp.String())),
		)
		common.LogAICall(c.cfg.Model, time.Since(start), err)
		return "", err
	}

	if len(result.Choices) == 0 {
		common.LogAICall(c.cfg.Model, time.Since(start), provider.ErrEmptyResponse)
		return "", fmt.Errorf("no choices in OpenRouter response: %w", provider.ErrEmptyResponse)
	}
	content := strings.TrimSpace(result.Choices[0].Message.Content)
	if content == "" {
		common.LogAICall(c.cfg.Model, time.Since(start), provider.ErrEmptyResponse)
		return "", provider.ErrEmptyResponse
	}

	common.LogAICall(c.cfg.Model, time.Since(start), nil)
	common.LogDebug("OpenRouter 回應",
		zap.String("model", c.cfg.Model),
		zap.Int("content_length", len(content)),
		zap.Int("total_tokens", result.Usage.TotalTokens),
	)
	return content, nil
}

func truncate(s string) string {
	if len(s) <= maxLoggedBody {
		return s
	}
	return s[:maxLoggedBody] + "..."
}
