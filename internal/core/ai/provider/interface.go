package provider

import (
	"context"
	"errors"
)

// ErrEmptyResponse 模型回傳空內容
var ErrEmptyResponse = errors.New("generative provider returned empty content")

// TextGenerator 接受單一 prompt 並回傳自由文字的生成式服務
type TextGenerator interface {
	// Generate 生成文字，應遵守 ctx 的期限與取消
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc 讓一般函式實作 TextGenerator
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate 呼叫 f
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
