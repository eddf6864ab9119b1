package ingredient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recipe-engine/internal/core/ai/provider"
	"recipe-engine/internal/core/dictionary"
	"recipe-engine/internal/pkg/common"
)

// ErrNoJSON 模型回應中找不到 JSON 物件
var ErrNoJSON = errors.New("no JSON object in generative response")

// Translator 第三層翻譯來源
type Translator interface {
	Translate(ctx context.Context, vietnamese string) (*dictionary.Translation, error)
}

// GenerativeTranslator 以生成式模型翻譯食材並估算營養成分
type GenerativeTranslator struct {
	generator provider.TextGenerator
}

// NewGenerativeTranslator 建立翻譯器
func NewGenerativeTranslator(generator provider.TextGenerator) *GenerativeTranslator {
	return &GenerativeTranslator{generator: generator}
}

const translatePrompt = `You translate Vietnamese cooking ingredients to English.
Ingredient: %q
Reply with a single JSON object and nothing else:
{"english": "<specific english name>", "general": "<generic english name>", "category": "<meat|seafood|vegetable|fruit|herb|spice|sauce|grain|dairy|egg|other>", "nutrition": {"calories": <kcal per 100g>, "protein": <g>, "carbs": <g>, "fat": <g>, "fiber": <g>}}`

// translationReply 模型回傳格式
type translationReply struct {
	English   string                `json:"english"`
	General   string                `json:"general"`
	Category  string                `json:"category"`
	Nutrition *dictionary.Nutrition `json:"nutrition"`
}

// Translate 呼叫模型並解析回應
func (t *GenerativeTranslator) Translate(ctx context.Context, vietnamese string) (*dictionary.Translation, error) {
	text, err := t.generator.Generate(ctx, fmt.Sprintf(translatePrompt, vietnamese))
	if err != nil {
		return nil, err
	}
	reply, err := parseReply(text)
	if err != nil {
		return nil, err
	}

	english := strings.TrimSpace(reply.English)
	if english == "" {
		return nil, fmt.Errorf("generative response missing english term")
	}
	general := strings.TrimSpace(reply.General)
	if general == "" {
		general = english
	}
	category := strings.ToLower(strings.TrimSpace(reply.Category))
	if category == "" {
		category = CategoryUnknown
	}
	return &dictionary.Translation{
		Target: dictionary.Target{
			Specific: strings.ToLower(english),
			General:  strings.ToLower(general),
			Category: category,
		},
		Nutrition: reply.Nutrition,
	}, nil
}

// parseReply 擷取第一個 JSON 物件；鍵未加引號時補上再解析一次
func parseReply(text string) (*translationReply, error) {
	obj, ok := common.ExtractJSONObject(text)
	if !ok {
		return nil, ErrNoJSON
	}
	var reply translationReply
	if err := common.ParseJSON(obj, &reply); err == nil {
		return &reply, nil
	}
	if err := common.ParseJSON(common.QuoteJSONKeys(obj), &reply); err != nil {
		return nil, fmt.Errorf("failed to parse generative response: %w", err)
	}
	return &reply, nil
}
