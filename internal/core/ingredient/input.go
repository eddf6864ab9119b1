package ingredient

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"recipe-engine/internal/pkg/common"
)

// Canonical 解析前的統一食材格式
type Canonical struct {
	VietnameseText string
	AmountText     string
	Notes          string
}

// RawInput 可接受的原始食材格式（封閉集合）
type RawInput interface {
	canonical() Canonical
}

// PlainText 純文字，如 "200g thịt ba chỉ"
type PlainText string

// VietnameseName 帶越南文名稱的物件
type VietnameseName struct {
	Name   string
	Amount string
	Notes  string
}

// BilingualName 英文名稱加越南文別名
type BilingualName struct {
	English         string
	VietnameseAlias string
	Amount          string
	Notes           string
}

// EnglishName 只有英文名稱
type EnglishName struct {
	Name   string
	Amount string
	Notes  string
}

// Unknown 無法辨識的格式，直接字串化
type Unknown struct {
	Value interface{}
}

func (p PlainText) canonical() Canonical {
	return Canonical{VietnameseText: strings.TrimSpace(string(p))}
}

func (v VietnameseName) canonical() Canonical {
	return Canonical{VietnameseText: strings.TrimSpace(v.Name), AmountText: v.Amount, Notes: v.Notes}
}

func (b BilingualName) canonical() Canonical {
	text := b.VietnameseAlias
	if strings.TrimSpace(text) == "" {
		text = b.English
	}
	return Canonical{VietnameseText: strings.TrimSpace(text), AmountText: b.Amount, Notes: b.Notes}
}

func (e EnglishName) canonical() Canonical {
	return Canonical{VietnameseText: strings.TrimSpace(e.Name), AmountText: e.Amount, Notes: e.Notes}
}

func (u Unknown) canonical() Canonical {
	return Canonical{VietnameseText: strings.TrimSpace(stringify(u.Value))}
}

// ToCanonical 轉為統一格式
func ToCanonical(in RawInput) Canonical {
	if in == nil {
		return Canonical{}
	}
	return in.canonical()
}

// rawShape 涵蓋所有舊版物件欄位
type rawShape struct {
	Name            string      `json:"name"`
	Vietnamese      string      `json:"vietnamese"`
	VietnameseName  string      `json:"vietnamese_name"`
	English         string      `json:"english"`
	EnglishName     string      `json:"english_name"`
	VietnameseAlias string      `json:"vietnamese_alias"`
	Amount          interface{} `json:"amount"`
	Quantity        interface{} `json:"quantity"`
	Unit            string      `json:"unit"`
	Notes           string      `json:"notes"`
}

// DecodeRawInput 將 JSON 值轉為 RawInput，無法辨識時回傳 Unknown
func DecodeRawInput(raw json.RawMessage) RawInput {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return Unknown{}
	}

	var text string
	if err := common.Unmarshal(raw, &text); err == nil {
		return PlainText(text)
	}

	var shape rawShape
	if strings.HasPrefix(trimmed, "{") && common.Unmarshal(raw, &shape) == nil {
		if in, ok := shape.toInput(); ok {
			return in
		}
	}

	var value interface{}
	if err := common.Unmarshal(raw, &value); err != nil {
		return Unknown{Value: trimmed}
	}
	return Unknown{Value: value}
}

// DecodeRawInputs 批次轉換
func DecodeRawInputs(raws []json.RawMessage) []RawInput {
	out := make([]RawInput, len(raws))
	for i, raw := range raws {
		out[i] = DecodeRawInput(raw)
	}
	return out
}

func (s rawShape) toInput() (RawInput, bool) {
	amount := s.amountText()
	english := firstNonEmpty(s.English, s.EnglishName)

	if vi := firstNonEmpty(s.Vietnamese, s.VietnameseName, s.Name); vi != "" && english == "" {
		return VietnameseName{Name: vi, Amount: amount, Notes: s.Notes}, true
	}
	if english != "" {
		alias := firstNonEmpty(s.VietnameseAlias, s.Vietnamese, s.VietnameseName)
		if alias != "" {
			return BilingualName{English: english, VietnameseAlias: alias, Amount: amount, Notes: s.Notes}, true
		}
		return EnglishName{Name: english, Amount: amount, Notes: s.Notes}, true
	}
	return nil, false
}

func (s rawShape) amountText() string {
	if a := stringify(s.Amount); a != "" {
		return a
	}
	q := stringify(s.Quantity)
	if q == "" {
		return ""
	}
	return strings.TrimSpace(q + " " + s.Unit)
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool, int, int64:
		return fmt.Sprint(t)
	}
	if s, err := common.ToJSON(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
