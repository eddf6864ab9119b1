package common

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
)

// Marshal 統一的 JSON 編碼入口
func Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal 統一的 JSON 解碼入口
func Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// ParseJSON 解析 JSON 字符串到結構體
func ParseJSON(data string, v interface{}) error {
	return decodeJSON(strings.NewReader(data), v)
}

// DecodeJSON 使用統一設定解析 JSON
func DecodeJSON(r io.Reader, v interface{}) error {
	return decodeJSON(r, v)
}

func decodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)

	if err := dec.Decode(v); err != nil {
		return err
	}

	// 確保沒有多餘資料
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return fmt.Errorf("unexpected extra JSON data")
	}
	return nil
}

var unquotedKeyPattern = regexp.MustCompile(`([{\[,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)

// QuoteJSONKeys 將未加雙引號的鍵補上雙引號
func QuoteJSONKeys(raw string) string {
	return unquotedKeyPattern.ReplaceAllString(raw, `$1"$2":`)
}

// ExtractJSONObject 從夾雜說明文字的 AI 回應中擷取第一個完整的 JSON 物件
func ExtractJSONObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	for start != -1 {
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(text); i++ {
			c := text[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '{':
				depth++
			case '}':
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
		// 未閉合，從下一個 { 重試
		next := strings.Index(text[start+1:], "{")
		if next == -1 {
			break
		}
		start += next + 1
	}
	return "", false
}

// ToJSON 將結構體轉換為 JSON 字符串
func ToJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
