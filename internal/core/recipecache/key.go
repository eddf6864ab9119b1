package recipecache

import (
	"fmt"
	"sort"
	"strings"

	"recipe-engine/internal/core/normalize"
)

// keyEscaper 跳脫分隔字元，避免不同食材組合產生相同的鍵
var keyEscaper = strings.NewReplacer("%", "%25", "_", "%5F")

// methodEscaper 烹調方式以 "-" 連接，另外跳脫 "-"
var methodEscaper = strings.NewReplacer("%", "%25", "_", "%5F", "-", "%2D")

// Encode 以查詢食材與設定產生快取鍵，與食材順序無關
//
// 不喜歡的食材不納入鍵，由比對規則處理。
func Encode(ingredients []string, settings Settings) string {
	var b strings.Builder
	b.WriteString(joinEscaped(termSet(ingredients), "_", keyEscaper))
	fmt.Fprintf(&b, "_s%d_%s_t%d", settings.Servings, keyEscaper.Replace(normalize.Term(settings.mealType())), settings.MaxTimeMinutes)
	if methods := termSet(settings.PreferredCookingMethods); len(methods) > 0 {
		b.WriteString("_")
		b.WriteString(joinEscaped(methods, "-", methodEscaper))
	}
	return b.String()
}

func joinEscaped(parts []string, sep string, r *strings.Replacer) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = r.Replace(p)
	}
	return strings.Join(escaped, sep)
}

// termSet 正規化、去重並排序
func termSet(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = normalize.Term(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
