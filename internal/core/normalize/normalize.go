// Package normalize 將食材名稱轉為穩定的 ASCII slug。
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// 分解後不會消失的帶筆畫字母
var strokeLetters = strings.NewReplacer(
	"đ", "d", "Đ", "d",
	"ø", "o", "Ø", "o",
	"ł", "l", "Ł", "l",
	"ß", "ss",
)

// Slug 小寫、去除變音符號、空白轉連字號，只保留 [a-z0-9-]
//
//	Slug("Thịt Ba Chỉ") == "thit-ba-chi"
func Slug(text string) string {
	if text == "" {
		return ""
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strokeLetters.Replace(strings.ToLower(text)))
	if err != nil {
		folded = strings.ToLower(text)
	}

	var b strings.Builder
	b.Grow(len(folded))
	lastHyphen := true // 吃掉開頭的連字號
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r == '-' || unicode.IsSpace(r):
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}

// Term 英文詞彙的比對鍵：小寫，連續空白收斂為單一空格
func Term(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
