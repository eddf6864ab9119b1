// Package units 將食材份量字串換算為相對 100g 營養基準的倍數。
package units

import (
	"regexp"
	"strconv"
	"strings"

	"recipe-engine/internal/core/normalize"
)

const (
	// nutritionBasisGrams 營養資料皆為每 100g
	nutritionBasisGrams = 100.0

	// defaultGramsPerUnit 無法辨識的單位一律視為 100g
	defaultGramsPerUnit = 100.0
)

// amountPattern 拆出開頭的數值（支援小數點、逗號與分數）與其後的單位
var amountPattern = regexp.MustCompile(`^\s*(\d+(?:[.,]\d+)?(?:\s*/\s*\d+(?:[.,]\d+)?)?)\s*(.*?)\s*$`)

// ParseAmountMultiplier 回傳 (數值 × 每單位克數) / 100。
// 無法解析或空字串回傳 1.0；不認識的單位以 100g 計算。
func ParseAmountMultiplier(amountText string) float64 {
	value, unit, ok := ParseAmount(amountText)
	if !ok {
		return 1.0
	}
	return value * GramsFor(unit) / nutritionBasisGrams
}

// ParseAmount 拆出數值與單位字串
func ParseAmount(amountText string) (float64, string, bool) {
	m := amountPattern.FindStringSubmatch(amountText)
	if m == nil {
		return 0, "", false
	}
	value, ok := parseNumber(m[1])
	if !ok {
		return 0, "", false
	}
	return value, m[2], true
}

// GramsFor 查詢單位對應的克數，未知單位回傳 100
func GramsFor(unit string) float64 {
	key := normalize.Slug(unit)
	if g, ok := GramsPerUnit[key]; ok {
		return g
	}
	// 「2 muỗng canh đường」：單位後面接食材名稱時取最長的已知前綴
	parts := strings.Split(key, "-")
	for n := len(parts) - 1; n > 0; n-- {
		if g, ok := GramsPerUnit[strings.Join(parts[:n], "-")]; ok {
			return g
		}
	}
	return defaultGramsPerUnit
}

func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if num, den, found := strings.Cut(s, "/"); found {
		n, err1 := strconv.ParseFloat(strings.TrimSpace(num), 64)
		d, err2 := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
