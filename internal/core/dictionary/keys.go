package dictionary

import "recipe-engine/internal/core/normalize"

const (
	dictionaryPK       = "DICTIONARY"
	translationCachePK = "TRANSLATION_CACHE"
	ingredientSKPrefix = "INGREDIENT#"

	// 反向索引的 sort key
	dictionaryReverseSK  = "DICTIONARY"
	translationReverseSK = "TRANSLATION_CACHE"
)

func ingredientSK(slug string) string {
	return ingredientSKPrefix + slug
}

// dictionaryReversePK 字典反向索引以英文詞本身為 partition key
func dictionaryReversePK(english string) string {
	return normalize.Term(english)
}

// translationReversePK 翻譯快取反向索引以正規化英文為 partition key
func translationReversePK(english string) string {
	return normalize.Slug(english)
}

// reversePointer 反向索引內容
type reversePointer struct {
	Source string `json:"source"`
}
