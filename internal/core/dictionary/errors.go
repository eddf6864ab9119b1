package dictionary

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateVietnamese 越南文鍵已存在
	ErrDuplicateVietnamese = errors.New("dictionary: vietnamese term already exists")
	// ErrDuplicateEnglish 英文 specific 詞已被其他項目使用
	ErrDuplicateEnglish = errors.New("dictionary: english term already exists")
	// ErrInvalidEntry 缺少必要欄位
	ErrInvalidEntry = errors.New("dictionary: invalid entry")
	// ErrTranslationNotFound 翻譯快取中沒有可提升的項目
	ErrTranslationNotFound = errors.New("dictionary: translation not cached")
)

// DuplicateError 指出衝突的欄位
type DuplicateError struct {
	Field string // "vietnamese" 或 "english"
	Term  string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("dictionary: duplicate %s term %q", e.Field, e.Term)
}

// Is 讓 errors.Is 可比對對應的 sentinel
func (e *DuplicateError) Is(target error) bool {
	switch e.Field {
	case fieldVietnamese:
		return target == ErrDuplicateVietnamese
	case fieldEnglish:
		return target == ErrDuplicateEnglish
	}
	return false
}

const (
	fieldVietnamese = "vietnamese"
	fieldEnglish    = "english"
)
