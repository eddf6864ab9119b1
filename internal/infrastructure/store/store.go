// Package store 定義核心使用的鍵值/文件儲存介面與其實作。
//
// 每筆資料以 (partition key, sort key) 定位，ExpiresAt 為 epoch 秒（0 表示永不過期）。
// 過期資料的回收是最終一致的：讀取端會把已過期但尚未回收的資料視為不存在。
package store

import (
	"context"
	"errors"
	"time"
)

// ErrConditionFailed 條件寫入時任一鍵已存在
var ErrConditionFailed = errors.New("store: condition failed, item already exists")

// Item 儲存項目
type Item struct {
	PK        string `json:"pk"`
	SK        string `json:"sk"`
	Data      []byte `json:"data"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
}

// Expired 判斷項目在 now 時是否已過期
func (i Item) Expired(now time.Time) bool {
	return i.ExpiresAt > 0 && now.Unix() >= i.ExpiresAt
}

// KeyValueStore 外部鍵值儲存的最小介面
type KeyValueStore interface {
	// Get 讀取單筆，不存在時回傳 (nil, nil)
	Get(ctx context.Context, pk, sk string) (*Item, error)

	// Put 覆寫單筆
	Put(ctx context.Context, item Item) error

	// PutIfAbsent 只有在所有鍵都不存在時才一併寫入，否則回傳 ErrConditionFailed
	PutIfAbsent(ctx context.Context, items ...Item) error

	// BatchPut 批次寫入，單次呼叫內為原子操作
	BatchPut(ctx context.Context, items []Item) error

	// Query 依 partition key 與 sort key 前綴查詢，結果依 sort key 升冪排序
	Query(ctx context.Context, pk, skPrefix string) ([]Item, error)

	// Close 釋放資源
	Close() error
}

// ExpiresIn 依 TTL 計算 epoch 秒的過期時間
func ExpiresIn(now time.Time, ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return now.Add(ttl).Unix()
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0)
}
