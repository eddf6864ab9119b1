package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"recipe-engine/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Redis 鍵配置：
//
//	kv:{pk}:{sk}   字串值，內容為 Item 的 JSON，過期以 EXPIREAT 交給 Redis
//	kvp:{pk}       ZSET（score 皆為 0），成員為 sk，用於前綴查詢
//	kvx:{pk}       ZSET，score 為 ExpiresAt，只收會過期的 sk
//
// Query 會先移除 kvx 中已到期的成員，再把 MGET 取不到值的成員從 kvp 清掉。
const (
	redisItemPrefix      = "kv:"
	redisPartitionPrefix = "kvp:"
	redisExpiryPrefix    = "kvx:"
)

// putIfAbsentScript 檢查所有資料鍵皆不存在後一併寫入
//
// KEYS: n 個資料鍵、n 個 kvp、n 個 kvx；ARGV: (data, expiresAt) × n，接著 n 個 sk
var putIfAbsentScript = redis.NewScript(`
local n = #KEYS / 3
for i = 1, n do
  if redis.call('EXISTS', KEYS[i]) == 1 then
    return 0
  end
end
for i = 1, n do
  local sk = ARGV[2*n+i]
  redis.call('SET', KEYS[i], ARGV[2*i-1])
  local exp = tonumber(ARGV[2*i])
  if exp > 0 then
    redis.call('EXPIREAT', KEYS[i], exp)
    redis.call('ZADD', KEYS[2*n+i], exp, sk)
  else
    redis.call('ZREM', KEYS[2*n+i], sk)
  end
  redis.call('ZADD', KEYS[n+i], 0, sk)
end
return 1
`)

// RedisStore Redis 儲存
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 創建 Redis 儲存並測試連線
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func itemKey(pk, sk string) string {
	return redisItemPrefix + pk + ":" + sk
}

func partitionKey(pk string) string {
	return redisPartitionPrefix + pk
}

func expiryKey(pk string) string {
	return redisExpiryPrefix + pk
}

// Get 讀取單筆
func (s *RedisStore) Get(ctx context.Context, pk, sk string) (*Item, error) {
	data, err := s.client.Get(ctx, itemKey(pk, sk)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	var item Item
	if err := common.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return &item, nil
}

// Put 覆寫單筆
func (s *RedisStore) Put(ctx context.Context, item Item) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return queuePut(ctx, pipe, item)
	})
	if err != nil {
		return fmt.Errorf("failed to put item: %w", err)
	}
	return nil
}

// PutIfAbsent 以 Lua 腳本原子地條件寫入
func (s *RedisStore) PutIfAbsent(ctx context.Context, items ...Item) error {
	if len(items) == 0 {
		return nil
	}

	n := len(items)
	keys := make([]string, 3*n)
	args := make([]interface{}, 3*n)
	for i, item := range items {
		data, err := common.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal item: %w", err)
		}
		keys[i] = itemKey(item.PK, item.SK)
		keys[n+i] = partitionKey(item.PK)
		keys[2*n+i] = expiryKey(item.PK)
		args[2*i] = data
		args[2*i+1] = item.ExpiresAt
		args[2*n+i] = item.SK
	}

	ok, err := putIfAbsentScript.Run(ctx, s.client, keys, args...).Int()
	if err != nil {
		return fmt.Errorf("failed to run conditional put: %w", err)
	}
	if ok == 0 {
		return ErrConditionFailed
	}
	return nil
}

// BatchPut 以 MULTI/EXEC 批次寫入
func (s *RedisStore) BatchPut(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, item := range items {
			if err := queuePut(ctx, pipe, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to batch put: %w", err)
	}
	return nil
}

// Query 依前綴查詢，順便清除已過期或已被回收的 partition 成員
func (s *RedisStore) Query(ctx context.Context, pk, skPrefix string) ([]Item, error) {
	if err := s.pruneExpired(ctx, pk, time.Now()); err != nil {
		return nil, err
	}

	rng := &redis.ZRangeBy{Min: "-", Max: "+"}
	if skPrefix != "" {
		rng = &redis.ZRangeBy{Min: "[" + skPrefix, Max: "[" + skPrefix + "\xff"}
	}

	members, err := s.client.ZRangeByLex(ctx, partitionKey(pk), rng).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query partition: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	keys := make([]string, len(members))
	for i, sk := range members {
		keys[i] = itemKey(pk, sk)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch items: %w", err)
	}

	out := make([]Item, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var item Item
		if err := common.Unmarshal([]byte(str), &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item: %w", err)
		}
		out = append(out, item)
	}

	if gone := danglingMembers(members, values); len(gone) > 0 {
		if err := s.removeMembers(ctx, pk, gone); err != nil {
			common.LogWarn("清除失效 partition 成員失敗", zap.String("pk", pk), zap.Error(err))
		}
	}
	return out, nil
}

// pruneExpired 移除 ExpiresAt 已到的成員
func (s *RedisStore) pruneExpired(ctx context.Context, pk string, now time.Time) error {
	upper := strconv.FormatInt(now.Unix(), 10)
	expired, err := s.client.ZRangeByScore(ctx, expiryKey(pk), &redis.ZRangeBy{Min: "-inf", Max: upper}).Result()
	if err != nil {
		return fmt.Errorf("failed to read expiry index: %w", err)
	}
	if len(expired) == 0 {
		return nil
	}
	if err := s.removeMembers(ctx, pk, expired); err != nil {
		return err
	}
	common.LogDebug("Pruned expired partition members", zap.String("pk", pk), zap.Int("count", len(expired)))
	return nil
}

func (s *RedisStore) removeMembers(ctx context.Context, pk string, sks []string) error {
	members := make([]interface{}, len(sks))
	for i, sk := range sks {
		members[i] = sk
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, partitionKey(pk), members...)
		pipe.ZRem(ctx, expiryKey(pk), members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to remove partition members: %w", err)
	}
	return nil
}

// danglingMembers 回傳 MGET 取不到值的成員
func danglingMembers(members []string, values []interface{}) []string {
	var gone []string
	for i, v := range values {
		if i >= len(members) {
			break
		}
		if _, ok := v.(string); !ok {
			gone = append(gone, members[i])
		}
	}
	return gone
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func queuePut(ctx context.Context, pipe redis.Pipeliner, item Item) error {
	data, err := common.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	key := itemKey(item.PK, item.SK)
	pipe.Set(ctx, key, data, 0)
	if item.ExpiresAt > 0 {
		pipe.ExpireAt(ctx, key, unixTime(item.ExpiresAt))
		pipe.ZAdd(ctx, expiryKey(item.PK), &redis.Z{Score: float64(item.ExpiresAt), Member: item.SK})
	} else {
		pipe.ZRem(ctx, expiryKey(item.PK), item.SK)
	}
	pipe.ZAdd(ctx, partitionKey(item.PK), &redis.Z{Score: 0, Member: item.SK})
	return nil
}
