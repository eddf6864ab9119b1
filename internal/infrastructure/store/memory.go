package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"recipe-engine/internal/pkg/common"

	"go.uber.org/zap"
)

// MemoryStore 記憶體儲存，供開發與測試使用
type MemoryStore struct {
	mu         sync.RWMutex
	partitions map[string]map[string]Item
	now        func() time.Time
	done       chan struct{}
	closeOnce  sync.Once
	evictions  int64
}

// NewMemoryStore 創建記憶體儲存；cleanupInterval > 0 時啟動背景回收
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		partitions: make(map[string]map[string]Item),
		now:        time.Now,
		done:       make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go s.startCleanup(cleanupInterval)
	}

	return s
}

// Get 讀取單筆
func (s *MemoryStore) Get(_ context.Context, pk, sk string) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.partitions[pk][sk]
	if !ok || item.Expired(s.now()) {
		return nil, nil
	}
	cp := copyItem(item)
	return &cp, nil
}

// Put 覆寫單筆
func (s *MemoryStore) Put(_ context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.putLocked(item)
	return nil
}

// PutIfAbsent 條件寫入
func (s *MemoryStore) PutIfAbsent(_ context.Context, items ...Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, item := range items {
		if existing, ok := s.partitions[item.PK][item.SK]; ok && !existing.Expired(now) {
			return ErrConditionFailed
		}
	}
	for _, item := range items {
		s.putLocked(item)
	}
	return nil
}

// BatchPut 批次寫入
func (s *MemoryStore) BatchPut(_ context.Context, items []Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		s.putLocked(item)
	}
	return nil
}

// Query 依前綴查詢
func (s *MemoryStore) Query(_ context.Context, pk, skPrefix string) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var out []Item
	for sk, item := range s.partitions[pk] {
		if !strings.HasPrefix(sk, skPrefix) || item.Expired(now) {
			continue
		}
		out = append(out, copyItem(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SK < out[j].SK })
	return out, nil
}

// Len 目前保存的項目數（含尚未回收的過期項目）
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, p := range s.partitions {
		n += len(p)
	}
	return n
}

// Close 停止背景回收並清空資料
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	common.LogInfo("記憶體儲存已關閉",
		zap.Int64("淘汰次數", s.evictions),
	)
	s.partitions = make(map[string]map[string]Item)
	return nil
}

func (s *MemoryStore) putLocked(item Item) {
	p, ok := s.partitions[item.PK]
	if !ok {
		p = make(map[string]Item)
		s.partitions[item.PK] = p
	}
	p[item.SK] = copyItem(item)
}

// startCleanup 啟動清理過期項目的協程
func (s *MemoryStore) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Reap()
		case <-s.done:
			return
		}
	}
}

// Reap 回收已過期的項目，回傳回收數量
func (s *MemoryStore) Reap() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	count := 0
	for pk, p := range s.partitions {
		for sk, item := range p {
			if item.Expired(now) {
				delete(p, sk)
				count++
			}
		}
		if len(p) == 0 {
			delete(s.partitions, pk)
		}
	}
	s.evictions += int64(count)

	if count > 0 {
		common.LogDebug("Cleaned up expired store items",
			zap.Int("count", count),
			zap.Int64("total_evictions", s.evictions),
		)
	}
	return count
}

func copyItem(item Item) Item {
	cp := item
	if item.Data != nil {
		cp.Data = append([]byte(nil), item.Data...)
	}
	return cp
}

// SetClock 替換時間來源（測試用）
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}
