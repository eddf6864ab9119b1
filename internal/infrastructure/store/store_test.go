package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "store_test.db"), 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestMemory(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore(0)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// runContract 對所有實作執行相同的行為檢查
func runContract(t *testing.T, name string, newStore func(t *testing.T) KeyValueStore) {
	ctx := context.Background()

	t.Run(name+"/get missing", func(t *testing.T) {
		s := newStore(t)
		item, err := s.Get(ctx, "P", "S")
		if err != nil {
			t.Fatal(err)
		}
		if item != nil {
			t.Fatalf("expected nil item, got %+v", item)
		}
	})

	t.Run(name+"/put and get", func(t *testing.T) {
		s := newStore(t)
		if err := s.Put(ctx, Item{PK: "P", SK: "S", Data: []byte(`{"a":1}`)}); err != nil {
			t.Fatal(err)
		}
		item, err := s.Get(ctx, "P", "S")
		if err != nil {
			t.Fatal(err)
		}
		if item == nil || string(item.Data) != `{"a":1}` {
			t.Fatalf("unexpected item: %+v", item)
		}
	})

	t.Run(name+"/put if absent", func(t *testing.T) {
		s := newStore(t)
		a := Item{PK: "DICT", SK: "INGREDIENT#a", Data: []byte("1")}
		b := Item{PK: "onion", SK: "DICT", Data: []byte("2")}
		if err := s.PutIfAbsent(ctx, a, b); err != nil {
			t.Fatal(err)
		}

		// 第二個鍵衝突時整批都不能寫入
		c := Item{PK: "DICT", SK: "INGREDIENT#c", Data: []byte("3")}
		err := s.PutIfAbsent(ctx, c, b)
		if !errors.Is(err, ErrConditionFailed) {
			t.Fatalf("expected ErrConditionFailed, got %v", err)
		}
		got, err := s.Get(ctx, "DICT", "INGREDIENT#c")
		if err != nil {
			t.Fatal(err)
		}
		if got != nil {
			t.Fatal("conditional put must be all-or-nothing")
		}
	})

	t.Run(name+"/query prefix", func(t *testing.T) {
		s := newStore(t)
		items := []Item{
			{PK: "P", SK: "INGREDIENT#b", Data: []byte("b")},
			{PK: "P", SK: "INGREDIENT#a", Data: []byte("a")},
			{PK: "P", SK: "METADATA", Data: []byte("m")},
			{PK: "Q", SK: "INGREDIENT#z", Data: []byte("z")},
		}
		if err := s.BatchPut(ctx, items); err != nil {
			t.Fatal(err)
		}

		got, err := s.Query(ctx, "P", "INGREDIENT#")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 items, got %d", len(got))
		}
		if got[0].SK != "INGREDIENT#a" || got[1].SK != "INGREDIENT#b" {
			t.Errorf("unexpected order: %s, %s", got[0].SK, got[1].SK)
		}

		all, err := s.Query(ctx, "P", "")
		if err != nil {
			t.Fatal(err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 items for empty prefix, got %d", len(all))
		}
	})

	t.Run(name+"/expired hidden", func(t *testing.T) {
		s := newStore(t)
		past := time.Now().Add(-time.Minute).Unix()
		if err := s.Put(ctx, Item{PK: "P", SK: "old", Data: []byte("x"), ExpiresAt: past}); err != nil {
			t.Fatal(err)
		}
		item, err := s.Get(ctx, "P", "old")
		if err != nil {
			t.Fatal(err)
		}
		if item != nil {
			t.Fatal("expired item should read as missing")
		}
		got, err := s.Query(ctx, "P", "")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Fatalf("expired item should not be queried, got %d", len(got))
		}
		// 過期資料不阻擋條件寫入
		if err := s.PutIfAbsent(ctx, Item{PK: "P", SK: "old", Data: []byte("y")}); err != nil {
			t.Fatalf("conditional put over expired item: %v", err)
		}
	})
}

func TestMemoryStoreContract(t *testing.T) {
	runContract(t, "memory", func(t *testing.T) KeyValueStore { return newTestMemory(t) })
}

func TestSQLiteStoreContract(t *testing.T) {
	runContract(t, "sqlite", func(t *testing.T) KeyValueStore { return newTestSQLite(t) })
}

func TestMemoryStoreReap(t *testing.T) {
	s := newTestMemory(t)
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	s.SetClock(func() time.Time { return now })

	_ = s.Put(ctx, Item{PK: "P", SK: "a", ExpiresAt: now.Add(time.Hour).Unix()})
	_ = s.Put(ctx, Item{PK: "P", SK: "b", ExpiresAt: now.Add(-time.Hour).Unix()})
	_ = s.Put(ctx, Item{PK: "P", SK: "c"})

	if n := s.Reap(); n != 1 {
		t.Errorf("Reap() = %d, want 1", n)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestSQLiteStoreReap(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_ = s.Put(ctx, Item{PK: "P", SK: "a", Data: []byte("a"), ExpiresAt: time.Now().Add(-time.Second).Unix()})
	_ = s.Put(ctx, Item{PK: "P", SK: "b", Data: []byte("b")})

	n, err := s.Reap(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Reap() = %d, want 1", n)
	}
}

func TestSQLiteStoreBackgroundCleanup(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_ = s.Put(ctx, Item{PK: "P", SK: "a", Data: []byte("a"), ExpiresAt: time.Now().Add(-time.Second).Unix()})
	_ = s.Put(ctx, Item{PK: "P", SK: "b", Data: []byte("b")})

	s.startCleanup(10 * time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for {
		var rows int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&rows); err != nil {
			t.Fatal(err)
		}
		if rows == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expired row not reaped, rows = %d", rows)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := newTestMemory(t)
	ctx := context.Background()
	_ = s.Put(ctx, Item{PK: "P", SK: "S", Data: []byte("abc")})

	item, _ := s.Get(ctx, "P", "S")
	item.Data[0] = 'z'

	again, _ := s.Get(ctx, "P", "S")
	if string(again.Data) != "abc" {
		t.Errorf("stored data mutated through returned item: %q", again.Data)
	}
}

func TestExpiresIn(t *testing.T) {
	now := time.Unix(1000, 0)
	if got := ExpiresIn(now, 0); got != 0 {
		t.Errorf("ExpiresIn(0) = %d, want 0", got)
	}
	if got := ExpiresIn(now, 24*time.Hour); got != 1000+86400 {
		t.Errorf("ExpiresIn(24h) = %d", got)
	}
}

func TestDanglingMembers(t *testing.T) {
	members := []string{"AI_CACHE#a", "AI_CACHE#b", "AI_CACHE#c"}
	values := []interface{}{`{"pk":"x"}`, nil, nil}

	got := danglingMembers(members, values)
	if len(got) != 2 || got[0] != "AI_CACHE#b" || got[1] != "AI_CACHE#c" {
		t.Errorf("danglingMembers() = %v", got)
	}
	if got := danglingMembers(members, []interface{}{"1", "2", "3"}); len(got) != 0 {
		t.Errorf("all present should yield none, got %v", got)
	}
}

func TestRedisKeyLayout(t *testing.T) {
	if got := partitionKey("CACHE#PUBLIC"); got != "kvp:CACHE#PUBLIC" {
		t.Errorf("partitionKey = %q", got)
	}
	if got := expiryKey("CACHE#PUBLIC"); got != "kvx:CACHE#PUBLIC" {
		t.Errorf("expiryKey = %q", got)
	}
	if got := itemKey("DICTIONARY", "INGREDIENT#hanh"); got != "kv:DICTIONARY:INGREDIENT#hanh" {
		t.Errorf("itemKey = %q", got)
	}
}
