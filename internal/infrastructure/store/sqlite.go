package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"recipe-engine/internal/pkg/common"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS items (
		pk TEXT NOT NULL,
		sk TEXT NOT NULL,
		data BLOB NOT NULL,
		expires_at INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (pk, sk)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_items_expires_at ON items(expires_at) WHERE expires_at > 0`,
}

// SQLiteStore 以 SQLite 作為嵌入式儲存
type SQLiteStore struct {
	db        *sql.DB
	now       func() time.Time
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewSQLiteStore 開啟（必要時建立）資料庫檔案；cleanupInterval > 0 時定期回收過期資料
func NewSQLiteStore(path string, cleanupInterval time.Duration) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}
	// 單一寫入者，避免 SQLITE_BUSY
	db.SetMaxOpenConns(1)

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate store db: %w", err)
		}
	}

	s := &SQLiteStore{db: db, now: time.Now, done: make(chan struct{})}
	if cleanupInterval > 0 {
		s.startCleanup(cleanupInterval)
	}
	return s, nil
}

// startCleanup 啟動回收過期資料的協程，Close 時停止
func (s *SQLiteStore) startCleanup(interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				n, err := s.Reap(context.Background())
				if err != nil {
					common.LogWarn("SQLite 過期資料回收失敗", zap.Error(err))
					continue
				}
				if n > 0 {
					common.LogDebug("Cleaned up expired store items", zap.Int64("count", n))
				}
			case <-s.done:
				return
			}
		}
	}()
}

// Get 讀取單筆
func (s *SQLiteStore) Get(ctx context.Context, pk, sk string) (*Item, error) {
	item := Item{PK: pk, SK: sk}
	err := s.db.QueryRowContext(ctx,
		`SELECT data, expires_at FROM items WHERE pk = ? AND sk = ? AND (expires_at = 0 OR expires_at > ?)`,
		pk, sk, s.now().Unix(),
	).Scan(&item.Data, &item.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

// Put 覆寫單筆
func (s *SQLiteStore) Put(ctx context.Context, item Item) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO items (pk, sk, data, expires_at) VALUES (?, ?, ?, ?)`,
		item.PK, item.SK, blob(item.Data), item.ExpiresAt,
	); err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// PutIfAbsent 以交易檢查並寫入；已過期的舊資料視為不存在
func (s *SQLiteStore) PutIfAbsent(ctx context.Context, items ...Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now().Unix()
	for _, item := range items {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM items WHERE pk = ? AND sk = ? AND (expires_at = 0 OR expires_at > ?)`,
			item.PK, item.SK, now,
		).Scan(&exists)
		if err == nil {
			return ErrConditionFailed
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check item: %w", err)
		}
	}

	if err := insertItems(ctx, tx, items); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// BatchPut 批次寫入
func (s *SQLiteStore) BatchPut(ctx context.Context, items []Item) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertItems(ctx, tx, items); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Query 依前綴查詢
func (s *SQLiteStore) Query(ctx context.Context, pk, skPrefix string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT sk, data, expires_at FROM items
		 WHERE pk = ? AND substr(sk, 1, ?) = ? AND (expires_at = 0 OR expires_at > ?)
		 ORDER BY sk`,
		pk, len(skPrefix), skPrefix, s.now().Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		item := Item{PK: pk}
		if err := rows.Scan(&item.SK, &item.Data, &item.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// Reap 刪除已過期的資料
func (s *SQLiteStore) Reap(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM items WHERE expires_at > 0 AND expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("reap items: %w", err)
	}
	return res.RowsAffected()
}

// Close 停止回收並關閉資料庫
func (s *SQLiteStore) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	s.wg.Wait()
	return s.db.Close()
}

func insertItems(ctx context.Context, tx *sql.Tx, items []Item) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO items (pk, sk, data, expires_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, item.PK, item.SK, blob(item.Data), item.ExpiresAt); err != nil {
			return fmt.Errorf("insert item %s/%s: %w", item.PK, item.SK, err)
		}
	}
	return nil
}

// blob data 欄位不可為 NULL
func blob(data []byte) []byte {
	if data == nil {
		return []byte{}
	}
	return data
}
