package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"recipe-engine/internal/infrastructure/config"
	"recipe-engine/internal/infrastructure/store"
	"recipe-engine/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// brokenStore 讀取一律失敗
type brokenStore struct {
	store.KeyValueStore
}

func (brokenStore) Get(context.Context, string, string) (*store.Item, error) {
	return nil, errors.New("connection refused")
}

func TestReadinessCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mem := store.NewMemoryStore(0)
	defer mem.Close()

	tests := []struct {
		name     string
		kv       store.KeyValueStore
		wantCode int
	}{
		{"store reachable", mem, http.StatusOK},
		{"store failing", brokenStore{KeyValueStore: mem}, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(config.Default(), tt.kv, nil)
			r := gin.New()
			r.GET("/ready", h.ReadinessCheck)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantCode)
			}
			if tt.wantCode != http.StatusServiceUnavailable {
				return
			}
			var resp common.ErrorResponse
			if err := common.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Code != common.ErrCodeServiceUnavailable || resp.Details != "connection refused" {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}
