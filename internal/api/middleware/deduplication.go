package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-engine/internal/pkg/common"
)

// Deduplicator 拒絕時間窗內重複送出的相同寫入請求
type Deduplicator struct {
	mu       sync.Mutex
	window   time.Duration
	requests map[string]time.Time
	now      func() time.Time
}

// NewDeduplicator 建立去重器
func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = time.Second
	}
	return &Deduplicator{
		window:   window,
		requests: make(map[string]time.Time),
		now:      time.Now,
	}
}

// seen 記錄指紋，時間窗內已出現過回傳 true
func (d *Deduplicator) seen(fingerprint string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if last, ok := d.requests[fingerprint]; ok && now.Sub(last) <= d.window {
		return true
	}
	d.requests[fingerprint] = now

	// 順便清除過期指紋
	for k, t := range d.requests {
		if now.Sub(t) > 10*d.window {
			delete(d.requests, k)
		}
	}
	return false
}

// Deduplication 請求去重中間件，只處理 POST
func Deduplication(d *Deduplicator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost || c.Request.Body == nil {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			common.LogError("Failed to read request body", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusBadRequest, common.ErrorResponse{
				Code:    common.ErrCodeInvalidRequest,
				Message: common.ErrInvalidRequest.Message,
			})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		hash := sha256.Sum256(body)
		fingerprint := c.ClientIP() + ":" + c.Request.URL.Path + ":" + hex.EncodeToString(hash[:])
		if d.seen(fingerprint) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, common.ErrorResponse{
				Code:    common.ErrCodeTooManyRequests,
				Message: "Request too frequent",
			})
			return
		}

		c.Next()
	}
}
