package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newIdempotencyRouter(store IdempotencyStore, counter *int32) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(IdempotencyMiddleware(store))
	r.POST("/orders", func(c *gin.Context) {
		n := atomic.AddInt32(counter, 1)
		c.JSON(http.StatusOK, gin.H{"n": n})
	})
	r.POST("/fail", func(c *gin.Context) {
		atomic.AddInt32(counter, 1)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream"})
	})
	return r
}

func doPost(r *gin.Engine, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	var counter int32
	r := newIdempotencyRouter(NewInMemIdempotencyStore(time.Hour), &counter)

	w1 := doPost(r, "/orders", "key-1")
	w2 := doPost(r, "/orders", "key-1")

	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, w1.Body.String(), w2.Body.String())
	assert.Equal(t, int32(1), counter)
}

func TestIdempotency_DifferentKeysRunSeparately(t *testing.T) {
	var counter int32
	r := newIdempotencyRouter(NewInMemIdempotencyStore(time.Hour), &counter)

	doPost(r, "/orders", "key-1")
	doPost(r, "/orders", "key-2")
	assert.Equal(t, int32(2), counter)
}

func TestIdempotency_NoHeaderBypasses(t *testing.T) {
	var counter int32
	r := newIdempotencyRouter(NewInMemIdempotencyStore(time.Hour), &counter)

	doPost(r, "/orders", "")
	doPost(r, "/orders", "")
	assert.Equal(t, int32(2), counter)
}

func TestIdempotency_InFlightRequestConflicts(t *testing.T) {
	store := NewInMemIdempotencyStore(time.Hour)
	var counter int32
	r := newIdempotencyRouter(store, &counter)

	// Pre-lock the key as if a request were still executing.
	_, hit := store.GetOrLock("POST:/orders:key-busy")
	assert.False(t, hit)

	w := doPost(r, "/orders", "key-busy")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, int32(0), counter)
}

func TestIdempotency_ServerErrorsNotCached(t *testing.T) {
	var counter int32
	r := newIdempotencyRouter(NewInMemIdempotencyStore(time.Hour), &counter)

	w1 := doPost(r, "/fail", "key-1")
	w2 := doPost(r, "/fail", "key-1")

	assert.Equal(t, http.StatusBadGateway, w1.Code)
	assert.Equal(t, http.StatusBadGateway, w2.Code)
	assert.Equal(t, int32(2), counter)
}

func TestIdempotency_KeyScopedByRoute(t *testing.T) {
	store := NewInMemIdempotencyStore(time.Hour)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(IdempotencyMiddleware(store))
	var a, b int32
	r.POST("/orders", func(c *gin.Context) {
		atomic.AddInt32(&a, 1)
		c.JSON(http.StatusOK, gin.H{"route": "orders"})
	})
	r.POST("/orders/cancel", func(c *gin.Context) {
		atomic.AddInt32(&b, 1)
		c.JSON(http.StatusOK, gin.H{"route": "cancel"})
	})

	doPost(r, "/orders", "shared")
	doPost(r, "/orders/cancel", "shared")
	assert.Equal(t, int32(1), a)
	assert.Equal(t, int32(1), b)
}

func TestInMemIdempotencyStore_TTLExpiry(t *testing.T) {
	store := NewInMemIdempotencyStore(10 * time.Millisecond)
	store.Save("k", http.StatusOK, []byte("{}"))

	rec, hit := store.GetOrLock("k")
	assert.True(t, hit)
	assert.False(t, rec.Processing)

	time.Sleep(20 * time.Millisecond)

	// Expired entry is dropped and the caller takes the lock.
	rec, hit = store.GetOrLock("k")
	assert.False(t, hit)
	assert.Nil(t, rec)
	store.Unlock("k")
}
