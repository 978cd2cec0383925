package cache

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/ZanzyTHEbar/review-sentiment/internal/monitoring"
)

func TestCacheGetSet(t *testing.T) {
	c := NewCache(time.Minute)
	defer c.Close()

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", []byte("v"))
	data, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), data)
	assert.Equal(t, 1, c.Size())

	c.Delete("k")
	assert.Zero(t, c.Size())
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(time.Millisecond)
	defer c.Close()

	c.Set("k", []byte("v"))
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.Size())
}

func TestCacheClear(t *testing.T) {
	c := NewCache(time.Minute)
	defer c.Close()

	c.Set("a", nil)
	c.Set("b", nil)
	c.Clear()
	assert.Zero(t, c.Size())
	assert.Equal(t, 0, c.Stats()["total_items"])
}

func TestKeyIsStable(t *testing.T) {
	assert.Equal(t, Key([]byte("x")), Key([]byte("x")))
	assert.NotEqual(t, Key([]byte("x")), Key([]byte("y")))
	assert.Len(t, Key(nil), 64)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c := NewCache(time.Minute)
	defer c.Close()
	metrics := monitoring.NewMetrics()
	logger := monitoring.NewLoggerWithWriter(io.Discard, slog.LevelError)

	var calls int64
	router := gin.New()
	router.POST("/analyze", c.Middleware(metrics, logger), func(ctx *gin.Context) {
		atomic.AddInt64(&calls, 1)
		body, _ := io.ReadAll(ctx.Request.Body)
		if strings.Contains(string(body), "fail") {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "bad"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"echo": string(body)})
	})

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(body)))
		return w
	}

	first := post(`{"text":"good"}`)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := post(`{"text":"good"}`)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))

	post(`{"text":"fail"}`)
	post(`{"text":"fail"}`)
	assert.Equal(t, int64(3), atomic.LoadInt64(&calls), "errors are not cached")

	assert.Equal(t, int64(1), metrics.CacheHits)
	assert.Equal(t, int64(3), metrics.CacheMisses)
}
