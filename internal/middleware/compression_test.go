package middleware

import (
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(cm *CompressionMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Next()
		if len(c.Errors) > 0 && !c.Writer.Written() {
			c.JSON(http.StatusBadRequest, gin.H{"error": c.Errors.Last().Error()})
		}
	})
	r.Use(cm.Handler())
	r.GET("/large", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"text": strings.Repeat("battery ", 500)})
	})
	r.GET("/small", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("bad input"))
	})
	r.GET("/empty", func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})
	return r
}

func get(r http.Handler, path string, gzipped bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if gzipped {
		req.Header.Set("Accept-Encoding", "gzip, deflate")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCompressionLargeJSON(t *testing.T) {
	cm := NewCompressionMiddleware(DefaultCompressionConfig())
	w := get(newRouter(cm), "/large", true)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	assert.Equal(t, "Accept-Encoding", w.Header().Get("Vary"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(body), "battery battery")

	stats := cm.GetStats()
	assert.Equal(t, int64(1), stats["compressed_requests"])
	assert.Less(t, stats["compression_ratio"].(float64), 1.0)
}

func TestCompressionSkips(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		gzipped bool
		status  int
	}{
		{"client without gzip", "/large", false, http.StatusOK},
		{"below min size", "/small", true, http.StatusOK},
		{"status only", "/empty", true, http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(newRouter(NewCompressionMiddleware(DefaultCompressionConfig())), tt.path, tt.gzipped)
			assert.Equal(t, tt.status, w.Code)
			assert.Empty(t, w.Header().Get("Content-Encoding"))
		})
	}
}

func TestCompressionLeavesErrorsToOuterHandler(t *testing.T) {
	w := get(newRouter(NewCompressionMiddleware(DefaultCompressionConfig())), "/fail", true)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "bad input")
	assert.Empty(t, w.Header().Get("Content-Encoding"))
}

func TestNewCompressionMiddlewareClampsLevel(t *testing.T) {
	cm := NewCompressionMiddleware(CompressionConfig{MinSize: 1, CompressionLevel: 42, ContentTypes: []string{"application/json"}})
	assert.Equal(t, gzip.DefaultCompression, cm.config.CompressionLevel)

	w := get(newRouter(cm), "/small", true)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
}
