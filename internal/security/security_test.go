package security

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityConfig(t *testing.T) {
	config := DefaultSecurityConfig()

	assert.Equal(t, 10000, config.MaxTextLength)
	assert.Equal(t, 100, config.MaxBatchSize)
	assert.Equal(t, 30*time.Second, config.RequestTimeout)
}

func TestValidateText(t *testing.T) {
	config := DefaultSecurityConfig()
	config.MaxTextLength = 20
	sm := NewSecurityMiddleware(config)

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "valid review", input: "Great battery. Bad screen!"},
		{name: "multi-line review", input: "Good.\nBad.\tMeh."},
		{name: "accented runes count once", input: strings.Repeat("é", 20)},
		{name: "empty", input: "", wantErr: ErrEmptyText},
		{name: "blank", input: " \n\t ", wantErr: ErrEmptyText},
		{name: "too long", input: strings.Repeat("a", 21), wantErr: ErrTextTooLong},
		{name: "null byte", input: "test\x00input", wantErr: ErrInvalidText},
		{name: "bell control", input: "ring\x07", wantErr: ErrInvalidText},
		{name: "invalid UTF-8", input: "test\xff\xfe", wantErr: ErrInvalidUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sm.ValidateText(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateBatch(t *testing.T) {
	config := DefaultSecurityConfig()
	config.MaxBatchSize = 2
	sm := NewSecurityMiddleware(config)

	assert.NoError(t, sm.ValidateBatch([]string{"good", "bad"}))
	assert.ErrorIs(t, sm.ValidateBatch(nil), ErrEmptyBatch)
	assert.ErrorIs(t, sm.ValidateBatch([]string{"a", "b", "c"}), ErrBatchTooLarge)

	err := sm.ValidateBatch([]string{"fine", " "})
	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Contains(t, err.Error(), "texts[1]")
}

func TestSanitizeText(t *testing.T) {
	sm := NewSecurityMiddleware(DefaultSecurityConfig())

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain text", input: "  The camera is great.  ", expected: "The camera is great."},
		{name: "script removed", input: "Nice<script>alert('x')</script> phone", expected: "Nice phone"},
		{name: "tags stripped", input: "<b>Great</b> battery", expected: "Great battery"},
		{name: "entities decoded", input: "Price &amp; quality &lt;3", expected: "Price & quality <3"},
		{name: "line breaks kept", input: "Good.\nBad.", expected: "Good.\nBad."},
		{
			name:     "comparison signs kept",
			input:    "Battery lasts <3 hours. The price is terrible. Shipping took >5 days",
			expected: "Battery lasts <3 hours. The price is terrible. Shipping took >5 days",
		},
		{name: "self closing tag stripped", input: "Solid<br/>build", expected: "Solid build"},
		{name: "tag with attributes stripped", input: `<a href="x">Great</a> value`, expected: "Great value"},
		{name: "arrows kept", input: "Setup -> easy, price <= fair", expected: "Setup -> easy, price <= fair"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sm.SanitizeText(tt.input))
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		hsts bool
	}{
		{name: "without HSTS", hsts: false},
		{name: "with HSTS", hsts: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(SecurityHeadersMiddleware(tt.hsts))
			r.GET("/test", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "test"})
			})

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/test", nil)
			r.ServeHTTP(w, req)

			headers := w.Header()
			assert.Equal(t, "nosniff", headers.Get("X-Content-Type-Options"))
			assert.Equal(t, "DENY", headers.Get("X-Frame-Options"))
			assert.Equal(t, "strict-origin-when-cross-origin", headers.Get("Referrer-Policy"))
			assert.Equal(t, tt.hsts, headers.Get("Strict-Transport-Security") != "")
		})
	}
}

func TestValidateContentType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sm := NewSecurityMiddleware(DefaultSecurityConfig())

	r := gin.New()
	r.Use(sm.ValidateContentType)
	r.POST("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	tests := []struct {
		name           string
		contentType    string
		expectedStatus int
	}{
		{name: "valid JSON", contentType: "application/json", expectedStatus: http.StatusOK},
		{name: "JSON with charset", contentType: "application/json; charset=utf-8", expectedStatus: http.StatusOK},
		{name: "plain text", contentType: "text/plain", expectedStatus: http.StatusUnsupportedMediaType},
		{name: "form data", contentType: "application/x-www-form-urlencoded", expectedStatus: http.StatusUnsupportedMediaType},
		{name: "no content type", contentType: "", expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(`{"text": "data"}`))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			r.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRequestTimeout(t *testing.T) {
	gin.SetMode(gin.TestMode)

	config := DefaultSecurityConfig()
	config.RequestTimeout = 5 * time.Millisecond
	sm := NewSecurityMiddleware(config)

	r := gin.New()
	r.Use(sm.RequestTimeout)

	var ctxErr error
	r.GET("/test", func(c *gin.Context) {
		_, hasDeadline := c.Request.Context().Deadline()
		require.True(t, hasDeadline)

		<-c.Request.Context().Done()
		ctxErr = c.Request.Context().Err()
		c.Status(http.StatusGatewayTimeout)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/test", nil)
	r.ServeHTTP(w, req)

	assert.Error(t, ctxErr)
	assert.Equal(t, "0", w.Header().Get("X-Timeout"))
}
