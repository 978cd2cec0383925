package security

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

var (
	ErrEmptyText     = errors.New("text is required")
	ErrTextTooLong   = errors.New("text exceeds maximum length")
	ErrInvalidText   = errors.New("text contains invalid characters")
	ErrInvalidUTF8   = errors.New("text contains invalid UTF-8 encoding")
	ErrEmptyBatch    = errors.New("texts must not be empty")
	ErrBatchTooLarge = errors.New("batch exceeds maximum size")
)

var (
	scriptPattern  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	htmlTagPattern = regexp.MustCompile(`</?[A-Za-z][A-Za-z0-9-]*(\s[^<>]*)?/?>`)
	spacePattern   = regexp.MustCompile(`[ \t\f\v]+`)
)

// SecurityConfig holds the request limits enforced on review input
type SecurityConfig struct {
	MaxTextLength  int           `json:"max_text_length"`
	MaxBatchSize   int           `json:"max_batch_size"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

// DefaultSecurityConfig returns secure defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxTextLength:  10000,
		MaxBatchSize:   100,
		RequestTimeout: 30 * time.Second,
	}
}

// SecurityMiddleware validates and sanitizes review input
type SecurityMiddleware struct {
	config SecurityConfig
}

// NewSecurityMiddleware creates a new security middleware instance
func NewSecurityMiddleware(config SecurityConfig) *SecurityMiddleware {
	return &SecurityMiddleware{config: config}
}

// Config returns the active limits
func (sm *SecurityMiddleware) Config() SecurityConfig {
	return sm.config
}

// ValidateText checks one review body. Length is counted in runes.
func (sm *SecurityMiddleware) ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	if !utf8.ValidString(text) {
		return ErrInvalidUTF8
	}
	if n := utf8.RuneCountInString(text); n > sm.config.MaxTextLength {
		return fmt.Errorf("%w: %d > %d characters", ErrTextTooLong, n, sm.config.MaxTextLength)
	}

	for _, r := range text {
		if r == 0 || (unicode.IsControl(r) && !unicode.IsSpace(r)) {
			return ErrInvalidText
		}
	}

	return nil
}

// ValidateBatch checks the batch size and every text in it
func (sm *SecurityMiddleware) ValidateBatch(texts []string) error {
	if len(texts) == 0 {
		return ErrEmptyBatch
	}
	if len(texts) > sm.config.MaxBatchSize {
		return fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(texts), sm.config.MaxBatchSize)
	}

	for i, text := range texts {
		if err := sm.ValidateText(text); err != nil {
			return fmt.Errorf("texts[%d]: %w", i, err)
		}
	}
	return nil
}

// SanitizeText strips well-formed tags and collapses runs of blanks. Bare
// comparison signs, sentence punctuation and line breaks are kept so the
// scored text matches what the reviewer wrote.
func (sm *SecurityMiddleware) SanitizeText(text string) string {
	text = scriptPattern.ReplaceAllString(text, "")
	text = htmlTagPattern.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// ValidateContentType rejects request bodies that are not JSON
func (sm *SecurityMiddleware) ValidateContentType(c *gin.Context) {
	if c.Request.ContentLength == 0 || c.Request.Method == http.MethodGet {
		c.Next()
		return
	}

	contentType := strings.ToLower(c.GetHeader("Content-Type"))
	if contentType != "" && !strings.HasPrefix(contentType, "application/json") {
		c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
			"error": "unsupported content type",
		})
		return
	}

	c.Next()
}

// RequestTimeout bounds the request context
func (sm *SecurityMiddleware) RequestTimeout(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), sm.config.RequestTimeout)
	defer cancel()

	c.Request = c.Request.WithContext(ctx)
	c.Header("X-Timeout", strconv.Itoa(int(sm.config.RequestTimeout.Seconds())))

	c.Next()
}
