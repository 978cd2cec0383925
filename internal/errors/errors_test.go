package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		category ErrorCategory
		status   int
		message  string
	}{
		{
			name:     "validation",
			err:      NewValidationError("text is required", "text"),
			category: CategoryValidation,
			status:   http.StatusBadRequest,
			message:  "[VALIDATION_ERROR] text is required",
		},
		{
			name:     "rate limit",
			err:      NewRateLimitError("60"),
			category: CategoryRateLimit,
			status:   http.StatusTooManyRequests,
			message:  "[RATE_LIMIT_EXCEEDED] Rate limit exceeded",
		},
		{
			name:     "model not ready",
			err:      NewModelNotReadyError("model not trained", nil),
			category: CategoryModel,
			status:   http.StatusServiceUnavailable,
			message:  "[MODEL_NOT_READY] model not trained",
		},
		{
			name:     "storage",
			err:      NewStorageError("failed to store reviews", errors.New("disk full")),
			category: CategoryStorage,
			status:   http.StatusInternalServerError,
			message:  "[STORAGE_ERROR] failed to store reviews",
		},
		{
			name:     "configuration",
			err:      NewConfigurationError("PORT is required", nil),
			category: CategoryConfiguration,
			status:   http.StatusInternalServerError,
			message:  "[CONFIGURATION_ERROR] Configuration error: PORT is required",
		},
		{
			name:     "internal",
			err:      NewInternalError("boom", nil),
			category: CategoryInternal,
			status:   http.StatusInternalServerError,
			message:  "[INTERNAL_ERROR] Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.message, tt.err.Error())
			assert.False(t, tt.err.Timestamp.IsZero())
		})
	}
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("failed", cause)
	assert.ErrorIs(t, err, cause)
}

func TestToAppError(t *testing.T) {
	validation := NewValidationError("bad")

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
	}{
		{name: "app error passes through", err: validation, category: CategoryValidation},
		{name: "wrapped app error", err: fmt.Errorf("handler: %w", validation), category: CategoryValidation},
		{name: "canceled", err: context.Canceled, category: CategoryTimeout},
		{name: "deadline", err: fmt.Errorf("train: %w", context.DeadlineExceeded), category: CategoryTimeout},
		{name: "errbuilder", err: errbuilder.New().WithCode(errbuilder.CodeInternal).WithMsg("x"), category: CategoryInternal},
		{name: "plain", err: errors.New("plain"), category: CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, ToAppError(tt.err).Category)
		})
	}

	assert.Nil(t, ToAppError(nil))
}

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/fail", func(c *gin.Context) {
		c.Set("request_id", "req-1")
		_ = c.Error(NewValidationError("text is required"))
	})
	router.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "validation", body["category"])
	assert.Equal(t, "req-1", body["request_id"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRecoveryHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RecoveryHandler())
	router.GET("/panic", func(c *gin.Context) {
		panic("scorer exploded")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal")
}

func TestAppErrorJSON(t *testing.T) {
	appErr := NewValidationErrorWithMap(map[string]string{"reviews[0].label": "invalid sentiment label"})
	appErr.RequestID = "req-9"

	data, err := json.Marshal(appErr)
	require.NoError(t, err)

	var body struct {
		Code      string            `json:"code"`
		Message   string            `json:"message"`
		Category  string            `json:"category"`
		Status    int               `json:"http_status"`
		RequestID string            `json:"request_id"`
		Details   map[string]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(data, &body))

	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Equal(t, "Multiple validation errors", body.Message)
	assert.Equal(t, "validation", body.Category)
	assert.Equal(t, http.StatusBadRequest, body.Status)
	assert.Equal(t, "req-9", body.RequestID)
	assert.Equal(t, "invalid sentiment label", body.Details["reviews[0].label"])

	rl := NewRateLimitError("12")
	assert.Equal(t, "12", rl.Details["retry_after"])
}
