package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/payvault/user-service/pkg/apperrors"
)

// Envelope is the uniform response body. Success responses carry Data;
// failures carry ErrorCode and optional Details instead.
type Envelope[T any] struct {
	Status    int            `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	RequestID string         `json:"request_id,omitempty"`
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Data      T              `json:"data,omitempty"`
	ErrorCode string         `json:"error_code,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Success writes a success envelope with the given status.
func Success[T any](c *gin.Context, status int, data T, message string) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, Envelope[T]{
		Status:    status,
		Timestamp: time.Now().UTC(),
		RequestID: c.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
	})
}

// Error writes a failure envelope from an explicit status/code.
func Error(c *gin.Context, status int, message, code string, details map[string]any) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	c.JSON(status, Envelope[any]{
		Status:    status,
		Timestamp: time.Now().UTC(),
		RequestID: c.GetString("request_id"),
		Success:   false,
		Message:   message,
		ErrorCode: code,
		Details:   details,
	})
}

// FromError maps a service error onto the wire. Unclassified errors become a
// generic 500 with no internal detail.
func FromError(c *gin.Context, err error) {
	e := apperrors.From(err)
	Error(c, e.Status, e.Message, e.Code, e.Details)
}

// AbortError writes a failure envelope and aborts the middleware chain.
func AbortError(c *gin.Context, err error) {
	FromError(c, err)
	c.Abort()
}
