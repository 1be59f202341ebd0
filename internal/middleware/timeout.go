package middleware

import (
	"net/http"
	"time"
)

// Timeout bounds every request so no database call can block past the
// request's own lifetime.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	message := `{"success":false,"error":{"code":"TRANSACTION_FAILURE","message":"request timed out"}}`

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, message)
	}
}
