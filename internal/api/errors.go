package api

import "fmt"

// HTTPError is a non-2xx response from the backend. The body is kept
// verbatim so callers can surface the server's own error message.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("backend request failed: status=%d body=%s", e.StatusCode, e.Body)
}
