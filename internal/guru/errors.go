package guru

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/snippets-guru/internal/apperror"
)

var (
	// ErrMissingCredential means no token could be resolved. The request
	// never left the process.
	ErrMissingCredential = errors.New("guru: missing auth token")

	// ErrUnsupportedMethod is returned for any method other than
	// GET, POST, PUT and DELETE.
	ErrUnsupportedMethod = errors.New("guru: unsupported method")

	// ErrResponseTooLarge wraps a successful response whose body exceeds
	// MaxResponseBytes.
	ErrResponseTooLarge = errors.New("guru: response body too large")
)

// TransportError is a network level failure: DNS, connection, timeout.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("guru: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the request ran into its deadline.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(e.Err, &te) && te.Timeout()
}

// HTTPStatusError is returned for any response with status >= 400.
// The response body is never decoded on this path.
type HTTPStatusError struct {
	StatusCode int
	Message    string
	Method     string
	URL        string
}

func newHTTPStatusError(req *http.Request, resp *http.Response) *HTTPStatusError {
	return &HTTPStatusError{
		StatusCode: resp.StatusCode,
		Message:    reasonPhrase(resp),
		Method:     req.Method,
		URL:        req.URL.String(),
	}
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("guru: %s %s: %d %s", e.Method, e.URL, e.StatusCode, e.Message)
}

// Is lets callers match remote statuses against the apperror sentinels.
func (e *HTTPStatusError) Is(target error) bool {
	switch target {
	case apperror.ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case apperror.ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case apperror.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case apperror.ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// StatusCode extracts the HTTP status from err, or 0 if err is not an
// *HTTPStatusError.
func StatusCode(err error) int {
	var se *HTTPStatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// DecodeError is returned when a successful response body is not valid JSON
// for the requested shape.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("guru: decoding response from %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// reasonPhrase returns the text after the code in the status line,
// e.g. "Not Found" for "404 Not Found".
func reasonPhrase(resp *http.Response) string {
	status := strings.TrimSpace(resp.Status)
	if code, rest, ok := strings.Cut(status, " "); ok && code == strconv.Itoa(resp.StatusCode) {
		if rest = strings.TrimSpace(rest); rest != "" {
			return rest
		}
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return "unexpected status"
}
