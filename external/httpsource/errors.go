package httpsource

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	crerr "github.com/cockroachdb/errors"
)

var (
	ErrTimeout = crerr.New("source request timed out")
	ErrNetwork = crerr.New("source network failure")
)

// HTTPStatusError carries a non-2xx status and a truncated body for diagnostics.
type HTTPStatusError struct {
	Source     string
	StatusCode int
	Snippet    string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s source status=%d body=%s", e.Source, e.StatusCode, e.Snippet)
}

// IsTransient reports whether err should count against the circuit breaker.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, ErrTimeout) || stderrors.Is(err, ErrNetwork) {
		return true
	}
	var statusErr *HTTPStatusError
	if stderrors.As(err, &statusErr) {
		return isRetryableStatus(statusErr.StatusCode)
	}
	return false
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

const maxSnippetBytes = 240

func abbreviateBody(body []byte) string {
	text := strings.ToValidUTF8(strings.Join(strings.Fields(string(body)), " "), "\uFFFD")
	if len(text) <= maxSnippetBytes {
		return text
	}
	cut := maxSnippetBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}
