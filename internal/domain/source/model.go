package source

import (
	"context"
	"time"
)

// Request is one GET against an upstream site or API.
type Request struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
}

// Fetcher returns the raw response body. It never retries and never touches
// the datastore; implementations live under external/.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (string, error)
}
