package httpsource

import (
	"context"
	stderrors "errors"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"
)

type fastTransport struct {
	client *fasthttp.Client
}

func newFastTransport(client *fasthttp.Client, maxBody int) *fastTransport {
	if client == nil {
		client = &fasthttp.Client{
			MaxResponseBodySize:      maxBody,
			NoDefaultUserAgentHeader: true,
		}
	}
	return &fastTransport{client: client}
}

// get does not follow redirects; a 3xx surfaces as an HTTPStatusError.
func (t *fastTransport) get(ctx context.Context, rawURL string, headers map[string]string, timeout time.Duration) (int, []byte, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return 0, nil, crerr.Wrap(ErrTimeout, "context deadline already passed")
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rawURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	if err := t.client.DoTimeout(req, resp, timeout); err != nil {
		if stderrors.Is(err, fasthttp.ErrTimeout) {
			return 0, nil, crerr.Wrap(ErrTimeout, err.Error())
		}
		return 0, nil, crerr.Wrap(ErrNetwork, err.Error())
	}

	body := append([]byte(nil), resp.Body()...)
	return resp.StatusCode(), body, nil
}
