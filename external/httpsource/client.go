package httpsource

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/legendpaul/sportsapp/internal/domain/source"
	"github.com/legendpaul/sportsapp/internal/platform/logging"
	"github.com/legendpaul/sportsapp/internal/platform/resilience"
	"github.com/legendpaul/sportsapp/internal/usecase"
	"github.com/valyala/fasthttp"
)

type Engine string

const (
	EngineNetHTTP  Engine = "nethttp"
	EngineFastHTTP Engine = "fasthttp"

	defaultTimeout      = 15 * time.Second
	defaultMaxBodyBytes = 6 << 20
	defaultUserAgent    = "Mozilla/5.0 (compatible; sportsapp/1.0)"
)

type ClientConfig struct {
	// Name identifies the upstream in logs, metrics and breaker state, e.g. "football".
	Name           string
	Engine         Engine
	HTTPClient     *http.Client
	FastClient     *fasthttp.Client
	DefaultHeaders map[string]string
	Timeout        time.Duration
	MaxBodyBytes   int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client is a Fetcher for one upstream. Every call carries a hard deadline and
// non-2xx statuses are returned as *HTTPStatusError.
type Client struct {
	name           string
	transport      transport
	headers        map[string]string
	timeout        time.Duration
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

var _ source.Fetcher = (*Client)(nil)

type transport interface {
	get(ctx context.Context, rawURL string, headers map[string]string, timeout time.Duration) (int, []byte, error)
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "source"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	var tr transport
	switch cfg.Engine {
	case EngineFastHTTP:
		tr = newFastTransport(cfg.FastClient, maxBody)
	default:
		httpClient := cfg.HTTPClient
		if httpClient == nil {
			httpClient = &http.Client{}
		}
		tr = &netTransport{client: httpClient, maxBody: int64(maxBody)}
	}

	headers := map[string]string{
		"User-Agent": defaultUserAgent,
	}
	for key, value := range cfg.DefaultHeaders {
		headers[key] = value
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	return &Client{
		name:           name,
		transport:      tr,
		headers:        headers,
		timeout:        timeout,
		logger:         logger.Named("httpsource").With("source", name),
		breaker:        resilience.NewCircuitBreaker(name, breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) Name() string {
	return c.name
}

func (c *Client) BreakerState() resilience.CircuitState {
	return c.breaker.State()
}

func (c *Client) Fetch(ctx context.Context, req source.Request) (string, error) {
	rawURL := strings.TrimSpace(req.URL)
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return "", fmt.Errorf("%w: invalid source url %q", usecase.ErrInvalidInput, rawURL)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	headers := make(map[string]string, len(c.headers)+len(req.Headers))
	for key, value := range c.headers {
		headers[key] = value
	}
	for key, value := range req.Headers {
		headers[key] = value
	}

	var body []byte
	call := func() error {
		var err error
		body, err = c.do(ctx, rawURL, headers, timeout)
		return err
	}

	var err error
	if c.circuitEnabled {
		err = c.breaker.Execute(call, IsTransient)
		if stderrors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "source circuit breaker rejected request", "state", c.breaker.State())
			return "", fmt.Errorf("%w: %w: %s source is temporarily unavailable: %w", ErrNetwork, usecase.ErrDependencyUnavailable, c.name, err)
		}
	} else {
		err = call()
	}
	if err != nil {
		c.logger.WarnContext(ctx, "source request failed", "url", redactURL(rawURL), "error", err)
		return "", err
	}

	return string(body), nil
}

func (c *Client) do(ctx context.Context, rawURL string, headers map[string]string, timeout time.Duration) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, crerr.Wrapf(ErrNetwork, "%s source: %v", c.name, err)
	}

	start := time.Now()
	status, body, err := c.transport.get(ctx, rawURL, headers, timeout)
	if err != nil {
		return nil, err
	}

	c.logger.DebugContext(ctx, "source responded",
		"status", status,
		"bytes", len(body),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if status < 200 || status >= 300 {
		return nil, &HTTPStatusError{Source: c.name, StatusCode: status, Snippet: abbreviateBody(body)}
	}
	return body, nil
}

type netTransport struct {
	client  *http.Client
	maxBody int64
}

func (t *netTransport) get(ctx context.Context, rawURL string, headers map[string]string, timeout time.Duration) (int, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, classifyNetError(reqCtx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBody))
	if err != nil {
		return 0, nil, classifyNetError(reqCtx, err)
	}
	return resp.StatusCode, body, nil
}

func classifyNetError(ctx context.Context, err error) error {
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) || stderrors.Is(err, context.DeadlineExceeded) {
		return crerr.Wrap(ErrTimeout, err.Error())
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return crerr.Wrap(ErrTimeout, err.Error())
	}
	return crerr.Wrap(ErrNetwork, err.Error())
}

func redactURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	query := parsed.Query()
	changed := false
	for _, key := range []string{"key", "api_key", "apikey", "token", "api_token"} {
		if query.Has(key) {
			query.Set(key, "REDACTED")
			changed = true
		}
	}
	if changed {
		parsed.RawQuery = query.Encode()
	}
	return parsed.String()
}
