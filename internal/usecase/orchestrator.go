package usecase

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/legendpaul/sportsapp/internal/domain/source"
	"github.com/legendpaul/sportsapp/internal/platform/cache"
	"github.com/legendpaul/sportsapp/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// Provenance tells callers where returned records came from.
type Provenance string

const (
	ProvenanceLive            Provenance = "live"
	ProvenanceCache           Provenance = "cache"
	ProvenanceStaleCache      Provenance = "stale-cache"
	ProvenanceFallbackDefault Provenance = "fallback-default"
)

// IsFresh reports whether the data was fetched or cached within its TTL.
func (p Provenance) IsFresh() bool {
	return p == ProvenanceLive || p == ProvenanceCache
}

type DatasetState string

const (
	StateIdle     DatasetState = "IDLE"
	StateFetching DatasetState = "FETCHING"
	StateSuccess  DatasetState = "SUCCESS"
	StateFailed   DatasetState = "FAILED"
)

// SourceSpec is one live source for a dataset, tried in the order given.
type SourceSpec[T any] struct {
	Name    string
	Fetcher source.Fetcher
	Request source.Request
	// AlternateHeaders are cycled through on retries, layered over Request.Headers.
	AlternateHeaders []map[string]string
	Retries          int
	Backoff          time.Duration
	MinInterval      time.Duration
	Parse            func(ctx context.Context, raw string) ([]T, error)
}

// Dataset describes how one logical dataset is fetched and what to serve when
// every live source fails.
type Dataset[T any] struct {
	Name     string
	CacheKey string
	TTL      time.Duration
	Sources  []SourceSpec[T]
	Defaults func(now time.Time) []T
}

type FetchOptions struct {
	// Force skips the fresh-cache short circuit.
	Force bool
}

// Outcome is the terminal result of one dataset fetch. Records are never nil.
type Outcome[T any] struct {
	Records    []T
	Provenance Provenance
	SourceName string
	CachedAt   time.Time
	// Err is the last live-source error when Provenance is not live.
	Err error
}

type DatasetStatus struct {
	Name           string       `json:"name"`
	State          DatasetState `json:"state"`
	LastProvenance Provenance   `json:"lastProvenance,omitempty"`
	LastSource     string       `json:"lastSource,omitempty"`
	LastError      string       `json:"lastError,omitempty"`
	UpdatedAt      *time.Time   `json:"updatedAt,omitempty"`
}

// FetchRecorder receives per-attempt and per-outcome signals; see observability.
type FetchRecorder interface {
	ObserveSourceAttempt(dataset, sourceName string, err error, duration time.Duration)
	ObserveOutcome(dataset string, provenance Provenance, records int)
}

type noopRecorder struct{}

func (noopRecorder) ObserveSourceAttempt(string, string, error, time.Duration) {}
func (noopRecorder) ObserveOutcome(string, Provenance, int)                    {}

type OrchestratorConfig struct {
	Cache    *cache.Store
	Recorder FetchRecorder
	Logger   *logging.Logger
}

// Orchestrator owns the response cache, the per-endpoint throttle and the
// per-dataset state machine. Build one per process and inject it.
type Orchestrator struct {
	cache     *cache.Store
	throttler *Throttler
	recorder  FetchRecorder
	logger    *logging.Logger
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error

	mu     sync.RWMutex
	status map[string]DatasetStatus
}

func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	store := cfg.Cache
	if store == nil {
		store = cache.NewStore(0)
	}
	var recorder FetchRecorder = noopRecorder{}
	if cfg.Recorder != nil {
		recorder = cfg.Recorder
	}

	return &Orchestrator{
		cache:     store,
		throttler: NewThrottler(),
		recorder:  recorder,
		logger:    logger.Named("orchestrator"),
		now:       time.Now,
		sleep:     sleepContext,
		status:    make(map[string]DatasetStatus),
	}
}

func (o *Orchestrator) Status(name string) DatasetStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if st, ok := o.status[name]; ok {
		return st
	}
	return DatasetStatus{Name: name, State: StateIdle}
}

func (o *Orchestrator) setState(name string, state DatasetState, update func(*DatasetStatus)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	st, ok := o.status[name]
	if !ok {
		st = DatasetStatus{Name: name}
	}
	st.State = state
	if update != nil {
		update(&st)
	}
	now := o.now().UTC()
	st.UpdatedAt = &now
	o.status[name] = st
}

// FetchDataset runs fresh cache, then each live source, then stale cache, then
// the built-in defaults. It never returns an error; failures are reported
// through Outcome.Err with a non-live provenance.
func FetchDataset[T any](ctx context.Context, o *Orchestrator, ds Dataset[T], opts FetchOptions) Outcome[T] {
	ctx, span := startUsecaseSpan(ctx, "usecase.FetchDataset", attribute.String("dataset", ds.Name))
	defer span.End()

	if !opts.Force {
		if cached, ok := o.cache.Get(ctx, ds.CacheKey, ds.TTL); ok {
			if records, ok := cached.([]T); ok {
				o.logger.DebugContext(ctx, "serving fresh cache", "dataset", ds.Name, "records", len(records))
				o.recorder.ObserveOutcome(ds.Name, ProvenanceCache, len(records))
				return Outcome[T]{Records: records, Provenance: ProvenanceCache}
			}
		}
	}

	o.setState(ds.Name, StateFetching, nil)

	var lastErr error
	for _, src := range ds.Sources {
		records, err := fetchSource(ctx, o, ds.Name, src)
		if err != nil {
			lastErr = err
			o.logger.WarnContext(ctx, "live source failed", "dataset", ds.Name, "source", src.Name, "error", err)
			continue
		}
		if records == nil {
			records = []T{}
		}

		o.cache.Set(ctx, ds.CacheKey, records)
		o.setState(ds.Name, StateSuccess, func(st *DatasetStatus) {
			st.LastProvenance = ProvenanceLive
			st.LastSource = src.Name
			st.LastError = ""
		})
		o.logger.InfoContext(ctx, "live source succeeded", "dataset", ds.Name, "source", src.Name, "records", len(records))
		o.recorder.ObserveOutcome(ds.Name, ProvenanceLive, len(records))
		return Outcome[T]{Records: records, Provenance: ProvenanceLive, SourceName: src.Name}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no sources configured for %s", ErrNoLiveSource, ds.Name)
	} else {
		lastErr = fmt.Errorf("%w: %w", ErrNoLiveSource, lastErr)
	}
	recordSpanError(span, lastErr)

	if cached, storedAt, ok := o.cache.GetStale(ctx, ds.CacheKey); ok {
		if records, ok := cached.([]T); ok {
			o.markFailed(ds.Name, ProvenanceStaleCache, lastErr)
			o.logger.WarnContext(ctx, "serving stale cache", "dataset", ds.Name, "age", o.now().Sub(storedAt).String())
			o.recorder.ObserveOutcome(ds.Name, ProvenanceStaleCache, len(records))
			return Outcome[T]{Records: records, Provenance: ProvenanceStaleCache, CachedAt: storedAt, Err: lastErr}
		}
	}

	var defaults []T
	if ds.Defaults != nil {
		defaults = ds.Defaults(o.now())
	}
	if defaults == nil {
		defaults = []T{}
	}
	o.markFailed(ds.Name, ProvenanceFallbackDefault, lastErr)
	o.logger.WarnContext(ctx, "serving built-in defaults", "dataset", ds.Name, "records", len(defaults))
	o.recorder.ObserveOutcome(ds.Name, ProvenanceFallbackDefault, len(defaults))
	return Outcome[T]{Records: defaults, Provenance: ProvenanceFallbackDefault, Err: lastErr}
}

func (o *Orchestrator) markFailed(name string, provenance Provenance, err error) {
	o.setState(name, StateFailed, func(st *DatasetStatus) {
		st.LastProvenance = provenance
		st.LastSource = ""
		st.LastError = err.Error()
	})
}

func fetchSource[T any](ctx context.Context, o *Orchestrator, dataset string, src SourceSpec[T]) ([]T, error) {
	if src.Fetcher == nil || src.Parse == nil {
		return nil, fmt.Errorf("%w: source %s is not configured", ErrInvalidInput, src.Name)
	}
	endpoint := endpointKey(src)

	var lastErr error
	for attempt := 0; attempt <= maxInt(src.Retries, 0); attempt++ {
		if attempt > 0 && src.Backoff > 0 {
			if err := o.sleep(ctx, time.Duration(attempt)*src.Backoff); err != nil {
				return nil, err
			}
		}
		if err := o.throttler.Wait(ctx, endpoint, src.MinInterval); err != nil {
			return nil, err
		}

		req := src.Request
		req.Headers = headersForAttempt(src, attempt)

		start := o.now()
		raw, err := src.Fetcher.Fetch(ctx, req)
		if err == nil {
			var records []T
			records, err = src.Parse(ctx, raw)
			if err != nil {
				err = fmt.Errorf("parse %s response: %w", src.Name, err)
			} else {
				o.recorder.ObserveSourceAttempt(dataset, src.Name, nil, o.now().Sub(start))
				return records, nil
			}
		}
		o.recorder.ObserveSourceAttempt(dataset, src.Name, err, o.now().Sub(start))
		lastErr = err
		if ctx.Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

func headersForAttempt[T any](src SourceSpec[T], attempt int) map[string]string {
	out := make(map[string]string, len(src.Request.Headers))
	for key, value := range src.Request.Headers {
		out[key] = value
	}
	if attempt == 0 || len(src.AlternateHeaders) == 0 {
		return out
	}
	for key, value := range src.AlternateHeaders[(attempt-1)%len(src.AlternateHeaders)] {
		out[key] = value
	}
	return out
}

// endpointKey throttles by host so sources sharing a host share a budget.
func endpointKey[T any](src SourceSpec[T]) string {
	if parsed, err := url.Parse(src.Request.URL); err == nil && parsed.Host != "" {
		return strings.ToLower(parsed.Host)
	}
	return src.Name
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
