package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/legendpaul/sportsapp/internal/domain/source"
	sourcemock "github.com/legendpaul/sportsapp/internal/mocks/domain/source"
	"github.com/legendpaul/sportsapp/internal/platform/cache"
	"github.com/stretchr/testify/mock"
)

func splitParse(_ context.Context, raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}
	return strings.Split(raw, ","), nil
}

func testDataset(sources ...SourceSpec[string]) Dataset[string] {
	return Dataset[string]{
		Name:     "football",
		CacheKey: "football_matches_2025-06-16",
		TTL:      15 * time.Minute,
		Sources:  sources,
		Defaults: func(time.Time) []string { return []string{"demo-1", "demo-2"} },
	}
}

func testSource(name string, fetcher *sourcemock.Fetcher) SourceSpec[string] {
	return SourceSpec[string]{
		Name:    name,
		Fetcher: fetcher,
		Request: source.Request{URL: "https://" + name + ".example.com/fixtures"},
		Parse:   splitParse,
	}
}

func TestFetchDataset_AllSourcesFailingFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	fetcher := sourcemock.NewFetcher(t)
	fetcher.On("Fetch", mock.Anything, mock.Anything).Return("", errors.New("connection refused")).Times(2)

	o := NewOrchestrator(OrchestratorConfig{})
	outcome := FetchDataset(context.Background(), o, testDataset(testSource("primary", fetcher), testSource("secondary", fetcher)), FetchOptions{})

	if outcome.Provenance != ProvenanceFallbackDefault {
		t.Fatalf("unexpected provenance: %s", outcome.Provenance)
	}
	if len(outcome.Records) == 0 {
		t.Fatalf("expected built-in defaults")
	}
	if !errors.Is(outcome.Err, ErrNoLiveSource) {
		t.Fatalf("expected ErrNoLiveSource, got %v", outcome.Err)
	}
	if st := o.Status("football"); st.State != StateFailed || st.LastProvenance != ProvenanceFallbackDefault {
		t.Fatalf("unexpected dataset status: %+v", st)
	}
}

func TestFetchDataset_ServesStaleCacheWhenLiveFails(t *testing.T) {
	t.Parallel()

	fetcher := sourcemock.NewFetcher(t)
	fetcher.On("Fetch", mock.Anything, mock.Anything).Return("a,b", nil).Once()
	fetcher.On("Fetch", mock.Anything, mock.Anything).Return("", errors.New("status 503")).Once()

	o := NewOrchestrator(OrchestratorConfig{})
	ds := testDataset(testSource("primary", fetcher))

	first := FetchDataset(context.Background(), o, ds, FetchOptions{})
	if first.Provenance != ProvenanceLive || len(first.Records) != 2 {
		t.Fatalf("unexpected live outcome: %+v", first)
	}

	second := FetchDataset(context.Background(), o, ds, FetchOptions{Force: true})
	if second.Provenance != ProvenanceStaleCache {
		t.Fatalf("unexpected provenance: %s", second.Provenance)
	}
	if len(second.Records) != 2 || second.Records[0] != "a" {
		t.Fatalf("unexpected stale records: %v", second.Records)
	}
	if second.Err == nil || second.CachedAt.IsZero() {
		t.Fatalf("stale outcome must carry the live error and cache time: %+v", second)
	}
}

func TestFetchDataset_FreshCacheShortCircuitsWithoutFetching(t *testing.T) {
	t.Parallel()

	store := cache.NewStore(0)
	store.Set(context.Background(), "football_matches_2025-06-16", []string{"cached"})

	fetcher := sourcemock.NewFetcher(t)
	o := NewOrchestrator(OrchestratorConfig{Cache: store})

	outcome := FetchDataset(context.Background(), o, testDataset(testSource("primary", fetcher)), FetchOptions{})
	if outcome.Provenance != ProvenanceCache || len(outcome.Records) != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if st := o.Status("football"); st.State != StateIdle {
		t.Fatalf("fresh cache hit must leave state idle, got %s", st.State)
	}
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestFetchDataset_RetriesWithAlternateHeadersThenUsesSecondary(t *testing.T) {
	t.Parallel()

	primary := sourcemock.NewFetcher(t)
	primary.
		On("Fetch", mock.Anything, mock.MatchedBy(func(req source.Request) bool { return req.Headers["Accept"] == "text/html" })).
		Return("", errors.New("status 403")).
		Once()
	primary.
		On("Fetch", mock.Anything, mock.MatchedBy(func(req source.Request) bool { return req.Headers["Accept"] == "*/*" })).
		Return("", errors.New("status 403")).
		Once()

	secondary := sourcemock.NewFetcher(t)
	secondary.On("Fetch", mock.Anything, mock.Anything).Return("x", nil).Once()

	primarySpec := testSource("primary", primary)
	primarySpec.Retries = 1
	primarySpec.Request.Headers = map[string]string{"Accept": "text/html"}
	primarySpec.AlternateHeaders = []map[string]string{{"Accept": "*/*"}}

	o := NewOrchestrator(OrchestratorConfig{})
	outcome := FetchDataset(context.Background(), o, testDataset(primarySpec, testSource("secondary", secondary)), FetchOptions{})

	if outcome.Provenance != ProvenanceLive || outcome.SourceName != "secondary" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if st := o.Status("football"); st.State != StateSuccess || st.LastSource != "secondary" {
		t.Fatalf("unexpected dataset status: %+v", st)
	}
}

func TestFetchDataset_EmptyLiveResultIsSuccess(t *testing.T) {
	t.Parallel()

	fetcher := sourcemock.NewFetcher(t)
	fetcher.On("Fetch", mock.Anything, mock.Anything).Return("", nil).Once()

	o := NewOrchestrator(OrchestratorConfig{})
	outcome := FetchDataset(context.Background(), o, testDataset(testSource("primary", fetcher)), FetchOptions{})

	if outcome.Provenance != ProvenanceLive {
		t.Fatalf("a successful fetch with zero records is still live, got %s", outcome.Provenance)
	}
	if outcome.Records == nil || len(outcome.Records) != 0 || outcome.Err != nil {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}
