package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/legendpaul/sportsapp/internal/domain/datastore"
	"github.com/legendpaul/sportsapp/internal/domain/football"
	"github.com/legendpaul/sportsapp/internal/domain/source"
	"github.com/legendpaul/sportsapp/internal/domain/ufc"
	"github.com/legendpaul/sportsapp/internal/platform/id"
	"github.com/legendpaul/sportsapp/internal/platform/logging"
	"github.com/legendpaul/sportsapp/internal/platform/ukclock"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DatasetFootball = "football"
	DatasetUFC      = "ufc"

	footballCacheKeyPrefix = "football_matches_"
	ufcCacheKey            = "ufc_events"

	defaultFootballTTL = 15 * time.Minute
	defaultUFCTTL      = 30 * time.Minute
)

type FixtureParser interface {
	ParseDays(rawHTML string, dates []string) map[string][]football.Fixture
}

type EventParser interface {
	Parse(raw string) []ufc.Event
}

type CardFiller interface {
	Hydrate(ctx context.Context, events []ufc.Event) ([]ufc.Event, error)
}

// SourceEndpoint is one configured upstream for a dataset.
type SourceEndpoint struct {
	Name             string
	Fetcher          source.Fetcher
	URL              string
	Headers          map[string]string
	AlternateHeaders []map[string]string
	Timeout          time.Duration
}

type DatasetConfig struct {
	Sources     []SourceEndpoint
	TTL         time.Duration
	MinInterval time.Duration
	Retries     int
	Backoff     time.Duration
}

type RefreshServiceConfig struct {
	Football DatasetConfig
	UFC      DatasetConfig
	// DaysAhead extends the football refresh past the start date.
	DaysAhead int
	Policy    EvictionPolicy
	Logger    *logging.Logger
}

// RefreshResult is the outward shape reported to the UI and CLI.
type RefreshResult struct {
	Success bool       `json:"success"`
	Added   int        `json:"added"`
	Total   int        `json:"total"`
	Error   string     `json:"error,omitempty"`
	Source  Provenance `json:"source"`
}

type RefreshAllResult struct {
	Football RefreshResult `json:"football"`
	UFC      RefreshResult `json:"ufc"`
}

type RefreshInput struct {
	// Date is the first football date (YYYY-MM-DD); empty means today in the UK.
	Date  string
	Force bool
}

type RefreshService struct {
	orchestrator *Orchestrator
	writer       *DocumentWriter
	fixtures     FixtureParser
	events       EventParser
	cards        CardFiller
	cfg          RefreshServiceConfig
	ids          id.Generator
	logger       *logging.Logger
	now          func() time.Time
}

func NewRefreshService(
	orchestrator *Orchestrator,
	writer *DocumentWriter,
	fixtures FixtureParser,
	events EventParser,
	cards CardFiller,
	cfg RefreshServiceConfig,
) *RefreshService {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Football.TTL <= 0 {
		cfg.Football.TTL = defaultFootballTTL
	}
	if cfg.UFC.TTL <= 0 {
		cfg.UFC.TTL = defaultUFCTTL
	}
	if cfg.DaysAhead < 0 {
		cfg.DaysAhead = 0
	}
	if cfg.Policy == (EvictionPolicy{}) {
		cfg.Policy = DefaultEvictionPolicy()
	}

	return &RefreshService{
		orchestrator: orchestrator,
		writer:       writer,
		fixtures:     fixtures,
		events:       events,
		cards:        cards,
		cfg:          cfg,
		ids:          id.NewUUIDGenerator(),
		logger:       logger.Named("refresh"),
		now:          time.Now,
	}
}

// RefreshFootball fetches fixtures for the start date plus DaysAhead and merges
// them into the stored document. Source failures never return an error; they
// surface in the result with a non-live provenance. The error return is only
// for invalid input.
func (s *RefreshService) RefreshFootball(ctx context.Context, input RefreshInput) (RefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RefreshService.RefreshFootball")
	defer span.End()

	now := s.now()
	startDate := strings.TrimSpace(input.Date)
	if startDate == "" {
		startDate = ukclock.Today(now)
	}
	dates, err := footballDates(startDate, s.cfg.DaysAhead)
	if err != nil {
		return RefreshResult{}, err
	}
	span.SetAttributes(attribute.String("start_date", startDate), attribute.Int("days", len(dates)))

	logger := s.runLogger(DatasetFootball)
	ds := Dataset[football.Fixture]{
		Name:     DatasetFootball,
		CacheKey: footballCacheKeyPrefix + startDate,
		TTL:      s.cfg.Football.TTL,
		Sources: buildSourceSpecs(s.cfg.Football, func(_ context.Context, raw string) ([]football.Fixture, error) {
			byDate := s.fixtures.ParseDays(raw, dates)
			out := make([]football.Fixture, 0)
			for _, date := range dates {
				out = append(out, byDate[date]...)
			}
			return out, nil
		}),
		Defaults: DefaultFixtures,
	}

	outcome := FetchDataset(ctx, s.orchestrator, ds, FetchOptions{Force: input.Force})
	incoming, _ := s.cfg.Policy.EvictFootball(outcome.Records, now)

	var appended []football.Fixture
	doc, writeErr := s.writer.Update(ctx, func(doc *datastore.Document) error {
		switch {
		case outcome.Provenance == ProvenanceLive:
			doc.FootballMatches = dropFallbackFixtures(doc.FootballMatches)
			doc.LastFetch = datastore.TimePtr(now)
		case outcome.Provenance == ProvenanceFallbackDefault && len(doc.FootballMatches) > 0:
			incoming = nil
		}
		kept := len(doc.FootballMatches)
		doc.FootballMatches, _ = Merge(doc.FootballMatches, incoming, football.Fixture.NaturalKey)
		appended = append([]football.Fixture(nil), doc.FootballMatches[kept:]...)
		return nil
	})
	added := countSurviving(appended, doc.FootballMatches, football.Fixture.NaturalKey)

	result := buildRefreshResult(outcome.Provenance, outcome.Err, writeErr, added, len(doc.FootballMatches))
	logger.InfoContext(ctx, "football refresh finished",
		"source", outcome.Provenance,
		"source_name", outcome.SourceName,
		"fetched", len(outcome.Records),
		"added", result.Added,
		"total", result.Total,
		"success", result.Success,
	)
	if !result.Success {
		recordSpanError(span, errors.New(result.Error))
	}
	return result, nil
}

// RefreshUFC fetches upcoming fight nights, hydrates missing fight cards and
// merges them into the stored document.
func (s *RefreshService) RefreshUFC(ctx context.Context, input RefreshInput) (RefreshResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RefreshService.RefreshUFC")
	defer span.End()

	now := s.now()
	logger := s.runLogger(DatasetUFC)
	ds := Dataset[ufc.Event]{
		Name:     DatasetUFC,
		CacheKey: ufcCacheKey,
		TTL:      s.cfg.UFC.TTL,
		Sources: buildSourceSpecs(s.cfg.UFC, func(ctx context.Context, raw string) ([]ufc.Event, error) {
			events := s.events.Parse(raw)
			if s.cards == nil || len(events) == 0 {
				return events, nil
			}
			hydrated, err := s.cards.Hydrate(ctx, events)
			if err != nil {
				logger.WarnContext(ctx, "fight card hydration incomplete", "error", err)
			}
			return hydrated, nil
		}),
		Defaults: DefaultEvents,
	}

	outcome := FetchDataset(ctx, s.orchestrator, ds, FetchOptions{Force: input.Force})
	incoming, _ := s.cfg.Policy.EvictUFC(outcome.Records, now)

	var appended []ufc.Event
	doc, writeErr := s.writer.Update(ctx, func(doc *datastore.Document) error {
		switch {
		case outcome.Provenance == ProvenanceLive:
			doc.UFCEvents = dropFallbackEvents(doc.UFCEvents)
			doc.LastUFCFetch = datastore.TimePtr(now)
		case outcome.Provenance == ProvenanceFallbackDefault && len(doc.UFCEvents) > 0:
			incoming = nil
		}
		kept := len(doc.UFCEvents)
		doc.UFCEvents, _ = Merge(doc.UFCEvents, incoming, ufc.Event.NaturalKey)
		appended = append([]ufc.Event(nil), doc.UFCEvents[kept:]...)
		return nil
	})
	added := countSurviving(appended, doc.UFCEvents, ufc.Event.NaturalKey)

	result := buildRefreshResult(outcome.Provenance, outcome.Err, writeErr, added, len(doc.UFCEvents))
	logger.InfoContext(ctx, "ufc refresh finished",
		"source", outcome.Provenance,
		"source_name", outcome.SourceName,
		"fetched", len(outcome.Records),
		"added", result.Added,
		"total", result.Total,
		"success", result.Success,
	)
	if !result.Success {
		recordSpanError(span, errors.New(result.Error))
	}
	return result, nil
}

// RefreshAll runs both datasets concurrently; their writes still queue on the
// document writer.
func (s *RefreshService) RefreshAll(ctx context.Context, input RefreshInput) (RefreshAllResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RefreshService.RefreshAll")
	defer span.End()

	var (
		out         RefreshAllResult
		footballErr error
		ufcErr      error
	)
	var wg conc.WaitGroup
	wg.Go(func() {
		out.Football, footballErr = s.RefreshFootball(ctx, input)
	})
	wg.Go(func() {
		out.UFC, ufcErr = s.RefreshUFC(ctx, RefreshInput{Force: input.Force})
	})
	wg.Wait()

	if footballErr != nil {
		return out, footballErr
	}
	if ufcErr != nil {
		return out, ufcErr
	}
	return out, nil
}

func (s *RefreshService) DatasetStatus(name string) DatasetStatus {
	return s.orchestrator.Status(name)
}

func (s *RefreshService) runLogger(dataset string) *logging.Logger {
	runID, err := s.ids.NewID()
	if err != nil {
		return s.logger.With("dataset", dataset)
	}
	return s.logger.With("dataset", dataset, "run_id", runID)
}

func buildSourceSpecs[T any](cfg DatasetConfig, parse func(context.Context, string) ([]T, error)) []SourceSpec[T] {
	out := make([]SourceSpec[T], 0, len(cfg.Sources))
	for _, endpoint := range cfg.Sources {
		if strings.TrimSpace(endpoint.URL) == "" || endpoint.Fetcher == nil {
			continue
		}
		out = append(out, SourceSpec[T]{
			Name:    endpoint.Name,
			Fetcher: endpoint.Fetcher,
			Request: source.Request{
				URL:     endpoint.URL,
				Headers: endpoint.Headers,
				Timeout: endpoint.Timeout,
			},
			AlternateHeaders: endpoint.AlternateHeaders,
			Retries:          cfg.Retries,
			Backoff:          cfg.Backoff,
			MinInterval:      cfg.MinInterval,
			Parse:            parse,
		})
	}
	return out
}

func buildRefreshResult(provenance Provenance, fetchErr, writeErr error, added, total int) RefreshResult {
	result := RefreshResult{
		Success: provenance.IsFresh() && writeErr == nil,
		Added:   added,
		Total:   total,
		Source:  provenance,
	}
	switch {
	case writeErr != nil:
		result.Added = 0
		result.Error = writeErr.Error()
	case fetchErr != nil:
		result.Error = fetchErr.Error()
	}
	return result
}

func footballDates(start string, daysAhead int) ([]string, error) {
	first, err := time.Parse(ukclock.DateLayout, start)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", ErrInvalidInput, start)
	}
	out := make([]string, 0, daysAhead+1)
	for i := 0; i <= daysAhead; i++ {
		out = append(out, first.AddDate(0, 0, i).Format(ukclock.DateLayout))
	}
	return out, nil
}

func dropFallbackFixtures(items []football.Fixture) []football.Fixture {
	out := make([]football.Fixture, 0, len(items))
	for _, item := range items {
		if item.Source == SourceFallbackDefault {
			continue
		}
		out = append(out, item)
	}
	return out
}

func dropFallbackEvents(items []ufc.Event) []ufc.Event {
	out := make([]ufc.Event, 0, len(items))
	for _, item := range items {
		if item.Source == SourceFallbackDefault {
			continue
		}
		out = append(out, item)
	}
	return out
}
