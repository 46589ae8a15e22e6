package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/legendpaul/sportsapp/external/httpsource"
	"github.com/legendpaul/sportsapp/internal/config"
	"github.com/legendpaul/sportsapp/internal/domain/datastore"
	"github.com/legendpaul/sportsapp/internal/infrastructure/repository/cache"
	"github.com/legendpaul/sportsapp/internal/infrastructure/repository/file"
	"github.com/legendpaul/sportsapp/internal/infrastructure/repository/memory"
	"github.com/legendpaul/sportsapp/internal/infrastructure/repository/postgres"
	"github.com/legendpaul/sportsapp/internal/interfaces/httpapi"
	"github.com/legendpaul/sportsapp/internal/interfaces/scheduler"
	"github.com/legendpaul/sportsapp/internal/observability"
	"github.com/legendpaul/sportsapp/internal/parser/eventparser"
	"github.com/legendpaul/sportsapp/internal/parser/fixtureparser"
	basecache "github.com/legendpaul/sportsapp/internal/platform/cache"
	"github.com/legendpaul/sportsapp/internal/platform/logging"
	"github.com/legendpaul/sportsapp/internal/platform/resilience"
	"github.com/legendpaul/sportsapp/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"
)

// Services is the wired use-case layer shared by the API server and the CLI.
type Services struct {
	Refresh *usecase.RefreshService
	Cleanup *usecase.CleanupService
	Query   *usecase.QueryService
	Metrics *observability.Metrics
	Store   datastore.Store

	closers []func() error
}

// Close releases database handles opened while wiring.
func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func NewServices(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Services, error) {
	if logger == nil {
		logger = logging.Default()
	}

	out := &Services{}
	if cfg.MetricsEnabled {
		out.Metrics = observability.NewMetrics()
	}

	store, closeStore, err := newDocumentStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	out.Store = store
	if closeStore != nil {
		out.closers = append(out.closers, closeStore)
	}

	channelMap, err := fixtureparser.LoadChannelMap(cfg.ChannelMapFile)
	if err != nil {
		_ = out.Close()
		return nil, err
	}

	var recorder usecase.FetchRecorder
	if out.Metrics != nil {
		recorder = out.Metrics
	}
	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorConfig{
		Cache:    basecache.NewStore(cfg.CacheMaxBytes),
		Recorder: recorder,
		Logger:   logger,
	})

	policy := usecase.EvictionPolicy{
		FootballGrace:    cfg.EvictFootballGrace,
		UFCEventDuration: cfg.EvictUFCDuration,
		UFCGrace:         cfg.EvictUFCGrace,
	}
	writer := usecase.NewDocumentWriter(store, usecase.DocumentWriterConfig{Policy: policy, Logger: logger})

	var cards usecase.CardFiller
	if cfg.UFCHydrateCards {
		cards = usecase.NewCardHydrator(
			newSourceClient(cfg, "ufc-cards", cfg.UFC.Timeout, out.Metrics, logger),
			eventparser.ParseCard,
			usecase.CardHydratorConfig{
				Workers: cfg.UFCHydrateWorkers,
				Timeout: cfg.UFC.Timeout,
				Headers: htmlHeaders(),
				Logger:  logger,
			},
		)
	}

	out.Refresh = usecase.NewRefreshService(
		orchestrator,
		writer,
		fixtureparser.New(fixtureparser.Config{ChannelMap: channelMap, Source: "live-footballontv", Logger: logger}),
		eventparser.New(eventparser.Config{Source: "ufc-search", Logger: logger}),
		cards,
		usecase.RefreshServiceConfig{
			Football: usecase.DatasetConfig{
				Sources:     footballSources(cfg, out.Metrics, logger),
				TTL:         cfg.Football.CacheTTL,
				MinInterval: cfg.Football.MinInterval,
				Retries:     cfg.Football.Retries,
				Backoff:     cfg.Football.RetryBackoff,
			},
			UFC: usecase.DatasetConfig{
				Sources:     ufcSources(cfg, out.Metrics, logger),
				TTL:         cfg.UFC.CacheTTL,
				MinInterval: cfg.UFC.MinInterval,
				Retries:     cfg.UFC.Retries,
				Backoff:     cfg.UFC.RetryBackoff,
			},
			DaysAhead: cfg.FootballDaysAhead,
			Policy:    policy,
			Logger:    logger,
		},
	)

	out.Cleanup = usecase.NewCleanupService(writer, policy, logger)
	if out.Metrics != nil {
		out.Cleanup.WithRecorder(out.Metrics)
	}
	out.Query = usecase.NewQueryService(writer, orchestrator)
	return out, nil
}

// Server bundles the HTTP server with the scheduler that feeds it.
type Server struct {
	HTTP      *http.Server
	Scheduler *scheduler.Scheduler
	services  *Services
}

func NewServer(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	services, err := NewServices(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	routerCfg := httpapi.RouterConfig{
		Logger:             logger,
		SwaggerEnabled:     cfg.SwaggerEnabled,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
	}
	if services.Metrics != nil {
		routerCfg.Metrics = services.Metrics.Handler()
		routerCfg.Recorder = services.Metrics
	}
	handler := httpapi.NewHandler(services.Refresh, services.Cleanup, services.Query, logger)

	out := &Server{
		HTTP: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      httpapi.NewRouter(handler, routerCfg),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		services: services,
	}

	if cfg.SchedulerEnabled {
		out.Scheduler, err = scheduler.NewScheduler(services.Refresh, services.Cleanup, scheduler.Config{
			FootballInterval: cfg.FootballRefreshInterval,
			UFCInterval:      cfg.UFCRefreshInterval,
			CleanupInterval:  cfg.CleanupInterval,
			Logger:           logger,
		})
		if err != nil {
			_ = services.Close()
			return nil, err
		}
	}
	return out, nil
}

func (s *Server) Close() error {
	var errs []error
	if s.Scheduler != nil {
		errs = append(errs, s.Scheduler.Stop())
	}
	errs = append(errs, s.services.Close())
	return errors.Join(errs...)
}

func newDocumentStore(ctx context.Context, cfg config.Config, logger *logging.Logger) (datastore.Store, func() error, error) {
	switch cfg.DatastoreDriver {
	case config.DriverMemory:
		return memory.NewDocumentStore(datastore.Empty()), nil, nil
	case config.DriverPostgres:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		store := postgres.NewDocumentStore(db, postgres.DefaultDocumentKey, cfg.DatastoreMaxBytes)
		// the document is read on every query; keep a short-lived copy in process
		cached := cache.NewDocumentStore(store, basecache.NewStore(cfg.DatastoreMaxBytes*2), cfg.DatastoreCacheTTL)
		return cached, db.Close, nil
	default:
		return file.NewDocumentStore(cfg.DatastorePath, cfg.DatastoreMaxBytes, logger), nil, nil
	}
}

func openPostgres(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := NormalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

func newSourceClient(cfg config.Config, name string, timeout time.Duration, metrics *observability.Metrics, logger *logging.Logger) *httpsource.Client {
	breaker := resilience.CircuitBreakerConfig{
		Enabled:          cfg.SourceCircuitEnabled,
		FailureThreshold: cfg.SourceCircuitFailureCount,
		OpenTimeout:      cfg.SourceCircuitOpenTimeout,
		HalfOpenMaxReq:   cfg.SourceCircuitHalfOpenMaxReq,
	}
	if metrics != nil {
		breaker.OnStateChange = metrics.ObserveCircuitTransition
	}

	clientCfg := httpsource.ClientConfig{
		Name:           name,
		Engine:         httpsource.EngineNetHTTP,
		Timeout:        timeout,
		Logger:         logger,
		CircuitBreaker: breaker,
	}
	if cfg.SourceHTTPEngine == config.EngineFastHTTP {
		clientCfg.Engine = httpsource.EngineFastHTTP
	}
	return httpsource.NewClient(clientCfg)
}

// footballSources gives every configured URL its own client so one failing
// host never opens the breaker of another.
func footballSources(cfg config.Config, metrics *observability.Metrics, logger *logging.Logger) []usecase.SourceEndpoint {
	urls := append([]string{cfg.Football.URL}, cfg.Football.SecondaryURLs...)
	out := make([]usecase.SourceEndpoint, 0, len(urls))
	for i, raw := range urls {
		name := sourceName("football", i)
		out = append(out, usecase.SourceEndpoint{
			Name:             name,
			Fetcher:          newSourceClient(cfg, name, cfg.Football.Timeout, metrics, logger),
			URL:              raw,
			Headers:          htmlHeaders(),
			AlternateHeaders: []map[string]string{altHTMLHeaders()},
			Timeout:          cfg.Football.Timeout,
		})
	}
	return out
}

func ufcSources(cfg config.Config, metrics *observability.Metrics, logger *logging.Logger) []usecase.SourceEndpoint {
	urls := append([]string{cfg.UFC.URL}, cfg.UFC.SecondaryURLs...)
	out := make([]usecase.SourceEndpoint, 0, len(urls))
	for i, raw := range urls {
		name := sourceName("ufc", i)
		out = append(out, usecase.SourceEndpoint{
			Name:             name,
			Fetcher:          newSourceClient(cfg, name, cfg.UFC.Timeout, metrics, logger),
			URL:              withAPIKey(raw, cfg.UFC.APIKey),
			Headers:          map[string]string{"Accept": "application/json, text/html;q=0.8"},
			AlternateHeaders: []map[string]string{altHTMLHeaders()},
			Timeout:          cfg.UFC.Timeout,
		})
	}
	return out
}

func sourceName(dataset string, index int) string {
	if index == 0 {
		return dataset + "-primary"
	}
	return dataset + "-secondary-" + strconv.Itoa(index)
}

// withAPIKey appends key= unless the URL already carries one.
func withAPIKey(raw, key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	query := parsed.Query()
	if query.Get("key") != "" {
		return raw
	}
	query.Set("key", key)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func htmlHeaders() map[string]string {
	return map[string]string{
		"Accept":          "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-GB,en;q=0.9",
	}
}

func altHTMLHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
		"Accept":          "text/html,*/*;q=0.8",
		"Accept-Language": "en-GB",
	}
}
