package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/legendpaul/sportsapp/internal/domain/source"
	"github.com/legendpaul/sportsapp/internal/domain/ufc"
	"github.com/legendpaul/sportsapp/internal/platform/logging"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"
)

const defaultHydrateWorkers = 4

type CardHydratorConfig struct {
	Workers int
	Timeout time.Duration
	Headers map[string]string
	Logger  *logging.Logger
}

// CardHydrator scrapes the fight card from each event page for events that
// arrived without bouts.
type CardHydrator struct {
	fetcher   source.Fetcher
	parseCard func(rawHTML string) (ufc.Card, error)
	workers   int
	timeout   time.Duration
	headers   map[string]string
	logger    *logging.Logger
}

func NewCardHydrator(fetcher source.Fetcher, parseCard func(string) (ufc.Card, error), cfg CardHydratorConfig) *CardHydrator {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultHydrateWorkers
	}

	return &CardHydrator{
		fetcher:   fetcher,
		parseCard: parseCard,
		workers:   workers,
		timeout:   cfg.Timeout,
		headers:   cfg.Headers,
		logger:    logger.Named("card_hydrator"),
	}
}

// Hydrate returns a copy of events with empty cards filled from their page.
// A failed page leaves that event unchanged.
func (h *CardHydrator) Hydrate(ctx context.Context, events []ufc.Event) ([]ufc.Event, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CardHydrator.Hydrate")
	defer span.End()

	out := append([]ufc.Event(nil), events...)
	targets := make([]int, 0, len(out))
	for i, event := range out {
		if event.HasCard() || strings.TrimSpace(event.URL) == "" {
			continue
		}
		targets = append(targets, i)
	}
	span.SetAttributes(attribute.Int("targets", len(targets)))
	if len(targets) == 0 || h.fetcher == nil || h.parseCard == nil {
		return out, nil
	}

	workerCount := h.workers
	if workerCount > len(targets) {
		workerCount = len(targets)
	}
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return out, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var hydrated atomic.Int32
	var workers sync.WaitGroup
	for _, idx := range targets {
		idx := idx
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			event := out[idx]
			raw, err := h.fetcher.Fetch(ctx, source.Request{URL: event.URL, Headers: h.headers, Timeout: h.timeout})
			if err != nil {
				h.logger.WarnContext(ctx, "fight card fetch failed", "event", event.Title, "error", err)
				return
			}
			card, err := h.parseCard(raw)
			if err != nil || card.Empty() {
				h.logger.DebugContext(ctx, "fight card not found on event page", "event", event.Title, "error", err)
				return
			}

			event.MainCard = card.Main
			event.PrelimCard = card.Prelims
			event.EarlyPrelimCard = card.EarlyPrelims
			event.ApplyDefaults()
			out[idx] = event
			hydrated.Add(1)
		}); err != nil {
			workers.Done()
			workers.Wait()
			return out, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}
	workers.Wait()

	h.logger.InfoContext(ctx, "fight cards hydrated", "targets", len(targets), "hydrated", hydrated.Load())
	return out, nil
}
