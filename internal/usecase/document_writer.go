package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/legendpaul/sportsapp/internal/domain/datastore"
	"github.com/legendpaul/sportsapp/internal/domain/football"
	"github.com/legendpaul/sportsapp/internal/domain/ufc"
	"github.com/legendpaul/sportsapp/internal/platform/logging"
	"github.com/legendpaul/sportsapp/internal/platform/ukclock"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultEmergencyMaxFootball = 200
	defaultEmergencyMaxUFC      = 20
)

type DocumentWriterConfig struct {
	Policy EvictionPolicy
	// EmergencyMaxFootball and EmergencyMaxUFC cap each collection on the
	// emergency retry after a failed save.
	EmergencyMaxFootball int
	EmergencyMaxUFC      int
	Logger               *logging.Logger
}

// DocumentWriter serializes every read-modify-write of the datastore document.
// Callers queue on the mutex; no update is dropped.
type DocumentWriter struct {
	mu     sync.Mutex
	store  datastore.Store
	policy EvictionPolicy
	maxFx  int
	maxUFC int
	logger *logging.Logger
	now    func() time.Time
}

func NewDocumentWriter(store datastore.Store, cfg DocumentWriterConfig) *DocumentWriter {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	policy := cfg.Policy
	if policy == (EvictionPolicy{}) {
		policy = DefaultEvictionPolicy()
	}
	maxFx := cfg.EmergencyMaxFootball
	if maxFx <= 0 {
		maxFx = defaultEmergencyMaxFootball
	}
	maxUFC := cfg.EmergencyMaxUFC
	if maxUFC <= 0 {
		maxUFC = defaultEmergencyMaxUFC
	}

	return &DocumentWriter{
		store:  store,
		policy: policy,
		maxFx:  maxFx,
		maxUFC: maxUFC,
		logger: logger.Named("document_writer"),
		now:    time.Now,
	}
}

// Snapshot loads the current document without taking the write lock.
func (w *DocumentWriter) Snapshot(ctx context.Context) (datastore.Document, error) {
	doc, err := w.store.Load(ctx)
	if err != nil {
		return datastore.Document{}, fmt.Errorf("%w: load document: %w", ErrDependencyUnavailable, err)
	}
	return doc.Normalize(), nil
}

// Update loads the document, applies fn and saves the result. When the save
// fails the document is evicted aggressively and saved once more; a second
// failure returns ErrStoreWrite and leaves the stored document untouched.
func (w *DocumentWriter) Update(ctx context.Context, fn func(doc *datastore.Document) error) (datastore.Document, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DocumentWriter.Update")
	defer span.End()

	w.mu.Lock()
	defer w.mu.Unlock()

	doc, err := w.store.Load(ctx)
	if err != nil {
		err = fmt.Errorf("%w: load document: %w", ErrDependencyUnavailable, err)
		recordSpanError(span, err)
		return datastore.Document{}, err
	}
	doc = doc.Clone()

	if err := fn(&doc); err != nil {
		recordSpanError(span, err)
		return datastore.Document{}, err
	}
	doc = doc.Normalize()

	saveErr := w.store.Save(ctx, doc)
	if saveErr == nil {
		return doc, nil
	}

	w.logger.WarnContext(ctx, "document save failed, retrying after emergency eviction", "error", saveErr)
	trimmed, removed := w.emergencyTrim(doc)
	span.SetAttributes(attribute.Int("emergency.removed", removed))

	if err := w.store.Save(ctx, trimmed); err != nil {
		err = fmt.Errorf("%w: %w", ErrStoreWrite, err)
		w.logger.ErrorContext(ctx, "document save failed after emergency eviction", "removed", removed, "error", err)
		recordSpanError(span, err)
		return datastore.Document{}, err
	}

	w.logger.InfoContext(ctx, "document saved after emergency eviction", "removed", removed)
	return trimmed, nil
}

// emergencyTrim runs normal eviction, drops fixtures dated before today (UK)
// and caps both collections, keeping the soonest records.
func (w *DocumentWriter) emergencyTrim(doc datastore.Document) (datastore.Document, int) {
	now := w.now()
	before := len(doc.FootballMatches) + len(doc.UFCEvents)

	out, _ := w.policy.Evict(doc, now)

	today := ukclock.Today(now)
	fixtures := make([]football.Fixture, 0, len(out.FootballMatches))
	for _, f := range out.FootballMatches {
		if f.Date < today {
			continue
		}
		fixtures = append(fixtures, f)
	}
	sort.SliceStable(fixtures, func(i, j int) bool {
		return fixtures[i].Date+" "+fixtures[i].Time < fixtures[j].Date+" "+fixtures[j].Time
	})
	if len(fixtures) > w.maxFx {
		fixtures = fixtures[:w.maxFx]
	}

	events := append([]ufc.Event(nil), out.UFCEvents...)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].MainCardStartUTC.Before(events[j].MainCardStartUTC)
	})
	if len(events) > w.maxUFC {
		events = events[:w.maxUFC]
	}

	out.FootballMatches = fixtures
	out.UFCEvents = events
	out = out.Normalize()
	return out, before - len(out.FootballMatches) - len(out.UFCEvents)
}
