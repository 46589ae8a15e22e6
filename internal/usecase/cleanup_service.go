package usecase

import (
	"context"
	"time"

	"github.com/legendpaul/sportsapp/internal/domain/datastore"
	"github.com/legendpaul/sportsapp/internal/platform/logging"
)

type CleanupResult struct {
	FootballRemoved int       `json:"footballRemoved"`
	UFCRemoved      int       `json:"ufcRemoved"`
	FootballTotal   int       `json:"footballTotal"`
	UFCTotal        int       `json:"ufcTotal"`
	CleanedAt       time.Time `json:"cleanedAt"`
}

// EvictionRecorder receives the per-dataset counts of each cleanup pass.
type EvictionRecorder interface {
	ObserveEviction(report EvictionReport)
}

// CleanupService applies the eviction policy to the stored document.
type CleanupService struct {
	writer   *DocumentWriter
	policy   EvictionPolicy
	logger   *logging.Logger
	recorder EvictionRecorder
	now      func() time.Time
}

func NewCleanupService(writer *DocumentWriter, policy EvictionPolicy, logger *logging.Logger) *CleanupService {
	if logger == nil {
		logger = logging.Default()
	}
	if policy == (EvictionPolicy{}) {
		policy = DefaultEvictionPolicy()
	}
	return &CleanupService{
		writer: writer,
		policy: policy,
		logger: logger.Named("cleanup"),
		now:    time.Now,
	}
}

// WithRecorder attaches a recorder and returns the service.
func (s *CleanupService) WithRecorder(recorder EvictionRecorder) *CleanupService {
	s.recorder = recorder
	return s
}

func (s *CleanupService) Run(ctx context.Context) (CleanupResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CleanupService.Run")
	defer span.End()

	now := s.now()
	var report EvictionReport
	doc, err := s.writer.Update(ctx, func(doc *datastore.Document) error {
		var evicted datastore.Document
		evicted, report = s.policy.Evict(*doc, now)
		evicted.LastCleanup = datastore.TimePtr(now)
		*doc = evicted
		return nil
	})
	if err != nil {
		recordSpanError(span, err)
		s.logger.ErrorContext(ctx, "cleanup failed", "error", err)
		return CleanupResult{}, err
	}

	if s.recorder != nil {
		s.recorder.ObserveEviction(report)
	}
	s.logger.InfoContext(ctx, "cleanup finished",
		"football_removed", report.FootballRemoved,
		"ufc_removed", report.UFCRemoved,
		"football_total", len(doc.FootballMatches),
		"ufc_total", len(doc.UFCEvents),
	)
	return CleanupResult{
		FootballRemoved: report.FootballRemoved,
		UFCRemoved:      report.UFCRemoved,
		FootballTotal:   len(doc.FootballMatches),
		UFCTotal:        len(doc.UFCEvents),
		CleanedAt:       now.UTC(),
	}, nil
}
