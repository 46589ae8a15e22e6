package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/legendpaul/sportsapp/internal/platform/logging"
	"github.com/legendpaul/sportsapp/internal/usecase"
)

type Refresher interface {
	RefreshFootball(ctx context.Context, input usecase.RefreshInput) (usecase.RefreshResult, error)
	RefreshUFC(ctx context.Context, input usecase.RefreshInput) (usecase.RefreshResult, error)
	RefreshAll(ctx context.Context, input usecase.RefreshInput) (usecase.RefreshAllResult, error)
}

type Cleaner interface {
	Run(ctx context.Context) (usecase.CleanupResult, error)
}

type Config struct {
	FootballInterval time.Duration
	UFCInterval      time.Duration
	CleanupInterval  time.Duration
	// JobTimeout bounds a single run; zero means the interval itself.
	JobTimeout time.Duration
	Logger     *logging.Logger
}

// Scheduler runs the periodic refresh and cleanup jobs. Every job is in
// singleton mode, so a slow run is rescheduled rather than overlapped.
type Scheduler struct {
	s       gocron.Scheduler
	refresh Refresher
	cleanup Cleaner
	cfg     Config
	logger  *logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(refresh Refresher, cleanup Cleaner, cfg Config) (*Scheduler, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("scheduler")

	s, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	out := &Scheduler{
		s:       s,
		refresh: refresh,
		cleanup: cleanup,
		cfg:     cfg,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
	if err := out.registerJobs(); err != nil {
		cancel()
		_ = s.Shutdown()
		return nil, err
	}
	return out, nil
}

func (s *Scheduler) registerJobs() error {
	jobs := []struct {
		name     string
		interval time.Duration
		run      func(ctx context.Context) error
	}{
		{name: "refresh-football", interval: s.cfg.FootballInterval, run: s.refreshFootball},
		{name: "refresh-ufc", interval: s.cfg.UFCInterval, run: s.refreshUFC},
		{name: "cleanup", interval: s.cfg.CleanupInterval, run: s.runCleanup},
	}

	for _, job := range jobs {
		if job.interval <= 0 {
			s.logger.Info("job disabled", "job", job.name, "reason", "non-positive interval")
			continue
		}
		job := job
		_, err := s.s.NewJob(
			gocron.DurationJob(job.interval),
			gocron.NewTask(func() { s.runJob(job.name, job.interval, job.run) }),
			gocron.WithName(job.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("failed to create %s job: %w", job.name, err)
		}
	}
	return nil
}

// Start runs the startup cleanup and refresh in the background, then begins
// the periodic schedule.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RunStartup(s.ctx)
	}()
	s.s.Start()
}

// RunStartup evicts stale records before the first refresh so the UI never
// shows yesterday's fixtures while sources are being fetched.
func (s *Scheduler) RunStartup(ctx context.Context) {
	if _, err := s.cleanup.Run(ctx); err != nil {
		s.logger.ErrorContext(ctx, "startup cleanup failed", "error", err)
	}
	result, err := s.refresh.RefreshAll(ctx, usecase.RefreshInput{})
	if err != nil {
		s.logger.ErrorContext(ctx, "startup refresh failed", "error", err)
		return
	}
	s.logger.InfoContext(ctx, "startup refresh finished",
		"football_source", result.Football.Source,
		"football_added", result.Football.Added,
		"ufc_source", result.UFC.Source,
		"ufc_added", result.UFC.Added,
	)
}

func (s *Scheduler) Stop() error {
	s.cancel()
	err := s.s.Shutdown()
	s.wg.Wait()
	return err
}

func (s *Scheduler) JobNames() []string {
	jobs := s.s.Jobs()
	out := make([]string, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, job.Name())
	}
	return out
}

func (s *Scheduler) runJob(name string, interval time.Duration, run func(ctx context.Context) error) {
	timeout := s.cfg.JobTimeout
	if timeout <= 0 {
		timeout = interval
	}
	ctx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	started := time.Now()
	if err := run(ctx); err != nil {
		s.logger.ErrorContext(ctx, "scheduled job failed", "job", name, "error", err)
		return
	}
	s.logger.DebugContext(ctx, "scheduled job finished", "job", name, "duration_ms", time.Since(started).Milliseconds())
}

func (s *Scheduler) refreshFootball(ctx context.Context) error {
	_, err := s.refresh.RefreshFootball(ctx, usecase.RefreshInput{})
	return err
}

func (s *Scheduler) refreshUFC(ctx context.Context) error {
	_, err := s.refresh.RefreshUFC(ctx, usecase.RefreshInput{})
	return err
}

func (s *Scheduler) runCleanup(ctx context.Context) error {
	_, err := s.cleanup.Run(ctx)
	return err
}
