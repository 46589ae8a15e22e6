package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/legendpaul/sportsapp/internal/app"
	"github.com/legendpaul/sportsapp/internal/config"
	"github.com/legendpaul/sportsapp/internal/platform/logging"
	"github.com/legendpaul/sportsapp/internal/usecase"
)

func memoryServices(t *testing.T) *app.Services {
	t.Helper()

	services, err := app.NewServices(context.Background(), config.Config{
		DatastoreDriver:    config.DriverMemory,
		DatastoreMaxBytes:  1 << 20,
		CacheMaxBytes:      1 << 20,
		EvictFootballGrace: 3 * time.Hour,
		EvictUFCDuration:   5 * time.Hour,
		EvictUFCGrace:      3 * time.Hour,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("new services: %v", err)
	}
	t.Cleanup(func() { _ = services.Close() })
	return services
}

func TestParseRefreshArgs(t *testing.T) {
	t.Parallel()

	input, err := parseRefreshArgs([]string{"--force", "2025-06-16"})
	if err != nil || !input.Force || input.Date != "2025-06-16" {
		t.Fatalf("unexpected input %+v err=%v", input, err)
	}
	if _, err := parseRefreshArgs([]string{"2025-06-16", "2025-06-17"}); !errors.Is(err, usecase.ErrInvalidInput) {
		t.Fatalf("expected invalid input for two dates, got %v", err)
	}
}

func TestRun_CleanupAndShowPrintJSON(t *testing.T) {
	t.Parallel()

	services := memoryServices(t)

	var out bytes.Buffer
	if err := run(context.Background(), services, []string{"cleanup"}, &out); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	var cleanup usecase.CleanupResult
	if err := sonic.Unmarshal(out.Bytes(), &cleanup); err != nil {
		t.Fatalf("decode cleanup output %q: %v", out.String(), err)
	}
	if cleanup.CleanedAt.IsZero() {
		t.Fatalf("expected cleanedAt in output")
	}

	out.Reset()
	if err := run(context.Background(), services, []string{"show"}, &out); err != nil {
		t.Fatalf("show: %v", err)
	}
	var shown showOutput
	if err := sonic.Unmarshal(out.Bytes(), &shown); err != nil {
		t.Fatalf("decode show output: %v", err)
	}
	if shown.Status.LastCleanup == nil || len(shown.Status.Datasets) != 2 {
		t.Fatalf("unexpected status %+v", shown.Status)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	t.Parallel()

	if err := run(context.Background(), memoryServices(t), []string{"baseball"}, &bytes.Buffer{}); err != errUsage {
		t.Fatalf("expected usage error, got %v", err)
	}
}
