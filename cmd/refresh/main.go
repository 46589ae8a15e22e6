package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/legendpaul/sportsapp/internal/app"
	"github.com/legendpaul/sportsapp/internal/config"
	"github.com/legendpaul/sportsapp/internal/domain/football"
	"github.com/legendpaul/sportsapp/internal/platform/logging"
	"github.com/legendpaul/sportsapp/internal/usecase"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	bootLogger := logging.NewJSONWriter(os.Stderr, logging.LevelInfo)
	if err := config.LoadDotEnv(); err != nil {
		bootLogger.Warn("load .env", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error("load config", "error", err)
		os.Exit(1)
	}

	// stdout carries the JSON result; logs go to stderr
	logger := logging.NewJSONWriter(os.Stderr, cfg.LogLevel).With("service", cfg.ServiceName, "command", os.Args[1])
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg.MetricsEnabled = false
	services, err := app.NewServices(ctx, cfg, logger)
	if err != nil {
		logger.Error("build services", "error", err)
		os.Exit(1)
	}
	defer func() { _ = services.Close() }()

	if err := run(ctx, services, os.Args[1:], os.Stdout); err != nil {
		logger.Error("command failed", "error", err)
		if err == errUsage {
			printUsage()
			os.Exit(2)
		}
		os.Exit(1)
	}
}

var errUsage = fmt.Errorf("usage")

type showOutput struct {
	Status   usecase.StatusView    `json:"status"`
	Fixtures []usecase.FixtureView `json:"fixtures"`
	Events   []usecase.EventView   `json:"events"`
}

func run(ctx context.Context, services *app.Services, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd := strings.ToLower(strings.TrimSpace(args[0]))
	input, err := parseRefreshArgs(args[1:])
	if err != nil {
		return err
	}

	var result any
	switch cmd {
	case "football":
		result, err = services.Refresh.RefreshFootball(ctx, input)
	case "ufc":
		result, err = services.Refresh.RefreshUFC(ctx, usecase.RefreshInput{Force: input.Force})
	case "all":
		result, err = services.Refresh.RefreshAll(ctx, input)
	case "cleanup":
		result, err = services.Cleanup.Run(ctx)
	case "show":
		result, err = show(ctx, services, input.Date)
	default:
		return errUsage
	}
	if err != nil {
		return err
	}

	encoder := sonic.ConfigDefault.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// parseRefreshArgs accepts an optional YYYY-MM-DD date and --force in any order.
func parseRefreshArgs(args []string) (usecase.RefreshInput, error) {
	var input usecase.RefreshInput
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		switch {
		case arg == "--force" || arg == "-f":
			input.Force = true
		case input.Date == "" && !strings.HasPrefix(arg, "-"):
			input.Date = arg
		default:
			return usecase.RefreshInput{}, fmt.Errorf("%w: unexpected argument %q", usecase.ErrInvalidInput, arg)
		}
	}
	return input, nil
}

func show(ctx context.Context, services *app.Services, date string) (showOutput, error) {
	status, err := services.Query.Status(ctx)
	if err != nil {
		return showOutput{}, err
	}
	fixtures, err := services.Query.ListFixtures(ctx, football.ListFilter{Date: date})
	if err != nil {
		return showOutput{}, err
	}
	events, err := services.Query.ListEvents(ctx)
	if err != nil {
		return showOutput{}, err
	}
	return showOutput{Status: status, Fixtures: fixtures, Events: events}, nil
}

func printUsage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <football|ufc|all|cleanup|show> [YYYY-MM-DD] [--force]\n", name)
	fmt.Fprintln(os.Stderr, "examples:")
	fmt.Fprintf(os.Stderr, "  %s football\n", name)
	fmt.Fprintf(os.Stderr, "  %s football 2025-06-16 --force\n", name)
	fmt.Fprintf(os.Stderr, "  %s ufc\n", name)
	fmt.Fprintf(os.Stderr, "  %s show 2025-06-16\n", name)
}
