package main

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/legendpaul/sportsapp/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

type mockMigrator struct {
	mock.Mock
}

func (m *mockMigrator) Up() error {
	return m.Called().Error(0)
}

func (m *mockMigrator) Steps(n int) error {
	return m.Called(n).Error(0)
}

func (m *mockMigrator) Version() (uint, bool, error) {
	args := m.Called()
	return args.Get(0).(uint), args.Bool(1), args.Error(2)
}

func (m *mockMigrator) Force(version int) error {
	return m.Called(version).Error(0)
}

func (m *mockMigrator) Migrate(version uint) error {
	return m.Called(version).Error(0)
}

func TestRunCommand_UpTreatsNoChangeAsSuccess(t *testing.T) {
	t.Parallel()

	m := new(mockMigrator)
	m.On("Up").Return(migrate.ErrNoChange).Once()

	if err := runCommand(m, []string{"up"}, logging.NewNop()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	m.AssertExpectations(t)
}

func TestRunCommand_DownStepsBackwards(t *testing.T) {
	t.Parallel()

	m := new(mockMigrator)
	m.On("Steps", -2).Return(nil).Once()

	if err := runCommand(m, []string{"down", "2"}, logging.NewNop()); err != nil {
		t.Fatalf("down: %v", err)
	}
	m.AssertExpectations(t)
}

func TestRunCommand_RejectsBadArguments(t *testing.T) {
	t.Parallel()

	m := new(mockMigrator)
	for _, args := range [][]string{{"down", "0"}, {"force"}, {"goto", "-1"}} {
		if err := runCommand(m, args, logging.NewNop()); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
	if err := runCommand(m, []string{"seed"}, logging.NewNop()); !errors.Is(err, errUnknownCommand) {
		t.Fatalf("expected unknown command, got %v", err)
	}
	m.AssertNotCalled(t, "Steps", mock.Anything)
}

func TestParseVersion(t *testing.T) {
	t.Parallel()

	if v, err := parseVersion(" 7 "); err != nil || v != 7 {
		t.Fatalf("parseVersion: v=%d err=%v", v, err)
	}
	if _, err := parseVersion("-1"); err == nil {
		t.Fatalf("expected negative version to fail")
	}
}
