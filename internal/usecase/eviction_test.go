package usecase

import (
	"testing"
	"time"

	"github.com/legendpaul/sportsapp/internal/domain/datastore"
	"github.com/legendpaul/sportsapp/internal/domain/football"
	"github.com/legendpaul/sportsapp/internal/domain/ufc"
)

func TestEvictionPolicy_FootballGraceBoundary(t *testing.T) {
	t.Parallel()

	policy := DefaultEvictionPolicy()
	// 2025-06-16 is BST, so 15:00 UK is 14:00Z.
	now := time.Date(2025, 6, 16, 17, 0, 0, 0, time.UTC)
	fixtures := []football.Fixture{
		fixtureFor("Kept", "Boundary", "15:00", "2025-06-16", "fx_1"),
		fixtureFor("Gone", "Earlier", "14:59", "2025-06-16", "fx_2"),
		fixtureFor("Later", "Tonight", "20:00", "2025-06-16", "fx_3"),
		fixtureFor("Broken", "Clock", "TBC", "2025-06-16", "fx_4"),
	}

	survivors, removed := policy.EvictFootball(fixtures, now)
	if removed != 2 {
		t.Fatalf("unexpected removed count: got=%d want=2", removed)
	}
	if len(survivors) != 2 || survivors[0].TeamA != "Kept" || survivors[1].TeamA != "Later" {
		t.Fatalf("unexpected survivors: %+v", survivors)
	}
}

func TestEvictionPolicy_UFCUsesDurationPlusGrace(t *testing.T) {
	t.Parallel()

	policy := DefaultEvictionPolicy()
	start := time.Date(2025, 10, 26, 3, 0, 0, 0, time.UTC)
	events := []ufc.Event{
		{Title: "UFC 321", Date: "2025-10-25", MainCardStartUTC: start},
		{Title: "No Start", Date: "2025-10-25"},
	}

	survivors, removed := policy.EvictUFC(events, start.Add(8*time.Hour))
	if removed != 1 || len(survivors) != 1 {
		t.Fatalf("expected event kept at exactly 8h: removed=%d", removed)
	}

	survivors, removed = policy.EvictUFC(events, start.Add(8*time.Hour+time.Minute))
	if removed != 2 || len(survivors) != 0 {
		t.Fatalf("expected event evicted after 8h: removed=%d", removed)
	}
}

func TestEvictionPolicy_IsMonotonic(t *testing.T) {
	t.Parallel()

	policy := DefaultEvictionPolicy()
	doc := datastore.Document{
		FootballMatches: []football.Fixture{
			fixtureFor("A1", "B1", "12:00", "2025-06-16", "1"),
			fixtureFor("A2", "B2", "15:00", "2025-06-16", "2"),
			fixtureFor("A3", "B3", "20:00", "2025-06-16", "3"),
			fixtureFor("A4", "B4", "15:00", "2025-06-17", "4"),
		},
		UFCEvents: []ufc.Event{
			{Title: "UFC 1", Date: "2025-06-14", MainCardStartUTC: time.Date(2025, 6, 15, 2, 0, 0, 0, time.UTC)},
			{Title: "UFC 2", Date: "2025-06-21", MainCardStartUTC: time.Date(2025, 6, 22, 2, 0, 0, 0, time.UTC)},
		},
	}

	t1 := time.Date(2025, 6, 16, 15, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 6, 16, 22, 0, 0, 0, time.UTC)

	stepwise, _ := policy.Evict(doc, t1)
	stepwise, _ = policy.Evict(stepwise, t2)
	direct, report := policy.Evict(doc, t2)

	if len(stepwise.FootballMatches) != len(direct.FootballMatches) || len(stepwise.UFCEvents) != len(direct.UFCEvents) {
		t.Fatalf("stepwise and direct eviction differ: stepwise=%d/%d direct=%d/%d",
			len(stepwise.FootballMatches), len(stepwise.UFCEvents), len(direct.FootballMatches), len(direct.UFCEvents))
	}
	for i := range direct.FootballMatches {
		if stepwise.FootballMatches[i].ID != direct.FootballMatches[i].ID {
			t.Fatalf("fixture %d differs: %s vs %s", i, stepwise.FootballMatches[i].ID, direct.FootballMatches[i].ID)
		}
	}
	if report.FootballRemoved != 2 || report.UFCRemoved != 1 || report.Total() != 3 {
		t.Fatalf("unexpected report: %+v", report)
	}
}
