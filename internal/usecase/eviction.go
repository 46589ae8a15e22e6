package usecase

import (
	"time"

	"github.com/legendpaul/sportsapp/internal/domain/datastore"
	"github.com/legendpaul/sportsapp/internal/domain/football"
	"github.com/legendpaul/sportsapp/internal/domain/ufc"
)

// EvictionPolicy decides when stored records stop being relevant.
type EvictionPolicy struct {
	// FootballGrace is how long after kickoff a fixture is kept.
	FootballGrace time.Duration
	// UFCEventDuration is the assumed length of an event from the main card start.
	UFCEventDuration time.Duration
	// UFCGrace is how long after the estimated end an event is kept.
	UFCGrace time.Duration
}

func DefaultEvictionPolicy() EvictionPolicy {
	return EvictionPolicy{
		FootballGrace:    3 * time.Hour,
		UFCEventDuration: 5 * time.Hour,
		UFCGrace:         3 * time.Hour,
	}
}

type EvictionReport struct {
	FootballRemoved int `json:"footballRemoved"`
	UFCRemoved      int `json:"ufcRemoved"`
}

func (r EvictionReport) Total() int {
	return r.FootballRemoved + r.UFCRemoved
}

// Evict is pure over the snapshot; persisting the result is the caller's job.
func (p EvictionPolicy) Evict(doc datastore.Document, now time.Time) (datastore.Document, EvictionReport) {
	out := doc
	var report EvictionReport
	out.FootballMatches, report.FootballRemoved = p.EvictFootball(doc.FootballMatches, now)
	out.UFCEvents, report.UFCRemoved = p.EvictUFC(doc.UFCEvents, now)
	return out, report
}

// EvictFootball keeps fixtures whose kickoff is at or after now - FootballGrace.
// Fixtures without a parseable kickoff are removed.
func (p EvictionPolicy) EvictFootball(fixtures []football.Fixture, now time.Time) ([]football.Fixture, int) {
	cutoff := now.Add(-p.FootballGrace)
	out := make([]football.Fixture, 0, len(fixtures))
	for _, f := range fixtures {
		kickoff, err := f.Kickoff()
		if err != nil || kickoff.Before(cutoff) {
			continue
		}
		out = append(out, f)
	}
	return out, len(fixtures) - len(out)
}

// EvictUFC keeps events whose main card start + duration + grace is at or after now.
func (p EvictionPolicy) EvictUFC(events []ufc.Event, now time.Time) ([]ufc.Event, int) {
	out := make([]ufc.Event, 0, len(events))
	for _, e := range events {
		if e.MainCardStartUTC.IsZero() {
			continue
		}
		if e.EstimatedEnd(p.UFCEventDuration + p.UFCGrace).Before(now) {
			continue
		}
		out = append(out, e)
	}
	return out, len(events) - len(out)
}
