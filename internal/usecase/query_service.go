package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/legendpaul/sportsapp/internal/domain/football"
	"github.com/legendpaul/sportsapp/internal/domain/ufc"
	"github.com/legendpaul/sportsapp/internal/platform/ukclock"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// FixtureView is a stored fixture plus the values derived at read time.
type FixtureView struct {
	football.Fixture
	Status          football.Status `json:"status"`
	DisplayChannels []string        `json:"displayChannels"`
	KickoffUTC      *time.Time      `json:"kickoffUTC,omitempty"`
}

type EventView struct {
	ufc.Event
	UKDate         string `json:"ukDate"`
	UKMainCardTime string `json:"ukMainCardTime"`
	UKPrelimTime   string `json:"ukPrelimTime"`
}

type StatusView struct {
	Datasets        []DatasetStatus `json:"datasets"`
	FootballMatches int             `json:"footballMatches"`
	UFCEvents       int             `json:"ufcEvents"`
	LastCleanup     *time.Time      `json:"lastCleanup"`
	LastFetch       *time.Time      `json:"lastFetch"`
	LastUFCFetch    *time.Time      `json:"lastUFCFetch"`
}

type QueryService struct {
	writer       *DocumentWriter
	orchestrator *Orchestrator
	now          func() time.Time
}

func NewQueryService(writer *DocumentWriter, orchestrator *Orchestrator) *QueryService {
	return &QueryService{
		writer:       writer,
		orchestrator: orchestrator,
		now:          time.Now,
	}
}

// ListFixtures returns stored fixtures ordered by kickoff with status derived
// against the current time. Team matching is fuzzy and case-insensitive.
func (s *QueryService) ListFixtures(ctx context.Context, filter football.ListFilter) ([]FixtureView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.ListFixtures")
	defer span.End()

	date := strings.TrimSpace(filter.Date)
	if date != "" {
		if _, err := time.Parse(ukclock.DateLayout, date); err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
		}
	}
	team := strings.TrimSpace(filter.Team)

	doc, err := s.writer.Snapshot(ctx)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	now := s.now()
	out := make([]FixtureView, 0, len(doc.FootballMatches))
	for _, item := range doc.FootballMatches {
		if date != "" && item.Date != date {
			continue
		}
		if team != "" && !matchesTeam(team, item) {
			continue
		}

		view := FixtureView{
			Fixture:         item,
			Status:          item.Status(now),
			DisplayChannels: item.DisplayChannels(),
		}
		if kickoff, err := item.Kickoff(); err == nil {
			view.KickoffUTC = &kickoff
		}
		if filter.HideFinished && view.Status == football.StatusFinished {
			continue
		}
		out = append(out, view)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date+" "+out[i].Time < out[j].Date+" "+out[j].Time
	})
	return out, nil
}

func (s *QueryService) ListEvents(ctx context.Context) ([]EventView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.ListEvents")
	defer span.End()

	doc, err := s.writer.Snapshot(ctx)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	out := make([]EventView, 0, len(doc.UFCEvents))
	for _, item := range doc.UFCEvents {
		ukDate, _ := ukclock.FromUTC(item.MainCardStartUTC)
		out = append(out, EventView{
			Event:          item,
			UKDate:         ukDate,
			UKMainCardTime: item.UKMainCardTime(),
			UKPrelimTime:   item.UKPrelimTime(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MainCardStartUTC.Before(out[j].MainCardStartUTC)
	})
	return out, nil
}

func (s *QueryService) Status(ctx context.Context) (StatusView, error) {
	doc, err := s.writer.Snapshot(ctx)
	if err != nil {
		return StatusView{}, err
	}
	return StatusView{
		Datasets: []DatasetStatus{
			s.orchestrator.Status(DatasetFootball),
			s.orchestrator.Status(DatasetUFC),
		},
		FootballMatches: len(doc.FootballMatches),
		UFCEvents:       len(doc.UFCEvents),
		LastCleanup:     doc.LastCleanup,
		LastFetch:       doc.LastFetch,
		LastUFCFetch:    doc.LastUFCFetch,
	}, nil
}

func matchesTeam(query string, item football.Fixture) bool {
	for _, name := range []string{item.TeamA, item.TeamB} {
		if fuzzy.MatchNormalizedFold(query, name) {
			return true
		}
	}
	return false
}
