package usecase

import (
	"time"

	"github.com/legendpaul/sportsapp/internal/domain/football"
	"github.com/legendpaul/sportsapp/internal/domain/ufc"
	"github.com/legendpaul/sportsapp/internal/platform/id"
	"github.com/legendpaul/sportsapp/internal/platform/ukclock"
)

// SourceFallbackDefault tags records that came from the built-in dataset.
const SourceFallbackDefault = string(ProvenanceFallbackDefault)

type defaultFixture struct {
	clock       string
	teamA       string
	teamB       string
	competition string
	channels    []string
}

var builtinFixtures = []defaultFixture{
	{"12:30", "Arsenal", "Chelsea", "Premier League", []string{"TNT Sports 1"}},
	{"15:00", "Celtic", "Rangers", "Scottish Premiership", []string{"Sky Sports Main Event"}},
	{"17:30", "Liverpool", "Manchester United", "Premier League", []string{"Sky Sports Premier League"}},
	{"20:00", "Real Madrid", "Barcelona", "La Liga", []string{"Premier Sports 1"}},
}

// DefaultFixtures is the small safe dataset served when every football source
// and the cache are unavailable. Each slot is dated today in UK time, or
// tomorrow once today's kickoff has passed, so none is evicted on arrival.
func DefaultFixtures(now time.Time) []football.Fixture {
	today := ukclock.Today(now)
	tomorrow := today
	if d, err := time.Parse(ukclock.DateLayout, today); err == nil {
		tomorrow = d.AddDate(0, 0, 1).Format(ukclock.DateLayout)
	}

	upcoming := make([]football.Fixture, 0, len(builtinFixtures))
	rolled := make([]football.Fixture, 0, len(builtinFixtures))
	for _, item := range builtinFixtures {
		date := today
		if kickoff, err := ukclock.ToUTC(today, item.clock); err != nil || !kickoff.After(now) {
			date = tomorrow
		}
		fixture := football.Fixture{
			ID:          id.Stable("fx", item.teamA, item.teamB, item.clock, date),
			Time:        item.clock,
			Date:        date,
			TeamA:       item.teamA,
			TeamB:       item.teamB,
			Competition: item.competition,
			Channels:    append([]string(nil), item.channels...),
			Source:      SourceFallbackDefault,
		}
		if date == today {
			upcoming = append(upcoming, fixture)
		} else {
			rolled = append(rolled, fixture)
		}
	}
	return append(upcoming, rolled...)
}

// DefaultEvents returns one placeholder fight night on the coming Saturday,
// main card at the usual 03:00 UK slot the following morning.
func DefaultEvents(now time.Time) []ufc.Event {
	today, err := time.Parse(ukclock.DateLayout, ukclock.Today(now))
	if err != nil {
		return []ufc.Event{}
	}
	daysUntilSaturday := (int(time.Saturday) - int(today.Weekday()) + 7) % 7
	eventDate := today.AddDate(0, 0, daysUntilSaturday)
	date := eventDate.Format(ukclock.DateLayout)

	start, err := ukclock.ToUTC(eventDate.AddDate(0, 0, 1).Format(ukclock.DateLayout), "03:00")
	if err != nil {
		return []ufc.Event{}
	}

	event := ufc.Event{
		Title:            "UFC Fight Night",
		Date:             date,
		MainCardStartUTC: start,
		Source:           SourceFallbackDefault,
		MainCard: []ufc.Bout{
			{Fighter1: "TBA", Fighter2: "TBA", Title: "Main Event"},
		},
	}
	event.ID = id.Stable("ufc", event.NaturalKey())
	event.ApplyDefaults()
	return []ufc.Event{event}
}
