package ufc

import (
	"strings"
	"time"

	"github.com/legendpaul/sportsapp/internal/platform/ukclock"
)

const (
	DefaultVenue       = "Venue TBD"
	DefaultBroadcaster = "TNT Sports"
	DefaultWeightClass = "TBD"

	// PrelimOffset is an estimate of how long before the main card the prelims begin.
	PrelimOffset = 2 * time.Hour
)

type Bout struct {
	Fighter1    string `json:"fighter1" validate:"required"`
	Fighter2    string `json:"fighter2" validate:"required"`
	WeightClass string `json:"weightClass"`
	Title       string `json:"title"`
}

// Event is one fight night. MainCardStartUTC is authoritative; UK display
// times are derived from it on read.
type Event struct {
	ID               string    `json:"id"`
	ExternalID       string    `json:"externalId,omitempty"`
	Title            string    `json:"title" validate:"required"`
	Date             string    `json:"date" validate:"required,datetime=2006-01-02"`
	MainCardStartUTC time.Time `json:"mainCardStartUTC" validate:"required"`
	PrelimStartUTC   time.Time `json:"prelimStartUTC"`
	Venue            string    `json:"venue"`
	Broadcast        string    `json:"broadcast"`
	URL              string    `json:"url,omitempty"`
	MainCard         []Bout    `json:"mainCard"`
	PrelimCard       []Bout    `json:"prelimCard"`
	EarlyPrelimCard  []Bout    `json:"earlyPrelimCard"`
	Source           string    `json:"source"`
}

// NaturalKey prefers the source identifier and falls back to title and date.
func (e Event) NaturalKey() string {
	if id := strings.TrimSpace(e.ExternalID); id != "" {
		return "ufc:" + strings.ToLower(id)
	}
	return strings.ToLower(strings.Join(strings.Fields(e.Title), " ")) + "|" + strings.TrimSpace(e.Date)
}

func (e Event) EstimatedEnd(duration time.Duration) time.Time {
	return e.MainCardStartUTC.Add(duration)
}

// PrelimStart returns the explicit prelim start or the main card minus PrelimOffset.
func (e Event) PrelimStart() time.Time {
	if !e.PrelimStartUTC.IsZero() {
		return e.PrelimStartUTC
	}
	return e.MainCardStartUTC.Add(-PrelimOffset)
}

func (e Event) UKMainCardTime() string {
	_, clock := ukclock.FromUTC(e.MainCardStartUTC)
	return clock
}

func (e Event) UKPrelimTime() string {
	_, clock := ukclock.FromUTC(e.PrelimStart())
	return clock
}

// ApplyDefaults fills the display fallbacks for venue, broadcaster and bout weight class.
func (e *Event) ApplyDefaults() {
	if strings.TrimSpace(e.Venue) == "" {
		e.Venue = DefaultVenue
	}
	if strings.TrimSpace(e.Broadcast) == "" {
		e.Broadcast = DefaultBroadcaster
	}
	if e.PrelimStartUTC.IsZero() && !e.MainCardStartUTC.IsZero() {
		e.PrelimStartUTC = e.MainCardStartUTC.Add(-PrelimOffset)
	}
	for _, card := range [][]Bout{e.MainCard, e.PrelimCard, e.EarlyPrelimCard} {
		for i := range card {
			if strings.TrimSpace(card[i].WeightClass) == "" {
				card[i].WeightClass = DefaultWeightClass
			}
		}
	}
	if e.MainCard == nil {
		e.MainCard = []Bout{}
	}
	if e.PrelimCard == nil {
		e.PrelimCard = []Bout{}
	}
	if e.EarlyPrelimCard == nil {
		e.EarlyPrelimCard = []Bout{}
	}
}

func (e Event) HasCard() bool {
	return len(e.MainCard)+len(e.PrelimCard)+len(e.EarlyPrelimCard) > 0
}

// Card is a fight card split the way event pages present it.
type Card struct {
	Main         []Bout
	Prelims      []Bout
	EarlyPrelims []Bout
}

func (c Card) Empty() bool {
	return len(c.Main)+len(c.Prelims)+len(c.EarlyPrelims) == 0
}
