package football

import (
	"strings"
	"time"

	"github.com/legendpaul/sportsapp/internal/platform/ukclock"
)

type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusSoon     Status = "soon"
	StatusLive     Status = "live"
	StatusFinished Status = "finished"
)

const (
	DefaultCompetition = "Football"
	NoChannelsLabel    = "Check TV Guide"

	liveWindow = 2 * time.Hour
	soonWindow = 30 * time.Minute
)

// Fixture is one televised match. Time and Date are UK local wall-clock values.
type Fixture struct {
	ID          string   `json:"id"`
	Time        string   `json:"time" validate:"required,datetime=15:04"`
	Date        string   `json:"date" validate:"required,datetime=2006-01-02"`
	TeamA       string   `json:"teamA" validate:"required,min=2"`
	TeamB       string   `json:"teamB" validate:"required,min=2,nefield=TeamA"`
	Competition string   `json:"competition" validate:"required"`
	Channels    []string `json:"channels"`
	Source      string   `json:"source"`
}

// NaturalKey identifies a fixture independent of its surrogate id.
func (f Fixture) NaturalKey() string {
	return strings.Join([]string{
		normalizeKeyPart(f.TeamA),
		normalizeKeyPart(f.TeamB),
		strings.TrimSpace(f.Time),
		strings.TrimSpace(f.Date),
	}, "|")
}

// Kickoff is the UTC instant of the UK local date and time.
func (f Fixture) Kickoff() (time.Time, error) {
	return ukclock.ToUTC(f.Date, f.Time)
}

// Status derives the live state at now. Fixtures with an unparseable kickoff
// report upcoming.
func (f Fixture) Status(now time.Time) Status {
	kickoff, err := f.Kickoff()
	if err != nil {
		return StatusUpcoming
	}
	return DeriveStatus(kickoff, now)
}

func (f Fixture) DisplayChannels() []string {
	if len(f.Channels) == 0 {
		return []string{NoChannelsLabel}
	}
	out := make([]string, len(f.Channels))
	copy(out, f.Channels)
	return out
}

// DeriveStatus is pure in (kickoff, now) and must never be persisted.
func DeriveStatus(kickoff, now time.Time) Status {
	if now.After(kickoff) {
		if now.Sub(kickoff) <= liveWindow {
			return StatusLive
		}
		return StatusFinished
	}
	if kickoff.Sub(now) <= soonWindow {
		return StatusSoon
	}
	return StatusUpcoming
}

func normalizeKeyPart(v string) string {
	return strings.ToLower(strings.Join(strings.Fields(v), " "))
}

// ListFilter narrows fixture listings for the UI.
type ListFilter struct {
	Date         string
	Team         string
	HideFinished bool
}
