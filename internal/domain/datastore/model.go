package datastore

import (
	"context"
	"errors"
	"time"

	"github.com/legendpaul/sportsapp/internal/domain/football"
	"github.com/legendpaul/sportsapp/internal/domain/ufc"
)

// ErrQuotaExceeded is returned by stores that cap the encoded document size.
var ErrQuotaExceeded = errors.New("datastore quota exceeded")

// Document is the single persisted JSON blob shared by the refresh and cleanup paths.
type Document struct {
	FootballMatches []football.Fixture `json:"footballMatches"`
	UFCEvents       []ufc.Event        `json:"ufcEvents"`
	LastCleanup     *time.Time         `json:"lastCleanup"`
	LastFetch       *time.Time         `json:"lastFetch"`
	LastUFCFetch    *time.Time         `json:"lastUFCFetch"`
}

// Store loads and saves the whole document. Implementations must handle
// payloads of at least 100KB.
type Store interface {
	Load(ctx context.Context) (Document, error)
	Save(ctx context.Context, doc Document) error
}

func Empty() Document {
	return Document{
		FootballMatches: []football.Fixture{},
		UFCEvents:       []ufc.Event{},
	}
}

// Normalize replaces nil collections so the encoded form always carries arrays.
func (d Document) Normalize() Document {
	if d.FootballMatches == nil {
		d.FootballMatches = []football.Fixture{}
	}
	if d.UFCEvents == nil {
		d.UFCEvents = []ufc.Event{}
	}
	return d
}

// Clone copies the collections so callers can mutate without touching a shared snapshot.
func (d Document) Clone() Document {
	out := d.Normalize()
	out.FootballMatches = append([]football.Fixture(nil), out.FootballMatches...)
	out.UFCEvents = append([]ufc.Event(nil), out.UFCEvents...)
	if out.FootballMatches == nil {
		out.FootballMatches = []football.Fixture{}
	}
	if out.UFCEvents == nil {
		out.UFCEvents = []ufc.Event{}
	}
	return out
}

func TimePtr(t time.Time) *time.Time {
	v := t.UTC()
	return &v
}
