package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/legendpaul/sportsapp/internal/domain/datastore"
	"github.com/legendpaul/sportsapp/internal/domain/football"
	datastoremock "github.com/legendpaul/sportsapp/internal/mocks/domain/datastore"
	"github.com/stretchr/testify/mock"
)

// memoryStore is a minimal in-process datastore for flow tests.
type memoryStore struct {
	mu   sync.Mutex
	doc  datastore.Document
	save int
}

func (s *memoryStore) Load(context.Context) (datastore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone(), nil
}

func (s *memoryStore) Save(_ context.Context, doc datastore.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
	s.save++
	return nil
}

func TestDocumentWriter_EmergencyEvictionRetriesOnce(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC)
	stored := datastore.Document{
		FootballMatches: []football.Fixture{
			fixtureFor("Yesterday", "Team", "20:00", "2025-06-15", "old"),
			fixtureFor("Today", "Team", "19:00", "2025-06-16", "keep"),
		},
	}

	store := datastoremock.NewStore(t)
	store.On("Load", mock.Anything).Return(stored, nil).Once()
	store.On("Save", mock.Anything, mock.MatchedBy(func(doc datastore.Document) bool { return len(doc.FootballMatches) == 3 })).
		Return(datastore.ErrQuotaExceeded).
		Once()
	store.On("Save", mock.Anything, mock.MatchedBy(func(doc datastore.Document) bool { return len(doc.FootballMatches) == 2 })).
		Return(nil).
		Once()

	writer := NewDocumentWriter(store, DocumentWriterConfig{})
	writer.now = func() time.Time { return now }

	doc, err := writer.Update(context.Background(), func(doc *datastore.Document) error {
		doc.FootballMatches = append(doc.FootballMatches, fixtureFor("Tomorrow", "Team", "15:00", "2025-06-17", "new"))
		return nil
	})
	if err != nil {
		t.Fatalf("expected emergency retry to succeed: %v", err)
	}
	if len(doc.FootballMatches) != 2 || doc.FootballMatches[0].ID != "keep" {
		t.Fatalf("unexpected trimmed document: %+v", doc.FootballMatches)
	}
}

func TestDocumentWriter_SecondSaveFailureReportsStoreWriteError(t *testing.T) {
	t.Parallel()

	store := datastoremock.NewStore(t)
	store.On("Load", mock.Anything).Return(datastore.Empty(), nil).Once()
	store.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full")).Twice()

	writer := NewDocumentWriter(store, DocumentWriterConfig{})
	_, err := writer.Update(context.Background(), func(*datastore.Document) error { return nil })
	if !errors.Is(err, ErrStoreWrite) {
		t.Fatalf("expected ErrStoreWrite, got %v", err)
	}
}

func TestDocumentWriter_SerializesConcurrentUpdates(t *testing.T) {
	t.Parallel()

	store := &memoryStore{doc: datastore.Empty()}
	writer := NewDocumentWriter(store, DocumentWriterConfig{})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := writer.Update(context.Background(), func(doc *datastore.Document) error {
				incoming := []football.Fixture{fixtureFor("Team", string(rune('A'+i))+"x", "15:00", "2099-01-01", "")}
				doc.FootballMatches, _ = Merge(doc.FootballMatches, incoming, football.Fixture.NaturalKey)
				return nil
			})
			if err != nil {
				t.Errorf("update %d: %v", i, err)
			}
		}()
	}
	wg.Wait()

	if got := len(store.doc.FootballMatches); got != 20 {
		t.Fatalf("lost updates: got=%d want=20", got)
	}
}
