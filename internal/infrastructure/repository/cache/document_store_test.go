package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/legendpaul/sportsapp/internal/domain/datastore"
	"github.com/legendpaul/sportsapp/internal/domain/football"
	datastoremock "github.com/legendpaul/sportsapp/internal/mocks/domain/datastore"
	basecache "github.com/legendpaul/sportsapp/internal/platform/cache"
	"github.com/stretchr/testify/mock"
)

func TestDocumentStore_LoadHitsBackendOnceWithinTTL(t *testing.T) {
	t.Parallel()

	next := datastoremock.NewStore(t)
	next.On("Load", mock.Anything).Return(datastore.Empty(), nil).Once()

	store := NewDocumentStore(next, basecache.NewStore(0), time.Minute)
	for i := 0; i < 3; i++ {
		if _, err := store.Load(context.Background()); err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
	}
}

func TestDocumentStore_SaveRefreshesCacheAndFailureInvalidates(t *testing.T) {
	t.Parallel()

	saved := datastore.Empty()
	saved.FootballMatches = append(saved.FootballMatches, football.Fixture{TeamA: "Arsenal", TeamB: "Chelsea"})

	next := datastoremock.NewStore(t)
	next.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
	next.On("Save", mock.Anything, mock.Anything).Return(errors.New("quota")).Once()
	next.On("Load", mock.Anything).Return(datastore.Empty(), nil).Once()

	store := NewDocumentStore(next, basecache.NewStore(0), time.Minute)
	if err := store.Save(context.Background(), saved); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(context.Background())
	if err != nil || len(got.FootballMatches) != 1 {
		t.Fatalf("expected cached saved document, got %+v err=%v", got, err)
	}

	if err := store.Save(context.Background(), datastore.Empty()); err == nil {
		t.Fatalf("expected save error")
	}
	got, _ = store.Load(context.Background())
	if len(got.FootballMatches) != 0 {
		t.Fatalf("expected reload from backend after failed save")
	}
}
