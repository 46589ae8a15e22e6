package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/legendpaul/sportsapp/internal/domain/datastore"
	"github.com/legendpaul/sportsapp/internal/domain/football"
	"github.com/legendpaul/sportsapp/internal/infrastructure/repository/memory"
	"github.com/legendpaul/sportsapp/internal/platform/cache"
	"github.com/legendpaul/sportsapp/internal/platform/logging"
	"github.com/legendpaul/sportsapp/internal/usecase"
)

type envelope struct {
	Data  map[string]any `json:"data"`
	Error map[string]any `json:"error"`
}

func newTestRouter(t *testing.T, seed datastore.Document, token string) (http.Handler, *memory.DocumentStore) {
	t.Helper()

	logger := logging.NewNop()
	store := memory.NewDocumentStore(seed)
	writer := usecase.NewDocumentWriter(store, usecase.DocumentWriterConfig{Logger: logger})
	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorConfig{Cache: cache.NewStore(1 << 20), Logger: logger})
	refresh := usecase.NewRefreshService(orchestrator, writer, nil, nil, nil, usecase.RefreshServiceConfig{Logger: logger})
	cleanup := usecase.NewCleanupService(writer, usecase.EvictionPolicy{}, logger)
	query := usecase.NewQueryService(writer, orchestrator)

	handler := NewHandler(refresh, cleanup, query, logger)
	return NewRouter(handler, RouterConfig{
		Logger:             logger,
		CORSAllowedOrigins: []string{"*"},
		InternalJobToken:   token,
	}), store
}

func serve(t *testing.T, router http.Handler, req *http.Request) (int, envelope) {
	t.Helper()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body envelope
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return rec.Code, body
}

func seededDocument() datastore.Document {
	return datastore.Document{
		FootballMatches: []football.Fixture{
			{ID: "fx_2", Date: "2099-01-01", Time: "20:00", TeamA: "Real Madrid", TeamB: "Barcelona", Competition: "La Liga"},
			{ID: "fx_1", Date: "2099-01-01", Time: "12:30", TeamA: "Arsenal", TeamB: "Chelsea", Competition: "Premier League", Channels: []string{"Sky Sports Main Event"}},
			{ID: "fx_0", Date: "2000-01-01", Time: "15:00", TeamA: "Celtic", TeamB: "Rangers", Competition: "Scottish Premiership"},
		},
	}
}

func TestHandler_ListFixturesFiltersAndOrders(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, seededDocument(), "")

	status, body := serve(t, router, httptest.NewRequest(http.MethodGet, "/v1/football/fixtures?date=2099-01-01", nil))
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d: %+v", status, body.Error)
	}
	fixtures, _ := body.Data["fixtures"].([]any)
	if len(fixtures) != 2 {
		t.Fatalf("expected two fixtures for the date, got %d", len(fixtures))
	}
	first := fixtures[0].(map[string]any)
	if first["teamA"] != "Arsenal" || first["status"] != string(football.StatusUpcoming) {
		t.Fatalf("unexpected first fixture %+v", first)
	}
	second := fixtures[1].(map[string]any)
	channels, _ := second["displayChannels"].([]any)
	if len(channels) != 1 || channels[0] != football.NoChannelsLabel {
		t.Fatalf("expected placeholder channel, got %+v", second["displayChannels"])
	}

	_, body = serve(t, router, httptest.NewRequest(http.MethodGet, "/v1/football/fixtures?team=rsnl&hideFinished=true", nil))
	fixtures, _ = body.Data["fixtures"].([]any)
	if len(fixtures) != 1 {
		t.Fatalf("expected fuzzy team match, got %d", len(fixtures))
	}

	_, body = serve(t, router, httptest.NewRequest(http.MethodGet, "/v1/football/fixtures?hideFinished=true", nil))
	fixtures, _ = body.Data["fixtures"].([]any)
	if len(fixtures) != 2 {
		t.Fatalf("expected finished fixture hidden, got %d", len(fixtures))
	}
}

func TestHandler_ListFixturesRejectsBadQuery(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, datastore.Document{}, "")
	for _, target := range []string{
		"/v1/football/fixtures?date=16-06-2025",
		"/v1/football/fixtures?hideFinished=maybe",
	} {
		status, body := serve(t, router, httptest.NewRequest(http.MethodGet, target, nil))
		if status != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, status)
		}
		if body.Error["status"] != "INVALID_ARGUMENT" {
			t.Fatalf("%s: unexpected error body %+v", target, body.Error)
		}
	}
}

func TestHandler_RefreshWithoutSourcesServesDefaults(t *testing.T) {
	t.Parallel()

	router, store := newTestRouter(t, datastore.Document{}, "")

	status, body := serve(t, router, httptest.NewRequest(http.MethodPost, "/v1/refresh/ufc", nil))
	if status != http.StatusOK {
		t.Fatalf("unexpected status %d: %+v", status, body.Error)
	}
	if body.Data["success"] != false || body.Data["source"] != string(usecase.ProvenanceFallbackDefault) {
		t.Fatalf("unexpected refresh result %+v", body.Data)
	}

	doc, err := store.Load(t.Context())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(doc.UFCEvents) != 1 || doc.UFCEvents[0].Source != usecase.SourceFallbackDefault {
		t.Fatalf("expected persisted default event, got %+v", doc.UFCEvents)
	}
	if doc.LastUFCFetch != nil {
		t.Fatalf("lastUFCFetch must only move on a live success")
	}

	_, body = serve(t, router, httptest.NewRequest(http.MethodGet, "/v1/status", nil))
	datasets, _ := body.Data["datasets"].([]any)
	if len(datasets) != 2 {
		t.Fatalf("expected two dataset statuses, got %+v", body.Data)
	}
}

func TestHandler_RefreshFootballRejectsBadDate(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, datastore.Document{}, "")
	req := httptest.NewRequest(http.MethodPost, "/v1/refresh/football", strings.NewReader(`{"date":"tomorrow"}`))
	status, _ := serve(t, router, req)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/refresh/football", strings.NewReader(`{"unknown":true}`))
	status, _ = serve(t, router, req)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", status)
	}
}

func TestHandler_MutatingRoutesRequireConfiguredToken(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, seededDocument(), "s3cret")

	status, body := serve(t, router, httptest.NewRequest(http.MethodPost, "/v1/cleanup", nil))
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}
	if body.Error["status"] != "UNAUTHENTICATED" {
		t.Fatalf("unexpected error %+v", body.Error)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/cleanup", nil)
	req.Header.Set(internalJobTokenHeader, "s3cret")
	status, body = serve(t, router, req)
	if status != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d: %+v", status, body.Error)
	}
	if body.Data["footballRemoved"] != float64(1) {
		t.Fatalf("expected the past fixture evicted, got %+v", body.Data)
	}

	// reads stay open
	status, _ = serve(t, router, httptest.NewRequest(http.MethodGet, "/v1/ufc/events", nil))
	if status != http.StatusOK {
		t.Fatalf("expected open read route, got %d", status)
	}
}
