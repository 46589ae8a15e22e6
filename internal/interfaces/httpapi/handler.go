package httpapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/legendpaul/sportsapp/internal/platform/logging"
	"github.com/legendpaul/sportsapp/internal/usecase"
)

type Handler struct {
	refreshService *usecase.RefreshService
	cleanupService *usecase.CleanupService
	queryService   *usecase.QueryService
	logger         *logging.Logger
	validator      *validator.Validate
}

func NewHandler(
	refreshService *usecase.RefreshService,
	cleanupService *usecase.CleanupService,
	queryService *usecase.QueryService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		refreshService: refreshService,
		cleanupService: cleanupService,
		queryService:   queryService,
		logger:         logger.Named("httpapi"),
		validator:      validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

type fixtureListDTO struct {
	Date     string                `json:"date,omitempty"`
	Count    int                   `json:"count"`
	Fixtures []usecase.FixtureView `json:"fixtures"`
}

func (h *Handler) ListFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixtures")
	defer span.End()

	query, err := parseListFixturesQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	fixtures, err := h.queryService.ListFixtures(ctx, query.filter())
	if err != nil {
		h.logger.ErrorContext(ctx, "list fixtures failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixtureListDTO{
		Date:     query.Date,
		Count:    len(fixtures),
		Fixtures: fixtures,
	})
}

type eventListDTO struct {
	Count  int                 `json:"count"`
	Events []usecase.EventView `json:"events"`
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListEvents")
	defer span.End()

	events, err := h.queryService.ListEvents(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list ufc events failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, eventListDTO{Count: len(events), Events: events})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Status")
	defer span.End()

	status, err := h.queryService.Status(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, status)
}

// RefreshFootball always answers 200 once input is valid; a degraded run is
// reported through success=false and the source field.
func (h *Handler) RefreshFootball(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshFootball")
	defer span.End()

	req, ok := h.decodeRefresh(w, r)
	if !ok {
		return
	}

	result, err := h.refreshService.RefreshFootball(ctx, usecase.RefreshInput{Date: req.Date, Force: req.Force})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RefreshUFC(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshUFC")
	defer span.End()

	req, ok := h.decodeRefresh(w, r)
	if !ok {
		return
	}

	result, err := h.refreshService.RefreshUFC(ctx, usecase.RefreshInput{Force: req.Force})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RefreshAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RefreshAll")
	defer span.End()

	req, ok := h.decodeRefresh(w, r)
	if !ok {
		return
	}

	result, err := h.refreshService.RefreshAll(ctx, usecase.RefreshInput{Date: req.Date, Force: req.Force})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Cleanup")
	defer span.End()

	result, err := h.cleanupService.Run(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "cleanup failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) decodeRefresh(w http.ResponseWriter, r *http.Request) (refreshRequest, bool) {
	ctx := r.Context()
	req, err := decodeRefreshRequest(r)
	if err == nil {
		err = h.validateRequest(ctx, req)
	}
	if err != nil {
		writeError(ctx, w, err)
		return refreshRequest{}, false
	}
	return req, true
}
