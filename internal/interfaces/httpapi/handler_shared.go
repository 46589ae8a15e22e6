package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/legendpaul/sportsapp/internal/domain/football"
	"github.com/legendpaul/sportsapp/internal/usecase"
)

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type refreshRequest struct {
	Date  string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Force bool   `json:"force"`
}

type listFixturesQuery struct {
	Date         string `validate:"omitempty,datetime=2006-01-02"`
	Team         string `validate:"omitempty,max=80"`
	HideFinished bool
}

// decodeRefreshRequest accepts an empty body; query parameters fill fields the
// body leaves unset so `curl -X POST .../refresh/football?date=...` works.
func decodeRefreshRequest(r *http.Request) (refreshRequest, error) {
	var req refreshRequest
	if r.Body != nil {
		decoder := jsoniter.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return refreshRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
		}
	}

	query := r.URL.Query()
	if req.Date == "" {
		req.Date = strings.TrimSpace(query.Get("date"))
	}
	if !req.Force {
		force, err := parseBoolQuery(query.Get("force"))
		if err != nil {
			return refreshRequest{}, fmt.Errorf("%w: force must be a boolean", usecase.ErrInvalidInput)
		}
		req.Force = force
	}
	return req, nil
}

func parseListFixturesQuery(r *http.Request) (listFixturesQuery, error) {
	query := r.URL.Query()
	hideFinished, err := parseBoolQuery(query.Get("hideFinished"))
	if err != nil {
		return listFixturesQuery{}, fmt.Errorf("%w: hideFinished must be a boolean", usecase.ErrInvalidInput)
	}
	return listFixturesQuery{
		Date:         strings.TrimSpace(query.Get("date")),
		Team:         strings.TrimSpace(query.Get("team")),
		HideFinished: hideFinished,
	}, nil
}

func (q listFixturesQuery) filter() football.ListFilter {
	return football.ListFilter{
		Date:         q.Date,
		Team:         q.Team,
		HideFinished: q.HideFinished,
	}
}

func parseBoolQuery(raw string) (bool, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return false, nil
	}
	return strconv.ParseBool(value)
}
