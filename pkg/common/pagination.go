package common

import (
	"fmt"
	"net/http"
	"strconv"

	pkgerrors "agentdev-backend/pkg/errors"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams represents pagination parameters
type PaginationParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Cursor   string `json:"cursor,omitempty"`
}

// DefaultPaginationParams returns default pagination parameters
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{
		Page:     1,
		PageSize: DefaultPageSize,
	}
}

// ExtractPaginationParams reads page, page_size and cursor from the query
// string. Out of range values are rejected rather than clamped.
func ExtractPaginationParams(r *http.Request) (PaginationParams, error) {
	params := DefaultPaginationParams()
	q := r.URL.Query()

	if raw := q.Get("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			return params, invalidParam("page", "must be an integer greater than or equal to 1")
		}
		params.Page = p
	}

	if raw := q.Get("page_size"); raw != "" {
		ps, err := strconv.Atoi(raw)
		if err != nil || ps < 1 || ps > MaxPageSize {
			return params, invalidParam("page_size", fmt.Sprintf("must be an integer between 1 and %d", MaxPageSize))
		}
		params.PageSize = ps
	}

	params.Cursor = q.Get("cursor")
	return params, nil
}

func invalidParam(name, msg string) error {
	return pkgerrors.NewValidationError(name+" "+msg).
		WithCode("INVALID_QUERY_PARAM").
		WithDetail("param", name)
}
