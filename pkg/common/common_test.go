package common

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "agentdev-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPaginationParams(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    PaginationParams
		wantErr bool
	}{
		{name: "defaults", query: "", want: PaginationParams{Page: 1, PageSize: 20}},
		{name: "explicit", query: "page=3&page_size=50&cursor=abc", want: PaginationParams{Page: 3, PageSize: 50, Cursor: "abc"}},
		{name: "upper bound", query: "page_size=100", want: PaginationParams{Page: 1, PageSize: 100}},
		{name: "page zero", query: "page=0", wantErr: true},
		{name: "page size too big", query: "page_size=101", wantErr: true},
		{name: "page size zero", query: "page_size=0", wantErr: true},
		{name: "not a number", query: "page=two", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/projects?"+tt.query, nil)
			got, err := ExtractPaginationParams(r)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseJSONBody(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{name: "valid", payload: `{"name":"x"}`},
		{name: "empty", payload: ``, wantErr: true},
		{name: "malformed", payload: `{"name":`, wantErr: true},
		{name: "unknown field", payload: `{"nmae":"x"}`, wantErr: true},
		{name: "two objects", payload: `{"name":"x"}{"name":"y"}`, wantErr: true},
		{name: "too large", payload: `{"name":"` + strings.Repeat("a", 64) + `"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.payload))
			w := httptest.NewRecorder()
			var b body
			err := ParseJSONBody(w, r, &b, 32)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "x", b.Name)
		})
	}
}

func TestRespondJSON(t *testing.T) {
	w := httptest.NewRecorder()
	RespondJSON(w, http.StatusCreated, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	RespondNoContent(w)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}
