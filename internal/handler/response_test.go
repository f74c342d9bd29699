package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippets-guru/internal/apperror"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{name: "validation", err: apperror.ValidationFailed("name", "name: cannot be blank"), wantStatus: http.StatusBadRequest, wantMessage: "name: cannot be blank"},
		{name: "unauthorized", err: apperror.Unauthorized("invalid credentials"), wantStatus: http.StatusUnauthorized, wantMessage: "invalid credentials"},
		{name: "forbidden", err: apperror.Forbidden("not yours"), wantStatus: http.StatusForbidden, wantMessage: "not yours"},
		{name: "wrapped not found", err: fmt.Errorf("loading: %w", apperror.NotFound("snippet", "x")), wantStatus: http.StatusNotFound, wantMessage: "snippet not found with id x"},
		{name: "conflict", err: apperror.Conflict("user", "a@b.c"), wantStatus: http.StatusConflict, wantMessage: "user conflict with id a@b.c"},
		{name: "internal", err: errors.New("sql: database is locked"), wantStatus: http.StatusInternalServerError, wantMessage: "An internal error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), ldJSON))

			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, "hydra:Error", body.Type)
			assert.Equal(t, tt.wantMessage, body.Description)
		})
	}
}

func TestParseFilter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/snippets?page=2&namespace=code-snippets&name=hi&isPublic=false", nil)

	f, err := parseFilter(req)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Page)
	assert.Equal(t, "code-snippets", f.Namespace)
	assert.Equal(t, "hi", f.Name)
	require.NotNil(t, f.IsPublic)
	assert.False(t, *f.IsPublic)

	for _, query := range []string{"page=0", "page=x", "isPublic=maybe"} {
		req := httptest.NewRequest(http.MethodGet, "/api/snippets?"+query, nil)
		_, err := parseFilter(req)
		assert.ErrorIs(t, err, apperror.ErrValidation, query)
	}
}

func TestDecodeJSON_Invalid(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/snippets", strings.NewReader(`{"name":`))
	rr := httptest.NewRecorder()

	var dst map[string]any
	err := decodeJSON(rr, req, &dst)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}
