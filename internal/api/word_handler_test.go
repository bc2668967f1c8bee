package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/wordqueue/internal/api/shared"
	"github.com/phrazzld/wordqueue/internal/domain"
	"github.com/phrazzld/wordqueue/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListWords(t *testing.T) {
	s := newTestServer(t, 1<<20)
	s.words.page = store.WordPage{
		Items: []*domain.Word{
			{ID: 1, Filename: "a.txt", Filepath: "/uploads/a.txt", Token: "alpha"},
			{ID: 2, Filename: "a.txt", Filepath: "/uploads/a.txt", Token: "beta"},
		},
		Count: 7,
	}

	rec := s.do(httptest.NewRequest(http.MethodGet, "/words?start=2&end=4&sortField=token&sortOrder=DESC", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{
		"data": [
			{"filename": "a.txt", "filepath": "/uploads/a.txt", "token": "alpha"},
			{"filename": "a.txt", "filepath": "/uploads/a.txt", "token": "beta"}
		],
		"count": 7
	}`, rec.Body.String())

	require.NotNil(t, s.words.params)
	assert.Equal(t, store.ListParams{
		Offset:    2,
		Limit:     2,
		SortField: store.SortFieldToken,
		SortOrder: store.SortDesc,
	}, *s.words.params)
}

func TestListWords_Defaults(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "no parameters", query: ""},
		{name: "non-integer values", query: "?start=abc&end=x1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, 1<<20)

			rec := s.do(httptest.NewRequest(http.MethodGet, "/words"+tc.query, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"data": [], "count": 0}`, rec.Body.String())
			require.NotNil(t, s.words.params)
			assert.Equal(t, 0, s.words.params.Offset)
			assert.Equal(t, 100, s.words.params.Limit)
			assert.Equal(t, store.SortFieldNone, s.words.params.SortField)
			assert.Equal(t, store.SortAsc, s.words.params.SortOrder)
		})
	}
}

func TestListWords_InvalidQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantMsg string
	}{
		{name: "end equals start", query: "?start=5&end=5", wantMsg: "Invalid range"},
		{name: "end before start", query: "?start=5&end=2", wantMsg: "Invalid range"},
		{name: "negative start", query: "?start=-1&end=2", wantMsg: "Invalid range"},
		{name: "window too large", query: "?start=0&end=1001", wantMsg: "Invalid range"},
		{name: "unknown sort field", query: "?sortField=id", wantMsg: "Invalid sort field"},
		{name: "injection attempt", query: "?sortField=token%20DESC%3B%20DROP%20TABLE%20words", wantMsg: "Invalid sort field"},
		{name: "unknown sort order", query: "?sortField=token&sortOrder=up", wantMsg: "Invalid sort order"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, 1<<20)

			rec := s.do(httptest.NewRequest(http.MethodGet, "/words"+tc.query, nil))

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.wantMsg, decodeJSON[shared.ErrorResponse](t, rec).Error)
			assert.Nil(t, s.words.params, "invalid queries must not reach the store")
		})
	}
}

func TestListWords_MaxWindowAllowed(t *testing.T) {
	s := newTestServer(t, 1<<20)

	rec := s.do(httptest.NewRequest(http.MethodGet, "/words?start=10&end=1010", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.MaxListLimit, s.words.params.Limit)
}

func TestListWords_StoreError(t *testing.T) {
	s := newTestServer(t, 1<<20)
	s.words.listErr = errors.New("database is locked")

	rec := s.do(httptest.NewRequest(http.MethodGet, "/words", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "locked")
}
