package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/wordqueue/internal/api/shared"
	"github.com/phrazzld/wordqueue/internal/domain"
	"github.com/phrazzld/wordqueue/internal/store"
)

// Defaults for the /words range.
const (
	defaultListStart = 0
	defaultListEnd   = 100
)

// getPathUUID extracts a UUID from the URL path parameters.
// It parses and validates the UUID, handling common error cases.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}

	return id, nil
}

// parseListWordsQuery reads the /words query string. Missing or non-integer
// start and end fall back to their defaults.
func parseListWordsQuery(r *http.Request) ListWordsQuery {
	q := r.URL.Query()
	return ListWordsQuery{
		Start:     shared.QueryInt(r, "start", defaultListStart),
		End:       shared.QueryInt(r, "end", defaultListEnd),
		SortField: q.Get("sortField"),
		SortOrder: q.Get("sortOrder"),
	}
}

// toListParams validates the query and converts it into store parameters.
// Sort fields and orders outside the allow-lists are rejected here and
// never reach the store.
func (q ListWordsQuery) toListParams() (store.ListParams, error) {
	if err := shared.ValidateRequest(q); err != nil {
		return store.ListParams{}, fmt.Errorf("%w: start must be >= 0 and end > start: %v", store.ErrInvalidPage, err)
	}
	if q.End-q.Start > store.MaxListLimit {
		return store.ListParams{}, fmt.Errorf("%w: at most %d rows per request", store.ErrInvalidPage, store.MaxListLimit)
	}

	field, err := store.ParseSortField(q.SortField)
	if err != nil {
		return store.ListParams{}, err
	}
	order, err := store.ParseSortOrder(q.SortOrder)
	if err != nil {
		return store.ListParams{}, err
	}

	return store.ListParams{
		Offset:    q.Start,
		Limit:     q.End - q.Start,
		SortField: field,
		SortOrder: order,
	}, nil
}
