package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/phrazzld/wordqueue/internal/domain"
)

// SortField names a Word attribute that listings may be ordered by.
type SortField string

// Allowed sort fields. The zero value means storage order.
const (
	SortFieldNone     SortField = ""
	SortFieldFilename SortField = "filename"
	SortFieldFilepath SortField = "filepath"
	SortFieldToken    SortField = "token"
)

// SortOrder is the direction of a listing.
type SortOrder string

// Allowed sort orders.
const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// MaxListLimit caps the number of words returned by a single listing.
const MaxListLimit = 1000

// ParseSortField converts user input into a SortField.
// An empty string yields SortFieldNone; anything outside the allow-list fails.
func ParseSortField(s string) (SortField, error) {
	switch SortField(s) {
	case SortFieldNone:
		return SortFieldNone, nil
	case SortFieldFilename:
		return SortFieldFilename, nil
	case SortFieldFilepath:
		return SortFieldFilepath, nil
	case SortFieldToken:
		return SortFieldToken, nil
	}
	return SortFieldNone, fmt.Errorf("%w: %q", ErrInvalidSortField, s)
}

// ParseSortOrder converts user input into a SortOrder, defaulting to ascending.
// Matching is case-insensitive.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(s)) {
	case "", SortAsc:
		return SortAsc, nil
	case SortDesc:
		return SortDesc, nil
	}
	return SortAsc, fmt.Errorf("%w: %q", ErrInvalidSortOrder, s)
}

// ListParams describes a zero-based window over the word table.
type ListParams struct {
	Offset    int
	Limit     int
	SortField SortField
	SortOrder SortOrder
}

// Validate checks the window and re-validates the sort fields so that a
// hand-built ListParams cannot smuggle an arbitrary column name.
func (p ListParams) Validate() error {
	if p.Offset < 0 {
		return fmt.Errorf("%w: offset must not be negative", ErrInvalidPage)
	}
	if p.Limit <= 0 || p.Limit > MaxListLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidPage, MaxListLimit)
	}
	if _, err := ParseSortField(string(p.SortField)); err != nil {
		return err
	}
	if _, err := ParseSortOrder(string(p.SortOrder)); err != nil {
		return err
	}
	return nil
}

// WordPage is one window of words plus the total number of stored words.
type WordPage struct {
	Items []*domain.Word
	Count int
}

// WordStore defines the interface for word persistence.
type WordStore interface {
	// CreateMany persists words as a single atomic unit: concurrent readers
	// see either all of them or none. Storage assigns IDs.
	CreateMany(ctx context.Context, words []*domain.Word) error

	// List returns the window described by params and the total word count.
	// Returns ErrInvalidEntity-wrapped errors for invalid params.
	List(ctx context.Context, params ListParams) (WordPage, error)

	// Reset removes every stored word.
	Reset(ctx context.Context) error
}
