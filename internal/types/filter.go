package types

import (
	ierr "github.com/tutordesk/tutordesk/internal/errors"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// QueryFilter carries pagination for list endpoints
type QueryFilter struct {
	Limit  *int `json:"limit,omitempty" form:"limit"`
	Offset *int `json:"offset,omitempty" form:"offset"`
}

func NewDefaultQueryFilter() *QueryFilter {
	limit, offset := DefaultLimit, 0
	return &QueryFilter{Limit: &limit, Offset: &offset}
}

func (f *QueryFilter) Validate() error {
	if f == nil {
		return nil
	}
	if f.Limit != nil && (*f.Limit < 0 || *f.Limit > MaxLimit) {
		return ierr.NewError("limit out of range").
			WithHintf("La limite doit être comprise entre 0 et %d", MaxLimit).
			Mark(ierr.ErrValidation)
	}
	if f.Offset != nil && *f.Offset < 0 {
		return ierr.NewError("offset must be positive").
			WithHint("Le décalage doit être positif").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (f *QueryFilter) GetLimit() int {
	if f == nil || f.Limit == nil || *f.Limit == 0 {
		return DefaultLimit
	}
	return *f.Limit
}

func (f *QueryFilter) GetOffset() int {
	if f == nil || f.Offset == nil {
		return 0
	}
	return *f.Offset
}

type PaginationResponse struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
