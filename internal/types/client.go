package types

import (
	"github.com/samber/lo"

	ierr "github.com/tutordesk/tutordesk/internal/errors"
)

// ClientType is the discriminant of a client's identity variant
type ClientType string

const (
	ClientTypeIndividual  ClientType = "Particulier"
	ClientTypeInstitution ClientType = "Etablissement"
)

func (t ClientType) String() string {
	return string(t)
}

func (t ClientType) Validate() error {
	allowed := []ClientType{ClientTypeIndividual, ClientTypeInstitution}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid client type").
			WithHint("Type de client invalide").
			WithReportableDetails(map[string]any{
				"type_client":    t,
				"allowed_values": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

type ClientStatus string

const (
	ClientStatusProspect ClientStatus = "Prospect"
	ClientStatusClient   ClientStatus = "Client"
)

func (s ClientStatus) Validate() error {
	allowed := []ClientStatus{ClientStatusProspect, ClientStatusClient}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid client status").
			WithHint("Statut client invalide").
			WithReportableDetails(map[string]any{
				"client_status":  s,
				"allowed_values": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ClientFilter narrows admin client listings
type ClientFilter struct {
	*QueryFilter
	Type   ClientType   `json:"type_client,omitempty" form:"type_client"`
	Status ClientStatus `json:"client_status,omitempty" form:"client_status"`
	Search string       `json:"search,omitempty" form:"search"`
}

func NewClientFilter() *ClientFilter {
	return &ClientFilter{QueryFilter: NewDefaultQueryFilter()}
}

func (f *ClientFilter) Validate() error {
	if f.QueryFilter == nil {
		f.QueryFilter = NewDefaultQueryFilter()
	}
	if err := f.QueryFilter.Validate(); err != nil {
		return err
	}
	if f.Type != "" {
		if err := f.Type.Validate(); err != nil {
			return err
		}
	}
	if f.Status != "" {
		if err := f.Status.Validate(); err != nil {
			return err
		}
	}
	return nil
}
