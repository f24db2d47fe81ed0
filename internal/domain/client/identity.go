package client

import (
	"encoding/json"

	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/types"
)

// EncodeIdentity serializes the identity variant for storage
func EncodeIdentity(id Identity) ([]byte, error) {
	if id == nil {
		return nil, ierr.NewError("identity is nil").Mark(ierr.ErrValidation)
	}
	data, err := json.Marshal(id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Impossible d'enregistrer l'identité du client").
			Mark(ierr.ErrInternal)
	}
	return data, nil
}

// DecodeIdentity rebuilds the identity variant selected by the discriminant
func DecodeIdentity(t types.ClientType, data []byte) (Identity, error) {
	var id Identity
	switch t {
	case types.ClientTypeIndividual:
		id = &Individual{}
	case types.ClientTypeInstitution:
		id = &Institution{}
	default:
		return nil, t.Validate()
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, id); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Identité du client illisible").
				WithReportableDetails(map[string]any{"type_client": t}).
				Mark(ierr.ErrInternal)
		}
	}
	return id, nil
}

// CloneIdentity returns a deep copy of id
func CloneIdentity(id Identity) Identity {
	switch v := id.(type) {
	case *Individual:
		c := *v
		return &c
	case *Institution:
		c := *v
		return &c
	}
	return nil
}

// ReplaceIdentity swaps the identity, refusing to change the client's variant
func (c *Client) ReplaceIdentity(id Identity) error {
	if id == nil {
		return ierr.NewError("identity is nil").Mark(ierr.ErrValidation)
	}
	if c.Identity != nil && c.Identity.ClientType() != id.ClientType() {
		return ierr.NewError("identity variant mismatch").
			WithHint("Les informations transmises ne correspondent pas au type de client").
			WithReportableDetails(map[string]any{
				"expected": c.Identity.ClientType(),
				"got":      id.ClientType(),
			}).
			Mark(ierr.ErrValidation)
	}
	c.Identity = id
	return nil
}
