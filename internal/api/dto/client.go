package dto

import (
	"time"

	"github.com/tutordesk/tutordesk/internal/domain/client"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/types"
	"github.com/tutordesk/tutordesk/internal/validator"
)

// IdentityInput carries exactly one identity variant, selected by Type
type IdentityInput struct {
	Type        types.ClientType    `json:"type_client" validate:"required"`
	Individual  *client.Individual  `json:"particulier,omitempty"`
	Institution *client.Institution `json:"etablissement,omitempty"`
}

func (r *IdentityInput) Validate() error {
	if err := r.Type.Validate(); err != nil {
		return err
	}
	if _, err := r.Identity(); err != nil {
		return err
	}
	return nil
}

// Identity returns the variant matching Type
func (r *IdentityInput) Identity() (client.Identity, error) {
	switch r.Type {
	case types.ClientTypeIndividual:
		if r.Individual != nil && r.Institution == nil {
			return r.Individual, nil
		}
	case types.ClientTypeInstitution:
		if r.Institution != nil && r.Individual == nil {
			return r.Institution, nil
		}
	default:
		return nil, r.Type.Validate()
	}
	return nil, ierr.NewError("identity does not match client type").
		WithHint("Les informations transmises ne correspondent pas au type de client").
		WithReportableDetails(map[string]any{"type_client": r.Type}).
		Mark(ierr.ErrValidation)
}

type CreateClientRequest struct {
	IdentityInput
	Status  types.ClientStatus `json:"client_status,omitempty"`
	SubType string             `json:"sub_type,omitempty"`
	Notes   string             `json:"notes,omitempty"`
}

func (r *CreateClientRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if err := r.IdentityInput.Validate(); err != nil {
		return err
	}
	if r.Status != "" {
		return r.Status.Validate()
	}
	return nil
}

func (r *CreateClientRequest) ToClient(now time.Time) (*client.Client, error) {
	identity, err := r.Identity()
	if err != nil {
		return nil, err
	}
	status := r.Status
	if status == "" {
		status = types.ClientStatusProspect
	}
	c := &client.Client{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CLIENT),
		Identity:  identity,
		SubType:   r.SubType,
		Status:    status,
		Notes:     r.Notes,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
	return c, c.Validate()
}

// UpdateClientRequest patches admin-editable fields. The identity variant cannot change.
type UpdateClientRequest struct {
	Status      *types.ClientStatus `json:"client_status,omitempty"`
	SubType     *string             `json:"sub_type,omitempty"`
	Notes       *string             `json:"notes,omitempty"`
	Individual  *client.Individual  `json:"particulier,omitempty"`
	Institution *client.Institution `json:"etablissement,omitempty"`
}

func (r *UpdateClientRequest) Validate() error {
	if r.Individual != nil && r.Institution != nil {
		return ierr.NewError("only one identity variant may be sent").
			WithHint("Une seule identité peut être transmise").
			Mark(ierr.ErrValidation)
	}
	if r.Status != nil {
		return r.Status.Validate()
	}
	return nil
}

// Apply writes the patch onto c
func (r *UpdateClientRequest) Apply(c *client.Client) error {
	if r.Status != nil {
		c.Status = *r.Status
	}
	if r.SubType != nil {
		c.SubType = *r.SubType
	}
	if r.Notes != nil {
		c.Notes = *r.Notes
	}
	if r.Individual != nil {
		if err := c.ReplaceIdentity(r.Individual); err != nil {
			return err
		}
	}
	if r.Institution != nil {
		if err := c.ReplaceIdentity(r.Institution); err != nil {
			return err
		}
	}
	return c.Validate()
}

type ClientResponse struct {
	*client.Client
	Type types.ClientType `json:"type_client"`
}

func NewClientResponse(c *client.Client) *ClientResponse {
	return &ClientResponse{Client: c, Type: c.Type()}
}

type ListClientsResponse struct {
	Items      []*ClientResponse         `json:"items"`
	Pagination types.PaginationResponse `json:"pagination"`
}

// ContactRequest is the public "contact me" form
type ContactRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone,omitempty" validate:"max=30"`
	Message string `json:"message" validate:"required,max=5000"`
}

func (r *ContactRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ClientCSVRow is one line of the client export
type ClientCSVRow struct {
	ID        string `csv:"id"`
	Type      string `csv:"type_client"`
	Status    string `csv:"client_status"`
	Name      string `csv:"nom"`
	Email     string `csv:"email"`
	Phone     string `csv:"telephone"`
	City      string `csv:"ville"`
	SubType   string `csv:"sous_type"`
	Renewal   string `csv:"souhait_renouvellement"`
	CreatedAt string `csv:"cree_le"`
}

func NewClientCSVRow(c *client.Client) *ClientCSVRow {
	row := &ClientCSVRow{
		ID:        c.ID,
		Type:      string(c.Type()),
		Status:    string(c.Status),
		Name:      c.Name(),
		Email:     c.Email(),
		SubType:   c.SubType,
		CreatedAt: c.CreatedAt.Format(time.DateOnly),
	}
	if c.Identity != nil {
		row.Phone = c.Identity.PrimaryPhone()
	}
	switch id := c.Identity.(type) {
	case *client.Individual:
		row.City = id.City
	case *client.Institution:
		row.City = id.City
	}
	if c.Renewal.Wish != nil {
		row.Renewal = "non"
		if *c.Renewal.Wish {
			row.Renewal = "oui"
		}
	}
	return row
}
