package client

import (
	"strings"
	"time"

	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/types"
)

// Identity is the variant part of a client. It is either *Individual or
// *Institution; callers type-switch on it instead of probing optional fields.
type Identity interface {
	ClientType() types.ClientType
	DisplayName() string
	PrimaryEmail() string
	PrimaryPhone() string
	isIdentity()
}

// Individual is a private person taking lessons (or their parent)
type Individual struct {
	FirstName  string `json:"prenom"`
	LastName   string `json:"nom"`
	Email      string `json:"email"`
	Phone      string `json:"telephone"`
	Address    string `json:"adresse,omitempty"`
	PostalCode string `json:"code_postal,omitempty"`
	City       string `json:"ville,omitempty"`
}

func (i *Individual) ClientType() types.ClientType { return types.ClientTypeIndividual }
func (i *Individual) PrimaryEmail() string         { return i.Email }
func (i *Individual) PrimaryPhone() string         { return i.Phone }
func (i *Individual) isIdentity()                  {}

func (i *Individual) DisplayName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// Contact is one responsible person at an institution
type Contact struct {
	Name  string `json:"nom,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"telephone,omitempty"`
}

// Institution is a school or training organisation with one contact per role
type Institution struct {
	Name                 string  `json:"nom_etablissement"`
	Address              string  `json:"adresse,omitempty"`
	PostalCode           string  `json:"code_postal,omitempty"`
	City                 string  `json:"ville,omitempty"`
	Siret                string  `json:"siret,omitempty"`
	ModuleContact        Contact `json:"responsable_module"`
	BillingContact       Contact `json:"responsable_facturation"`
	AuthorizationContact Contact `json:"responsable_autorisation"`
	SchedulingContact    Contact `json:"responsable_planning"`
}

func (i *Institution) ClientType() types.ClientType { return types.ClientTypeInstitution }
func (i *Institution) DisplayName() string          { return i.Name }
func (i *Institution) isIdentity()                  {}

// PrimaryEmail is the module contact, falling back to the authorization contact
// who signs contracts
func (i *Institution) PrimaryEmail() string {
	if i.ModuleContact.Email != "" {
		return i.ModuleContact.Email
	}
	return i.AuthorizationContact.Email
}

func (i *Institution) PrimaryPhone() string {
	if i.ModuleContact.Phone != "" {
		return i.ModuleContact.Phone
	}
	return i.AuthorizationContact.Phone
}

// Signer returns the contact entitled to sign contracts for the institution
func (i *Institution) Signer() Contact {
	if i.AuthorizationContact.Email != "" {
		return i.AuthorizationContact
	}
	return i.ModuleContact
}

// Renewal holds the yearly renewal-campaign state of a client
type Renewal struct {
	Token          string     `json:"-"`
	TokenExpiresAt *time.Time `json:"renouvellement_token_expires_at,omitempty"`
	LastEmailAt    *time.Time `json:"renouvellement_dernier_email_at,omitempty"`
	Wish           *bool      `json:"renouvellement_souhait,omitempty"`
	Comment        string     `json:"renouvellement_commentaire,omitempty"`
	RespondedAt    *time.Time `json:"renouvellement_date_reponse,omitempty"`
}

// Client is a person or institution the tutor works with
type Client struct {
	ID                 string             `json:"id"`
	Identity           Identity           `json:"identity"`
	SubType            string             `json:"sub_type,omitempty"`
	Status             types.ClientStatus `json:"client_status"`
	Notes              string             `json:"notes,omitempty"`
	FormToken          string             `json:"-"`
	FormTokenExpiresAt *time.Time         `json:"form_token_expires_at,omitempty"`
	Renewal            Renewal            `json:"renewal"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Type is the identity discriminant
func (c *Client) Type() types.ClientType {
	if c.Identity == nil {
		return ""
	}
	return c.Identity.ClientType()
}

func (c *Client) Email() string {
	if c.Identity == nil {
		return ""
	}
	return c.Identity.PrimaryEmail()
}

func (c *Client) Name() string {
	if c.Identity == nil {
		return ""
	}
	return c.Identity.DisplayName()
}

func (c *Client) Validate() error {
	if c.Identity == nil {
		return ierr.NewError("client identity is required").
			WithHint("Les informations d'identité du client sont obligatoires").
			Mark(ierr.ErrValidation)
	}
	if err := c.Status.Validate(); err != nil {
		return err
	}
	switch id := c.Identity.(type) {
	case *Individual:
		if id.LastName == "" && id.FirstName == "" {
			return ierr.NewError("individual name is required").
				WithHint("Le nom du client est obligatoire").
				Mark(ierr.ErrValidation)
		}
	case *Institution:
		if id.Name == "" {
			return ierr.NewError("institution name is required").
				WithHint("Le nom de l'établissement est obligatoire").
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// ErrClientNotFound builds the canonical not-found error for a client id
func ErrClientNotFound(id string) error {
	return ierr.NewError("client not found").
		WithHint("Client non trouvé").
		WithReportableDetails(map[string]any{"client_id": id}).
		Mark(ierr.ErrNotFound)
}
