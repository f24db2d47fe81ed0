package dto

import (
	"time"

	"github.com/tutordesk/tutordesk/internal/domain/client"
	"github.com/tutordesk/tutordesk/internal/types"
	"github.com/tutordesk/tutordesk/internal/validator"
)

// InfoFormResponse is the pre-fill of the public information form. It exposes
// the identity only, never notes, tokens or renewal state.
type InfoFormResponse struct {
	Type      types.ClientType `json:"type_client"`
	Identity  client.Identity  `json:"identity"`
	ExpiresAt *time.Time       `json:"expires_at,omitempty"`
}

type SubmitInfoFormRequest struct {
	Token string `json:"token" validate:"required"`
	IdentityInput
}

func (r *SubmitInfoFormRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.IdentityInput.Validate()
}

type RenewalFormResponse struct {
	Name      string     `json:"name"`
	Wish      *bool      `json:"wish,omitempty"`
	Comment   string     `json:"comment,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type SubmitRenewalRequest struct {
	Token   string `json:"token" validate:"required"`
	Wish    *bool  `json:"wish" validate:"required"`
	Comment string `json:"comment,omitempty" validate:"max=2000"`
}

func (r *SubmitRenewalRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// SuccessResponse is the public envelope for successful calls
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

func NewSuccessResponse(data any) *SuccessResponse {
	return &SuccessResponse{Success: true, Data: data}
}

// BatchReport summarizes one scheduled run
type BatchReport struct {
	Success      bool          `json:"success"`
	SuccessCount int           `json:"successCount"`
	ErrorCount   int           `json:"errorCount"`
	TotalClients int           `json:"totalClients"`
	Skipped      bool          `json:"skipped,omitempty"`
	Errors       []*BatchError `json:"errors,omitempty"`
}

type BatchError struct {
	ClientID string `json:"clientId"`
	Error    string `json:"error"`
}
