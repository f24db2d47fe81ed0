package procedure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/types"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		code types.ProcedureTypeCode
		from types.ProcedureStatus
		to   types.ProcedureStatus
		want bool
	}{
		{"draft to pdf", types.ProcedureTypeInfoCollection, types.ProcedureStatusDraft, types.ProcedureStatusPDFGenerated, true},
		{"draft to sign requested", types.ProcedureTypeContracting, types.ProcedureStatusDraft, types.ProcedureStatusSignRequested, true},
		{"pdf to sign requested", types.ProcedureTypeContracting, types.ProcedureStatusPDFGenerated, types.ProcedureStatusSignRequested, true},
		{"sign requested to signed", types.ProcedureTypeContracting, types.ProcedureStatusSignRequested, types.ProcedureStatusSigned, true},
		{"sign requested to refused", types.ProcedureTypeContracting, types.ProcedureStatusSignRequested, types.ProcedureStatusRefused, true},
		{"sign requested to expired", types.ProcedureTypeContracting, types.ProcedureStatusSignRequested, types.ProcedureStatusExpired, true},
		{"backwards pdf to draft", types.ProcedureTypeInfoCollection, types.ProcedureStatusPDFGenerated, types.ProcedureStatusDraft, false},
		{"draft to signed outside renewal", types.ProcedureTypeContracting, types.ProcedureStatusDraft, types.ProcedureStatusSigned, false},
		{"draft to signed for renewal", types.ProcedureTypeRenewalWish, types.ProcedureStatusDraft, types.ProcedureStatusSigned, true},
		{"close from draft", types.ProcedureTypeDocumentRequest, types.ProcedureStatusDraft, types.ProcedureStatusClosed, true},
		{"close from sign requested", types.ProcedureTypeContracting, types.ProcedureStatusSignRequested, types.ProcedureStatusClosed, true},
		{"close from signed", types.ProcedureTypeContracting, types.ProcedureStatusSigned, types.ProcedureStatusClosed, false},
		{"leave closed", types.ProcedureTypeContracting, types.ProcedureStatusClosed, types.ProcedureStatusDraft, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.code, tt.from, tt.to))
		})
	}
}

func TestProcedure_TransitionTo(t *testing.T) {
	pt := &ProcedureType{ID: "ptype_1", Code: types.ProcedureTypeInfoCollection}
	p := New("cli_1", pt, "a@b.fr", time.Now())
	assert.Equal(t, types.ProcedureStatusDraft, p.Status)

	require.NoError(t, p.TransitionTo(types.ProcedureStatusPDFGenerated))
	assert.Equal(t, types.ProcedureStatusPDFGenerated, p.Status)

	err := p.TransitionTo(types.ProcedureStatusDraft)
	assert.True(t, ierr.IsInvalidOperation(err))
	assert.Equal(t, types.ProcedureStatusPDFGenerated, p.Status)

	assert.True(t, ierr.IsValidation(p.TransitionTo("ARCHIVED")))
}

func TestProcedure_RollbackToDraft(t *testing.T) {
	p := &Procedure{Status: types.ProcedureStatusSignRequested, SignatureRequestID: "sr_1"}
	require.NoError(t, p.RollbackToDraft())
	assert.Equal(t, types.ProcedureStatusDraft, p.Status)
	assert.Empty(t, p.SignatureRequestID)

	p = &Procedure{Status: types.ProcedureStatusSigned}
	assert.True(t, ierr.IsInvalidOperation(p.RollbackToDraft()))
}
