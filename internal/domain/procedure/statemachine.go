package procedure

import (
	"github.com/samber/lo"

	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/types"
)

// forward lists the normal transitions. CLOSED is handled separately since it is
// reachable from every non-terminal state.
var forward = map[types.ProcedureStatus][]types.ProcedureStatus{
	types.ProcedureStatusDraft: {
		types.ProcedureStatusPDFGenerated,
		types.ProcedureStatusSignRequested,
	},
	types.ProcedureStatusPDFGenerated: {
		types.ProcedureStatusSignRequested,
	},
	types.ProcedureStatusSignRequested: {
		types.ProcedureStatusSigned,
		types.ProcedureStatusRefused,
		types.ProcedureStatusExpired,
	},
}

// CanTransition reports whether a procedure of the given type may move from -> to.
// The renewal workflow records "response received" as SIGNED straight from DRAFT.
func CanTransition(code types.ProcedureTypeCode, from, to types.ProcedureStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == types.ProcedureStatusClosed {
		return true
	}
	if code == types.ProcedureTypeRenewalWish && from == types.ProcedureStatusDraft && to == types.ProcedureStatusSigned {
		return true
	}
	return lo.Contains(forward[from], to)
}

// TransitionTo validates and applies a transition in memory
func (p *Procedure) TransitionTo(to types.ProcedureStatus) error {
	if err := to.Validate(); err != nil {
		return err
	}
	if !CanTransition(p.TypeCode, p.Status, to) {
		return ierr.NewError("invalid procedure status transition").
			WithHintf("Transition impossible de %s vers %s", p.Status, to).
			WithReportableDetails(map[string]any{
				"procedure_id": p.ID,
				"from":         p.Status,
				"to":           to,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	p.Status = to
	return nil
}

// RollbackToDraft is the compensating action for a failed signature request.
// It is not a normal transition and is only valid from SIGN_REQUESTED or DRAFT.
func (p *Procedure) RollbackToDraft() error {
	switch p.Status {
	case types.ProcedureStatusDraft:
	case types.ProcedureStatusSignRequested:
		p.Status = types.ProcedureStatusDraft
	default:
		return ierr.NewError("rollback not allowed").
			WithHintf("Impossible de revenir au brouillon depuis %s", p.Status).
			Mark(ierr.ErrInvalidOperation)
	}
	p.SignatureRequestID = ""
	return nil
}
