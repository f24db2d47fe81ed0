package types

import (
	"github.com/samber/lo"

	ierr "github.com/tutordesk/tutordesk/internal/errors"
)

// ProcedureStatus is the lifecycle state of a procedure. It drives logic and must
// not be confused with HistoryLabel, which is timeline text only.
type ProcedureStatus string

const (
	ProcedureStatusDraft         ProcedureStatus = "DRAFT"
	ProcedureStatusPDFGenerated  ProcedureStatus = "PDF_GENERATED"
	ProcedureStatusSignRequested ProcedureStatus = "SIGN_REQUESTED"
	ProcedureStatusSigned        ProcedureStatus = "SIGNED"
	ProcedureStatusRefused       ProcedureStatus = "REFUSED"
	ProcedureStatusExpired       ProcedureStatus = "EXPIRED"
	ProcedureStatusClosed        ProcedureStatus = "CLOSED"
)

func (s ProcedureStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition may leave s
func (s ProcedureStatus) IsTerminal() bool {
	switch s {
	case ProcedureStatusSigned, ProcedureStatusRefused, ProcedureStatusExpired, ProcedureStatusClosed:
		return true
	}
	return false
}

func (s ProcedureStatus) Validate() error {
	allowed := []ProcedureStatus{
		ProcedureStatusDraft,
		ProcedureStatusPDFGenerated,
		ProcedureStatusSignRequested,
		ProcedureStatusSigned,
		ProcedureStatusRefused,
		ProcedureStatusExpired,
		ProcedureStatusClosed,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid procedure status").
			WithHint("Statut de procédure invalide").
			WithReportableDetails(map[string]any{
				"status":         s,
				"allowed_values": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ProcedureTypeCode is the stable code of a procedure catalog entry
type ProcedureTypeCode string

const (
	ProcedureTypeInfoCollection   ProcedureTypeCode = "INFO_COLLECTION"
	ProcedureTypeDocumentRequest  ProcedureTypeCode = "DOCUMENT_REQUEST"
	ProcedureTypeDocumentDelivery ProcedureTypeCode = "DOCUMENT_DELIVERY"
	ProcedureTypeContracting      ProcedureTypeCode = "CONTRACTING"
	ProcedureTypeRenewalWish      ProcedureTypeCode = "RENEWAL_WISH"
)

// HistoryLabel is the free-text vocabulary of the procedure timeline.
// Labels are displayed, never parsed back by workflow logic.
type HistoryLabel string

const (
	HistoryLabelMailSent           HistoryLabel = "MAIL_ENVOYE"
	HistoryLabelReminderSent       HistoryLabel = "RELANCE_ENVOYEE"
	HistoryLabelFormCompleted      HistoryLabel = "FORMULAIRE_COMPLETE"
	HistoryLabelDocumentsRequested HistoryLabel = "DOCUMENTS_DEMANDES"
	HistoryLabelDocumentReceived   HistoryLabel = "DOCUMENT_RECU"
	HistoryLabelLinkSent           HistoryLabel = "LIEN_ENVOYE"
	HistoryLabelSignatureRequested HistoryLabel = "SIGNATURE_DEMANDEE"
	HistoryLabelSignatureFailed    HistoryLabel = "SIGNATURE_ECHOUEE"
	HistoryLabelResponseReceived   HistoryLabel = "REPONSE_RECUE"
	HistoryLabelClosed             HistoryLabel = "PROCEDURE_CLOTUREE"
	HistoryLabelSigned             HistoryLabel = "SIGNE"
	HistoryLabelRefused            HistoryLabel = "REFUSE"
	HistoryLabelExpired            HistoryLabel = "EXPIRE"
)

// DocumentKind classifies a stored file
type DocumentKind string

const (
	DocumentKindContract        DocumentKind = "CONTRACT"
	DocumentKindCV              DocumentKind = "CV"
	DocumentKindBackgroundCheck DocumentKind = "CASIER_JUDICIAIRE"
	DocumentKindDiploma         DocumentKind = "DIPLOME"
	DocumentKindOther           DocumentKind = "AUTRE"
)

func (k DocumentKind) Validate() error {
	allowed := []DocumentKind{
		DocumentKindContract,
		DocumentKindCV,
		DocumentKindBackgroundCheck,
		DocumentKindDiploma,
		DocumentKindOther,
	}
	if !lo.Contains(allowed, k) {
		return ierr.NewError("invalid document kind").
			WithHint("Type de document invalide").
			WithReportableDetails(map[string]any{
				"kind":           k,
				"allowed_values": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
