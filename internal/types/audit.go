package types

// AuditSource identifies the component that produced an audit entry
type AuditSource string

const (
	AuditSourceInfoCollection   AuditSource = "info_collection"
	AuditSourceDocumentRequest  AuditSource = "document_request"
	AuditSourceDocumentDelivery AuditSource = "document_delivery"
	AuditSourceContracting      AuditSource = "contracting"
	AuditSourceRenewal          AuditSource = "renewal"
	AuditSourceProcedure        AuditSource = "procedure"
	AuditSourceClient           AuditSource = "client"
	AuditSourceESignWebhook     AuditSource = "esign_webhook"
)

// AuditEvent names what happened
type AuditEvent string

const (
	AuditEventProcedureCreated   AuditEvent = "procedure_created"
	AuditEventStatusChanged      AuditEvent = "status_changed"
	AuditEventFormSent           AuditEvent = "form_sent"
	AuditEventFormCompleted      AuditEvent = "form_completed"
	AuditEventDocumentsRequested AuditEvent = "documents_requested"
	AuditEventDocumentUploaded   AuditEvent = "document_uploaded"
	AuditEventDeliverySent       AuditEvent = "delivery_sent"
	AuditEventSignatureRequested AuditEvent = "signature_requested"
	AuditEventSignatureFailed    AuditEvent = "signature_failed"
	AuditEventRenewalSent        AuditEvent = "renewal_sent"
	AuditEventRenewalReminder    AuditEvent = "renewal_reminder_sent"
	AuditEventRenewalAnswered    AuditEvent = "renewal_answered"
	AuditEventProcedureClosed    AuditEvent = "procedure_closed"
	AuditEventClientCreated      AuditEvent = "client_created"
	AuditEventClientUpdated      AuditEvent = "client_updated"
	AuditEventContactReceived    AuditEvent = "contact_received"
)
