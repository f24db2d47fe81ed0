package esign

import (
	"context"

	"github.com/tutordesk/tutordesk/internal/config"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/logger"
)

// Step names one remote call of the signature saga
type Step string

const (
	StepCreate    Step = "create_request"
	StepUpload    Step = "upload_document"
	StepAddSigner Step = "add_signer"
	StepActivate  Step = "activate"
)

const cancelReason = "contractualization_aborted"

// Request is everything needed to open a signature request
type Request struct {
	Name     string
	FileName string
	Content  []byte
	Signer   *Signer
}

// Gateway runs the four provider calls in order. It returns the signature
// request id only when all four succeeded; a partially built request is
// cancelled on a best-effort basis.
type Gateway struct {
	provider Provider
	field    SignatureField
	logger   *logger.Logger
}

func NewGateway(provider Provider, cfg *config.Configuration, log *logger.Logger) *Gateway {
	return &Gateway{
		provider: provider,
		field: SignatureField{
			Page:  cfg.ESign.SignaturePage,
			X:     cfg.ESign.SignatureX,
			Y:     cfg.ESign.SignatureY,
			Width: cfg.ESign.SignatureWidth,
		},
		logger: log,
	}
}

func (g *Gateway) RequestSignature(ctx context.Context, req *Request) (string, error) {
	log := g.logger.WithContext(ctx)

	if req.Signer == nil || req.Signer.Email == "" {
		return "", ierr.NewError("signer email is required").
			WithHint("L'email du signataire est obligatoire").
			Mark(ierr.ErrValidation)
	}

	requestID, err := g.provider.CreateSignatureRequest(ctx, req.Name)
	if err != nil {
		return "", g.stepError(StepCreate, err)
	}

	fail := func(step Step, err error) (string, error) {
		log.Errorw("signature saga failed", "step", step, "signature_request_id", requestID, "error", err)
		if cancelErr := g.provider.Cancel(context.WithoutCancel(ctx), requestID, cancelReason); cancelErr != nil {
			log.Warnw("failed to cancel partial signature request", "signature_request_id", requestID, "error", cancelErr)
		}
		return "", g.stepError(step, err)
	}

	documentID, err := g.provider.UploadDocument(ctx, requestID, req.FileName, req.Content)
	if err != nil {
		return fail(StepUpload, err)
	}

	if _, err := g.provider.AddSigner(ctx, requestID, documentID, req.Signer, g.field); err != nil {
		return fail(StepAddSigner, err)
	}

	if err := g.provider.Activate(ctx, requestID); err != nil {
		return fail(StepActivate, err)
	}

	log.Infow("signature request activated", "signature_request_id", requestID, "signer", req.Signer.Email)
	return requestID, nil
}

func (g *Gateway) stepError(step Step, err error) error {
	return ierr.WithError(err).
		WithHint("La demande de signature a échoué").
		WithReportableDetails(map[string]any{"step": step}).
		Mark(ierr.ErrHTTPClient)
}

// Cancel withdraws an activated request whose result could not be recorded
func (g *Gateway) Cancel(ctx context.Context, requestID string) error {
	if err := g.provider.Cancel(ctx, requestID, cancelReason); err != nil {
		return g.stepError("cancel", err)
	}
	return nil
}
