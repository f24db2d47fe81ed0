package esign

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/tutordesk/tutordesk/internal/config"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/httpclient"
	"github.com/tutordesk/tutordesk/internal/logger"
	"github.com/tutordesk/tutordesk/internal/types"
)

const providerName = "Yousign"

// Provider is the e-signature API, one method per remote call
type Provider interface {
	CreateSignatureRequest(ctx context.Context, name string) (string, error)
	UploadDocument(ctx context.Context, requestID, fileName string, content []byte) (string, error)
	AddSigner(ctx context.Context, requestID, documentID string, signer *Signer, field SignatureField) (string, error)
	Activate(ctx context.Context, requestID string) error
	Cancel(ctx context.Context, requestID, reason string) error
}

// Client implements Provider against the Yousign v3 REST API
type Client struct {
	http         *httpclient.Client
	baseURL      string
	apiKey       string
	deliveryMode string
	timezone     string
	logger       *logger.Logger
}

func NewClient(cfg *config.Configuration, client *httpclient.Client, log *logger.Logger) Provider {
	return &Client{
		http:         client,
		baseURL:      strings.TrimRight(cfg.ESign.BaseURL, "/"),
		apiKey:       cfg.ESign.APIKey,
		deliveryMode: cfg.ESign.DeliveryMode,
		timezone:     cfg.ESign.Timezone,
		logger:       log,
	}
}

func (c *Client) header(contentType string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.apiKey)
	h.Set("Accept", "application/json")
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return h
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (*idResponse, error) {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, ierr.WithError(err).Mark(ierr.ErrInternal)
		}
	}
	resp, err := c.http.Do(ctx, http.MethodPost, c.baseURL+path, c.header("application/json"), body)
	if err != nil {
		return nil, err
	}
	return c.decode(path, resp)
}

func (c *Client) decode(path string, resp *httpclient.Response) (*idResponse, error) {
	if !resp.IsSuccess() {
		c.logger.Errorw("esign provider error", "path", path, "status", resp.StatusCode, "body", string(resp.Body))
		return nil, httpclient.UpstreamError(providerName, resp)
	}
	var out idResponse
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &out); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Réponse du service de signature illisible").
				Mark(ierr.ErrHTTPClient)
		}
	}
	return &out, nil
}

func (c *Client) CreateSignatureRequest(ctx context.Context, name string) (string, error) {
	out, err := c.postJSON(ctx, "/signature_requests", createRequestBody{
		Name:         name,
		DeliveryMode: c.deliveryMode,
		Timezone:     c.timezone,
	})
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) UploadDocument(ctx context.Context, requestID, fileName string, content []byte) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("nature", "signable_document"); err != nil {
		return "", ierr.WithError(err).Mark(ierr.ErrInternal)
	}
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return "", ierr.WithError(err).Mark(ierr.ErrInternal)
	}
	if _, err := part.Write(content); err != nil {
		return "", ierr.WithError(err).Mark(ierr.ErrInternal)
	}
	if err := w.Close(); err != nil {
		return "", ierr.WithError(err).Mark(ierr.ErrInternal)
	}

	path := "/signature_requests/" + requestID + "/documents"
	resp, err := c.http.Do(ctx, http.MethodPost, c.baseURL+path, c.header(w.FormDataContentType()), buf.Bytes())
	if err != nil {
		return "", err
	}
	out, err := c.decode(path, resp)
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

// buildSignerBody omits the phone when it cannot be normalized
func buildSignerBody(documentID string, signer *Signer, field SignatureField) any {
	return addSignerBody{
		Info: signerInfo{
			FirstName:   signer.FirstName,
			LastName:    signer.LastName,
			Email:       signer.Email,
			PhoneNumber: types.NormalizePhoneE164(signer.Phone),
			Locale:      "fr",
		},
		SignatureLevel:              "electronic_signature",
		SignatureAuthenticationMode: "no_otp",
		Fields: []signerField{{
			DocumentID: documentID,
			Type:       "signature",
			Page:       field.Page,
			X:          field.X,
			Y:          field.Y,
			Width:      field.Width,
		}},
	}
}

func (c *Client) AddSigner(ctx context.Context, requestID, documentID string, signer *Signer, field SignatureField) (string, error) {
	out, err := c.postJSON(ctx, "/signature_requests/"+requestID+"/signers", buildSignerBody(documentID, signer, field))
	if err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *Client) Activate(ctx context.Context, requestID string) error {
	_, err := c.postJSON(ctx, "/signature_requests/"+requestID+"/activate", nil)
	return err
}

func (c *Client) Cancel(ctx context.Context, requestID, reason string) error {
	_, err := c.postJSON(ctx, "/signature_requests/"+requestID+"/cancel", cancelBody{Reason: reason})
	return err
}
