package webhook

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tutordesk/tutordesk/internal/config"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/httpclient"
	"github.com/tutordesk/tutordesk/internal/logger"
	"github.com/tutordesk/tutordesk/internal/types"
)

// Publisher delivers events to the workflow-automation receiver and returns
// its response body untouched
type Publisher interface {
	Publish(ctx context.Context, event *Event) (json.RawMessage, error)
}

type publisher struct {
	http   *httpclient.Client
	url    string
	secret string
	logger *logger.Logger
}

func NewPublisher(cfg *config.Configuration, client *httpclient.Client, log *logger.Logger) Publisher {
	return &publisher{
		http:   client,
		url:    cfg.Automation.WebhookURL,
		secret: cfg.Automation.Secret,
		logger: log,
	}
}

func (p *publisher) Publish(ctx context.Context, event *Event) (json.RawMessage, error) {
	if p.url == "" {
		return nil, ierr.NewError("automation webhook url not configured").
			WithHint("L'automatisation n'est pas configurée").
			Mark(ierr.ErrSystem)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return nil, ierr.WithError(err).Mark(ierr.ErrInternal)
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	if p.secret != "" {
		header.Set(types.HeaderWebhookSecret, p.secret)
	}
	if rid := types.GetRequestID(ctx); rid != "" {
		header.Set(types.HeaderRequestID, rid)
	}

	resp, err := p.http.Do(ctx, http.MethodPost, p.url, header, body)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		p.logger.Errorw("automation webhook rejected event", "event", event.Event, "status", resp.StatusCode)
		return nil, httpclient.UpstreamError("automatisation", resp)
	}

	p.logger.Infow("automation webhook delivered", "event", event.Event, "status", resp.StatusCode)

	if json.Valid(resp.Body) {
		return json.RawMessage(resp.Body), nil
	}
	// Forward non-JSON bodies as a JSON string
	raw, _ := json.Marshal(string(resp.Body))
	return raw, nil
}
