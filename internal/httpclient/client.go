package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/tutordesk/tutordesk/internal/config"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/logger"
)

// maxBodySize bounds how much of an upstream response is read into memory
const maxBodySize = 10 << 20

// Client performs outbound calls to providers. Only idempotent methods are
// retried; a POST that may have reached the provider is never replayed.
type Client struct {
	retrying *retryablehttp.Client
	single   *retryablehttp.Client
	logger   *logger.Logger
}

func NewClient(cfg *config.Configuration, log *logger.Logger) *Client {
	build := func(retryMax int) *retryablehttp.Client {
		rc := retryablehttp.NewClient()
		rc.HTTPClient.Timeout = cfg.HTTPClient.Timeout
		rc.RetryMax = retryMax
		rc.RetryWaitMin = cfg.HTTPClient.RetryWaitMin
		rc.RetryWaitMax = cfg.HTTPClient.RetryWaitMax
		rc.Backoff = retryablehttp.LinearJitterBackoff
		rc.Logger = log.GetRetryableHTTPLogger()
		// Hand non-2xx responses back to the caller instead of a generic error
		rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
		return rc
	}
	return &Client{
		retrying: build(cfg.HTTPClient.RetryMax),
		single:   build(0),
		logger:   log,
	}
}

// Response is a fully read upstream response
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Do sends req. body may be nil, a []byte or an io.Reader.
func (c *Client) Do(ctx context.Context, method, url string, header http.Header, body interface{}) (*Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Requête sortante invalide").
			Mark(ierr.ErrInternal)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	client := c.single
	if isIdempotent(method) {
		client = c.retrying
	}

	resp, err := client.Do(req)
	if err != nil {
		c.logger.Errorw("outbound request failed", "method", method, "url", url, "error", err)
		return nil, ierr.WithError(err).
			WithHint("Service externe injoignable").
			WithReportableDetails(map[string]any{"method": method, "url": url}).
			Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Réponse du service externe illisible").
			Mark(ierr.ErrHTTPClient)
	}

	return &Response{StatusCode: resp.StatusCode, Body: data, Header: resp.Header}, nil
}

// maxUpstreamText caps the provider text kept in errors, in characters
const maxUpstreamText = 500

// UpstreamError builds the error for a non-2xx response, keeping the provider's
// text so the admin can act on it
func UpstreamError(provider string, resp *Response) error {
	text := string(resp.Body)
	if r := []rune(text); len(r) > maxUpstreamText {
		text = string(r[:maxUpstreamText])
	}
	return ierr.NewError(fmt.Sprintf("%s responded %d: %s", provider, resp.StatusCode, text)).
		WithHintf("Erreur du service %s", provider).
		WithReportableDetails(map[string]any{"status": resp.StatusCode}).
		Mark(ierr.ErrHTTPClient)
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}
