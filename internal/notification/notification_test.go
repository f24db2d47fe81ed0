package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutordesk/tutordesk/internal/config"
	"github.com/tutordesk/tutordesk/internal/httpclient"
	"github.com/tutordesk/tutordesk/internal/logger"
)

type recordingSender struct {
	emails []*Email
	sms    []*SMS
	result Result
}

func (r *recordingSender) SendEmail(_ context.Context, e *Email) Result {
	r.emails = append(r.emails, e)
	return r.result
}

func (r *recordingSender) SendSMS(_ context.Context, s *SMS) Result {
	r.sms = append(r.sms, s)
	return r.result
}

func TestRender(t *testing.T) {
	subject, html, err := Render(TemplateInfoCollection, map[string]any{
		"name":        "Alice <b>",
		"url":         "https://x.test/form?token=abc",
		"expires_at":  "24/10/2026",
		"sender_name": "Tutordesk",
	})
	require.NoError(t, err)
	assert.Equal(t, "Vos informations pour commencer", subject)
	assert.Contains(t, html, "https://x.test/form?token=abc")
	assert.Contains(t, html, "Alice &lt;b&gt;")

	_, _, err = Render("missing", nil)
	assert.Error(t, err)
}

func TestDispatcher_Notify(t *testing.T) {
	sender := &recordingSender{result: Result{Success: true, MessageID: "m1"}}
	d := NewDispatcher(sender, config.GetDefaultConfig(), logger.NewNopLogger())

	res := d.Notify(context.Background(), TemplateRenewalReview, Recipient{Email: "a@b.fr", Name: "A"}, map[string]any{"name": "A"})
	assert.True(t, res.Success)
	require.Len(t, sender.emails, 1)
	assert.Equal(t, "a@b.fr", sender.emails[0].To[0].Email)

	res = d.Notify(context.Background(), TemplateRenewalReview, Recipient{}, nil)
	assert.False(t, res.Success)
	assert.Len(t, sender.emails, 1)
}

func TestDispatcher_NotifySMS(t *testing.T) {
	sender := &recordingSender{result: Result{Success: false, Reason: "quota"}}
	d := NewDispatcher(sender, config.GetDefaultConfig(), logger.NewNopLogger())

	res := d.NotifySMS(context.Background(), "0612345678", "hello")
	assert.False(t, res.Success)
	assert.Equal(t, "quota", res.Reason)
	require.Len(t, sender.sms, 1)
	assert.Equal(t, "+33612345678", sender.sms[0].To)

	res = d.NotifySMS(context.Background(), "notaphone", "hello")
	assert.False(t, res.Success)
	assert.Len(t, sender.sms, 1)
}

func TestBrevoSender(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("api-key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		switch r.URL.Path {
		case "/smtp/email":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"messageId":"<abc@smtp>"}`))
		case "/transactionalSMS/sms":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":"invalid_parameter","message":"sender invalid"}`))
		}
	}))
	defer srv.Close()

	cfg := config.GetDefaultConfig()
	cfg.Notification.Brevo.BaseURL = srv.URL
	cfg.Notification.Brevo.APIKey = "key"
	cfg.HTTPClient.RetryWaitMin = time.Millisecond
	cfg.HTTPClient.RetryWaitMax = time.Millisecond
	log := logger.NewNopLogger()
	b := NewBrevoSender(cfg, httpclient.NewClient(cfg, log), log)

	res := b.SendEmail(context.Background(), &Email{To: []Recipient{{Email: "a@b.fr", Name: "A"}}, Subject: "s", HTML: "<p>x</p>"})
	assert.True(t, res.Success)
	assert.Equal(t, "<abc@smtp>", res.MessageID)
	assert.Equal(t, "<p>x</p>", got["htmlContent"])

	res = b.SendSMS(context.Background(), &SMS{To: "+33612345678", Content: "x"})
	assert.False(t, res.Success)
	assert.Equal(t, "sender invalid", res.Reason)
	assert.Equal(t, "33612345678", got["recipient"])
	assert.Equal(t, "transactional", got["type"])
}

func TestBrevoSender_NoKey(t *testing.T) {
	log := logger.NewNopLogger()
	cfg := config.GetDefaultConfig()
	b := NewBrevoSender(cfg, httpclient.NewClient(cfg, log), log)
	assert.False(t, b.SendEmail(context.Background(), &Email{}).Success)
}
