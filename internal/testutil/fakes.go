package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tutordesk/tutordesk/internal/integration/esign"
	"github.com/tutordesk/tutordesk/internal/notification"
	"github.com/tutordesk/tutordesk/internal/webhook"
)

// SentNotification is one message captured by FakeNotifier
type SentNotification struct {
	Template notification.TemplateName
	To       notification.Recipient
	Data     map[string]any
	Phone    string
	Content  string
}

// FakeNotifier records messages. Fail makes every send report failure.
type FakeNotifier struct {
	mu   sync.Mutex
	sent []SentNotification
	Fail bool
}

func NewFakeNotifier() *FakeNotifier {
	return &FakeNotifier{}
}

func (n *FakeNotifier) Notify(_ context.Context, tmpl notification.TemplateName, to notification.Recipient, data map[string]any) notification.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, SentNotification{Template: tmpl, To: to, Data: data})
	if n.Fail {
		return notification.Result{Success: false, Reason: "provider down"}
	}
	return notification.Result{Success: true, MessageID: fmt.Sprintf("msg-%d", len(n.sent))}
}

func (n *FakeNotifier) NotifySMS(_ context.Context, phone, content string) notification.Result {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, SentNotification{Phone: phone, Content: content})
	if n.Fail {
		return notification.Result{Success: false, Reason: "provider down"}
	}
	return notification.Result{Success: true}
}

// Sent returns the captured emails of tmpl, or every message when tmpl is empty
func (n *FakeNotifier) Sent(tmpl notification.TemplateName) []SentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []SentNotification
	for _, s := range n.sent {
		if tmpl == "" || s.Template == tmpl {
			out = append(out, s)
		}
	}
	return out
}

func (n *FakeNotifier) SMS() []SentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []SentNotification
	for _, s := range n.sent {
		if s.Phone != "" {
			out = append(out, s)
		}
	}
	return out
}

func (n *FakeNotifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = nil
}

// FakeESignProvider implements esign.Provider. FailAt makes the named step fail.
type FakeESignProvider struct {
	mu        sync.Mutex
	FailAt    esign.Step
	Calls     []esign.Step
	Cancelled []string
	Signers   []*esign.Signer
	nextID    int
}

func NewFakeESignProvider() *FakeESignProvider {
	return &FakeESignProvider{}
}

func (p *FakeESignProvider) call(step esign.Step) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, step)
	if p.FailAt == step {
		return fmt.Errorf("provider rejected %s", step)
	}
	return nil
}

func (p *FakeESignProvider) CreateSignatureRequest(context.Context, string) (string, error) {
	if err := p.call(esign.StepCreate); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	return fmt.Sprintf("sr_%d", p.nextID), nil
}

func (p *FakeESignProvider) UploadDocument(context.Context, string, string, []byte) (string, error) {
	if err := p.call(esign.StepUpload); err != nil {
		return "", err
	}
	return "esign_doc_1", nil
}

func (p *FakeESignProvider) AddSigner(_ context.Context, _, _ string, signer *esign.Signer, _ esign.SignatureField) (string, error) {
	if err := p.call(esign.StepAddSigner); err != nil {
		return "", err
	}
	p.mu.Lock()
	p.Signers = append(p.Signers, signer)
	p.mu.Unlock()
	return "signer_1", nil
}

func (p *FakeESignProvider) Activate(context.Context, string) error {
	return p.call(esign.StepActivate)
}

func (p *FakeESignProvider) Cancel(_ context.Context, requestID, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Cancelled = append(p.Cancelled, requestID)
	return nil
}

// FakePublisher implements webhook.Publisher
type FakePublisher struct {
	mu       sync.Mutex
	Events   []*webhook.Event
	Response json.RawMessage
	Err      error
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Response: json.RawMessage(`{"ok":true}`)}
}

func (p *FakePublisher) Publish(_ context.Context, e *webhook.Event) (json.RawMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, e)
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Response, nil
}

// FakeBlobStore implements storage.BlobStore in memory
type FakeBlobStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Types   map[string]string
	Err     error
}

func NewFakeBlobStore() *FakeBlobStore {
	return &FakeBlobStore{Objects: map[string][]byte{}, Types: map[string]string{}}
}

func (b *FakeBlobStore) Upload(_ context.Context, objectPath, contentType string, data io.Reader) error {
	if b.Err != nil {
		return b.Err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, data); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Objects[objectPath] = buf.Bytes()
	b.Types[objectPath] = contentType
	return nil
}

func (b *FakeBlobStore) SignedURL(_ context.Context, objectPath string, ttl time.Duration) (string, error) {
	if b.Err != nil {
		return "", b.Err
	}
	return fmt.Sprintf("https://blob.test/%s?expires=%d", objectPath, int(ttl.Seconds())), nil
}
