package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	"github.com/tutordesk/tutordesk/internal/api/cron"
	"github.com/tutordesk/tutordesk/internal/api/public"
	v1 "github.com/tutordesk/tutordesk/internal/api/v1"
	"github.com/tutordesk/tutordesk/internal/auth"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/integration/esign"
	"github.com/tutordesk/tutordesk/internal/notification"
	"github.com/tutordesk/tutordesk/internal/service"
	"github.com/tutordesk/tutordesk/internal/testutil"
	"github.com/tutordesk/tutordesk/internal/types"
)

const adminToken = "Bearer admin-session"

type stubAuth struct{}

func (stubAuth) Login(_ context.Context, email, password string) (*auth.Session, error) {
	if password != "correct-horse" {
		return nil, ierr.NewError("bad credentials").WithHint("Identifiants invalides").Mark(ierr.ErrUnauthorized)
	}
	return &auth.Session{AccessToken: "admin-session", Email: email, UserID: "user-1"}, nil
}

func (stubAuth) ValidateToken(_ context.Context, token string) (*auth.Claims, error) {
	if token != adminToken {
		return nil, ierr.NewError("bad token").WithHint("Authentification requise").Mark(ierr.ErrUnauthorized)
	}
	return &auth.Claims{UserID: "user-1", Email: "admin@tutordesk.test"}, nil
}

type RouterSuite struct {
	testutil.BaseServiceTestSuite
	router *gin.Engine
}

func TestRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	cfg := s.GetConfig()
	cfg.Cron.Secret = "cron-secret"
	cfg.ESign.WebhookSecret = "esign-secret"
	cfg.RateLimit.Enabled = false
	log := s.GetLogger()

	params := service.ServiceParams{
		Logger:           log,
		Config:           cfg,
		DB:               s.GetDB(),
		ClientRepo:       s.GetStores().ClientRepo,
		ProcedureRepo:    s.GetStores().ProcedureRepo,
		DocumentRepo:     s.GetStores().DocumentRepo,
		AuditRepo:        s.GetStores().AuditRepo,
		Notifier:         s.GetNotifier(),
		SignatureGateway: esign.NewGateway(s.GetESignProvider(), cfg, log),
		WebhookPublisher: s.GetPublisher(),
		BlobStore:        s.GetBlobStore(),
		Now:              s.GetClock().Now,
	}

	clients := service.NewClientService(params)
	procedures := service.NewProcedureService(params)
	infoCollection := service.NewInfoCollectionService(params)
	docRequest := service.NewDocumentRequestService(params)
	docDelivery := service.NewDocumentDeliveryService(params)
	contracting := service.NewContractingService(params)
	renewal := service.NewRenewalService(params)

	s.router = NewRouter(Handlers{
		Auth:        v1.NewAuthHandler(stubAuth{}, log),
		Client:      v1.NewClientHandler(clients, procedures, log),
		Procedure:   v1.NewProcedureHandler(procedures, infoCollection, docRequest, docDelivery, contracting, log),
		Audit:       v1.NewAuditHandler(service.NewAuditService(params), log),
		ESign:       v1.NewESignWebhookHandler(contracting, log),
		Form:        public.NewFormHandler(infoCollection, log),
		Document:    public.NewDocumentHandler(docRequest, docDelivery, log),
		Renewal:     public.NewRenewalHandler(renewal, log),
		Contact:     public.NewContactHandler(clients, log),
		RenewalCron: cron.NewRenewalCronHandler(renewal, log),
	}, cfg, log, stubAuth{})
}

func (s *RouterSuite) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) admin(method, path string, body any) *httptest.ResponseRecorder {
	return s.do(method, path, body, map[string]string{types.HeaderAuthorization: adminToken})
}

func (s *RouterSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (s *RouterSuite) createIndividual() string {
	w := s.admin(http.MethodPost, "/v1/clients", map[string]any{
		"type_client": types.ClientTypeIndividual,
		"particulier": map[string]any{
			"prenom":    "Camille",
			"nom":       "Martin",
			"email":     "camille.martin@example.com",
			"telephone": "06 12 34 56 78",
		},
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return s.decode(w)["id"].(string)
}

func tokenFromURL(s *RouterSuite, link string) string {
	u, err := url.Parse(link)
	s.Require().NoError(err)
	return u.Query().Get("token")
}

func (s *RouterSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", nil, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterSuite) TestAdminRoutesRequireSession() {
	w := s.do(http.MethodGet, "/v1/clients", nil, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal(false, s.decode(w)["success"])
}

func (s *RouterSuite) TestLogin() {
	w := s.do(http.MethodPost, "/v1/auth/login", map[string]string{"email": "admin@tutordesk.test", "password": "correct-horse"}, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("admin-session", s.decode(w)["access_token"])

	w = s.do(http.MethodPost, "/v1/auth/login", map[string]string{"email": "admin@tutordesk.test", "password": "nope"}, nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/v1/auth/login", map[string]string{"email": "not-an-email", "password": "x"}, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestClientCRUD() {
	id := s.createIndividual()

	w := s.admin(http.MethodGet, "/v1/clients/"+id, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(string(types.ClientStatusProspect), s.decode(w)["client_status"])

	w = s.admin(http.MethodPost, "/v1/clients/"+id+"/promote", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(string(types.ClientStatusClient), s.decode(w)["client_status"])

	w = s.admin(http.MethodPost, "/v1/clients/"+id+"/promote", nil)
	s.Equal(http.StatusConflict, w.Code)

	w = s.admin(http.MethodGet, "/v1/clients?type_client=Particulier", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Len(s.decode(w)["items"], 1)

	w = s.admin(http.MethodGet, "/v1/clients?type_client=Robot", nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.admin(http.MethodGet, "/v1/clients/client_missing", nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Client non trouvé", s.decode(w)["error"])
}

func (s *RouterSuite) TestExportClients() {
	s.createIndividual()

	w := s.admin(http.MethodGet, "/v1/clients/export", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Header().Get("Content-Type"), "text/csv")
	s.True(strings.HasPrefix(w.Body.String(), "id,type_client,client_status,nom,email"))
	s.Contains(w.Body.String(), "camille.martin@example.com")
}

func (s *RouterSuite) TestInfoCollectionRoundTrip() {
	id := s.createIndividual()

	w := s.admin(http.MethodPost, "/v1/clients/"+id+"/procedures/info-collection", nil)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	sent := s.GetNotifier().Sent(notification.TemplateInfoCollection)
	s.Require().Len(sent, 1)
	token := tokenFromURL(s, sent[0].Data["url"].(string))
	s.Require().NotEmpty(token)

	w = s.do(http.MethodGet, "/public/forms/info?token="+token, nil, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(true, s.decode(w)["success"])

	submit := map[string]any{
		"token":       token,
		"type_client": types.ClientTypeIndividual,
		"particulier": map[string]any{
			"prenom":      "Camille",
			"nom":         "Martin",
			"email":       "camille.martin@example.com",
			"telephone":   "06 12 34 56 78",
			"adresse":     "12 rue de la Paix",
			"code_postal": "75002",
			"ville":       "Paris",
		},
	}
	w = s.do(http.MethodPost, "/public/forms/info", submit, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/public/forms/info", submit, nil)
	s.GreaterOrEqual(w.Code, http.StatusBadRequest)
	s.Equal(false, s.decode(w)["success"])

	w = s.admin(http.MethodGet, "/v1/clients/"+id+"/procedures", nil)
	s.Equal(http.StatusOK, w.Code)
	var procs []map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &procs))
	s.Require().Len(procs, 1)
	s.Equal(string(types.ProcedureStatusPDFGenerated), procs[0]["status"])
}

func (s *RouterSuite) TestPublicUnknownTokens() {
	for _, path := range []string{
		"/public/forms/info?token=nope",
		"/public/downloads?token=nope",
		"/public/renewal?token=nope",
	} {
		w := s.do(http.MethodGet, path, nil, nil)
		s.Equal(http.StatusNotFound, w.Code, path)
		s.Equal(false, s.decode(w)["success"], path)
	}

	w := s.do(http.MethodGet, "/public/downloads", nil, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestPublicUploadRequiresFile() {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	s.Require().NoError(mw.WriteField("token", "nope"))
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/public/uploads", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestContact() {
	w := s.do(http.MethodPost, "/public/contact", map[string]string{
		"name":    "Jeanne Dupont",
		"email":   "jeanne@example.com",
		"message": "Bonjour, je cherche un tuteur en mathématiques.",
	}, nil)
	s.Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Len(s.GetNotifier().Sent(notification.TemplateContactReceived), 1)

	w = s.do(http.MethodPost, "/public/contact", map[string]string{"name": "x"}, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestCronRequiresSecret() {
	w := s.do(http.MethodGet, "/cron/renewal/initial", nil, nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/cron/renewal/initial", nil, map[string]string{types.HeaderAuthorization: "Bearer cron-secret"})
	s.Equal(http.StatusOK, w.Code)
	report := s.decode(w)
	s.Equal(true, report["success"])
	s.EqualValues(0, report["totalClients"])

	w = s.do(http.MethodGet, "/cron/renewal/reminders", nil, map[string]string{types.HeaderAuthorization: "Bearer cron-secret"})
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterSuite) TestESignWebhook() {
	event := map[string]any{
		"event_id":   "evt_1",
		"event_name": "signature_request.done",
		"data":       map[string]any{"signature_request": map[string]any{"id": "sr_unknown"}},
	}

	w := s.do(http.MethodPost, "/webhooks/esign", event, nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/webhooks/esign", event, map[string]string{types.HeaderWebhookSecret: "esign-secret"})
	s.Equal(http.StatusOK, w.Code)
	s.Equal(true, s.decode(w)["ignored"])
}

func (s *RouterSuite) TestContractingRejectsIndividual() {
	id := s.createIndividual()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "contrat.pdf")
	s.Require().NoError(err)
	_, err = fw.Write([]byte("%PDF-1.4\n%%EOF"))
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/clients/"+id+"/procedures/contracting", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(types.HeaderAuthorization, adminToken)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusConflict, w.Code)
	s.Equal("La contractualisation est réservée aux établissements", s.decode(w)["error"])
}
