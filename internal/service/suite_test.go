package service

import (
	"github.com/tutordesk/tutordesk/internal/domain/client"
	"github.com/tutordesk/tutordesk/internal/domain/procedure"
	"github.com/tutordesk/tutordesk/internal/integration/esign"
	"github.com/tutordesk/tutordesk/internal/testutil"
	"github.com/tutordesk/tutordesk/internal/types"
)

// serviceSuite wires ServiceParams onto the in-memory stores and fakes
type serviceSuite struct {
	testutil.BaseServiceTestSuite
	params ServiceParams
}

func (s *serviceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.params = ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetDB(),
		ClientRepo:       s.GetStores().ClientRepo,
		ProcedureRepo:    s.GetStores().ProcedureRepo,
		DocumentRepo:     s.GetStores().DocumentRepo,
		AuditRepo:        s.GetStores().AuditRepo,
		Notifier:         s.GetNotifier(),
		SignatureGateway: esign.NewGateway(s.GetESignProvider(), s.GetConfig(), s.GetLogger()),
		WebhookPublisher: s.GetPublisher(),
		BlobStore:        s.GetBlobStore(),
		Now:              s.GetClock().Now,
	}
}

func (s *serviceSuite) createIndividual(status types.ClientStatus) *client.Client {
	now := s.GetClock().Now()
	c := &client.Client{
		ID: types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CLIENT),
		Identity: &client.Individual{
			FirstName: "Camille",
			LastName:  "Martin",
			Email:     "camille.martin@example.com",
			Phone:     "06 12 34 56 78",
		},
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(s.GetStores().ClientRepo.Create(s.GetContext(), c))
	return c
}

func (s *serviceSuite) createInstitution() *client.Client {
	now := s.GetClock().Now()
	c := &client.Client{
		ID: types.GenerateUUIDWithPrefix(types.UUID_PREFIX_CLIENT),
		Identity: &client.Institution{
			Name: "Lycée Victor Hugo",
			City: "Lyon",
			ModuleContact: client.Contact{
				Name:  "Paul Durand",
				Email: "module@lycee.example.com",
			},
			AuthorizationContact: client.Contact{
				Name:  "Claire Bernard",
				Email: "direction@lycee.example.com",
				Phone: "0612345678",
			},
		},
		Status:    types.ClientStatusClient,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(s.GetStores().ClientRepo.Create(s.GetContext(), c))
	return c
}

func (s *serviceSuite) getProcedure(id string) *procedure.Procedure {
	p, err := s.GetStores().ProcedureRepo.Get(s.GetContext(), id)
	s.Require().NoError(err)
	return p
}

func (s *serviceSuite) getClient(id string) *client.Client {
	c, err := s.GetStores().ClientRepo.Get(s.GetContext(), id)
	s.Require().NoError(err)
	return c
}

var samplePDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")
