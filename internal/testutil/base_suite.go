package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tutordesk/tutordesk/internal/config"
	"github.com/tutordesk/tutordesk/internal/logger"
	"github.com/tutordesk/tutordesk/internal/types"
)

// Stores holds every in-memory repository
type Stores struct {
	ClientRepo    *InMemoryClientStore
	ProcedureRepo *InMemoryProcedureStore
	DocumentRepo  *InMemoryDocumentStore
	AuditRepo     *InMemoryAuditStore
}

// BaseServiceTestSuite wires in-memory stores and fakes for service tests
type BaseServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	stores    Stores
	db        *FakeDB
	notifier  *FakeNotifier
	esign     *FakeESignProvider
	publisher *FakePublisher
	blobs     *FakeBlobStore
	clock     *Clock
	config    *config.Configuration
	logger    *logger.Logger
}

func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = context.WithValue(context.Background(), types.CtxRequestID, "test-request")
	s.ctx = context.WithValue(s.ctx, types.CtxUserEmail, "admin@tutordesk.test")
	s.stores = Stores{
		ClientRepo:    NewInMemoryClientStore(),
		ProcedureRepo: NewInMemoryProcedureStore(),
		DocumentRepo:  NewInMemoryDocumentStore(),
		AuditRepo:     NewInMemoryAuditStore(),
	}
	s.db = NewFakeDB()
	s.notifier = NewFakeNotifier()
	s.esign = NewFakeESignProvider()
	s.publisher = NewFakePublisher()
	s.blobs = NewFakeBlobStore()
	s.clock = NewClock(time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC))
	s.config = config.GetDefaultConfig()
	s.config.Public.BaseURL = "https://app.tutordesk.test"
	s.config.Notification.ReviewURL = "https://g.page/r/review"
	s.config.Notification.AdminEmail = "admin@tutordesk.test"
	s.logger = logger.NewNopLogger()
}

func (s *BaseServiceTestSuite) TearDownTest() {}

func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetDB() *FakeDB {
	return s.db
}

func (s *BaseServiceTestSuite) GetNotifier() *FakeNotifier {
	return s.notifier
}

func (s *BaseServiceTestSuite) GetESignProvider() *FakeESignProvider {
	return s.esign
}

func (s *BaseServiceTestSuite) GetPublisher() *FakePublisher {
	return s.publisher
}

func (s *BaseServiceTestSuite) GetBlobStore() *FakeBlobStore {
	return s.blobs
}

func (s *BaseServiceTestSuite) GetClock() *Clock {
	return s.clock
}

func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}
