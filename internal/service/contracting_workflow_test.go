package service

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/tutordesk/tutordesk/internal/api/dto"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/integration/esign"
	"github.com/tutordesk/tutordesk/internal/types"
)

type ContractingServiceSuite struct {
	serviceSuite
	service ContractingService
}

func TestContractingService(t *testing.T) {
	suite.Run(t, new(ContractingServiceSuite))
}

func (s *ContractingServiceSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.service = NewContractingService(s.params)
}

func (s *ContractingServiceSuite) contract() *dto.LaunchContractRequest {
	return &dto.LaunchContractRequest{
		Title:    "Convention de formation 2026",
		FileName: "convention.pdf",
		Content:  samplePDF,
	}
}

func (s *ContractingServiceSuite) TestLaunchSuccess() {
	c := s.createInstitution()

	resp, err := s.service.Launch(s.GetContext(), c.ID, s.contract())
	s.Require().NoError(err)

	p := s.getProcedure(resp.Procedure.ID)
	s.Equal(types.ProcedureStatusSignRequested, p.Status)
	s.Equal("sr_1", p.SignatureRequestID)
	s.Equal("direction@lycee.example.com", p.RecipientEmail)

	provider := s.GetESignProvider()
	s.Equal([]esign.Step{esign.StepCreate, esign.StepUpload, esign.StepAddSigner, esign.StepActivate}, provider.Calls)
	s.Empty(provider.Cancelled)
	s.Require().Len(provider.Signers, 1)
	s.Equal("Claire", provider.Signers[0].FirstName)
	s.Equal("Bernard", provider.Signers[0].LastName)

	docs, err := s.GetStores().DocumentRepo.ListByProcedures(s.GetContext(), []string{p.ID})
	s.Require().NoError(err)
	s.Require().Len(docs, 1)
	s.Equal(types.DocumentKindContract, docs[0].Kind)

	s.Equal([]types.HistoryLabel{types.HistoryLabelSignatureRequested}, s.GetStores().ProcedureRepo.HistoryLabels(p.ID))
	s.Contains(s.GetStores().AuditRepo.Events(), types.AuditEventSignatureRequested)
}

func (s *ContractingServiceSuite) TestLaunchRejectsIndividuals() {
	c := s.createIndividual(types.ClientStatusClient)

	_, err := s.service.Launch(s.GetContext(), c.ID, s.contract())
	s.True(ierr.IsInvalidOperation(err))
	s.Equal("La contractualisation est réservée aux établissements", ierr.GetHint(err))
	s.Empty(s.GetESignProvider().Calls)
}

func (s *ContractingServiceSuite) TestSagaFailureAtEachStep() {
	steps := []esign.Step{esign.StepCreate, esign.StepUpload, esign.StepAddSigner, esign.StepActivate}
	for _, step := range steps {
		s.Run(string(step), func() {
			s.SetupTest()
			s.GetESignProvider().FailAt = step
			c := s.createInstitution()

			_, err := s.service.Launch(s.GetContext(), c.ID, s.contract())
			s.Require().Error(err)
			s.True(ierr.IsHTTPClient(err))
			s.Equal(step, ierr.GetReportableDetails(err)["step"])

			procedures, err := s.GetStores().ProcedureRepo.ListByClient(s.GetContext(), c.ID)
			s.Require().NoError(err)
			s.Require().Len(procedures, 1)
			p := procedures[0]
			s.Equal(types.ProcedureStatusDraft, p.Status)
			s.Empty(p.SignatureRequestID)
			s.Equal([]types.HistoryLabel{types.HistoryLabelSignatureFailed}, s.GetStores().ProcedureRepo.HistoryLabels(p.ID))
			s.Contains(s.GetStores().AuditRepo.Events(), types.AuditEventSignatureFailed)

			if step == esign.StepCreate {
				s.Empty(s.GetESignProvider().Cancelled)
			} else {
				s.Equal([]string{"sr_1"}, s.GetESignProvider().Cancelled)
			}
		})
	}
}

func (s *ContractingServiceSuite) TestSignatureEvents() {
	tests := []struct {
		event  string
		status types.ProcedureStatus
		label  types.HistoryLabel
	}{
		{esign.EventSignatureRequestDone, types.ProcedureStatusSigned, types.HistoryLabelSigned},
		{esign.EventSignatureRequestDeclined, types.ProcedureStatusRefused, types.HistoryLabelRefused},
		{esign.EventSignatureRequestExpired, types.ProcedureStatusExpired, types.HistoryLabelExpired},
	}
	for _, tt := range tests {
		s.Run(tt.event, func() {
			s.SetupTest()
			c := s.createInstitution()
			resp, err := s.service.Launch(s.GetContext(), c.ID, s.contract())
			s.Require().NoError(err)

			body := []byte(`{"event_id":"evt_1","event_name":"` + tt.event + `","data":{"signature_request":{"id":"sr_1","status":"x"}}}`)
			out, err := s.service.HandleSignatureEvent(s.GetContext(), body)
			s.Require().NoError(err)
			s.Equal(tt.status, out.Status)
			s.False(out.Ignored)

			p := s.getProcedure(resp.Procedure.ID)
			s.Equal(tt.status, p.Status)
			s.Contains(s.GetStores().ProcedureRepo.HistoryLabels(p.ID), tt.label)

			// redelivery is a no-op
			again, err := s.service.HandleSignatureEvent(s.GetContext(), body)
			s.Require().NoError(err)
			s.True(again.Ignored)
		})
	}
}

func (s *ContractingServiceSuite) TestSignatureEventIgnored() {
	out, err := s.service.HandleSignatureEvent(s.GetContext(),
		[]byte(`{"event_name":"signer.link_opened","data":{"signature_request":{"id":"sr_9"}}}`))
	s.Require().NoError(err)
	s.True(out.Ignored)

	out, err = s.service.HandleSignatureEvent(s.GetContext(),
		[]byte(`{"event_name":"signature_request.done","data":{"signature_request":{"id":"sr_unknown"}}}`))
	s.Require().NoError(err)
	s.True(out.Ignored)

	_, err = s.service.HandleSignatureEvent(s.GetContext(), []byte(`not json`))
	s.True(ierr.IsValidation(err))
}
