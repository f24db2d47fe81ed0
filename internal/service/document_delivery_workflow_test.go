package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/tutordesk/tutordesk/internal/api/dto"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/notification"
	"github.com/tutordesk/tutordesk/internal/types"
)

type DocumentDeliveryServiceSuite struct {
	serviceSuite
	service DocumentDeliveryService
	uploads DocumentRequestService
}

func TestDocumentDeliveryService(t *testing.T) {
	suite.Run(t, new(DocumentDeliveryServiceSuite))
}

func (s *DocumentDeliveryServiceSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.service = NewDocumentDeliveryService(s.params)
	s.uploads = NewDocumentRequestService(s.params)
}

func (s *DocumentDeliveryServiceSuite) attach(procedureID, title string) {
	_, err := s.uploads.UploadDocument(s.GetContext(), &dto.UploadDocumentRequest{
		ProcedureID: procedureID,
		Title:       title,
		Kind:        types.DocumentKindOther,
		FileName:    title + ".pdf",
		Content:     samplePDF,
	})
	s.Require().NoError(err)
}

func (s *DocumentDeliveryServiceSuite) TestLaunchMintsDownloadToken() {
	c := s.createIndividual(types.ClientStatusClient)
	resp, err := s.service.Launch(s.GetContext(), c.ID, nil)
	s.Require().NoError(err)

	p := s.getProcedure(resp.Procedure.ID)
	s.NotEmpty(p.DownloadToken)
	s.Require().NotNil(p.DownloadTokenExpiresAt)
	s.True(p.DownloadTokenExpiresAt.Equal(s.GetClock().Now().Add(14 * 24 * time.Hour)))
	s.Equal("camille.martin@example.com", p.RecipientEmail)
	s.Empty(s.GetNotifier().Sent(""))
}

func (s *DocumentDeliveryServiceSuite) TestSendEmailWithoutDocuments() {
	c := s.createIndividual(types.ClientStatusClient)
	resp, err := s.service.Launch(s.GetContext(), c.ID, nil)
	s.Require().NoError(err)

	_, err = s.service.SendEmail(s.GetContext(), resp.Procedure.ID)
	s.True(ierr.IsValidation(err))
	s.Empty(s.GetNotifier().Sent(""))
}

func (s *DocumentDeliveryServiceSuite) TestSendEmailIsRepeatable() {
	c := s.createIndividual(types.ClientStatusClient)
	resp, err := s.service.Launch(s.GetContext(), c.ID, &dto.LaunchDocumentDeliveryRequest{RecipientEmail: "parent@example.com"})
	s.Require().NoError(err)
	s.attach(resp.Procedure.ID, "Bilan trimestriel")
	s.attach(resp.Procedure.ID, "Exercices")
	token := s.getProcedure(resp.Procedure.ID).DownloadToken

	for i := 0; i < 2; i++ {
		out, err := s.service.SendEmail(s.GetContext(), resp.Procedure.ID)
		s.Require().NoError(err)
		s.True(out.Notification.Success)
		s.Len(out.Documents, 2)
		for _, link := range out.Documents {
			s.Contains(link.URL, "expires=3600")
		}
	}

	sent := s.GetNotifier().Sent(notification.TemplateDocumentDelivery)
	s.Require().Len(sent, 2)
	s.Equal("parent@example.com", sent[0].To.Email)
	s.Equal(sent[0].Data["url"], sent[1].Data["url"])
	s.Equal(token, s.getProcedure(resp.Procedure.ID).DownloadToken)

	labels := s.GetStores().ProcedureRepo.HistoryLabels(resp.Procedure.ID)
	s.Equal(2, countLabel(labels, types.HistoryLabelLinkSent))
}

func (s *DocumentDeliveryServiceSuite) TestSendEmailRejectsOtherProcedureTypes() {
	c := s.createIndividual(types.ClientStatusClient)
	p, err := NewProcedureService(s.params).Create(s.GetContext(), c.ID, types.ProcedureTypeDocumentRequest, "")
	s.Require().NoError(err)

	_, err = s.service.SendEmail(s.GetContext(), p.ID)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *DocumentDeliveryServiceSuite) TestPublicDownload() {
	c := s.createIndividual(types.ClientStatusClient)
	resp, err := s.service.Launch(s.GetContext(), c.ID, nil)
	s.Require().NoError(err)
	s.attach(resp.Procedure.ID, "Bilan")
	token := s.getProcedure(resp.Procedure.ID).DownloadToken

	out, err := s.service.PublicDownload(s.GetContext(), token)
	s.Require().NoError(err)
	s.Require().Len(out.Documents, 1)
	s.Equal("Bilan", out.Documents[0].Title)
	s.NotEmpty(out.Documents[0].URL)

	s.GetClock().Advance(15 * 24 * time.Hour)
	_, err = s.service.PublicDownload(s.GetContext(), token)
	s.True(ierr.IsTokenExpired(err))
}

func countLabel(labels []types.HistoryLabel, label types.HistoryLabel) int {
	n := 0
	for _, l := range labels {
		if l == label {
			n++
		}
	}
	return n
}
