package service

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/tutordesk/tutordesk/internal/api/dto"
	"github.com/tutordesk/tutordesk/internal/domain/client"
	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/notification"
	"github.com/tutordesk/tutordesk/internal/types"
)

type InfoCollectionServiceSuite struct {
	serviceSuite
	service InfoCollectionService
}

func TestInfoCollectionService(t *testing.T) {
	suite.Run(t, new(InfoCollectionServiceSuite))
}

func (s *InfoCollectionServiceSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.service = NewInfoCollectionService(s.params)
}

func (s *InfoCollectionServiceSuite) launch(c *client.Client, sendSMS bool) (*dto.LaunchResponse, string) {
	resp, err := s.service.Launch(s.GetContext(), c.ID, &dto.LaunchInfoCollectionRequest{SendSMS: sendSMS})
	s.Require().NoError(err)
	stored := s.getClient(c.ID)
	s.Require().NotEmpty(stored.FormToken)
	return resp, stored.FormToken
}

func (s *InfoCollectionServiceSuite) TestLaunch() {
	c := s.createIndividual(types.ClientStatusProspect)
	resp, token := s.launch(c, true)

	s.Equal(types.ProcedureStatusDraft, resp.Procedure.Status)
	s.Equal(types.ProcedureTypeInfoCollection, resp.Procedure.TypeCode)
	s.True(resp.Notification.Success)
	s.Require().NotNil(resp.SMS)
	s.True(strings.HasPrefix(resp.Link, "https://app.tutordesk.test/formulaire/informations?token="))
	s.Contains(resp.Link, token)

	sent := s.GetNotifier().Sent(notification.TemplateInfoCollection)
	s.Require().Len(sent, 1)
	s.Equal("camille.martin@example.com", sent[0].To.Email)
	s.Equal(resp.Link, sent[0].Data["url"])

	sms := s.GetNotifier().SMS()
	s.Require().Len(sms, 1)
	s.Contains(sms[0].Content, resp.Link)

	s.Equal([]types.HistoryLabel{types.HistoryLabelMailSent}, s.GetStores().ProcedureRepo.HistoryLabels(resp.Procedure.ID))
	s.Contains(s.GetStores().AuditRepo.Events(), types.AuditEventFormSent)
}

func (s *InfoCollectionServiceSuite) TestLaunchEmailFailureIsNotFatal() {
	s.GetNotifier().Fail = true
	c := s.createIndividual(types.ClientStatusProspect)

	resp, err := s.service.Launch(s.GetContext(), c.ID, nil)
	s.Require().NoError(err)
	s.False(resp.Notification.Success)
	s.Nil(resp.SMS)
	s.Equal(types.ProcedureStatusDraft, s.getProcedure(resp.Procedure.ID).Status)
}

func (s *InfoCollectionServiceSuite) TestLaunchUnknownClient() {
	_, err := s.service.Launch(s.GetContext(), "cli_missing", nil)
	s.True(ierr.IsNotFound(err))
	s.Equal("Client non trouvé", ierr.GetHint(err))
	s.Empty(s.GetNotifier().Sent(""))
}

func (s *InfoCollectionServiceSuite) TestLaunchMissingProcedureType() {
	s.GetStores().ProcedureRepo.RemoveType(types.ProcedureTypeInfoCollection)
	c := s.createIndividual(types.ClientStatusProspect)

	_, err := s.service.Launch(s.GetContext(), c.ID, nil)
	s.True(ierr.IsNotFound(err))
	s.Empty(s.GetNotifier().Sent(""))
}

func (s *InfoCollectionServiceSuite) TestGetForm() {
	c := s.createIndividual(types.ClientStatusProspect)
	_, token := s.launch(c, false)

	form, err := s.service.GetForm(s.GetContext(), token)
	s.Require().NoError(err)
	s.Equal(types.ClientTypeIndividual, form.Type)
	individual, ok := form.Identity.(*client.Individual)
	s.Require().True(ok)
	s.Equal("Camille", individual.FirstName)
}

func (s *InfoCollectionServiceSuite) TestSubmitForm() {
	c := s.createIndividual(types.ClientStatusProspect)
	resp, token := s.launch(c, false)

	err := s.service.SubmitForm(s.GetContext(), &dto.SubmitInfoFormRequest{
		Token: token,
		IdentityInput: dto.IdentityInput{
			Type: types.ClientTypeIndividual,
			Individual: &client.Individual{
				FirstName:  "Camille",
				LastName:   "Martin-Roux",
				Email:      "camille@example.com",
				Phone:      "0611223344",
				Address:    "3 rue des Lilas",
				PostalCode: "69003",
				City:       "Lyon",
			},
		},
	})
	s.Require().NoError(err)

	stored := s.getClient(c.ID)
	s.Empty(stored.FormToken)
	s.Nil(stored.FormTokenExpiresAt)
	s.Equal("Camille Martin-Roux", stored.Name())
	s.Equal("Lyon", stored.Identity.(*client.Individual).City)

	p := s.getProcedure(resp.Procedure.ID)
	s.Equal(types.ProcedureStatusPDFGenerated, p.Status)
	s.Equal([]types.HistoryLabel{types.HistoryLabelMailSent, types.HistoryLabelFormCompleted},
		s.GetStores().ProcedureRepo.HistoryLabels(p.ID))
	s.Contains(s.GetStores().AuditRepo.Events(), types.AuditEventFormCompleted)

	// a consumed token looks like one that never existed
	_, err = s.service.GetForm(s.GetContext(), token)
	s.True(ierr.IsTokenNotFound(err))
}

func (s *InfoCollectionServiceSuite) TestSubmitFormAuditOutsideTransaction() {
	c := s.createIndividual(types.ClientStatusProspect)
	resp, token := s.launch(c, false)
	s.GetStores().AuditRepo.Fail = true

	err := s.service.SubmitForm(s.GetContext(), &dto.SubmitInfoFormRequest{
		Token: token,
		IdentityInput: dto.IdentityInput{
			Type:       types.ClientTypeIndividual,
			Individual: &client.Individual{FirstName: "Camille", LastName: "Martin", Email: "c@example.com"},
		},
	})
	s.Require().NoError(err)

	// the status change is audited on a context detached from the form transaction
	s.Zero(s.GetStores().AuditRepo.TxBoundWrites())
	s.Empty(s.getClient(c.ID).FormToken)
	s.Equal(types.ProcedureStatusPDFGenerated, s.getProcedure(resp.Procedure.ID).Status)
}

func (s *InfoCollectionServiceSuite) TestSubmitFormWrongVariant() {
	c := s.createIndividual(types.ClientStatusProspect)
	_, token := s.launch(c, false)

	err := s.service.SubmitForm(s.GetContext(), &dto.SubmitInfoFormRequest{
		Token: token,
		IdentityInput: dto.IdentityInput{
			Type:        types.ClientTypeInstitution,
			Institution: &client.Institution{Name: "Collège Jean Moulin"},
		},
	})
	s.True(ierr.IsValidation(err))
	s.NotEmpty(s.getClient(c.ID).FormToken)
}

func (s *InfoCollectionServiceSuite) TestConcurrentSubmissions() {
	c := s.createIndividual(types.ClientStatusProspect)
	resp, token := s.launch(c, false)

	const attempts = 2
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.service.SubmitForm(s.GetContext(), &dto.SubmitInfoFormRequest{
				Token: token,
				IdentityInput: dto.IdentityInput{
					Type:       types.ClientTypeIndividual,
					Individual: &client.Individual{FirstName: "Camille", LastName: "Martin", Email: "c@example.com"},
				},
			})
		}(i)
	}
	wg.Wait()

	succeeded, failed := 0, 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		failed++
		s.True(ierr.IsTokenConsumed(err) || ierr.IsTokenNotFound(err), "unexpected error: %v", err)
	}
	s.Equal(1, succeeded)
	s.Equal(1, failed)
	s.Empty(s.getClient(c.ID).FormToken)
	s.Equal(types.ProcedureStatusPDFGenerated, s.getProcedure(resp.Procedure.ID).Status)
}
