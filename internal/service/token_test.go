package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/types"
)

type TokenServiceSuite struct {
	serviceSuite
	service TokenService
}

func TestTokenService(t *testing.T) {
	suite.Run(t, new(TokenServiceSuite))
}

func (s *TokenServiceSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.service = NewTokenService(s.params)
}

func (s *TokenServiceSuite) TestExpiryBoundary() {
	c := s.createIndividual(types.ClientStatusProspect)
	token, err := s.service.IssueClientToken(s.GetContext(), c.ID, types.TokenScopeForm, types.FormTokenTTL)
	s.Require().NoError(err)
	s.True(token.ExpiresAt.Equal(s.GetClock().Now().Add(7 * 24 * time.Hour)))

	s.GetClock().Set(token.ExpiresAt.Add(-time.Second))
	got, err := s.service.ValidateClientToken(s.GetContext(), token.Value, types.TokenScopeForm)
	s.NoError(err)
	s.Equal(c.ID, got.ID)

	s.GetClock().Set(token.ExpiresAt.Add(time.Second))
	_, err = s.service.ValidateClientToken(s.GetContext(), token.Value, types.TokenScopeForm)
	s.True(ierr.IsTokenExpired(err))
	s.Equal("Ce lien a expiré", ierr.GetHint(err))
}

func (s *TokenServiceSuite) TestValidateErrors() {
	_, err := s.service.ValidateClientToken(s.GetContext(), "", types.TokenScopeForm)
	s.True(ierr.IsValidation(err))

	_, err = s.service.ValidateClientToken(s.GetContext(), "unknown", types.TokenScopeForm)
	s.True(ierr.IsTokenNotFound(err))
	s.Equal("Lien invalide", ierr.GetHint(err))

	_, err = s.service.ValidateProcedureToken(s.GetContext(), "unknown", types.TokenScopeUpload)
	s.True(ierr.IsTokenNotFound(err))
}

func (s *TokenServiceSuite) TestTokensAreUnique() {
	c := s.createIndividual(types.ClientStatusProspect)
	first, err := s.service.IssueClientToken(s.GetContext(), c.ID, types.TokenScopeForm, time.Hour)
	s.Require().NoError(err)
	second, err := s.service.IssueClientToken(s.GetContext(), c.ID, types.TokenScopeForm, time.Hour)
	s.Require().NoError(err)
	s.NotEqual(first.Value, second.Value)
	s.GreaterOrEqual(len(first.Value), 43)

	// reissuing replaces the previous link
	_, err = s.service.ValidateClientToken(s.GetContext(), first.Value, types.TokenScopeForm)
	s.True(ierr.IsTokenNotFound(err))
}

func (s *TokenServiceSuite) TestRenewalAlreadyResponded() {
	c := s.createIndividual(types.ClientStatusClient)
	now := s.GetClock().Now()
	s.Require().NoError(s.GetStores().ClientRepo.StartRenewal(s.GetContext(), c.ID, "renewal-token", now.Add(time.Hour)))
	s.Require().NoError(s.GetStores().ClientRepo.RecordRenewalResponse(s.GetContext(), c.ID, "renewal-token", true, "", now))

	_, err := s.service.ValidateClientToken(s.GetContext(), "renewal-token", types.TokenScopeRenewal)
	s.True(ierr.IsTokenConsumed(err))
	s.Equal("Vous avez déjà répondu", ierr.GetHint(err))
}

func (s *TokenServiceSuite) TestProcedureTokenOnClosedProcedure() {
	c := s.createIndividual(types.ClientStatusClient)
	p, err := NewProcedureService(s.params).Create(s.GetContext(), c.ID, types.ProcedureTypeDocumentRequest, "")
	s.Require().NoError(err)
	token, err := s.service.IssueProcedureToken(s.GetContext(), p.ID, types.TokenScopeUpload, time.Hour)
	s.Require().NoError(err)

	_, err = NewProcedureService(s.params).Close(s.GetContext(), p.ID, nil)
	s.Require().NoError(err)

	_, err = s.service.ValidateProcedureToken(s.GetContext(), token.Value, types.TokenScopeUpload)
	s.True(ierr.IsTokenExpired(err))
}

func (s *TokenServiceSuite) TestTTLFallsBackToDefaults() {
	s.params.Config.Tokens.DownloadTTL = 0
	s.Equal(types.DownloadTokenTTL, NewTokenService(s.params).TTL(types.TokenScopeDownload))
}
