package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilder_MarkAndHint(t *testing.T) {
	err := NewError("client not found").
		WithHint("Client non trouvé").
		WithReportableDetails(map[string]any{"client_id": "cli_1"}).
		Mark(ErrNotFound)

	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
	assert.Equal(t, "Client non trouvé", GetHint(err))
	assert.Equal(t, "cli_1", GetReportableDetails(err)["client_id"])
	assert.Equal(t, http.StatusNotFound, HTTPStatusFromErr(err))
}

func TestBuilder_WrapKeepsOuterHint(t *testing.T) {
	inner := NewError("boom").WithHint("inner").Mark(ErrDatabase)
	outer := WithError(inner).WithHint("outer").Mark(ErrInternal)

	assert.Equal(t, "outer", GetHint(outer))
	assert.True(t, IsDatabase(outer))
}

func TestHTTPStatusFromErr(t *testing.T) {
	tests := []struct {
		ref  error
		want int
	}{
		{ErrValidation, http.StatusBadRequest},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrTokenNotFound, http.StatusNotFound},
		{ErrTokenExpired, http.StatusGone},
		{ErrTokenConsumed, http.StatusGone},
		{ErrInvalidOperation, http.StatusConflict},
		{ErrHTTPClient, http.StatusInternalServerError},
		{ErrDatabase, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		err := NewError("x").Mark(tt.ref)
		assert.Equal(t, tt.want, HTTPStatusFromErr(err), tt.ref.Error())
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromErr(errors.New("plain")))
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(NewError("expired").WithHint("Ce lien a expiré").Mark(ErrTokenExpired))
	assert.False(t, resp.Success)
	assert.Equal(t, "Ce lien a expiré", resp.Error)
	assert.Equal(t, ErrCodeTokenExpired, resp.Code)

	resp = NewErrorResponse(errors.New("sql: connection refused"))
	assert.Equal(t, "Une erreur interne est survenue", resp.Error)
	assert.Equal(t, ErrCodeInternalError, resp.Code)

	resp = NewErrorResponse(NewError("signer email invalid").WithHint("Échec de la demande de signature").Mark(ErrHTTPClient))
	assert.Equal(t, "Échec de la demande de signature : signer email invalid", resp.Error)
}
