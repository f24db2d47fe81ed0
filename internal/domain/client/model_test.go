package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierr "github.com/tutordesk/tutordesk/internal/errors"
	"github.com/tutordesk/tutordesk/internal/types"
)

func TestIdentity_Variants(t *testing.T) {
	ind := &Individual{FirstName: "Léa", LastName: "Martin", Email: "lea@example.fr", Phone: "0612345678"}
	assert.Equal(t, types.ClientTypeIndividual, ind.ClientType())
	assert.Equal(t, "Léa Martin", ind.DisplayName())

	inst := &Institution{
		Name:                 "Lycée Victor Hugo",
		AuthorizationContact: Contact{Name: "M. Proviseur", Email: "proviseur@lycee.fr"},
	}
	assert.Equal(t, types.ClientTypeInstitution, inst.ClientType())
	assert.Equal(t, "proviseur@lycee.fr", inst.PrimaryEmail())
	assert.Equal(t, "M. Proviseur", inst.Signer().Name)

	inst.ModuleContact = Contact{Email: "module@lycee.fr"}
	assert.Equal(t, "module@lycee.fr", inst.PrimaryEmail())
	assert.Equal(t, "proviseur@lycee.fr", inst.Signer().Email)
}

func TestEncodeDecodeIdentity(t *testing.T) {
	inst := &Institution{Name: "Collège Jean Moulin", BillingContact: Contact{Email: "compta@college.fr"}}
	data, err := EncodeIdentity(inst)
	require.NoError(t, err)

	decoded, err := DecodeIdentity(types.ClientTypeInstitution, data)
	require.NoError(t, err)
	got, ok := decoded.(*Institution)
	require.True(t, ok)
	assert.Equal(t, "compta@college.fr", got.BillingContact.Email)

	_, err = DecodeIdentity("Inconnu", data)
	assert.True(t, ierr.IsValidation(err))
}

func TestClient_ReplaceIdentity(t *testing.T) {
	c := &Client{Identity: &Individual{LastName: "Durand"}, Status: types.ClientStatusClient}

	require.NoError(t, c.ReplaceIdentity(&Individual{LastName: "Dupont"}))
	assert.Equal(t, "Dupont", c.Name())

	err := c.ReplaceIdentity(&Institution{Name: "École"})
	assert.True(t, ierr.IsValidation(err))
}

func TestClient_Validate(t *testing.T) {
	assert.Error(t, (&Client{Status: types.ClientStatusClient}).Validate())
	assert.Error(t, (&Client{Identity: &Institution{}, Status: types.ClientStatusClient}).Validate())
	assert.Error(t, (&Client{Identity: &Individual{LastName: "X"}, Status: "Ancien"}).Validate())
	assert.NoError(t, (&Client{Identity: &Individual{LastName: "X"}, Status: types.ClientStatusProspect}).Validate())
}
