package jwtoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "clinicdesk/pkg/domain-errors"
)

func newService() *Service {
	return NewService("test-signing-key", "clinicdesk", "clinicdesk-web")
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newService()
	userID := uuid.New()
	sessionID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, sessionID, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, sessionID.String(), claims.SessionID)
	assert.Equal(t, "clinicdesk", claims.Issuer)
	assert.NotEmpty(t, claims.ID, "tokens carry a jti")
}

func TestValidateRejectsExpired(t *testing.T) {
	svc := newService()
	token, err := svc.GenerateAccessToken(uuid.New(), uuid.New(), -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeUnauthorized))
}

func TestValidateRejectsForeignKey(t *testing.T) {
	token, err := NewService("other-key", "clinicdesk", "clinicdesk-web").
		GenerateAccessToken(uuid.New(), uuid.New(), time.Hour)
	require.NoError(t, err)

	_, err = newService().ValidateToken(token)
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, domainerrors.CodeUnauthorized))
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := newService().ValidateToken("not-a-token")
	require.Error(t, err)
}
