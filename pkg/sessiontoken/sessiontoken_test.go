package sessiontoken

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	svc, err := New("test-secret", "idle-shapes", time.Hour)
	require.NoError(t, err)

	playerID := uuid.New()
	info, err := svc.Issue(playerID)
	require.NoError(t, err)
	require.NotEmpty(t, info.Token)

	got, err := svc.Validate(info.Token)
	require.NoError(t, err)
	assert.Equal(t, playerID, got)
}

func TestValidate_Expired(t *testing.T) {
	svc, err := New("test-secret", "idle-shapes", -time.Minute)
	require.NoError(t, err)

	info, err := svc.Issue(uuid.New())
	require.NoError(t, err)

	_, err = svc.Validate(info.Token)
	assert.Error(t, err)
}

func TestValidate_WrongSecret(t *testing.T) {
	issuer, err := New("secret-a", "idle-shapes", time.Hour)
	require.NoError(t, err)
	validator, err := New("secret-b", "idle-shapes", time.Hour)
	require.NoError(t, err)

	info, err := issuer.Issue(uuid.New())
	require.NoError(t, err)

	_, err = validator.Validate(info.Token)
	assert.Error(t, err)
}

func TestValidate_WrongIssuer(t *testing.T) {
	a, err := New("shared", "service-a", time.Hour)
	require.NoError(t, err)
	b, err := New("shared", "service-b", time.Hour)
	require.NoError(t, err)

	info, err := a.Issue(uuid.New())
	require.NoError(t, err)

	_, err = b.Validate(info.Token)
	assert.Error(t, err)
}

func TestNew_EmptySecret(t *testing.T) {
	_, err := New("", "idle-shapes", time.Hour)
	assert.Error(t, err)
}
