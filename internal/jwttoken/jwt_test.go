package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

const testIdentity = domain.Identity("0x00000000000000000000000000000000000000a1")

func TestJWTServiceRoundTrip(t *testing.T) {
	svc := NewJWTService("test-signing-key", "custodia", "custodia-api")

	token, err := svc.GenerateAccessToken(testIdentity, "vendor", time.Minute)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, testIdentity.String(), claims.Identity)
	assert.Equal(t, "vendor", claims.Role)
}

func TestJWTServiceRejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("test-signing-key", "custodia", "custodia-api")

	token, err := svc.GenerateAccessToken(testIdentity, "vendor", -time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestJWTServiceRejectsForeignSignature(t *testing.T) {
	svc := NewJWTService("test-signing-key", "custodia", "custodia-api")
	other := NewJWTService("another-key", "custodia", "custodia-api")

	token, err := other.GenerateAccessToken(testIdentity, "vendor", time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestAdapterExposesMiddlewareClaims(t *testing.T) {
	svc := NewJWTService("test-signing-key", "custodia", "custodia-api")
	adapter := NewJWTServiceAdapter(svc)

	token, err := svc.GenerateAccessToken(testIdentity, "carrier", time.Minute)
	require.NoError(t, err)

	claims, err := adapter.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, testIdentity.String(), claims.Identity)
	assert.Equal(t, "carrier", claims.Role)
}
