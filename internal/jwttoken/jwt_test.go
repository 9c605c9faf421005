package jwttoken

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "meridian/pkg/domain-errors"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	svc := NewService("test-signing-key", "meridian")

	token, err := svc.GenerateToken("admin-7", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-7", claims.AdminID)
	assert.Equal(t, "meridian", claims.Issuer)
}

func TestValidateToken_Rejections(t *testing.T) {
	svc := NewService("test-signing-key", "meridian")

	t.Run("expired token", func(t *testing.T) {
		token, err := svc.GenerateToken("admin-7", -time.Minute)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewService("different-key", "meridian")
		token, err := other.GenerateToken("admin-7", time.Hour)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.jwt")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
