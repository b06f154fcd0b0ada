package app

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/auth"
	"github.com/hamadazam9636-png/ECOMMERCE-APP/internal/config"
)

func TestIdentityConfig_HeaderWithoutSecret(t *testing.T) {
	ic := identityConfig(&config.Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.True(t, ic.TrustUserHeader)
	assert.Nil(t, ic.Validate)
}

func TestIdentityConfig_VerifiesTokensWithSecret(t *testing.T) {
	ic := identityConfig(&config.Config{JWTSecret: "s3cret"}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.NotNil(t, ic.Validate)
	assert.False(t, ic.TrustUserHeader)

	token, err := auth.NewJWTManager("s3cret", time.Hour).GenerateAccessToken("user-1", "")
	require.NoError(t, err)
	claims, err := ic.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	_, err = ic.Validate("garbage")
	assert.Error(t, err)
}
