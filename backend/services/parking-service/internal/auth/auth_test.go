package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"go.uber.org/zap"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	hash, err := h.Hash("secret")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", hash)
	assert.NoError(t, h.Compare(hash, "secret"))
	assert.ErrorIs(t, h.Compare(hash, "wrong"), ErrInvalidCredentials)
	assert.Error(t, h.Compare("not-a-hash", "secret"))

	_, err = h.Hash("")
	assert.ErrorIs(t, err, errEmptyPassword)
	_, err = h.Hash(strings.Repeat("x", maxPasswordBytes+1))
	assert.ErrorIs(t, err, errPasswordTooLong)

	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.MinCost, NewBcryptHasher(1).cost)
	assert.Equal(t, bcrypt.MaxCost, NewBcryptHasher(99).cost)
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", time.Minute)
	token, err := svc.GenerateToken("admin")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)

	_, err = NewTokenService("other-secret", time.Minute).ValidateToken(token)
	assert.Error(t, err)

	_, err = svc.GenerateToken("")
	assert.Error(t, err)
}

func TestTokenExpiry(t *testing.T) {
	svc := NewTokenService("test-secret", time.Minute)
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }
	token, err := svc.GenerateToken("admin")
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenRejectsOtherAlgorithms(t *testing.T) {
	svc := NewTokenService("test-secret", time.Minute)
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "admin", Issuer: issuer}})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(raw)
	assert.Error(t, err)
}

func TestAuthServiceLogin(t *testing.T) {
	tokens := NewTokenService("test-secret", time.Hour)
	svc, err := NewAuthService("admin", "admin123", NewBcryptHasher(bcrypt.MinCost), tokens, zap.NewNop())
	require.NoError(t, err)

	token, err := svc.Login(context.Background(), " admin ", "admin123")
	require.NoError(t, err)
	claims, err := svc.Tokens().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)

	_, err = svc.Login(context.Background(), "admin", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), "root", "admin123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestNewAuthServiceRequiresCredentials(t *testing.T) {
	tokens := NewTokenService("s", time.Hour)
	_, err := NewAuthService("", "pw", NewBcryptHasher(bcrypt.MinCost), tokens, zap.NewNop())
	assert.Error(t, err)
	_, err = NewAuthService("admin", "", NewBcryptHasher(bcrypt.MinCost), tokens, zap.NewNop())
	assert.Error(t, err)
}
