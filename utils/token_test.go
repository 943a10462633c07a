package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)

	token, err := svc.GenerateToken("user-42")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.UserID)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
}

func TestTokensAreUniquePerIssue(t *testing.T) {
	svc := NewTokenService(testSecret, 0)

	a, err := svc.GenerateToken("u")
	require.NoError(t, err)
	b, err := svc.GenerateToken("u")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestZeroTTLOmitsExpiry(t *testing.T) {
	svc := NewTokenService(testSecret, 0)

	token, err := svc.GenerateToken("u")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Nil(t, claims.ExpiresAt)
}

func TestValidateRejectsOtherKey(t *testing.T) {
	issuer := NewTokenService("another-secret-another-secret!!", time.Hour)
	verifier := NewTokenService(testSecret, time.Hour)

	token, err := issuer.GenerateToken("u")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsTamperedToken(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)
	token, err := svc.GenerateToken("u")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tamperedSig := parts[0] + "." + parts[1] + "." + string(sig)

	payload := []byte(parts[1])
	mid := len(payload) / 2
	if payload[mid] == 'x' {
		payload[mid] = 'y'
	} else {
		payload[mid] = 'x'
	}
	tamperedPayload := parts[0] + "." + string(payload) + "." + parts[2]

	for _, tok := range []string{tamperedSig, tamperedPayload} {
		_, err := svc.ValidateToken(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := svc.GenerateToken("u")
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsMalformedInput(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, err := svc.ValidateToken(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}

func TestValidateRejectsNoneAlgorithm(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)

	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsMissingUserID(t *testing.T) {
	svc := NewTokenService(testSecret, time.Hour)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateTokenRequiresUserID(t *testing.T) {
	_, err := NewTokenService(testSecret, time.Hour).GenerateToken("")
	assert.Error(t, err)
}
