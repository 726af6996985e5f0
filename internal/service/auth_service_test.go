package service

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/physed-journal-api/internal/models"
	appErrors "github.com/noah-isme/physed-journal-api/pkg/errors"
)

func signedToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func teacherClaims(guid string) models.JWTClaims {
	now := time.Now()
	return models.JWTClaims{
		TeacherGUID: guid,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "identity",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestAuthServiceValidatesHS256(t *testing.T) {
	svc, err := NewAuthService(AuthConfig{Secret: "secret", Issuer: "identity"}, nil)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(signedToken(t, jwt.SigningMethodHS256, []byte("secret"), teacherClaims(teacherGUID)))
	require.NoError(t, err)
	assert.Equal(t, teacherGUID, claims.TeacherGUID)

	_, err = svc.ValidateToken(signedToken(t, jwt.SigningMethodHS256, []byte("other"), teacherClaims(teacherGUID)))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	wrongIssuer := teacherClaims(teacherGUID)
	wrongIssuer.Issuer = "elsewhere"
	_, err = svc.ValidateToken(signedToken(t, jwt.SigningMethodHS256, []byte("secret"), wrongIssuer))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	_, err = svc.ValidateToken(signedToken(t, jwt.SigningMethodHS256, []byte("secret"), teacherClaims("")))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthServiceValidatesRS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	svc, err := NewAuthService(AuthConfig{PublicKeyPEM: string(publicPEM)}, nil)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(signedToken(t, jwt.SigningMethodRS256, key, teacherClaims(adminGUID)))
	require.NoError(t, err)
	assert.Equal(t, adminGUID, claims.TeacherGUID)

	_, err = svc.ValidateToken(signedToken(t, jwt.SigningMethodHS256, []byte("secret"), teacherClaims(adminGUID)))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestNewAuthServiceRequiresKeyMaterial(t *testing.T) {
	_, err := NewAuthService(AuthConfig{}, nil)
	assert.Error(t, err)

	_, err = NewAuthService(AuthConfig{PublicKeyPEM: "not a key"}, nil)
	assert.Error(t, err)
}
