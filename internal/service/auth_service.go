package service

import (
	"crypto/rsa"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/physed-journal-api/internal/models"
	appErrors "github.com/noah-isme/physed-journal-api/pkg/errors"
)

// AuthConfig describes how bearer tokens are verified. Tokens are issued by an external
// identity provider; this service never signs any.
type AuthConfig struct {
	Secret       string
	PublicKeyPEM string
	Issuer       string
}

// AuthService validates bearer tokens and extracts the teacher identity.
type AuthService struct {
	secret    []byte
	publicKey *rsa.PublicKey
	issuer    string
	logger    *zap.Logger
}

// NewAuthService builds a validator. With a public key RS256 is required, otherwise HS256.
func NewAuthService(cfg AuthConfig, logger *zap.Logger) (*AuthService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AuthService{secret: []byte(cfg.Secret), issuer: cfg.Issuer, logger: logger}
	if pem := strings.TrimSpace(cfg.PublicKeyPEM); pem != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return nil, fmt.Errorf("parse jwt public key: %w", err)
		}
		svc.publicKey = key
	} else if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret or public key is required")
	}
	return svc, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{s.method().Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if s.publicKey != nil {
			return s.publicKey, nil
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.TeacherGUID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token carries no teacher identity")
	}
	return claims, nil
}

func (s *AuthService) method() jwt.SigningMethod {
	if s.publicKey != nil {
		return jwt.SigningMethodRS256
	}
	return jwt.SigningMethodHS256
}
