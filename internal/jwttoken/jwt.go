// Package jwttoken issues and validates the HS256 bearer tokens used by the
// admin surface (application review, offer sending, provisioning re-runs).
// Practitioner-facing links never use JWTs; they carry opaque single-use
// tokens owned by the token store.
package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"meridian/internal/platform/middleware"
	dErrors "meridian/pkg/domain-errors"
)

// Claims are the JWT claims carried by admin access tokens.
type Claims struct {
	AdminID string `json:"admin_id"`
	jwt.RegisteredClaims
}

// Service signs and validates admin tokens.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey, issuer string) *Service {
	return &Service{signingKey: []byte(signingKey), issuer: issuer}
}

// GenerateToken signs a token for an admin identity.
func (s *Service) GenerateToken(adminID string, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		AdminID: adminID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken parses and verifies an admin token.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.AdminID == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	return claims, nil
}

// MiddlewareValidator adapts the service to the platform auth middleware.
type MiddlewareValidator struct {
	Service *Service
}

func (v MiddlewareValidator) ValidateToken(tokenString string) (*middleware.AdminClaims, error) {
	claims, err := v.Service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.AdminClaims{AdminID: claims.AdminID}, nil
}
