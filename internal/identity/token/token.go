// Package token issues and validates the HS256 access tokens the API uses.
package token

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"taskboard/internal/identity/revocation"
	"taskboard/internal/platform/middleware"
	dErrors "taskboard/pkg/domain-errors"
)

const issuer = "taskboard"

// Service handles JWT creation, validation, and revocation.
type Service struct {
	signingKey []byte
	ttl        time.Duration
	revoked    revocation.List
}

func NewService(signingKey string, ttl time.Duration, revoked revocation.List) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		ttl:        ttl,
		revoked:    revoked,
	}
}

// TTL returns the configured access token lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// GenerateAccessToken issues a signed token for the user.
func (s *Service) GenerateAccessToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		ID:        uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return signed, nil
}

// ValidateToken parses and verifies a token, rejecting revoked ones. It
// implements middleware.JWTValidator.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*middleware.JWTClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
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
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}

	if s.revoked != nil {
		isRevoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "revocation check failed")
		}
		if isRevoked {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has been revoked")
		}
	}

	return &middleware.JWTClaims{UserID: userID, TokenID: claims.ID}, nil
}

// Revoke marks a token ID as revoked until the token would have expired
// anyway.
func (s *Service) Revoke(ctx context.Context, jti string) error {
	if s.revoked == nil || jti == "" {
		return nil
	}
	if err := s.revoked.Revoke(ctx, jti, s.ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	return nil
}
