package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonathan/resume-builder/internal/config"
	"github.com/jonathan/resume-builder/internal/server/middleware"
)

var errEmptyToken = errors.New("token string is empty")

// Claims are the registered claims of a bearer token. The subject carries the user ID.
type Claims struct {
	jwt.RegisteredClaims
	userID uuid.UUID
}

// GetUserID implements middleware.UserIDGetter.
func (c *Claims) GetUserID() uuid.UUID {
	return c.userID
}

// JWTService signs and verifies HS256 bearer tokens for the report history API.
type JWTService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

// NewJWTService returns a service for cfg. cfg is assumed valid.
func NewJWTService(cfg *config.JWTConfig) *JWTService {
	s := &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    time.Now,
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s
}

// GenerateToken signs a token for userID that expires after the configured TTL.
func (s *JWTService) GenerateToken(userID uuid.UUID) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies the signature, issuer and expiry of raw and returns its claims.
func (s *JWTService) ValidateToken(raw string) (*Claims, error) {
	if raw == "" {
		return nil, errEmptyToken
	}

	claims := &Claims{}
	if _, err := s.parser.ParseWithClaims(raw, claims, s.key); err != nil {
		return nil, fmt.Errorf("%s: %w", describeTokenError(err), err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return nil, errors.New("token subject is not a user id")
	}
	claims.userID = userID
	return claims, nil
}

// AsTokenValidator adapts the service to the middleware's validator interface.
func (s *JWTService) AsTokenValidator() middleware.TokenValidator {
	return tokenValidatorFunc(func(raw string) (middleware.UserIDGetter, error) {
		claims, err := s.ValidateToken(raw)
		if err != nil {
			return nil, err
		}
		return claims, nil
	})
}

func (s *JWTService) key(*jwt.Token) (any, error) {
	return s.secret, nil
}

type tokenValidatorFunc func(string) (middleware.UserIDGetter, error)

func (f tokenValidatorFunc) ValidateToken(raw string) (middleware.UserIDGetter, error) {
	return f(raw)
}

func describeTokenError(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "invalid token signature"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "unexpected token issuer"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed token"
	default:
		return "invalid token"
	}
}
