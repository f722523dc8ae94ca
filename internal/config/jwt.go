package config

import (
	"cmp"
	"fmt"
	"os"
	"strings"
	"time"
)

// Environment variables read by NewJWTConfig.
const (
	JWTSecretEnv = "JWT_SECRET"
	JWTTTLEnv    = "JWT_TTL"
	JWTIssuerEnv = "JWT_ISSUER"
)

const (
	DefaultJWTIssuer = "resume-builder"
	DefaultJWTTTL    = 24 * time.Hour

	minJWTSecretLen = 16
	minJWTTTL       = time.Minute
)

// JWTConfig configures the HS256 bearer tokens of the report history API.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// NewJWTConfig reads JWT_SECRET (required), JWT_TTL (a duration such as "72h",
// default 24h) and JWT_ISSUER from the environment.
func NewJWTConfig() (*JWTConfig, error) {
	cfg := &JWTConfig{
		Secret: os.Getenv(JWTSecretEnv),
		TTL:    DefaultJWTTTL,
		Issuer: cmp.Or(strings.TrimSpace(os.Getenv(JWTIssuerEnv)), DefaultJWTIssuer),
	}

	if raw := strings.TrimSpace(os.Getenv(JWTTTLEnv)); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", JWTTTLEnv, raw, err)
		}
		cfg.TTL = ttl
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the secret length and token lifetime.
func (c *JWTConfig) Validate() error {
	switch {
	case c.Secret == "":
		return fmt.Errorf("%s is required", JWTSecretEnv)
	case len(c.Secret) < minJWTSecretLen:
		return fmt.Errorf("%s must be at least %d bytes", JWTSecretEnv, minJWTSecretLen)
	case c.TTL < minJWTTTL:
		return fmt.Errorf("%s must be at least %s, got %s", JWTTTLEnv, minJWTTTL, c.TTL)
	}
	return nil
}
