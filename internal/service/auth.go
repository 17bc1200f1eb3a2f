package service

import (
	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/deppfellow/guardrail-api/internal/config"
)

// AuthService configures the Clerk SDK so session tokens can be verified.
type AuthService struct {
	configured bool
}

func NewAuthService(cfg config.AuthConfig) *AuthService {
	if cfg.SecretKey != "" {
		clerk.SetKey(cfg.SecretKey)
	}
	return &AuthService{configured: cfg.SecretKey != ""}
}

// Configured reports whether a Clerk secret key was set.
func (a *AuthService) Configured() bool {
	return a.configured
}
