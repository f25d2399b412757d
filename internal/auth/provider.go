package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourname/healthday/internal"
	"github.com/yourname/healthday/internal/config"
)

var ErrInvalidToken = errors.New("invalid token")

// Provider turns a bearer token into the user it belongs to.
type Provider interface {
	Authenticate(ctx context.Context, token string) (*internal.User, error)
}

// NewProvider picks the provider named by cfg.AuthMode.
func NewProvider(cfg *config.Config, logger internal.Logger) (Provider, error) {
	switch cfg.AuthMode {
	case "local":
		return NewLocalAuthProvider(cfg.AuthToken, logger), nil
	case "remote":
		if cfg.AuthServiceURL == "" {
			return nil, errors.New("AUTH_SERVICE_URL is required for remote auth")
		}
		return NewRemoteAuthProvider(cfg.AuthServiceURL, logger), nil
	case "jwt":
		if cfg.JWTSecret == "" {
			return nil, errors.New("JWT_SECRET is required for jwt auth")
		}
		return NewJWTAuthProvider([]byte(cfg.JWTSecret), logger), nil
	}
	return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
}
