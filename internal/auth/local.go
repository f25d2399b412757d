package auth

import (
	"context"

	"github.com/yourname/healthday/internal"
)

// LocalAuthProvider accepts one static token and grants it every permission.
type LocalAuthProvider struct {
	Token  string
	logger internal.Logger
}

func NewLocalAuthProvider(token string, logger internal.Logger) *LocalAuthProvider {
	return &LocalAuthProvider{Token: token, logger: logger}
}

func (a *LocalAuthProvider) Authenticate(ctx context.Context, token string) (*internal.User, error) {
	if token == "" || token != a.Token {
		a.logger.Warnf("local auth: rejected token")
		return nil, ErrInvalidToken
	}
	return &internal.User{
		ID:          "u1",
		Token:       a.Token,
		Name:        "Demo User",
		Permissions: internal.AllPermissions(),
	}, nil
}
