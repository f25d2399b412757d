package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/yourname/healthday/internal"
)

const issuer = "healthday"

type Claims struct {
	Name        string                `json:"name"`
	Permissions []internal.Permission `json:"permissions"`
	jwt.RegisteredClaims
}

// JWTAuthProvider validates HS256 tokens whose claims carry the user's
// permissions.
type JWTAuthProvider struct {
	secretKey []byte
	logger    internal.Logger
}

func NewJWTAuthProvider(secret []byte, logger internal.Logger) *JWTAuthProvider {
	return &JWTAuthProvider{secretKey: secret, logger: logger}
}

// IssueToken signs a token for user that expires after ttl.
func (a *JWTAuthProvider) IssueToken(user internal.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Name:        user.Name,
		Permissions: user.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   user.ID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secretKey)
}

func (a *JWTAuthProvider) Authenticate(ctx context.Context, tokenString string) (*internal.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return a.secretKey, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		a.logger.Warnf("jwt auth: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &internal.User{
		ID:          claims.Subject,
		Token:       tokenString,
		Name:        claims.Name,
		Permissions: claims.Permissions,
	}, nil
}
