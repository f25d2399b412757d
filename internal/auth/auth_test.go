package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourname/healthday/internal"
	"github.com/yourname/healthday/internal/config"
)

func TestLocalAuthProvider(t *testing.T) {
	p := NewLocalAuthProvider("MOCK-TOKEN", internal.NopLogger())

	user, err := p.Authenticate(context.Background(), "MOCK-TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.ElementsMatch(t, internal.AllPermissions(), user.Permissions)

	_, err = p.Authenticate(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = p.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRemoteAuthProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Token string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Token != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":"u7","name":"Remote","permissions":["steps:read","steps:write"]}`))
	}))
	defer srv.Close()
	p := NewRemoteAuthProvider(srv.URL, internal.NopLogger())

	user, err := p.Authenticate(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "u7", user.ID)
	assert.Equal(t, "good", user.Token)
	assert.Equal(t, []internal.Permission{
		internal.ReadPermission(internal.KindSteps),
		internal.WritePermission(internal.KindSteps),
	}, user.Permissions)

	_, err = p.Authenticate(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTAuthProvider(t *testing.T) {
	p := NewJWTAuthProvider([]byte("test-secret"), internal.NopLogger())
	perms := []internal.Permission{internal.ReadPermission(internal.KindSleep)}

	token, err := p.IssueToken(internal.User{ID: "u9", Name: "Jay", Permissions: perms}, time.Hour)
	require.NoError(t, err)
	user, err := p.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u9", user.ID)
	assert.Equal(t, "Jay", user.Name)
	assert.Equal(t, perms, user.Permissions)

	expired, err := p.IssueToken(internal.User{ID: "u9"}, -time.Minute)
	require.NoError(t, err)
	_, err = p.Authenticate(context.Background(), expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewJWTAuthProvider([]byte("other-secret"), internal.NopLogger())
	_, err = other.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewProvider(t *testing.T) {
	logger := internal.NopLogger()

	p, err := NewProvider(&config.Config{AuthMode: "local", AuthToken: "t"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &LocalAuthProvider{}, p)

	_, err = NewProvider(&config.Config{AuthMode: "remote"}, logger)
	assert.Error(t, err)
	_, err = NewProvider(&config.Config{AuthMode: "jwt"}, logger)
	assert.Error(t, err)
	_, err = NewProvider(&config.Config{AuthMode: "oauth"}, logger)
	assert.Error(t, err)
}

type stubProvider map[string]*internal.User

func (s stubProvider) Authenticate(ctx context.Context, token string) (*internal.User, error) {
	if u, ok := s[token]; ok {
		return u, nil
	}
	return nil, errors.New("unknown")
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	provider := stubProvider{
		"reader": {ID: "r", Permissions: []internal.Permission{internal.ReadPermission(internal.KindSteps)}},
		"writer": {ID: "w", Permissions: internal.AllPermissions()},
	}
	r := gin.New()
	r.Use(AuthMiddleware(provider, internal.NopLogger()))
	r.POST("/steps", RequirePermissions(internal.WritePermission(internal.KindSteps)), func(c *gin.Context) {
		user, _ := UserFrom(c)
		c.String(http.StatusOK, user.ID)
	})

	cases := []struct {
		name   string
		header string
		code   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"unknown token", "Bearer stranger", http.StatusUnauthorized},
		{"missing permission", "Bearer reader", http.StatusForbidden},
		{"granted", "Bearer writer", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodPost, "/steps", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.code, w.Code)
		})
	}
}
