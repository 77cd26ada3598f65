package jwt

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gastbook/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(expire time.Duration) *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:     "test_secret_key_minimum_32_chars!",
		ExpireTime: expire,
		Issuer:     "gastbook-test",
	})
}

func TestGenerateAndValidate(t *testing.T) {
	tests := []struct {
		name     string
		userID   uint
		username string
	}{
		{"regular user", 1, "alice"},
		{"large id", 987654321, "bob"},
	}

	svc := newService(time.Hour)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := svc.GenerateToken(tt.userID, tt.username)
			require.NoError(t, err)

			claims, err := svc.ValidateToken(token)
			require.NoError(t, err)
			assert.Equal(t, tt.userID, claims.UserID())
			assert.Equal(t, tt.username, claims.Username())
		})
	}
}

func TestGenerateToken_ZeroUser(t *testing.T) {
	_, err := newService(time.Hour).GenerateToken(0, "nobody")
	assert.Error(t, err)
}

func TestValidateToken_Invalid(t *testing.T) {
	svc := newService(time.Hour)
	expired, err := newService(-time.Minute).GenerateToken(1, "alice")
	require.NoError(t, err)

	other := NewJWTService(config.JWTConfig{Secret: "another_secret_key_minimum_32_chars", ExpireTime: time.Hour, Issuer: "gastbook-test"})
	foreign, err := other.GenerateToken(1, "alice")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "invalid.token.here"},
		{"expired", expired},
		{"wrong key", foreign},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newService(time.Hour)
	token, err := svc.GenerateToken(42, "carol")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/required", svc.AuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": GetUserID(c)})
	})
	router.GET("/optional", svc.OptionalAuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": GetUserID(c)})
	})

	tests := []struct {
		name   string
		path   string
		header string
		want   string
	}{
		{"required with token", "/required", "Bearer " + token, `{"user":42}`},
		{"required without token", "/required", "", `"code":401`},
		{"optional with token", "/optional", "Bearer " + token, `{"user":42}`},
		{"optional anonymous", "/optional", "", `{"user":0}`},
		{"optional bad token", "/optional", "Bearer nope", `{"user":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestMiddleware_AccountCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newService(time.Hour)
	svc.SetAccountCheck(func(_ context.Context, userID uint) error {
		if userID == 7 {
			return errors.New("account deleted")
		}
		return nil
	})
	live, err := svc.GenerateToken(42, "carol")
	require.NoError(t, err)
	gone, err := svc.GenerateToken(7, "dave")
	require.NoError(t, err)

	router := gin.New()
	router.GET("/required", svc.AuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": GetUserID(c)})
	})
	router.GET("/optional", svc.OptionalAuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": GetUserID(c)})
	})

	tests := []struct {
		name  string
		path  string
		token string
		want  string
	}{
		{"required live account", "/required", live, `{"user":42}`},
		{"required deleted account", "/required", gone, `"code":401`},
		{"optional deleted account is anonymous", "/optional", gone, `{"user":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}

	_, err = svc.Authenticate(context.Background(), gone)
	assert.Error(t, err)
}
