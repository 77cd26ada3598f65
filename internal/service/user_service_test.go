package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gastbook/config"
	"gastbook/pkg/captcha"
	apperrors "gastbook/pkg/errors"
	"gastbook/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCaptcha struct {
	ok  bool
	err error
}

func (c stubCaptcha) Verify(_ context.Context, token, _ string) (bool, *captcha.Result, error) {
	if token == "" {
		return false, nil, captcha.ErrMissingToken
	}
	return c.ok, &captcha.Result{Success: c.ok}, c.err
}

func newUserService(e *env, c CaptchaChecker) (*UserService, *jwt.JWTService) {
	jwtSvc := jwt.NewJWTService(config.JWTConfig{Secret: "test-secret", Issuer: "gastbook", ExpireTime: time.Hour})
	return NewUserService(e.users, e.friends, jwtSvc, c), jwtSvc
}

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)
	users, jwtSvc := newUserService(e, stubCaptcha{ok: true})

	u, token, err := users.Register(ctx, RegisterInput{
		Username: "ana", Email: "Ana@Example.com", Password: "secret1", CaptchaToken: "t",
	}, "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	claims, err := jwtSvc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID())

	for _, id := range []string{"ana", "ANA@example.com"} {
		got, _, err := users.Login(ctx, id, "secret1")
		require.NoError(t, err, id)
		assert.Equal(t, u.ID, got.ID)
	}

	_, _, err = users.Login(ctx, "ana", "wrong-password")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeUnauthorized))
	_, _, err = users.Login(ctx, "nobody", "secret1")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeUnauthorized))

	_, _, err = users.Register(ctx, RegisterInput{Username: "ana", Email: "other@example.com", Password: "secret1", CaptchaToken: "t"}, "")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeAlreadyExists))
}

func TestRegister_Validation(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name    string
		captcha CaptchaChecker
		in      RegisterInput
		code    string
	}{
		{"short username", stubCaptcha{ok: true}, RegisterInput{Username: "ab", Email: "a@b.co", Password: "secret1", CaptchaToken: "t"}, apperrors.ErrCodeValidation},
		{"bad email", stubCaptcha{ok: true}, RegisterInput{Username: "abc", Email: "nope", Password: "secret1", CaptchaToken: "t"}, apperrors.ErrCodeValidation},
		{"short password", stubCaptcha{ok: true}, RegisterInput{Username: "abc", Email: "a@b.co", Password: "12345", CaptchaToken: "t"}, apperrors.ErrCodeValidation},
		{"missing captcha", stubCaptcha{ok: true}, RegisterInput{Username: "abc", Email: "a@b.co", Password: "secret1"}, apperrors.ErrCodeValidation},
		{"captcha rejected", stubCaptcha{ok: false}, RegisterInput{Username: "abc", Email: "a@b.co", Password: "secret1", CaptchaToken: "t"}, apperrors.ErrCodeForbidden},
		{"captcha down", stubCaptcha{err: errors.New("timeout")}, RegisterInput{Username: "abc", Email: "a@b.co", Password: "secret1", CaptchaToken: "t"}, apperrors.ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, _ := newUserService(e, tt.captcha)
			_, _, err := users.Register(ctx, tt.in, "")
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.CodeOf(err))
		})
	}
}

func TestProfile(t *testing.T) {
	e := newEnv(t)
	users, _ := newUserService(e, nil)
	a, b, c := e.user(t, "ana"), e.user(t, "ben"), e.user(t, "cy")
	e.befriend(t, a, b)

	p, err := users.Profile(ctx, b, a)
	require.NoError(t, err)
	assert.Equal(t, StateAccepted, p.Relationship)
	assert.Equal(t, int64(1), p.FriendCount)
	assert.False(t, p.IsSelf)

	p, err = users.Profile(ctx, a, a)
	require.NoError(t, err)
	assert.True(t, p.IsSelf)
	assert.Equal(t, StateNone, p.Relationship)

	st, err := users.Relationship(ctx, c, a)
	require.NoError(t, err)
	assert.Equal(t, StateNone, st)

	_, err = users.Profile(ctx, 0, 9999)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeNotFound))

	require.NoError(t, users.SetStatus(ctx, a, StatusOnline))
	assert.True(t, apperrors.Is(users.SetStatus(ctx, a, "busy"), apperrors.ErrCodeValidation))
}
