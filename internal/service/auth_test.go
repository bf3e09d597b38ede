package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vinnodrive/vinnodrive/internal/validation"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

func newAuth(env *testEnv) *AuthService {
	return NewAuthService(env.users, testSecret, false, time.Hour)
}

func TestSignupAndLogin(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuth(env)
	ctx := context.Background()

	user, err := auth.Signup(ctx, "  Alice ", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)

	logged, err := auth.Login(ctx, "ALICE", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, err = auth.Login(ctx, "alice", "wrong horse battery")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(ctx, "nobody", "correct horse battery")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignup_Validation(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuth(env)
	ctx := context.Background()

	_, err := auth.Signup(ctx, "al", "correct horse battery")
	assert.ErrorIs(t, err, validation.ErrUsernameLength)

	_, err = auth.Signup(ctx, "alice", "short")
	assert.ErrorIs(t, err, validation.ErrPasswordTooShort)

	_, err = auth.Signup(ctx, "alice", "correct horse battery")
	require.NoError(t, err)

	_, err = auth.Signup(ctx, "Alice", "another good phrase")
	assert.ErrorIs(t, err, ErrUsernameAlreadyExists)
}

func TestJWT_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuth(env)
	user := env.createUser(t, "alice")

	token, expiry, err := auth.GenerateJWT(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, time.Minute)

	session, err := auth.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, "alice", session.Username)
	assert.False(t, session.IssuedAt.IsZero())
}

func TestJWT_Rejected(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuth(env)
	user := env.createUser(t, "alice")
	ctx := context.Background()

	other := NewAuthService(env.users, "a-completely-different-secret-value", false, time.Hour)
	forged, _, err := other.GenerateJWT(user)
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, forged)
	assert.ErrorIs(t, err, ErrInvalidSession)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      time.Now().Add(-time.Minute).Unix(),
		"iat":      time.Now().Add(-time.Hour).Unix(),
	})
	signed, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, signed)
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = auth.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestAuthenticate_DeletedUser(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuth(env)
	user := env.createUser(t, "alice")

	token, _, err := auth.GenerateJWT(user)
	require.NoError(t, err)

	_, err = env.db.Exec(`DELETE FROM users WHERE id = $1`, user.ID)
	require.NoError(t, err)

	_, err = auth.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestJWTCookie(t *testing.T) {
	env := newTestEnv(t)
	auth := newAuth(env)

	rec := httptest.NewRecorder()
	auth.SetJWTCookie(rec, "tok", time.Now().Add(time.Hour))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, AuthCookieName, cookies[0].Name)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	rec = httptest.NewRecorder()
	auth.ClearJWTCookie(rec)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
}
