package controller

import (
	"context"
	"net/http"
	"testing"

	"signupvault/internal/middleware"
	"signupvault/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func TestAuthLogin(t *testing.T) {
	app, _ := newTestApp(t)
	user := app.createUser(t, "member@example.com", model.RoleUser)

	recorder := app.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "Member@Example.com", "password": "secret1"}, nil)
	require.Equal(t, 200, recorder.Code)

	session := decode[sessionResponse](t, recorder)
	assert.Equal(t, user.ID, session.User.ID)
	assert.NotEmpty(t, session.Token)
	assert.NotContains(t, recorder.Body.String(), "password")

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middleware.SessionCookieName, cookies[0].Name)
	assert.Equal(t, session.Token, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	recorder = app.do(http.MethodGet, "/api/auth/me", nil, map[string]string{"Authorization": "Bearer " + session.Token})
	require.Equal(t, 200, recorder.Code)
	assert.Equal(t, "member@example.com", decode[model.User](t, recorder).Email)

	recorder = app.do(http.MethodGet, "/api/auth/me", nil, map[string]string{"Cookie": middleware.SessionCookieName + "=" + session.Token})
	assert.Equal(t, 200, recorder.Code)
}

func TestAuthLoginFailures(t *testing.T) {
	app, _ := newTestApp(t)
	app.createUser(t, "member@example.com", model.RoleUser)
	inactive := app.createUser(t, "inactive@example.com", model.RoleUser)

	_, err := app.users.SetActive(context.Background(), inactive.ID, false)
	require.NoError(t, err)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"wrong password", map[string]any{"email": "member@example.com", "password": "nope"}, 401},
		{"unknown user", map[string]any{"email": "ghost@example.com", "password": "secret1"}, 401},
		{"inactive user", map[string]any{"email": "inactive@example.com", "password": "secret1"}, 401},
		{"missing password", map[string]any{"email": "member@example.com"}, 400},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			recorder := app.do(http.MethodPost, "/api/auth/login", test.body, nil)
			assert.Equal(t, test.status, recorder.Code)
		})
	}
}

func TestAuthLogoutClearsCookie(t *testing.T) {
	app, _ := newTestApp(t)

	recorder := app.do(http.MethodPost, "/api/auth/logout", nil, nil)
	require.Equal(t, 200, recorder.Code)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestAuthRegister(t *testing.T) {
	app, _ := newTestApp(t)
	body := map[string]any{"email": "new@example.com", "password": "secret1"}

	recorder := app.do(http.MethodPost, "/api/auth/register", body, nil)
	assert.Equal(t, 403, recorder.Code)
	assert.JSONEq(t, `{"error":"Registration is disabled"}`, recorder.Body.String())

	_, err := app.settings.Update(context.Background(), true)
	require.NoError(t, err)

	recorder = app.do(http.MethodPost, "/api/auth/register", map[string]any{"email": "bad", "password": "1"}, nil)
	require.Equal(t, 400, recorder.Code)
	invalid := decode[map[string]any](t, recorder)
	assert.Equal(t, "Invalid input", invalid["error"])
	assert.Len(t, invalid["details"], 2)

	recorder = app.do(http.MethodPost, "/api/auth/register", body, nil)
	require.Equal(t, 201, recorder.Code)
	session := decode[sessionResponse](t, recorder)
	assert.Equal(t, model.RoleUser, session.User.Role)

	recorder = app.do(http.MethodPost, "/api/auth/register", body, nil)
	assert.Equal(t, 400, recorder.Code)
	assert.JSONEq(t, `{"error":"User already exists"}`, recorder.Body.String())
}

func TestAuthChangePassword(t *testing.T) {
	app, _ := newTestApp(t)
	user := app.createUser(t, "member@example.com", model.RoleUser)
	headers := app.bearer(t, user)

	recorder := app.do(http.MethodPost, "/api/auth/change-password", map[string]any{"currentPassword": "secret1", "newPassword": "123"}, headers)
	assert.Equal(t, 422, recorder.Code)
	assert.JSONEq(t, `{"error":"Invalid payload"}`, recorder.Body.String())

	recorder = app.do(http.MethodPost, "/api/auth/change-password", map[string]any{"currentPassword": "wrong", "newPassword": "secret2"}, headers)
	assert.Equal(t, 400, recorder.Code)
	assert.JSONEq(t, `{"error":"Current password is incorrect"}`, recorder.Body.String())

	recorder = app.do(http.MethodPost, "/api/auth/change-password", map[string]any{"currentPassword": "secret1", "newPassword": "secret2"}, nil)
	assert.Equal(t, 401, recorder.Code)

	recorder = app.do(http.MethodPost, "/api/auth/change-password", map[string]any{"currentPassword": "secret1", "newPassword": "secret2"}, headers)
	require.Equal(t, 200, recorder.Code)

	recorder = app.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "member@example.com", "password": "secret2"}, nil)
	assert.Equal(t, 200, recorder.Code)
}

func TestAuthPasswordReset(t *testing.T) {
	app, mailer := newTestApp(t)
	app.createUser(t, "member@example.com", model.RoleUser)

	recorder := app.do(http.MethodPost, "/api/auth/reset/request", map[string]any{"email": "not-an-email"}, nil)
	assert.Equal(t, 422, recorder.Code)

	recorder = app.do(http.MethodPost, "/api/auth/reset/request", map[string]any{"email": "ghost@example.com"}, nil)
	assert.Equal(t, 200, recorder.Code)
	assert.Empty(t, mailer.token)

	recorder = app.do(http.MethodPost, "/api/auth/reset/request", map[string]any{"email": "member@example.com"}, nil)
	require.Equal(t, 200, recorder.Code)
	require.NotEmpty(t, mailer.token)

	recorder = app.do(http.MethodPost, "/api/auth/reset/confirm", map[string]any{"token": "bogus", "password": "secret2"}, nil)
	assert.Equal(t, 400, recorder.Code)
	assert.JSONEq(t, `{"error":"Invalid or expired token"}`, recorder.Body.String())

	recorder = app.do(http.MethodPost, "/api/auth/reset/confirm", map[string]any{"token": mailer.token, "password": "123"}, nil)
	assert.Equal(t, 422, recorder.Code)

	recorder = app.do(http.MethodPost, "/api/auth/reset/confirm", map[string]any{"token": mailer.token, "password": "secret2"}, nil)
	require.Equal(t, 200, recorder.Code)

	recorder = app.do(http.MethodPost, "/api/auth/login", map[string]any{"email": "member@example.com", "password": "secret2"}, nil)
	assert.Equal(t, 200, recorder.Code)
}

func TestAuthSessionOfDeactivatedUser(t *testing.T) {
	app, _ := newTestApp(t)
	user := app.createUser(t, "member@example.com", model.RoleUser)
	headers := app.bearer(t, user)

	_, err := app.users.SetActive(context.Background(), user.ID, false)
	require.NoError(t, err)

	recorder := app.do(http.MethodGet, "/api/auth/me", nil, headers)
	assert.Equal(t, 401, recorder.Code)
}
