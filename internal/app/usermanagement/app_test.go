package usermanagement_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/user-management/internal/app/usermanagement"
	"github.com/magabrotheeeer/user-management/internal/config"
	"github.com/magabrotheeeer/user-management/internal/services/auth"
	"github.com/magabrotheeeer/user-management/internal/storage/memory"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		HTTPServer: config.HTTPServer{RateLimit: 1000, RateBurst: 1000},
		JWTToken:   config.JWTToken{JWTSecretKey: "e2e-secret"},
		Auth:       config.Auth{AdminEmails: []string{"admin@example.com"}, BcryptCost: 4},
	}
	logger := newNoopLogger()
	services := usermanagement.NewServices(logger, cfg, memory.New(), auth.NoopPublisher{})

	srv := httptest.NewServer(usermanagement.NewRouter(logger, cfg.HTTPServer, services))
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t   *testing.T
	srv *httptest.Server
}

func (c client) do(method, path, token string, body any) (int, map[string]any) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func (c client) signup(fullName, email string) (string, string) {
	c.t.Helper()
	code, body := c.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"fullName": fullName, "email": email, "password": "secret1!",
	})
	require.Equal(c.t, http.StatusCreated, code, body)
	return body["id"].(string), body["token"].(string)
}

func TestEndToEnd_SignupLoginProfile(t *testing.T) {
	c := client{t: t, srv: newTestServer(t)}

	_, signupToken := c.signup("Ann", "ann@example.com")
	assert.NotEmpty(t, signupToken)

	code, body := c.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ann@example.com", "password": "secret1!",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Login successful", body["message"])
	token := body["token"].(string)
	user := body["user"].(map[string]any)
	assert.Equal(t, "user", user["role"])
	assert.NotNil(t, user["lastLogin"])

	code, body = c.do(http.MethodGet, "/api/users/profile", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ann@example.com", body["email"])
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "passwordHash")

	code, body = c.do(http.MethodGet, "/api/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.NotEmpty(t, body["message"])
}

func TestEndToEnd_DuplicateAndBadCredentials(t *testing.T) {
	c := client{t: t, srv: newTestServer(t)}
	c.signup("Ann", "ann@example.com")

	code, body := c.do(http.MethodPost, "/api/auth/signup", "", map[string]string{
		"fullName": "Other", "email": "ann@example.com", "password": "secret1!",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "User already exists", body["message"])

	_, wrong := c.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ann@example.com", "password": "wrong1!xx",
	})
	_, unknown := c.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ghost@example.com", "password": "secret1!",
	})
	assert.Equal(t, wrong, unknown)
}

func TestEndToEnd_AdminDeactivatesUser(t *testing.T) {
	c := client{t: t, srv: newTestServer(t)}
	adminID, adminToken := c.signup("Boss", "admin@example.com")
	userID, userToken := c.signup("Ann", "ann@example.com")

	code, _ := c.do(http.MethodGet, "/api/admin/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body := c.do(http.MethodGet, "/api/admin/users?page=1&limit=10", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["total"])
	assert.EqualValues(t, 1, body["totalPages"])

	code, _ = c.do(http.MethodGet, "/api/users/profile", userToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, body = c.do(http.MethodPatch, "/api/admin/users/"+userID+"/status", adminToken, map[string]string{"status": "inactive"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "User status updated successfully", body["message"])

	code, body = c.do(http.MethodGet, "/api/users/profile", userToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Account deactivated", body["message"])

	code, _ = c.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ann@example.com", "password": "secret1!",
	})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = c.do(http.MethodPatch, "/api/admin/users/"+adminID+"/status", adminToken, map[string]string{"status": "inactive"})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = c.do(http.MethodGet, "/api/users/profile", adminToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, body = c.do(http.MethodPatch, "/api/admin/users/ghost/status", adminToken, map[string]string{"status": "inactive"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "User not found", body["message"])
}

func TestEndToEnd_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Get(srv.URL + "/")
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "API is running...", string(b))

	resp, err = srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), `user_management_http_requests_total{method="GET",route="/",status="200"} 1`)
}

func TestEndToEnd_ListHugePage(t *testing.T) {
	c := client{t: t, srv: newTestServer(t)}
	_, adminToken := c.signup("Boss", "admin@example.com")
	c.signup("Ann", "ann@example.com")

	code, body := c.do(http.MethodGet, "/api/admin/users?page=4611686018427387905&limit=10", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["users"])
	assert.EqualValues(t, 2, body["total"])
	assert.EqualValues(t, 1, body["totalPages"])
}

func TestNewServices_TokenLifetimeIs24h(t *testing.T) {
	cfg := &config.Config{
		JWTToken: config.JWTToken{JWTSecretKey: "ttl-secret"},
		Auth:     config.Auth{BcryptCost: 4},
	}
	services := usermanagement.NewServices(newNoopLogger(), cfg, memory.New(), auth.NoopPublisher{})

	token, err := services.Auth.IssueToken("acc-1")
	require.NoError(t, err)

	var claims jwtlib.RegisteredClaims
	_, _, err = jwtlib.NewParser().ParseUnverified(token, &claims)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}
