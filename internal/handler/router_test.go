package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"rbac-backend/internal/authz"
	"rbac-backend/internal/middleware"
	"rbac-backend/internal/observability"
	"rbac-backend/internal/repository/memory"
	"rbac-backend/internal/service"
	"rbac-backend/internal/session"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	cookies map[string]*http.Cookie
}

type serverOption func(*RouterConfig)

func withLoginLimit(n int) serverOption {
	return func(c *RouterConfig) { c.LoginRateLimit = n }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	repos := memory.NewStore().Repositories()
	hasher := service.NewBcryptHasher(bcrypt.MinCost)
	_, err := service.NewSeeder(repos, hasher, true).Seed(context.Background())
	require.NoError(t, err)

	auth, err := service.NewAuthService(repos, hasher, service.AuthConfig{Secret: []byte("test-secret"), Issuer: "rbac-test"})
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	sessions := session.NewManager(rdb, session.Options{CookieName: "rbac_session", TTL: time.Hour})
	csrf := session.NewCSRFManager("csrf-secret")

	cfg := RouterConfig{
		Services: Services{
			Auth:        auth,
			Users:       service.NewUserService(repos, hasher, nil),
			Roles:       service.NewRoleService(repos, nil),
			Permissions: service.NewPermissionService(repos, nil),
			Dashboard:   service.NewDashboardService(repos),
		},
		Guard:    middleware.NewGuard(auth, csrf, authz.NewAuthorizer(nil), logger),
		Sessions: sessions,
		CSRF:     csrf,
		Metrics:  observability.NewMetrics(),
		Logger:   logger,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &testServer{t: t, handler: NewRouter(cfg), cookies: map[string]*http.Cookie{}}
}

type reqOpts struct {
	token      string
	csrf       string
	useCookies bool
}

func (s *testServer) do(method, path string, body any, o reqOpts) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}
	if o.csrf != "" {
		req.Header.Set(session.CSRFHeader, o.csrf)
	}
	if o.useCookies {
		for _, c := range s.cookies {
			req.AddCookie(c)
		}
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if o.useCookies {
		for _, c := range rec.Result().Cookies() {
			s.cookies[c.Name] = c
		}
	}
	return rec
}

func (s *testServer) login(email string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/login", map[string]string{"email": email, "password": service.DemoPassword}, reqOpts{})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var res service.LoginResponse
	decode(s.t, rec, &res)
	require.NotEmpty(s.t, res.Token)
	return res.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

type errorBody struct {
	Status     string              `json:"status"`
	StatusCode int                 `json:"status_code"`
	Message    string              `json:"message"`
	Errors     map[string][]string `json:"errors"`
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", nil, reqOpts{})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/metrics", nil, reqOpts{})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `rbac_http_requests_total{code="200",method="GET",route="/health"} 1`)
}

func TestLoginReturnsTokenAndEffectivePermissions(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/login", map[string]string{"email": "admin@example.com", "password": service.DemoPassword}, reqOpts{})
	require.Equal(t, http.StatusOK, rec.Code)

	var res service.LoginResponse
	decode(t, rec, &res)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "admin@example.com", res.User.Email)
	require.Len(t, res.User.Roles, 1)
	assert.Equal(t, service.RoleAdmin, res.User.Roles[0].Name)
	assert.Len(t, res.User.Permissions, len(service.DefaultPermissions))
	assert.NotContains(t, rec.Body.String(), "password\"")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/login", map[string]string{"email": "admin@example.com", "password": "wrong-password"}, reqOpts{})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "error", body.Status)
	assert.NotEmpty(t, body.Errors["email"])

	rec = s.do(http.MethodPost, "/login", map[string]string{"password": "x"}, reqOpts{})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	decode(t, rec, &body)
	assert.NotEmpty(t, body.Errors["email"])
}

func TestLoginIsRateLimited(t *testing.T) {
	s := newTestServer(t, withLoginLimit(2))
	creds := map[string]string{"email": "admin@example.com", "password": "wrong-password"}

	for i := 0; i < 2; i++ {
		rec := s.do(http.MethodPost, "/login", creds, reqOpts{})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	}
	rec := s.do(http.MethodPost, "/login", creds, reqOpts{})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestProtectedRoutesRequireAuthentication(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/user", "/dashboard", "/profile", "/users", "/roles", "/permissions"} {
		rec := s.do(http.MethodGet, path, nil, reqOpts{})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := s.do(http.MethodGet, "/user", nil, reqOpts{token: "not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Equal(t, "Unauthenticated.", body.Message)
}

func TestPermissionGates(t *testing.T) {
	s := newTestServer(t)
	user := s.login("user@example.com")
	moderator := s.login("moderator@example.com")
	admin := s.login("admin@example.com")

	for _, token := range []string{user, moderator} {
		for _, path := range []string{"/users", "/roles", "/permissions"} {
			rec := s.do(http.MethodGet, path, nil, reqOpts{token: token})
			assert.Equal(t, http.StatusForbidden, rec.Code, path)
		}
		rec := s.do(http.MethodPost, "/permissions", map[string]string{"name": "export-users"}, reqOpts{token: token})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	}

	for _, path := range []string{"/users", "/roles", "/permissions"} {
		rec := s.do(http.MethodGet, path, nil, reqOpts{token: admin})
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestCustomRoleOpensGate(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@example.com")

	rec := s.do(http.MethodPost, "/roles", map[string]any{"name": "auditor", "rank": 20, "permissions": []string{service.PermViewUsers}}, reqOpts{token: admin})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/users", map[string]any{
		"name": "Audit Person", "email": "audit@example.com",
		"password": "secret-pass", "password_confirmation": "secret-pass",
		"role": "auditor",
	}, reqOpts{token: admin})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/login", map[string]string{"email": "audit@example.com", "password": "secret-pass"}, reqOpts{})
	require.Equal(t, http.StatusOK, rec.Code)
	var res service.LoginResponse
	decode(t, rec, &res)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/users", nil, reqOpts{token: res.Token}).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/roles", nil, reqOpts{token: res.Token}).Code)
}

func TestCurrentUserAndProfile(t *testing.T) {
	s := newTestServer(t)
	token := s.login("moderator@example.com")

	rec := s.do(http.MethodGet, "/user", nil, reqOpts{token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	var snap service.UserSnapshot
	decode(t, rec, &snap)
	assert.Equal(t, "Moderator User", snap.Name)
	require.Len(t, snap.Roles, 1)
	assert.Equal(t, service.RoleModerator, snap.Roles[0].Name)
	assert.Empty(t, snap.Permissions)

	rec = s.do(http.MethodGet, "/profile", nil, reqOpts{token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	var profile service.UserResponse
	decode(t, rec, &profile)
	assert.Equal(t, "moderator@example.com", profile.Email)
	assert.NotNil(t, profile.EmailVerifiedAt)
}

func TestDashboardDependsOnPrimaryRole(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		email   string
		present []string
		absent  []string
	}{
		{"admin@example.com", []string{"total_users", "total_roles", "total_permissions", "recent_users"}, []string{"welcome_message", "profile"}},
		{"moderator@example.com", []string{"total_users", "recent_users"}, []string{"total_roles", "total_permissions", "welcome_message"}},
		{"user@example.com", []string{"welcome_message", "profile"}, []string{"total_users", "recent_users"}},
	}
	for _, tc := range cases {
		t.Run(tc.email, func(t *testing.T) {
			rec := s.do(http.MethodGet, "/dashboard", nil, reqOpts{token: s.login(tc.email)})
			require.Equal(t, http.StatusOK, rec.Code)

			var body struct {
				User        map[string]any `json:"user"`
				Stats       map[string]any `json:"stats"`
				Permissions []string       `json:"permissions"`
			}
			decode(t, rec, &body)
			assert.Equal(t, tc.email, body.User["email"])
			assert.NotNil(t, body.Permissions)
			for _, key := range tc.present {
				assert.Contains(t, body.Stats, key)
			}
			for _, key := range tc.absent {
				assert.NotContains(t, body.Stats, key)
			}
		})
	}
}

func TestRoleLifecycle(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@example.com")

	rec := s.do(http.MethodPost, "/roles", map[string]any{"name": "editor", "permissions": []string{service.PermViewUsers, service.PermEditUsers}}, reqOpts{token: admin})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created RoleMessageResponse
	decode(t, rec, &created)
	assert.Equal(t, "Role created successfully", created.Message)
	require.NotNil(t, created.Role)
	assert.Len(t, created.Role.Permissions, 2)
	path := "/roles/" + created.Role.ID.String()

	rec = s.do(http.MethodPut, path, map[string]any{"permissions": []string{}}, reqOpts{token: admin})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated RoleMessageResponse
	decode(t, rec, &updated)
	assert.Equal(t, "editor", updated.Role.Name)
	assert.NotNil(t, updated.Role.Permissions)
	assert.Empty(t, updated.Role.Permissions)

	rec = s.do(http.MethodGet, path, nil, reqOpts{token: admin})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodDelete, path, nil, reqOpts{token: admin})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Role deleted successfully"}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, nil, reqOpts{token: admin}).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/roles/not-a-uuid", nil, reqOpts{token: admin}).Code)
}

func TestRoleCreateRejectsUnknownPermission(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@example.com")

	rec := s.do(http.MethodPost, "/roles", map[string]any{"name": "editor", "permissions": []string{service.PermViewUsers, "launch-rockets"}}, reqOpts{token: admin})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Contains(t, body.Errors, "permissions.1")

	rec = s.do(http.MethodGet, "/roles", nil, reqOpts{token: admin})
	require.Equal(t, http.StatusOK, rec.Code)
	var page RolePage
	decode(t, rec, &page)
	assert.EqualValues(t, 3, page.Total)
}

func TestDuplicatePermissionName(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@example.com")

	rec := s.do(http.MethodPost, "/permissions", map[string]string{"name": service.PermViewUsers}, reqOpts{token: admin})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body errorBody
	decode(t, rec, &body)
	assert.Contains(t, body.Errors, "name")
}

func TestUserListPagination(t *testing.T) {
	s := newTestServer(t)
	admin := s.login("admin@example.com")

	for i := 0; i < 10; i++ {
		rec := s.do(http.MethodPost, "/users", map[string]any{
			"name": fmt.Sprintf("Member %d", i), "email": fmt.Sprintf("member%d@example.com", i),
			"password": "secret-pass", "password_confirmation": "secret-pass",
		}, reqOpts{token: admin})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := s.do(http.MethodGet, "/users?page=2", nil, reqOpts{token: admin})
	require.Equal(t, http.StatusOK, rec.Code)
	var page UserPage
	decode(t, rec, &page)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, 10, page.PerPage)
	assert.EqualValues(t, 13, page.Total)
	assert.Equal(t, 2, page.LastPage)
	assert.Len(t, page.Data, 3)
	require.NotNil(t, page.From)
	assert.Equal(t, 11, *page.From)
	assert.Nil(t, page.NextPageURL)
	require.NotNil(t, page.PrevPageURL)
	assert.Equal(t, "http://example.com/users?page=1", *page.PrevPageURL)
}

func TestLogoutRevokesOnlyCurrentToken(t *testing.T) {
	s := newTestServer(t)
	first := s.login("admin@example.com")
	second := s.login("admin@example.com")

	rec := s.do(http.MethodPost, "/logout", nil, reqOpts{token: first})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Logged out successfully"}`, rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/user", nil, reqOpts{token: first}).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/user", nil, reqOpts{token: second}).Code)
}

func TestSessionAuthentication(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/login", map[string]string{"email": "admin@example.com", "password": service.DemoPassword}, reqOpts{useCookies: true})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, s.cookies, "rbac_session")
	require.Contains(t, s.cookies, xsrfCookie)
	csrfToken := s.cookies[xsrfCookie].Value

	rec = s.do(http.MethodGet, "/user", nil, reqOpts{useCookies: true})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Unsafe methods need the CSRF token.
	rec = s.do(http.MethodPost, "/permissions", map[string]string{"name": "export-users"}, reqOpts{useCookies: true})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodPost, "/permissions", map[string]string{"name": "export-users"}, reqOpts{useCookies: true, csrf: "forged"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodPost, "/permissions", map[string]string{"name": "export-users"}, reqOpts{useCookies: true, csrf: csrfToken})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// A bearer header wins over the session, even when it is invalid.
	rec = s.do(http.MethodGet, "/user", nil, reqOpts{useCookies: true, token: "not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/logout", nil, reqOpts{useCookies: true, csrf: csrfToken})
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEqual(t, csrfToken, s.cookies[xsrfCookie].Value)

	rec = s.do(http.MethodGet, "/user", nil, reqOpts{useCookies: true})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCSRFTokenEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/csrf-token", nil, reqOpts{useCookies: true})
	require.Equal(t, http.StatusOK, rec.Code)
	var first CSRFTokenResponse
	decode(t, rec, &first)
	assert.NotEmpty(t, first.CSRFToken)

	rec = s.do(http.MethodGet, "/csrf-token", nil, reqOpts{useCookies: true})
	require.Equal(t, http.StatusOK, rec.Code)
	var second CSRFTokenResponse
	decode(t, rec, &second)
	assert.Equal(t, first.CSRFToken, second.CSRFToken)
}
