package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbac-backend/internal/authz"
	"rbac-backend/internal/model"
	"rbac-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header  string
		token   string
		present bool
		wantErr bool
	}{
		{"", "", false, false},
		{"Bearer abc", "abc", true, false},
		{"bearer  abc ", "abc", true, false},
		{"Basic abc", "", true, true},
		{"Bearer ", "", true, true},
		{"abc", "", true, true},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			c.Request.Header.Set("Authorization", tc.header)
		}
		token, present, err := BearerToken(c)
		assert.Equal(t, tc.token, token, tc.header)
		assert.Equal(t, tc.present, present, tc.header)
		assert.Equal(t, tc.wantErr, err != nil, tc.header)
	}
}

func gatedRouter(guard *Guard, user *model.User, gate gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/", func(c *gin.Context) {
		if user != nil {
			c.Set(principalKey, &service.Principal{User: user})
		}
		c.Next()
	}, gate, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func serve(r http.Handler) int {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec.Code
}

func TestPermissionGates(t *testing.T) {
	var decisions []authz.Decision
	authorizer := authz.NewAuthorizer(func(_ context.Context, d authz.Decision) { decisions = append(decisions, d) })
	guard := NewGuard(nil, nil, authorizer, slog.New(slog.NewTextHandler(io.Discard, nil)))

	editor := &model.User{
		ID: uuid.New(),
		Roles: []model.Role{{Name: "editor", Rank: 20, Permissions: []model.Permission{
			{ID: uuid.New(), Name: "view-users"},
		}}},
		Permissions: []model.Permission{{ID: uuid.New(), Name: "edit-users"}},
	}

	assert.Equal(t, http.StatusNoContent, serve(gatedRouter(guard, editor, guard.RequirePermission("view-users", "edit-users"))))
	assert.Equal(t, http.StatusForbidden, serve(gatedRouter(guard, editor, guard.RequirePermission("view-users", "delete-users"))))
	assert.Equal(t, http.StatusNoContent, serve(gatedRouter(guard, editor, guard.RequireAnyPermission("delete-users", "edit-users"))))
	assert.Equal(t, http.StatusForbidden, serve(gatedRouter(guard, editor, guard.RequireAnyPermission())))
	assert.Equal(t, http.StatusNoContent, serve(gatedRouter(guard, editor, guard.RequireRole("admin", "editor"))))
	assert.Equal(t, http.StatusForbidden, serve(gatedRouter(guard, editor, guard.RequireRole("admin"))))
	assert.Equal(t, http.StatusUnauthorized, serve(gatedRouter(guard, nil, guard.RequirePermission("view-users"))))

	require.NotEmpty(t, decisions)
	assert.Equal(t, editor.ID.String(), decisions[0].Subject)
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.GET("/", RateLimit(1, time.Minute), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(r))
	assert.Equal(t, http.StatusTooManyRequests, serve(r))

	open := gin.New()
	open.GET("/", RateLimit(0, time.Minute), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, serve(open))
	}
}
