package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rbac-backend/internal/authz"
	"rbac-backend/internal/service"
	"rbac-backend/internal/session"
	"rbac-backend/pkg/response"
)

const principalKey = "principal"

// Guard authenticates requests and enforces role and permission gates.
type Guard struct {
	auth       service.AuthService
	csrf       *session.CSRFManager
	authorizer *authz.Authorizer
	logger     *slog.Logger
}

// NewGuard returns a Guard. csrf may be nil when browser sessions are disabled.
func NewGuard(auth service.AuthService, csrf *session.CSRFManager, authorizer *authz.Authorizer, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{auth: auth, csrf: csrf, authorizer: authorizer, logger: logger}
}

// BearerToken returns the token of an "Authorization: Bearer" header. ok is
// false when there is no Authorization header at all.
func BearerToken(c *gin.Context) (token string, ok bool, err error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false, nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", true, errors.New("invalid authorization format, expected 'Bearer <token>'")
	}
	return strings.TrimSpace(parts[1]), true, nil
}

// Authenticate resolves the caller from a bearer token or, failing that, the
// browser session. The user and its grants are loaded fresh on every request.
// Session callers must send a CSRF token on unsafe methods.
func (g *Guard) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present, err := BearerToken(c)
		if err != nil {
			abort(c, http.StatusUnauthorized, err.Error())
			return
		}
		if present {
			principal, err := g.auth.Authenticate(c.Request.Context(), token)
			if err != nil {
				g.fail(c, err)
				return
			}
			c.Set(principalKey, principal)
			c.Next()
			return
		}

		sess := CurrentSession(c)
		if sess == nil || sess.User() == "" {
			abort(c, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		userID, err := uuid.Parse(sess.User())
		if err != nil {
			abort(c, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		user, err := g.auth.UserByID(c.Request.Context(), userID)
		if err != nil {
			g.fail(c, err)
			return
		}
		if !isSafeMethod(c.Request.Method) {
			if err := g.verifyCSRF(c, sess); err != nil {
				g.logger.Warn("csrf validation failed", slog.String("path", c.Request.URL.Path))
				abort(c, http.StatusForbidden, "CSRF token mismatch.")
				return
			}
		}
		c.Set(principalKey, &service.Principal{User: user})
		c.Next()
	}
}

func (g *Guard) verifyCSRF(c *gin.Context, sess *session.Session) error {
	if g.csrf == nil {
		return session.ErrCSRFTokenMissing
	}
	token := c.GetHeader(session.CSRFHeader)
	if token == "" {
		token = c.GetHeader(session.XSRFHeader)
	}
	return g.csrf.VerifyToken(sess, token)
}

func (g *Guard) fail(c *gin.Context, err error) {
	if errors.Is(err, service.ErrUnauthenticated) {
		abort(c, http.StatusUnauthorized, "Unauthenticated.")
		return
	}
	g.logger.Error("authentication failed", slog.Any("error", err))
	abort(c, http.StatusInternalServerError, "Internal server error")
}

// RequirePermission lets the request through only when the caller holds every
// listed permission.
func (g *Guard) RequirePermission(perms ...string) gin.HandlerFunc {
	return g.require(func(c *gin.Context, grants authz.Grants) bool {
		return g.authorizer.HasAllPermissions(c.Request.Context(), grants, perms...)
	})
}

// RequireAnyPermission lets the request through when the caller holds at least
// one listed permission.
func (g *Guard) RequireAnyPermission(perms ...string) gin.HandlerFunc {
	return g.require(func(c *gin.Context, grants authz.Grants) bool {
		return g.authorizer.HasAnyPermission(c.Request.Context(), grants, perms...)
	})
}

// RequireRole lets the request through when the caller holds any listed role.
func (g *Guard) RequireRole(roles ...string) gin.HandlerFunc {
	return g.require(func(c *gin.Context, grants authz.Grants) bool {
		for _, role := range roles {
			if g.authorizer.HasRole(c.Request.Context(), grants, role) {
				return true
			}
		}
		return false
	})
}

func (g *Guard) require(allowed func(*gin.Context, authz.Grants) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := CurrentPrincipal(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "Unauthenticated.")
			return
		}
		if !allowed(c, authz.FromUser(principal.User)) {
			abort(c, http.StatusForbidden, "This action is unauthorized.")
			return
		}
		c.Next()
	}
}

// CurrentPrincipal returns the caller set by Authenticate.
func CurrentPrincipal(c *gin.Context) (*service.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*service.Principal)
	return p, ok && p != nil && p.User != nil
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, response.Error(status, message))
}
