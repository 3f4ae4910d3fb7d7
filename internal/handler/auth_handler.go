package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"rbac-backend/internal/middleware"
	"rbac-backend/internal/service"
	"rbac-backend/internal/session"
	"rbac-backend/pkg/response"
)

// xsrfCookie mirrors the session CSRF token for SPA clients that read it from a cookie.
const xsrfCookie = "XSRF-TOKEN"

type AuthHandler struct {
	authService service.AuthService
	sessions    *session.Manager
	csrf        *session.CSRFManager
	guard       *middleware.Guard
	loginLimit  int
	logger      *slog.Logger
}

// NewAuthHandler returns an AuthHandler. sessions and csrf are nil when
// browser sessions are disabled.
func NewAuthHandler(authService service.AuthService, sessions *session.Manager, csrf *session.CSRFManager,
	guard *middleware.Guard, loginLimit int, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		csrf:        csrf,
		guard:       guard,
		loginLimit:  loginLimit,
		logger:      logger,
	}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/login", middleware.RateLimit(h.loginLimit, time.Minute), h.Login)
	router.GET("/csrf-token", h.CSRFToken)

	authed := router.Group("")
	authed.Use(h.guard.Authenticate())
	{
		authed.POST("/logout", h.Logout)
		authed.GET("/user", h.CurrentUser)
	}
}

// Login handles POST /login
// @Summary      Login user
// @Description  Verifies email and password, issues a new bearer token and binds the browser session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest   true  "Login Credentials"
// @Success      200      {object}  service.LoginResponse
// @Failure      422      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	if sess := middleware.CurrentSession(c); sess != nil && h.sessions != nil {
		h.sessions.Renew(sess)
		sess.SetUser(res.User.ID.String())
		if err := h.rotateCSRF(c, sess); err != nil {
			writeError(c, h.logger, err)
			return
		}
	}

	h.logger.Info("user logged in", slog.String("user_id", res.User.ID.String()))
	c.JSON(http.StatusOK, res)
}

// Logout handles POST /logout
// @Summary      Logout
// @Description  Revokes the bearer token used for this request. Session callers get their session destroyed instead (204).
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200      {object}  response.Message
// @Success      204
// @Failure      401      {object}  response.Response
// @Router       /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)

	if principal.TokenID != uuid.Nil {
		if err := h.authService.Logout(c.Request.Context(), principal.TokenID); err != nil {
			writeError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, response.Message{Message: "Logged out successfully"})
		return
	}

	sess := middleware.CurrentSession(c)
	if h.sessions != nil && sess != nil {
		h.sessions.Invalidate(sess)
		if err := h.rotateCSRF(c, sess); err != nil {
			writeError(c, h.logger, err)
			return
		}
	}
	c.Status(http.StatusNoContent)
}

// CurrentUser handles GET /user
// @Summary      Get current user
// @Description  Returns the caller with its roles and effective permissions
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200      {object}  service.UserSnapshot
// @Failure      401      {object}  response.Response
// @Router       /user [get]
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	principal, _ := middleware.CurrentPrincipal(c)
	c.JSON(http.StatusOK, service.Snapshot(principal.User))
}

// CSRFToken handles GET /csrf-token
// @Summary      Get CSRF token
// @Description  Returns the session CSRF token, creating the session when needed
// @Tags         auth
// @Produce      json
// @Success      200      {object}  CSRFTokenResponse
// @Failure      404      {object}  response.Response
// @Router       /csrf-token [get]
func (h *AuthHandler) CSRFToken(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	if sess == nil || h.csrf == nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Sessions are disabled."))
		return
	}
	token, err := h.csrf.EnsureToken(sess)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	h.setXSRFCookie(c, token)
	c.JSON(http.StatusOK, CSRFTokenResponse{CSRFToken: token})
}

func (h *AuthHandler) rotateCSRF(c *gin.Context, sess *session.Session) error {
	if h.csrf == nil {
		return nil
	}
	token, err := h.csrf.Rotate(sess)
	if err != nil {
		return err
	}
	h.setXSRFCookie(c, token)
	return nil
}

func (h *AuthHandler) setXSRFCookie(c *gin.Context, token string) {
	secure := c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https"
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(xsrfCookie, token, 0, "/", "", secure, false)
}
