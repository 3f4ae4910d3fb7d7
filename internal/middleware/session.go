package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"rbac-backend/internal/session"
)

const sessionKey = "session"

// commitWriter saves the session right before the response headers go out, so
// the cookie makes it into the response.
type commitWriter struct {
	gin.ResponseWriter
	commit    func()
	committed bool
}

func (w *commitWriter) ensure() {
	if !w.committed {
		w.committed = true
		w.commit()
	}
}

func (w *commitWriter) WriteHeaderNow() {
	w.ensure()
	w.ResponseWriter.WriteHeaderNow()
}

func (w *commitWriter) Write(data []byte) (int, error) {
	w.ensure()
	return w.ResponseWriter.Write(data)
}

func (w *commitWriter) WriteString(s string) (int, error) {
	w.ensure()
	return w.ResponseWriter.WriteString(s)
}

// LoadSession attaches the browser session to the request and commits it
// when the response is written. A nil manager disables sessions.
func LoadSession(manager *session.Manager, logger *slog.Logger) gin.HandlerFunc {
	if manager == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sess, err := manager.Load(ctx, c.Request)
		if err != nil {
			logger.Error("failed to load session", slog.Any("error", err))
			abort(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.Set(sessionKey, sess)

		w := &commitWriter{ResponseWriter: c.Writer}
		w.commit = func() {
			if err := manager.Commit(ctx, w.ResponseWriter, sess); err != nil {
				logger.Error("failed to commit session", slog.Any("error", err))
			}
		}
		c.Writer = w
		c.Next()
		w.ensure()
	}
}

// CurrentSession returns the request's browser session, or nil when sessions are disabled.
func CurrentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}
