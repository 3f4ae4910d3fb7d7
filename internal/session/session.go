// Package session keeps browser sessions in Redis behind an opaque cookie and
// binds anti-forgery tokens to them.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Options configures the session cookie.
type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
	SameSite   http.SameSite
	KeyPrefix  string
}

// Manager orchestrates cookie based sessions backed by Redis.
type Manager struct {
	client redis.UniversalClient
	opts   Options
}

// Session holds per-request session data.
type Session struct {
	ID     string
	values map[string]string
	userID string

	// staleID is a previous id whose Redis key must go on commit.
	staleID string
	isNew   bool
	dirty   bool
}

type payload struct {
	Values map[string]string `json:"values"`
	UserID string            `json:"user_id"`
}

// NewManager constructs a Manager.
func NewManager(client redis.UniversalClient, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "rbac_session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Hour
	}
	if opts.SameSite == 0 {
		opts.SameSite = http.SameSiteLaxMode
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "session:"
	}
	return &Manager{client: client, opts: opts}
}

// Load returns the session named by the request cookie, or a fresh one.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.opts.CookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return m.newSession(), nil
		}
		return nil, err
	}

	data, err := m.client.Get(ctx, m.key(cookie.Value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Unknown ids are never adopted; the client gets a new one.
			return m.newSession(), nil
		}
		return nil, err
	}

	var stored payload
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	if stored.Values == nil {
		stored.Values = make(map[string]string)
	}
	return &Session{ID: cookie.Value, values: stored.Values, userID: stored.UserID}, nil
}

// Commit persists the session when it changed and refreshes the cookie.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return nil
	}
	// Untouched new sessions are never stored; bearer clients stay cookie-free.
	if sess.isNew && !sess.dirty && sess.staleID == "" {
		return nil
	}
	if sess.staleID != "" {
		if err := m.client.Del(ctx, m.key(sess.staleID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		sess.staleID = ""
	}

	if sess.dirty {
		data, err := json.Marshal(payload{Values: sess.values, UserID: sess.userID})
		if err != nil {
			return err
		}
		if err := m.client.Set(ctx, m.key(sess.ID), data, m.opts.TTL).Err(); err != nil {
			return err
		}
		sess.dirty, sess.isNew = false, false
	} else if err := m.client.Expire(ctx, m.key(sess.ID), m.opts.TTL).Err(); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: m.opts.SameSite,
		Expires:  time.Now().Add(m.opts.TTL),
		MaxAge:   int(m.opts.TTL.Seconds()),
	})
	return nil
}

// Renew moves the session to a new id, keeping its data. Call it whenever the
// authenticated user changes.
func (m *Manager) Renew(sess *Session) {
	if sess == nil {
		return
	}
	if !sess.isNew && sess.staleID == "" {
		sess.staleID = sess.ID
	}
	sess.ID = newID()
	sess.dirty = true
}

// Invalidate drops all session data and moves it to a new id.
func (m *Manager) Invalidate(sess *Session) {
	if sess == nil {
		return
	}
	m.Renew(sess)
	sess.values = make(map[string]string)
	sess.userID = ""
}

// Set stores a key-value pair.
func (s *Session) Set(key, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
	s.dirty = true
}

// Get retrieves a value.
func (s *Session) Get(key string) string {
	return s.values[key]
}

// SetUser associates the session with a user ID.
func (s *Session) SetUser(id string) {
	s.userID = id
	s.dirty = true
}

// User returns the current user ID.
func (s *Session) User() string {
	return s.userID
}

func (m *Manager) newSession() *Session {
	return &Session{
		ID:     newID(),
		values: make(map[string]string),
		isNew:  true,
	}
}

func (m *Manager) key(id string) string {
	return m.opts.KeyPrefix + id
}

func newID() string {
	return uuid.NewString()
}
