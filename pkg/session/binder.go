package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formwizard/pkg/wizard"
)

const (
	DefaultCookieName = "formwizard.sid"
	DefaultTTL        = 30 * time.Minute
)

// Option configures a Binder.
type Option func(*Binder)

// WithCookieName sets the session cookie name.
func WithCookieName(name string) Option {
	return func(b *Binder) {
		if name != "" {
			b.cookieName = name
		}
	}
}

// WithCookiePath scopes the cookie, typically to the wizard base path.
func WithCookiePath(path string) Option {
	return func(b *Binder) {
		if path != "" {
			b.cookiePath = path
		}
	}
}

// WithSecureCookie marks the cookie Secure.
func WithSecureCookie(secure bool) Option {
	return func(b *Binder) {
		b.secure = secure
	}
}

// WithTTL sets how long an idle session is kept. It is also the cookie
// Max-Age.
func WithTTL(ttl time.Duration) Option {
	return func(b *Binder) {
		if ttl > 0 {
			b.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for store diagnostics.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(b *Binder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Binder implements wizard.SessionBinder on top of a Store.
type Binder struct {
	store      Store
	cookieName string
	cookiePath string
	secure     bool
	ttl        time.Duration
	logger     logrus.FieldLogger
	newID      func() string
}

var _ wizard.SessionBinder = (*Binder)(nil)

// NewBinder returns a binder persisting to store.
func NewBinder(store Store, opts ...Option) *Binder {
	b := &Binder{
		store:      store,
		cookieName: DefaultCookieName,
		cookiePath: "/",
		ttl:        DefaultTTL,
		logger:     logrus.StandardLogger(),
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Bind loads the session named by the request cookie, starting a new one
// when the cookie is missing, malformed or points at an expired session.
func (b *Binder) Bind(w http.ResponseWriter, r *http.Request) (wizard.Session, error) {
	id, ok := b.sessionID(r)
	snap := wizard.SessionSnapshot{}
	if ok {
		loaded, err := b.store.Load(r.Context(), id)
		switch {
		case err == nil:
			snap = loaded
		case errors.Is(err, ErrNotFound):
			b.logger.WithField("session", id).Debug("session: expired, starting a new one")
			ok = false
		default:
			return nil, fmt.Errorf("session: load %s: %w", id, err)
		}
	}
	if !ok {
		id = b.newID()
	}
	b.setCookie(w, id)

	return wizard.RestoreSession(snap, func(ctx context.Context, s *wizard.MemorySession) error {
		return b.store.Save(ctx, id, s.Snapshot(), b.ttl)
	}), nil
}

// Clear deletes the session of r and expires its cookie.
func (b *Binder) Clear(w http.ResponseWriter, r *http.Request) error {
	id, ok := b.sessionID(r)
	if !ok {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     b.cookieName,
		Value:    "",
		Path:     b.cookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   b.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return b.store.Delete(r.Context(), id)
}

func (b *Binder) sessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(b.cookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	if _, err := uuid.Parse(cookie.Value); err != nil {
		return "", false
	}
	return cookie.Value, true
}

func (b *Binder) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     b.cookieName,
		Value:    id,
		Path:     b.cookiePath,
		MaxAge:   int(b.ttl / time.Second),
		HttpOnly: true,
		Secure:   b.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
