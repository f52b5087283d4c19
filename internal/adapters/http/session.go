package httpadapter

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const (
	sessionCookieName = "invoicefill_session"
	sessionMaxAge     = 24 * 60 * 60
	sessionUserKey    = "user"
)

// sessionGate is a mock login: any non-empty credentials open a 24h session.
// It marks presence only and is not an authentication boundary.
type sessionGate struct {
	enabled bool
	store   *sessions.CookieStore
}

func newSessionGate(enabled bool, secret string) *sessionGate {
	key := []byte(secret)
	if len(key) == 0 {
		key = securecookie.GenerateRandomKey(32)
		if enabled {
			slog.Warn("session_secret_generated", "hint", "sessions reset on restart; set SESSION_SECRET")
		}
	}
	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &sessionGate{enabled: enabled, store: store}
}

func (g *sessionGate) authenticated(r *http.Request) bool {
	return g.user(r) != ""
}

func (g *sessionGate) user(r *http.Request) string {
	session, err := g.store.Get(r, sessionCookieName)
	if err != nil {
		return ""
	}
	user, _ := session.Values[sessionUserKey].(string)
	return user
}

func (g *sessionGate) login(w http.ResponseWriter, r *http.Request, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return errEmptyCredentials
	}
	// A stale or foreign cookie still yields a fresh session.
	session, _ := g.store.Get(r, sessionCookieName)
	session.Values[sessionUserKey] = username
	return session.Save(r, w)
}

func (g *sessionGate) logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := g.store.Get(r, sessionCookieName)
	delete(session.Values, sessionUserKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
