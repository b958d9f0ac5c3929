package server

import (
	"context"
	"encoding/gob"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"highrise/internal/models"
)

const sidKey = "sid"

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Kind    string
	Title   string
	Message string
}

const (
	flashSuccess = "success"
	flashError   = "error"
	flashInfo    = "info"
)

func init() {
	gob.Register(Flash{})
}

type ctxKey int

const (
	userKey ctxKey = iota
	sessionIDKey
)

func currentUser(r *http.Request) *models.User {
	u, _ := r.Context().Value(userKey).(*models.User)
	return u
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionIDKey).(string)
	return id
}

// cookieSession returns the signed cookie session. A cookie that fails
// verification yields a fresh session.
func (s *Server) cookieSession(r *http.Request) *sessions.Session {
	cs, err := s.cookies.Get(r, s.cfg.Server.CookieName)
	if err != nil {
		s.log.Debug("discarding unreadable session cookie", zap.Error(err))
	}
	return cs
}

func (s *Server) save(w http.ResponseWriter, r *http.Request, cs *sessions.Session) {
	if err := cs.Save(r, w); err != nil {
		s.log.Error("save session cookie", zap.Error(err))
	}
}

func (s *Server) flash(w http.ResponseWriter, r *http.Request, f Flash) {
	cs := s.cookieSession(r)
	cs.AddFlash(f)
	s.save(w, r, cs)
}

func (s *Server) popFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	cs := s.cookieSession(r)
	raw := cs.Flashes()
	if len(raw) == 0 {
		return nil
	}
	s.save(w, r, cs)
	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	return out
}

// loadSession resolves the session id in the cookie to a signed-in user.
func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs := s.cookieSession(r)
		sid, _ := cs.Values[sidKey].(string)
		if sid == "" {
			next.ServeHTTP(w, r)
			return
		}
		sess, err := s.sessions.Get(sid)
		if err == nil {
			ctx := context.WithValue(r.Context(), userKey, &sess.User)
			ctx = context.WithValue(ctx, sessionIDKey, sid)
			r = r.WithContext(ctx)
		} else {
			// expired just now, swept earlier, or issued before a restart
			delete(cs.Values, sidKey)
			s.workspaces.dropSession(sid)
			cs.AddFlash(Flash{Kind: flashInfo, Title: "Session expired", Message: "Please sign in again."})
			s.save(w, r, cs)
		}
		next.ServeHTTP(w, r)
	})
}

// signIn starts a session for u, replacing any session the visitor had.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, u *models.User) {
	if old := sessionID(r); old != "" {
		s.sessions.Delete(old)
		s.workspaces.dropSession(old)
	}
	sess := s.sessions.Create(u)
	cs := s.cookieSession(r)
	cs.Values[sidKey] = sess.ID
	s.save(w, r, cs)
	s.log.Info("signed in", zap.String("user", u.ID), zap.String("role", string(u.Role)))
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	if sid := sessionID(r); sid != "" {
		s.sessions.Delete(sid)
		s.workspaces.dropSession(sid)
	}
	cs := s.cookieSession(r)
	delete(cs.Values, sidKey)
	s.save(w, r, cs)
}

// requireAuth sends anonymous visitors to the login page, remembering where
// they were going.
func (s *Server) requireAuth(next func(http.ResponseWriter, *http.Request, *models.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		if user == nil {
			http.Redirect(w, r, loginPath(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next(w, r, user)
	}
}

func (s *Server) requireRole(role models.Role, next func(http.ResponseWriter, *http.Request, *models.User)) func(http.ResponseWriter, *http.Request, *models.User) {
	return func(w http.ResponseWriter, r *http.Request, user *models.User) {
		if user.Role != role {
			s.renderError(w, r, http.StatusForbidden, "You do not have access to this page.")
			return
		}
		next(w, r, user)
	}
}

func loginPath(next string) string {
	return "/auth/login?next=" + url.QueryEscape(next)
}

// safeNext returns next when it is a path on this site, and "/" otherwise.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
