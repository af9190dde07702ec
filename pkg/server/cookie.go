package server

import (
	"net/http"

	"github.com/vango-dev/chrono/pkg/session"
)

func sessionIDFromCookie(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// session resolves the request's session, creating one and setting the
// cookie when needed.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, error) {
	id := sessionIDFromCookie(r)
	sess, _, err := s.sessions.GetOrCreate(id)
	if err != nil {
		return nil, err
	}
	if sess.ID != id {
		http.SetCookie(w, s.sessionCookie(sess.ID))
	}
	return sess, nil
}

func (s *Server) sessionCookie(id string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.config.CookieMaxAge.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.config.SecureCookies,
	}
}
