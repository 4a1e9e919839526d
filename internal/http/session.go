package httpx

import (
	"net/http"

	"github.com/google/uuid"

	jwtpkg "github.com/splax/synthteams/pkg/jwt"
)

// visit carries per-request facts from handlers back to the audit log.
type visit struct {
	session string
}

type visitKey struct{}

func visitFrom(req *http.Request) *visit {
	v, _ := req.Context().Value(visitKey{}).(*visit)
	return v
}

// sessionID returns the visitor's session id, issuing a signed cookie for
// new or tampered sessions.
func (r *Router) sessionID(w http.ResponseWriter, req *http.Request) string {
	id := r.cookieSession(req)
	if id == "" {
		id = r.issueSession(w)
	}
	if v := visitFrom(req); v != nil {
		v.session = id
	}
	return id
}

func (r *Router) cookieSession(req *http.Request) string {
	cookie, err := req.Cookie(r.opts.SessionCookie)
	if err != nil || cookie.Value == "" {
		return ""
	}
	claims, err := jwtpkg.Parse(cookie.Value, r.opts.SessionSecret)
	if err != nil {
		r.logger.Debug("session cookie rejected", "error", err)
		return ""
	}
	return claims.SessionID
}

func (r *Router) issueSession(w http.ResponseWriter) string {
	id := uuid.NewString()
	token, err := jwtpkg.GenerateToken(id, r.opts.SessionSecret, r.opts.SessionTTL)
	if err != nil {
		r.logger.Error("session token generation failed", "error", err)
		return id
	}
	http.SetCookie(w, &http.Cookie{
		Name:     r.opts.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(r.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// auditSession prefers the id a handler resolved and falls back to a
// read-only look at the cookie.
func (r *Router) auditSession(req *http.Request, v *visit) string {
	if v != nil && v.session != "" {
		return v.session
	}
	return r.cookieSession(req)
}
