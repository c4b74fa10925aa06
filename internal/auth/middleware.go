// internal/auth/middleware.go
//
// Request authentication.
// Responsibilities:
//   - Read a bearer token or the auth cookie and resolve the user.
//   - Optional auth decorates the request for guests and users alike.
//   - Required auth rejects requests without a valid token (401 JSON).
//   - Auth and signed anonymous cookies (Secure + SameSite=None in production).

package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const anonCookieName = "mindmatch_anon"

// CurrentUser is placed into request context by the middleware.
type CurrentUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type ctxUserKey struct{}

// FromContext returns the authenticated user, or nil for guests.
func FromContext(ctx context.Context) *CurrentUser {
	u, _ := ctx.Value(ctxUserKey{}).(*CurrentUser)
	return u
}

// WithUser returns ctx carrying u.
func WithUser(ctx context.Context, u *CurrentUser) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, u)
}

// Service bundles users, token signing and cookie settings.
type Service struct {
	Users      *Users
	Signer     *Signer
	CookieName string
	Production bool
}

// Optional decorates requests with user context if a valid JWT is present.
// It never 401s.
func (s *Service) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := s.resolve(r); u != nil {
			r = r.WithContext(WithUser(r.Context(), u))
		}
		next.ServeHTTP(w, r)
	})
}

// Require enforces a valid JWT for a user that still exists.
func (s *Service) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.bearerOrCookie(r) == "" {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		u := s.resolve(r)
		if u == nil {
			http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

func (s *Service) resolve(r *http.Request) *CurrentUser {
	tok := s.bearerOrCookie(r)
	if tok == "" {
		return nil
	}
	claims, err := s.Signer.Parse(tok)
	if err != nil {
		return nil
	}
	u, err := s.Users.FindByID(r.Context(), claims.ID)
	if err != nil {
		return nil
	}
	return &CurrentUser{ID: u.ID, Username: u.Username}
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func (s *Service) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.CookieName); err == nil {
		return c.Value
	}
	return ""
}

func (s *Service) sameSite() http.SameSite {
	if s.Production {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// SetAuthCookie writes the auth token cookie.
func (s *Service) SetAuthCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Production,
		SameSite: s.sameSite(),
		Expires:  exp,
	})
}

// ClearAuthCookie deletes the auth token cookie.
func (s *Service) ClearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Production,
		SameSite: s.sameSite(),
		MaxAge:   -1,
	})
}

// AnonID returns the guest ID from a valid anonymous cookie, or "".
// Cookies that were not issued by this server are ignored.
func (s *Service) AnonID(r *http.Request) string {
	c, err := r.Cookie(anonCookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	id, err := s.Signer.ParseAnon(c.Value)
	if err != nil {
		return ""
	}
	return id
}

// EnsureAnonID returns the caller's guest ID, issuing a signed cookie with a
// fresh ID when there is no valid one.
func (s *Service) EnsureAnonID(w http.ResponseWriter, r *http.Request) string {
	if id := s.AnonID(r); id != "" {
		return id
	}
	id := genID()
	tok, err := s.Signer.SignAnon(id)
	if err != nil {
		log.Error().Err(err).Msg("sign anonymous id")
		return id
	}
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    tok,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.Production,
		SameSite: s.sameSite(),
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}

// PlayerID is the user ID when signed in, otherwise the guest ID.
func (s *Service) PlayerID(w http.ResponseWriter, r *http.Request) (id string, signedIn bool) {
	if u := FromContext(r.Context()); u != nil {
		return u.ID, true
	}
	return s.EnsureAnonID(w, r), false
}

// Owns reports whether the request comes from owner. Guest owners match only
// the verified anonymous cookie, user owners only the signed-in user. An empty
// owner matches everyone.
func (s *Service) Owns(r *http.Request, owner string, anonymous bool) bool {
	if owner == "" {
		return true
	}
	if anonymous {
		return s.AnonID(r) == owner
	}
	u := FromContext(r.Context())
	return u != nil && u.ID == owner
}
