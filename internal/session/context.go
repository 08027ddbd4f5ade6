package session

import (
	"context"
	"errors"
	"log"
	"net/http"

	"appointment-booking-web/internal/model"
)

type ctxKey struct{}

func WithSession(ctx context.Context, s *model.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the request's session or nil.
func FromContext(ctx context.Context) *model.Session {
	s, _ := ctx.Value(ctxKey{}).(*model.Session)
	return s
}

// Middleware attaches the session, if any, to every request. A cookie that
// no longer resolves is cleared.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Load(r)
		switch {
		case err == nil:
			r = r.WithContext(WithSession(r.Context(), s))
		case errors.Is(err, ErrNoSession), errors.Is(err, ErrBadCookie):
			if _, cerr := r.Cookie(CookieName); cerr == nil {
				http.SetCookie(w, m.cookie("", -1))
			}
		default:
			log.Printf("session: %v", err)
		}
		next.ServeHTTP(w, r)
	})
}
