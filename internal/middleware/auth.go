package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/julienschmidt/httprouter"

	"appointment-booking-web/internal/auth"
	"appointment-booking-web/internal/model"
	"appointment-booking-web/internal/session"
)

const LoginPath = "/auth/login"

// RequireRole lets a request through only when it carries a live backend
// token and one of the given roles. Everything else is redirected to the
// login page before the page renders.
func RequireRole(roles ...model.Role) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			s := session.FromContext(r.Context())
			if s == nil || auth.BackendExpired(s.Token, time.Now()) {
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}
			if !slices.Contains(roles, s.Role) {
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}
			next(w, r, ps)
		}
	}
}

// RedirectIfAuthenticated sends a signed-in visitor of the login and
// register pages to their role's home page.
func RedirectIfAuthenticated(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if s := session.FromContext(r.Context()); s != nil && !auth.BackendExpired(s.Token, time.Now()) {
			http.Redirect(w, r, s.Role.HomePath(), http.StatusFound)
			return
		}
		next(w, r, ps)
	}
}
