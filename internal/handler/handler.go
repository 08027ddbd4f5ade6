package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"appointment-booking-web/internal/api"
	"appointment-booking-web/internal/auth"
	"appointment-booking-web/internal/listview"
	"appointment-booking-web/internal/model"
	"appointment-booking-web/internal/session"
	"appointment-booking-web/internal/view"
)

type Handler struct {
	api      *api.Client
	sessions *session.Manager
	view     *view.Renderer
	loc      *time.Location
	now      func() time.Time
}

func New(c *api.Client, sm *session.Manager, v *view.Renderer, loc *time.Location) *Handler {
	return &Handler{api: c, sessions: sm, view: v, loc: loc, now: time.Now}
}

// base collects the shared page data and consumes pending notifications.
func (h *Handler) base(r *http.Request, title string) view.Base {
	b := view.Base{Title: title, Return: r.URL.RequestURI()}
	s := session.FromContext(r.Context())
	if s == nil {
		return b
	}
	b.Role, b.Email, b.CSRF = s.Role, s.Email, s.CSRF
	b.Flashes = h.sessions.TakeFlashes(r.Context(), s)
	return b
}

type errorPage struct {
	view.Base
	Status  int
	Message string
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.view.Render(w, status, "error", errorPage{
		Base:    h.base(r, http.StatusText(status)),
		Status:  status,
		Message: msg,
	})
}

// badFilter answers a list request whose query names an unknown tab,
// status or a malformed date.
func (h *Handler) badFilter(w http.ResponseWriter, r *http.Request, err error) {
	msg := "Invalid filter"
	if errors.Is(err, listview.ErrBadDate) || errors.Is(err, listview.ErrUnknownFilter) {
		msg = err.Error()
	}
	h.fail(w, r, http.StatusBadRequest, msg)
}

// expired ends the session when the backend rejected its token. It
// reports whether the response has been written.
func (h *Handler) expired(w http.ResponseWriter, r *http.Request, s *model.Session, err error) bool {
	if !api.IsUnauthorized(err) {
		return false
	}
	if err := h.sessions.End(r.Context(), w, s); err != nil {
		log.Printf("end session: %v", err)
	}
	http.Redirect(w, r, "/auth/login", http.StatusFound)
	return true
}

// form parses a posted form and checks its CSRF token against the session.
func (h *Handler) form(w http.ResponseWriter, r *http.Request) (*model.Session, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return nil, false
	}
	s := session.FromContext(r.Context())
	if s == nil || !auth.CheckCSRF(s.CSRF, r.PostFormValue("csrf")) {
		http.Error(w, "invalid form token", http.StatusForbidden)
		return nil, false
	}
	return s, true
}

// back is where a mutation redirects: the list view that posted it, or
// fallback when the form carries no usable local path.
func back(r *http.Request, fallback string) string {
	ret := r.PostFormValue("return")
	if strings.HasPrefix(ret, "/") && !strings.HasPrefix(ret, "//") && !strings.HasPrefix(ret, "/\\") {
		return ret
	}
	return fallback
}

type mutation struct {
	fallback string // redirect target without a return field
	ok       string
	failed   string
	call     func(r *http.Request, s *model.Session) error
}

// act runs one backend mutation for a posted form, records the outcome as
// a notification and redirects to the owning list, which then fetches
// everything again.
func (h *Handler) act(w http.ResponseWriter, r *http.Request, m mutation) {
	s, ok := h.form(w, r)
	if !ok {
		return
	}
	var inv invalid
	err := m.call(r, s)
	switch {
	case errors.As(err, &inv):
		h.sessions.Flash(r.Context(), s, model.FlashError, inv.Error())
	case err != nil:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		if h.expired(w, r, s, err) {
			return
		}
		h.sessions.Flash(r.Context(), s, model.FlashError, api.Message(err, m.failed))
	default:
		h.sessions.Flash(r.Context(), s, model.FlashSuccess, m.ok)
	}
	http.Redirect(w, r, back(r, m.fallback), http.StatusSeeOther)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if _, err := io.WriteString(w, "ok"); err != nil {
		log.Printf("health: %v", err)
	}
}
