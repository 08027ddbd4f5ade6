package handler_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"appointment-booking-web/internal/api"
	"appointment-booking-web/internal/auth"
	"appointment-booking-web/internal/handler"
	"appointment-booking-web/internal/model"
	"appointment-booking-web/internal/session"
	"appointment-booking-web/internal/store"
	"appointment-booking-web/internal/view"
)

// backend fakes the booking API with just enough state to round-trip the
// user and admin flows.
type backend struct {
	mu     sync.Mutex
	users  []model.User
	appts  []model.Appointment
	calls  []string
	reject bool
}

func (b *backend) record(r *http.Request, body any) {
	raw, _ := json.Marshal(body)
	b.calls = append(b.calls, r.Method+" "+r.URL.Path+" "+string(raw))
}

func (b *backend) user(id string) *model.User {
	for i := range b.users {
		if b.users[i].ID.String() == id {
			return &b.users[i]
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (b *backend) routes() http.Handler {
	mux := http.NewServeMux()
	guard := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			b.mu.Lock()
			defer b.mu.Unlock()
			if b.reject || !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer tok-") {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token expired"})
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		var in struct{ Email, Password string }
		json.NewDecoder(r.Body).Decode(&in)
		for _, u := range b.users {
			if u.Email == in.Email && in.Password == "secret1" {
				writeJSON(w, http.StatusOK, map[string]any{"token": "tok-" + u.ID.String(), "user": u})
				return
			}
		}
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
	})
	mux.HandleFunc("GET /api/user/profile", guard(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"user": b.user(r.URL.Query().Get("user_id"))})
	}))
	mux.HandleFunc("POST /api/slots", guard(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"slots":[{"id":1,"time_slot":"09:00 - 10:00","status":1}]}`)
	}))
	mux.HandleFunc("GET /api/appointments", guard(func(w http.ResponseWriter, r *http.Request) {
		var mine []model.Appointment
		for _, a := range b.appts {
			if a.UserID.String() == r.URL.Query().Get("user_id") {
				mine = append(mine, a)
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"appointments": mine})
	}))
	mux.HandleFunc("POST /api/appointments", guard(func(w http.ResponseWriter, r *http.Request) {
		var in api.Booking
		json.NewDecoder(r.Body).Decode(&in)
		b.record(r, in)
		day, err := model.ParseDate(in.Date)
		if err != nil || in.SlotID != "1" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Slot not available"})
			return
		}
		u := b.user(in.UserID)
		b.appts = append(b.appts, model.Appointment{
			ID:       model.ID(fmt.Sprint(len(b.appts) + 1)),
			UserID:   model.ID(in.UserID),
			Name:     u.Name,
			Email:    in.Email,
			Date:     day,
			TimeSlot: "09:00 - 10:00",
			Status:   model.StatusPending,
		})
		writeJSON(w, http.StatusCreated, map[string]string{"message": "Appointment booked"})
	}))
	mux.HandleFunc("GET /api/admin/users", guard(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, b.users)
	}))
	mux.HandleFunc("PUT /api/admin/users/{id}/active", guard(func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Active int `json:"active"`
		}
		json.NewDecoder(r.Body).Decode(&in)
		b.record(r, in)
		b.user(r.PathValue("id")).Active = in.Active == 1
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}))
	mux.HandleFunc("PUT /api/admin/users/{id}/role", guard(func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Role model.Role `json:"role"`
		}
		json.NewDecoder(r.Body).Decode(&in)
		b.record(r, in)
		b.user(r.PathValue("id")).Role = in.Role
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	}))
	return mux
}

type app struct {
	t        *testing.T
	h        http.Handler
	sessions *session.Manager
	be       *backend
}

func newApp(t *testing.T) *app {
	t.Helper()
	be := &backend{users: []model.User{
		{ID: "1", Name: "Grace Admin", Email: "grace@example.com", Role: model.RoleAdmin, Active: true, EmailVerified: true},
		{ID: "7", Name: "Ben Booker", Email: "ben@example.com", Role: model.RoleUser, Active: true},
	}}
	srv := httptest.NewServer(be.routes())
	t.Cleanup(srv.Close)

	key, err := auth.DeriveKey("handler-test-secret", "session-cookie")
	if err != nil {
		t.Fatal(err)
	}
	sm := session.NewManager(store.NewMemory(), key, session.Options{TTL: time.Hour})
	v, err := view.New(time.UTC)
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	h := handler.New(api.New(srv.URL+"/api", 2*time.Second), sm, v, time.UTC)
	return &app{t: t, h: sm.Middleware(h.Routes()), sessions: sm, be: be}
}

func (a *app) do(req *http.Request, c *http.Cookie) *httptest.ResponseRecorder {
	if c != nil {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.h.ServeHTTP(rec, req)
	return rec
}

func (a *app) get(path string, c *http.Cookie) *httptest.ResponseRecorder {
	return a.do(httptest.NewRequest(http.MethodGet, path, nil), c)
}

func (a *app) post(path string, form url.Values, c *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req, c)
}

// login signs in through the form and returns the cookie plus the form
// token of the new session.
func (a *app) login(email string) (*http.Cookie, string) {
	a.t.Helper()
	rec := a.post("/auth/login", url.Values{"email": {email}, "password": {"secret1"}}, nil)
	if rec.Code != http.StatusSeeOther {
		a.t.Fatalf("login %s: status %d\n%s", email, rec.Code, rec.Body)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(c)
			s, err := a.sessions.Load(req)
			if err != nil {
				a.t.Fatalf("load session: %v", err)
			}
			return c, s.CSRF
		}
	}
	a.t.Fatal("login set no session cookie")
	return nil, ""
}

func TestLoginRedirectsByRole(t *testing.T) {
	a := newApp(t)
	tests := []struct {
		email string
		want  string
	}{
		{"grace@example.com", "/admin"},
		{"ben@example.com", "/booking"},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			rec := a.post("/auth/login", url.Values{"email": {tt.email}, "password": {"secret1"}}, nil)
			if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != tt.want {
				t.Fatalf("got %d %q, want 303 %q", rec.Code, rec.Header().Get("Location"), tt.want)
			}
		})
	}
}

func TestLoginErrors(t *testing.T) {
	a := newApp(t)
	tests := []struct {
		name     string
		form     url.Values
		contains string
	}{
		{"missing email", url.Values{"password": {"secret1"}}, "Email is required"},
		{"bad email", url.Values{"email": {"nope"}, "password": {"secret1"}}, "Invalid email address"},
		{"short password", url.Values{"email": {"ben@example.com"}, "password": {"abc"}}, "Password must be at least 6 characters"},
		{"rejected", url.Values{"email": {"ben@example.com"}, "password": {"wrong-pass"}}, "Invalid email or password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.post("/auth/login", tt.form, nil)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body missing %q", tt.contains)
			}
		})
	}
}

func TestGuards(t *testing.T) {
	a := newApp(t)
	user, _ := a.login("ben@example.com")
	admin, _ := a.login("grace@example.com")

	tests := []struct {
		name   string
		path   string
		cookie *http.Cookie
		code   int
		loc    string
	}{
		{"anonymous dashboard", "/dashboard", nil, http.StatusFound, "/auth/login"},
		{"anonymous admin", "/admin", nil, http.StatusFound, "/auth/login"},
		{"user on admin page", "/admin/users", user, http.StatusFound, "/auth/login"},
		{"admin on user booking", "/booking", admin, http.StatusFound, "/auth/login"},
		{"signed in user on login", "/auth/login", user, http.StatusFound, "/booking"},
		{"signed in admin on register", "/auth/register", admin, http.StatusFound, "/admin"},
		{"user booking", "/booking", user, http.StatusOK, ""},
		{"admin home", "/admin", admin, http.StatusOK, ""},
		{"public home", "/", nil, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.get(tt.path, tt.cookie)
			if rec.Code != tt.code {
				t.Fatalf("status %d, want %d", rec.Code, tt.code)
			}
			if tt.loc != "" && rec.Header().Get("Location") != tt.loc {
				t.Errorf("location %q, want %q", rec.Header().Get("Location"), tt.loc)
			}
		})
	}
}

func TestBookingShowsUpOnDashboard(t *testing.T) {
	a := newApp(t)
	c, csrf := a.login("ben@example.com")
	day := time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02")

	rec := a.get("/booking?date="+day, c)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "09:00 - 10:00") {
		t.Fatalf("slots page: %d\n%s", rec.Code, rec.Body)
	}

	rec = a.post("/booking", url.Values{"csrf": {csrf}, "date": {day}, "slot_id": {"1"}}, c)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/booking" {
		t.Fatalf("book: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	a.be.mu.Lock()
	call := a.be.calls[len(a.be.calls)-1]
	a.be.mu.Unlock()
	if !strings.Contains(call, `"user_id":"7"`) || !strings.Contains(call, `"email":"ben@example.com"`) {
		t.Errorf("booking sent %s", call)
	}

	body := a.get("/dashboard", c).Body.String()
	for _, want := range []string{"Appointment booked successfully!", `status-pending">Pending</span>`, "09:00 - 10:00"} {
		if !strings.Contains(body, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}

	// the notification is shown once
	if strings.Contains(a.get("/dashboard", c).Body.String(), "Appointment booked successfully!") {
		t.Error("flash rendered twice")
	}
}

func TestBookingValidation(t *testing.T) {
	a := newApp(t)
	c, csrf := a.login("ben@example.com")

	rec := a.post("/booking", url.Values{"csrf": {csrf}, "date": {"2030-01-02"}}, c)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(a.get("/booking", c).Body.String(), "Please select a time slot") {
		t.Error("missing validation message")
	}
	a.be.mu.Lock()
	defer a.be.mu.Unlock()
	if len(a.be.calls) != 0 {
		t.Errorf("backend called: %v", a.be.calls)
	}
}

func TestToggleUserActive(t *testing.T) {
	a := newApp(t)
	c, csrf := a.login("grace@example.com")

	if n := strings.Count(a.get("/admin/users", c).Body.String(), `class="user-status">Inactive<`); n != 0 {
		t.Fatalf("inactive rows before toggle: %d", n)
	}

	rec := a.post("/admin/users/7/active", url.Values{"csrf": {csrf}, "active": {"0"}, "return": {"/admin/users"}}, c)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/users" {
		t.Fatalf("toggle: %d %q", rec.Code, rec.Header().Get("Location"))
	}
	a.be.mu.Lock()
	call := a.be.calls[len(a.be.calls)-1]
	a.be.mu.Unlock()
	if call != `PUT /api/admin/users/7/active {"active":0}` {
		t.Errorf("backend call %s", call)
	}

	body := a.get("/admin/users", c).Body.String()
	if !strings.Contains(body, "User active status updated successfully!") {
		t.Error("missing success notification")
	}
	if n := strings.Count(body, `class="user-status">Inactive<`); n != 1 {
		t.Errorf("inactive rows after toggle: %d", n)
	}

	if body := a.get("/admin/users?tab=Inactive", c).Body.String(); !strings.Contains(body, "ben@example.com") || strings.Contains(body, "grace@example.com") {
		t.Error("inactive tab shows the wrong users")
	}
}

func TestMutationNeedsFormToken(t *testing.T) {
	a := newApp(t)
	c, _ := a.login("grace@example.com")
	rec := a.post("/admin/users/7/active", url.Values{"csrf": {"forged"}, "active": {"0"}}, c)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d", rec.Code)
	}
	a.be.mu.Lock()
	defer a.be.mu.Unlock()
	if !a.be.user("7").Active {
		t.Error("forged request reached the backend")
	}
}

func TestBadFilters(t *testing.T) {
	a := newApp(t)
	user, _ := a.login("ben@example.com")
	admin, _ := a.login("grace@example.com")

	tests := []struct {
		path   string
		cookie *http.Cookie
	}{
		{"/dashboard?tab=Someday", user},
		{"/dashboard?date=2024-13-40", user},
		{"/admin/users?tab=Banned", admin},
		{"/admin/slots?tab=Maybe", admin},
		{"/admin/appointments?status=Lost", admin},
		{"/admin/appointments?tab=Future", admin},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if rec := a.get(tt.path, tt.cookie); rec.Code != http.StatusBadRequest {
				t.Errorf("status %d", rec.Code)
			}
		})
	}
}

func TestRejectedTokenEndsSession(t *testing.T) {
	a := newApp(t)
	c, _ := a.login("ben@example.com")

	a.be.mu.Lock()
	a.be.reject = true
	a.be.mu.Unlock()

	rec := a.get("/dashboard", c)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/auth/login" {
		t.Fatalf("got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if rec := a.get("/dashboard", c); rec.Header().Get("Location") != "/auth/login" {
		t.Error("session survived a rejected token")
	}
}

func TestLogout(t *testing.T) {
	a := newApp(t)
	c, csrf := a.login("ben@example.com")
	rec := a.post("/logout", url.Values{"csrf": {csrf}}, c)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/auth/login" {
		t.Fatalf("got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if rec := a.get("/booking", c); rec.Code != http.StatusFound {
		t.Errorf("booking after logout: %d", rec.Code)
	}
}

func TestOwnRoleChangeReachesOpenPages(t *testing.T) {
	a := newApp(t)
	c, csrf := a.login("grace@example.com")

	srv := httptest.NewServer(a.h)
	defer srv.Close()
	hdr := http.Header{}
	hdr.Add("Cookie", c.Name+"="+c.Value)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/session", hdr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	rec := a.post("/admin/users/1/role", url.Values{"csrf": {csrf}, "role": {"user"}}, c)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("role change: %d", rec.Code)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev struct {
		Event    string `json:"event"`
		Role     string `json:"role"`
		Redirect string `json:"redirect"`
	}
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Event != "role_changed" || ev.Role != "user" || ev.Redirect != "/booking" {
		t.Errorf("event %+v", ev)
	}

	if rec := a.get("/admin", c); rec.Code != http.StatusFound {
		t.Errorf("admin page after demotion: %d", rec.Code)
	}
	var st struct {
		SignedIn bool   `json:"signed_in"`
		Role     string `json:"role"`
	}
	json.NewDecoder(a.get("/api/session", c).Body).Decode(&st)
	if !st.SignedIn || st.Role != "user" {
		t.Errorf("session state %+v", st)
	}
}

func TestNotFoundAndHealth(t *testing.T) {
	a := newApp(t)
	if rec := a.get("/health", nil); rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("health: %d %q", rec.Code, rec.Body)
	}
	if rec := a.get("/nowhere", nil); rec.Code != http.StatusNotFound {
		t.Errorf("not found: %d", rec.Code)
	}
	if rec := a.get("/static/app.css", nil); rec.Code != http.StatusOK {
		t.Errorf("static: %d", rec.Code)
	}
}

// brokenWriter fails every body write, like a client that hung up.
type brokenWriter struct{ *httptest.ResponseRecorder }

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func (w brokenWriter) WriteString(s string) (int, error) { return w.Write([]byte(s)) }

func TestHealthLogsWriteFailure(t *testing.T) {
	var out strings.Builder
	log.SetOutput(&out)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	h := handler.New(nil, nil, nil, time.UTC)
	h.Health(brokenWriter{httptest.NewRecorder()}, httptest.NewRequest(http.MethodGet, "/health", nil))
	if !strings.Contains(out.String(), "health: connection reset") {
		t.Errorf("log output %q", out.String())
	}
}
