package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"appointment-booking-web/internal/api"
	"appointment-booking-web/internal/model"
)

func server(t *testing.T, h http.HandlerFunc) *api.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return api.New(srv.URL+"/api/", 2*time.Second)
}

func TestLogin(t *testing.T) {
	c := server(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		if in["email"] != "ada@example.com" || in["password"] != "secret1" {
			t.Errorf("body %v", in)
		}
		io.WriteString(w, `{"token":"tok","user":{"id":7,"email":"ada@example.com","role":"admin","active":1}}`)
	})
	got, err := c.Login(context.Background(), "ada@example.com", "secret1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Token != "tok" || got.User.ID != "7" || got.User.Role != model.RoleAdmin || !bool(got.User.Active) {
		t.Errorf("unexpected login %+v", got)
	}
}

func TestLoginWithoutToken(t *testing.T) {
	c := server(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"user":{}}`)
	})
	if _, err := c.Login(context.Background(), "a@b.co", "x"); !errors.Is(err, api.ErrNoToken) {
		t.Errorf("expected ErrNoToken, got %v", err)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"message", 400, `{"message":"Slot already booked"}`, "Slot already booked"},
		{"error field", 409, `{"error":"duplicate"}`, "duplicate"},
		{"html", 502, `<html>bad gateway</html>`, "Error booking appointment"},
		{"empty", 500, ``, "Error booking appointment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := server(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			err := c.Book(context.Background(), "tok", api.Booking{SlotID: "1", Date: "2024-06-01"})
			var apiErr *api.Error
			if !errors.As(err, &apiErr) || apiErr.Status != tt.status {
				t.Fatalf("expected *api.Error with %d, got %v", tt.status, err)
			}
			if got := api.Message(err, "Error booking appointment"); got != tt.want {
				t.Errorf("message %q, want %q", got, tt.want)
			}
		})
	}

	if got := api.Message(errors.New("dial tcp: refused"), "fallback"); got != "fallback" {
		t.Errorf("transport error message %q", got)
	}
}

func TestBearerAndQuery(t *testing.T) {
	c := server(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization %q", got)
		}
		if r.URL.Query().Get("user_id") != "7" {
			t.Errorf("query %q", r.URL.RawQuery)
		}
		io.WriteString(w, `{"appointments":[{"id":1,"date":"2024-06-01","time_slot":"09:00","status":"Pending"}]}`)
	})
	got, err := c.Appointments(context.Background(), "tok", "7")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Status != model.StatusPending || !got[0].Date.DateOnly {
		t.Errorf("unexpected appointments %+v", got)
	}
}

func TestSetActiveSendsZeroOrOne(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []string
	)
	c := server(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, r.Method+" "+r.URL.Path+" "+string(b))
		mu.Unlock()
	})
	ctx := context.Background()
	if err := c.SetUserActive(ctx, "tok", "3", false); err != nil {
		t.Fatal(err)
	}
	if err := c.SetSlotActive(ctx, "tok", "9", true); err != nil {
		t.Fatal(err)
	}
	want := []string{
		`PUT /api/admin/users/3/active {"active":0}`,
		`PUT /api/admin/slots/9/active {"active":1}`,
	}
	mu.Lock()
	defer mu.Unlock()
	for i := range want {
		if i >= len(bodies) || bodies[i] != want[i] {
			t.Errorf("call %d: got %v, want %q", i, bodies, want[i])
		}
	}
}

func TestAdminAppointmentFilters(t *testing.T) {
	c := server(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("status") != "All" {
			t.Errorf("status %q", r.URL.Query().Get("status"))
		}
		io.WriteString(w, `{"appointments":[]}`)
	})
	got, err := c.AllAppointments(context.Background(), "tok", url.Values{"status": {"All"}})
	if err != nil || len(got) != 0 {
		t.Errorf("got %v %v", got, err)
	}
}

func TestUpdateProfileMultipart(t *testing.T) {
	c := server(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/user/profile/7" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("multipart: %v", err)
			return
		}
		if r.FormValue("name") != "Ada" || r.FormValue("telephone") != "555" {
			t.Errorf("fields %v", r.MultipartForm.Value)
		}
		f, _, err := r.FormFile("profile_picture")
		if err != nil {
			t.Errorf("picture: %v", err)
			return
		}
		b, _ := io.ReadAll(f)
		if string(b) != "jpeg-bytes" {
			t.Errorf("picture %q", b)
		}
	})
	err := c.UpdateProfile(context.Background(), "tok", "7", api.ProfileUpdate{
		Name: "Ada", Telephone: "555", Picture: []byte("jpeg-bytes"),
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestAnalyticsShapes(t *testing.T) {
	c := server(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/admin/analytics/booking-trends":
			io.WriteString(w, `{"data":[{"date":"2024-06-01","count":3}]}`)
		case "/api/admin/analytics/popular-time-slots":
			io.WriteString(w, `{"data":[{"time_slot":"09:00 - 10:00","count":5}]}`)
		case "/api/admin/analytics/user-counts":
			io.WriteString(w, `{"totalUsers":10,"emailVerifiedUsers":6,"emailNotVerifiedUsers":4,"newUsers":2}`)
		case "/api/admin/appointment-insights":
			io.WriteString(w, `{"data":{"totalAppointments":9,"upcomingAppointments":1}}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()
	trends, err := c.BookingTrends(ctx, "tok")
	if err != nil || len(trends) != 1 || trends[0].Count != 3 {
		t.Errorf("trends %+v %v", trends, err)
	}
	slots, err := c.PopularTimeSlots(ctx, "tok")
	if err != nil || len(slots) != 1 || slots[0].Count != 5 {
		t.Errorf("slots %+v %v", slots, err)
	}
	counts, err := c.UserCounts(ctx, "tok")
	if err != nil || counts.TotalUsers != 10 || counts.NotVerifiedUsers != 4 {
		t.Errorf("counts %+v %v", counts, err)
	}
	ins, err := c.AppointmentInsights(ctx, "tok")
	if err != nil || ins.Total != 9 || ins.Upcoming != 1 {
		t.Errorf("insights %+v %v", ins, err)
	}
}

func TestContextCancel(t *testing.T) {
	c := server(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Users(ctx, "tok"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestAddSpecificSlotPayload(t *testing.T) {
	bodies := make(chan string, 1)
	c := server(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/admin/slots/specific" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		bodies <- string(b)
	})
	day, err := model.ParseDate("2024-06-01")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.AddSpecificSlot(context.Background(), "tok", model.SpecificSlot{Date: day, TimeSlot: "14:00 - 15:00"}); err != nil {
		t.Fatal(err)
	}
	got := <-bodies
	if want := `{"date":"2024-06-01","time_slot":"14:00 - 15:00"}`; strings.TrimSpace(got) != want {
		t.Errorf("body %s, want %s", got, want)
	}
}
