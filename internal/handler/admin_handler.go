package handler

import (
	"net/http"
	"slices"
	"strings"

	"github.com/julienschmidt/httprouter"

	"appointment-booking-web/internal/analytics"
	"appointment-booking-web/internal/api"
	"appointment-booking-web/internal/listview"
	"appointment-booking-web/internal/model"
	"appointment-booking-web/internal/session"
	"appointment-booking-web/internal/view"
)

func (h *Handler) Home(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if r.URL.Path != "/" {
		h.fail(w, r, http.StatusNotFound, "Page not found")
		return
	}
	h.view.Render(w, http.StatusOK, "home", h.base(r, "Appointment Booking"))
}

func (h *Handler) AdminHome(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.view.Render(w, http.StatusOK, "admin", h.base(r, "Admin Dashboard"))
}

type usersPage struct {
	view.Base
	Query listview.UserQuery
	Page  listview.Page[model.User]
	Tabs  []listview.UserTab
	Roles []model.Role
	// Edit is the user whose details fill the form, nil when adding.
	Edit  *model.User
	Error string
}

// ListURL is the current page of the list without the edit selection.
func (p usersPage) ListURL() string {
	return "/admin/users" + p.Query.PageURL(p.Page.Number)
}

func (h *Handler) Users(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s := session.FromContext(r.Context())
	q, err := listview.ParseUserQuery(r.URL.Query())
	if err != nil {
		h.badFilter(w, r, err)
		return
	}
	page := usersPage{Query: q, Tabs: listview.UserTabs(), Roles: []model.Role{model.RoleUser, model.RoleAdmin}}

	all, err := h.api.Users(r.Context(), s.Token)
	if err != nil {
		if h.expired(w, r, s, err) {
			return
		}
		page.Error = api.Message(err, "Failed to fetch users")
	}
	if id := r.URL.Query().Get("edit"); id != "" {
		for i := range all {
			if all[i].ID.String() == id {
				page.Edit = &all[i]
				break
			}
		}
	}
	page.Page = listview.Users(all, q)
	page.Base = h.base(r, "User Management")
	h.view.Render(w, http.StatusOK, "users", page)
}

func (h *Handler) SaveUser(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	editing := r.PostFormValue("id")
	m := mutation{fallback: "/admin/users", ok: "User added successfully", failed: "Failed to save user"}
	if editing != "" {
		m.ok = "User updated successfully"
	}
	m.call = func(r *http.Request, s *model.Session) error {
		u := api.UserForm{
			Name:      strings.TrimSpace(r.PostFormValue("name")),
			Email:     strings.TrimSpace(r.PostFormValue("email")),
			Password:  r.PostFormValue("password"),
			Address:   strings.TrimSpace(r.PostFormValue("address")),
			Telephone: strings.TrimSpace(r.PostFormValue("telephone")),
		}
		if raw := r.PostFormValue("role"); raw != "" {
			role, err := model.ParseRole(raw)
			if err != nil {
				return invalid("Unknown role")
			}
			u.Role = role
		}
		existing, err := h.api.Users(r.Context(), s.Token)
		if err != nil {
			return err
		}
		if err := validateUser(u, editing, existing); err != nil {
			return err
		}
		if editing != "" {
			return h.api.UpdateUser(r.Context(), s.Token, editing, u)
		}
		return h.api.AddUser(r.Context(), s.Token, u)
	}
	h.act(w, r, m)
}

func (h *Handler) SetUserRole(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.act(w, r, mutation{
		fallback: "/admin/users",
		ok:       "User role updated",
		failed:   "Failed to update role",
		call: func(r *http.Request, s *model.Session) error {
			role, err := model.ParseRole(r.PostFormValue("role"))
			if err != nil {
				return invalid("Unknown role")
			}
			id := ps.ByName("id")
			if err := h.api.SetUserRole(r.Context(), s.Token, id, role); err != nil {
				return err
			}
			if id == s.UserID {
				return h.sessions.SetRole(r.Context(), s, role)
			}
			return nil
		},
	})
}

// parseFlag reads a 0/1 form value.
func parseFlag(s string) (model.Flag, error) {
	switch s {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, invalid("Invalid active value")
}

func (h *Handler) SetUserActive(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.act(w, r, mutation{
		fallback: "/admin/users",
		ok:       "User active status updated successfully!",
		failed:   "Failed to update active status",
		call: func(r *http.Request, s *model.Session) error {
			active, err := parseFlag(r.PostFormValue("active"))
			if err != nil {
				return err
			}
			return h.api.SetUserActive(r.Context(), s.Token, ps.ByName("id"), active)
		},
	})
}

type slotsPage struct {
	view.Base
	Query listview.SlotQuery
	Page  listview.Page[model.Slot]
	Tabs  []listview.SlotTab
	Today string
	// Day and DaySlots show what is bookable on one date, which is where
	// specific slots can be removed.
	Day      string
	DaySlots []model.Slot
	Error    string
}

func (h *Handler) Slots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s := session.FromContext(r.Context())
	q, err := listview.ParseSlotQuery(r.URL.Query())
	if err != nil {
		h.badFilter(w, r, err)
		return
	}
	day := strings.TrimSpace(r.URL.Query().Get("day"))
	if day != "" && !validDay(day) {
		h.badFilter(w, r, listview.ErrBadDate)
		return
	}
	page := slotsPage{Query: q, Tabs: listview.SlotTabs(), Today: h.now().In(h.loc).Format("2006-01-02"), Day: day}

	all, err := h.api.DefaultSlots(r.Context(), s.Token)
	if err != nil {
		if h.expired(w, r, s, err) {
			return
		}
		page.Error = api.Message(err, "Failed to fetch default slots")
	}
	if day != "" {
		if page.DaySlots, err = h.api.Slots(r.Context(), s.Token, day); err != nil {
			page.Error = api.Message(err, "Failed to load slots")
		}
	}
	page.Page = listview.Slots(all, q)
	page.Base = h.base(r, "Slot Management")
	h.view.Render(w, http.StatusOK, "slots", page)
}

func (h *Handler) AddSlot(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.act(w, r, mutation{
		fallback: "/admin/slots",
		ok:       "Default slot added successfully",
		failed:   "Failed to add default slot",
		call: func(r *http.Request, s *model.Session) error {
			slot := strings.TrimSpace(r.PostFormValue("time_slot"))
			if slot == "" {
				return invalid("Please enter a time slot")
			}
			return h.api.AddDefaultSlot(r.Context(), s.Token, slot)
		},
	})
}

func (h *Handler) SetSlotActive(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	active, err := parseFlag(r.PostFormValue("active"))
	m := mutation{fallback: "/admin/slots", ok: "Slot was Inactive successfully!", failed: "Failed to update active status"}
	if active {
		m.ok = "Slot was Active successfully!"
	}
	m.call = func(r *http.Request, s *model.Session) error {
		if err != nil {
			return err
		}
		return h.api.SetSlotActive(r.Context(), s.Token, ps.ByName("id"), active)
	}
	h.act(w, r, m)
}

func (h *Handler) DeleteSlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.act(w, r, mutation{
		fallback: "/admin/slots",
		ok:       "Slot deleted successfully!",
		failed:   "Error deleting slot.",
		call: func(r *http.Request, s *model.Session) error {
			return h.api.DeleteDefaultSlot(r.Context(), s.Token, ps.ByName("id"))
		},
	})
}

func (h *Handler) AddSpecificSlot(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.act(w, r, mutation{
		fallback: "/admin/slots",
		ok:       "Specific slot added successfully",
		failed:   "Failed to add specific slot",
		call: func(r *http.Request, s *model.Session) error {
			day, err := model.ParseDate(r.PostFormValue("date"))
			if err != nil || !day.DateOnly {
				return invalid("Please select a date")
			}
			slot := model.SpecificSlot{Date: day, TimeSlot: strings.TrimSpace(r.PostFormValue("time_slot"))}
			if slot.TimeSlot == "" {
				return invalid("Please enter a time slot")
			}
			return h.api.AddSpecificSlot(r.Context(), s.Token, slot)
		},
	})
}

func (h *Handler) DeleteSpecificSlot(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.act(w, r, mutation{
		fallback: "/admin/slots",
		ok:       "Slot deleted successfully!",
		failed:   "Error deleting slot.",
		call: func(r *http.Request, s *model.Session) error {
			return h.api.DeleteSpecificSlot(r.Context(), s.Token, ps.ByName("id"))
		},
	})
}

type adminAppointmentsPage struct {
	view.Base
	Query    listview.AdminAppointmentQuery
	Page     listview.Page[model.Appointment]
	Windows  []listview.Window
	Statuses []model.Status
	Error    string
}

func (h *Handler) AdminAppointments(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s := session.FromContext(r.Context())
	q, err := listview.ParseAdminAppointmentQuery(r.URL.Query())
	if err != nil {
		h.badFilter(w, r, err)
		return
	}
	page := adminAppointmentsPage{Query: q, Windows: listview.Windows(), Statuses: model.Statuses}

	all, err := h.api.AllAppointments(r.Context(), s.Token, q.Backend())
	if err != nil {
		if h.expired(w, r, s, err) {
			return
		}
		page.Error = api.Message(err, "Failed to fetch appointments")
	}
	page.Page = listview.AdminAppointments(all, q, h.now(), h.loc)
	page.Base = h.base(r, "Appointment Management")
	h.view.Render(w, http.StatusOK, "appointments", page)
}

func (h *Handler) AdminCancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.act(w, r, mutation{
		fallback: "/admin/appointments",
		ok:       "Appointment canceled successfully!",
		failed:   "Error canceling appointment",
		call: func(r *http.Request, s *model.Session) error {
			return h.api.AdminCancel(r.Context(), s.Token, ps.ByName("id"))
		},
	})
}

// SetStatus moves an appointment forward. The posted current status
// decides which targets are allowed.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.act(w, r, mutation{
		fallback: "/admin/appointments",
		ok:       "Appointment status updated successfully!",
		failed:   "Error updating appointment status",
		call: func(r *http.Request, s *model.Session) error {
			next, err := model.ParseStatus(r.PostFormValue("status"))
			if err != nil {
				return invalid("Unknown status")
			}
			if cur, err := model.ParseStatus(r.PostFormValue("current")); err == nil {
				if !slices.Contains(cur.NextStatuses(), next) {
					return invalid("Cannot change a " + string(cur) + " appointment to " + string(next))
				}
			}
			return h.api.SetStatus(r.Context(), s.Token, ps.ByName("id"), next)
		},
	})
}

type adminBookingPage struct {
	view.Base
	Users  []model.User
	UserID string
	Date   string
	Today  string
	Slots  []model.Slot
	Error  string
}

// AdminBookingPage books on behalf of a user: pick the user and a day,
// then one of that day's slots.
func (h *Handler) AdminBookingPage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s := session.FromContext(r.Context())
	day := strings.TrimSpace(r.URL.Query().Get("date"))
	if day != "" && !validDay(day) {
		h.badFilter(w, r, listview.ErrBadDate)
		return
	}
	page := adminBookingPage{UserID: r.URL.Query().Get("user_id"), Date: day, Today: h.now().In(h.loc).Format("2006-01-02")}

	users, err := h.api.Users(r.Context(), s.Token)
	if err != nil {
		if h.expired(w, r, s, err) {
			return
		}
		page.Error = api.Message(err, "Failed to fetch users")
	}
	page.Users = users
	if day != "" {
		if page.Slots, err = h.api.Slots(r.Context(), s.Token, day); err != nil {
			page.Error = api.Message(err, "Failed to load slots")
		}
	}
	page.Base = h.base(r, "Book for a User")
	h.view.Render(w, http.StatusOK, "admin_booking", page)
}

func (h *Handler) AdminBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.act(w, r, mutation{
		fallback: "/admin/appointments",
		ok:       "Appointment booked successfully!",
		failed:   "Error booking appointment",
		call: func(r *http.Request, s *model.Session) error {
			b := api.Booking{
				UserID: r.PostFormValue("user_id"),
				SlotID: r.PostFormValue("slot_id"),
				Date:   r.PostFormValue("date"),
			}
			if b.UserID == "" {
				return invalid("Please select a user")
			}
			if !validDay(b.Date) {
				return invalid("Please select a date")
			}
			if b.SlotID == "" {
				return invalid("Please select a time slot")
			}
			users, err := h.api.Users(r.Context(), s.Token)
			if err != nil {
				return err
			}
			for _, u := range users {
				if u.ID.String() == b.UserID {
					b.Email = u.Email
				}
			}
			if b.Email == "" {
				return invalid("Unknown user")
			}
			return h.api.AdminBook(r.Context(), s.Token, b)
		},
	})
}

type analyticsPage struct {
	view.Base
	analytics.Dashboard
}

func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s := session.FromContext(r.Context())
	d := analytics.Load(r.Context(), h.api, s.Token, h.now(), h.loc)
	page := analyticsPage{Dashboard: d}
	page.Base = h.base(r, "Admin Analytics")
	h.view.Render(w, http.StatusOK, "analytics", page)
}
