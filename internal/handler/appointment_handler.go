package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"appointment-booking-web/internal/api"
	"appointment-booking-web/internal/listview"
	"appointment-booking-web/internal/model"
	"appointment-booking-web/internal/session"
	"appointment-booking-web/internal/view"
)

type bookingPage struct {
	view.Base
	Date  string
	Today string
	Slots []model.Slot
	Error string
}

// BookingPage lists the slots of the chosen day.
func (h *Handler) BookingPage(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s := session.FromContext(r.Context())
	day := strings.TrimSpace(r.URL.Query().Get("date"))
	if day != "" && !validDay(day) {
		h.badFilter(w, r, listview.ErrBadDate)
		return
	}
	page := bookingPage{Date: day, Today: h.now().In(h.loc).Format("2006-01-02")}
	if day != "" {
		slots, err := h.api.Slots(r.Context(), s.Token, day)
		if err != nil {
			if h.expired(w, r, s, err) {
				return
			}
			page.Error = api.Message(err, "Failed to load slots")
		}
		page.Slots = slots
	}
	page.Base = h.base(r, "Book Appointment")
	h.view.Render(w, http.StatusOK, "booking", page)
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.act(w, r, mutation{
		fallback: "/booking",
		ok:       "Appointment booked successfully!",
		failed:   "Error booking appointment",
		call: func(r *http.Request, s *model.Session) error {
			b := api.Booking{
				UserID: s.UserID,
				Email:  s.Email,
				SlotID: r.PostFormValue("slot_id"),
				Date:   r.PostFormValue("date"),
			}
			if !validDay(b.Date) {
				return invalid("Please select a date")
			}
			if b.SlotID == "" {
				return invalid("Please select a time slot")
			}
			return h.api.Book(r.Context(), s.Token, b)
		},
	})
}

type dashboardPage struct {
	view.Base
	User  *model.User
	Query listview.AppointmentQuery
	Page  listview.Page[model.Appointment]
	Tabs  []listview.AppointmentTab
	Error string
}

// Dashboard shows the profile and the caller's own appointments.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s := session.FromContext(r.Context())
	q, err := listview.ParseAppointmentQuery(r.URL.Query())
	if err != nil {
		h.badFilter(w, r, err)
		return
	}
	page := dashboardPage{Query: q, Tabs: listview.AppointmentTabs()}

	u, err := h.api.Profile(r.Context(), s.Token, s.UserID)
	if err != nil {
		if h.expired(w, r, s, err) {
			return
		}
		log.Printf("profile %s: %v", s.UserID, err)
	}
	page.User = u

	all, err := h.api.Appointments(r.Context(), s.Token, s.UserID)
	if err != nil {
		if h.expired(w, r, s, err) {
			return
		}
		page.Error = api.Message(err, "Failed to load appointments")
	}
	page.Page = listview.Appointments(all, q, h.now(), h.loc)
	page.Base = h.base(r, "Dashboard")
	h.view.Render(w, http.StatusOK, "dashboard", page)
}

func (h *Handler) CancelAppointment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.act(w, r, mutation{
		fallback: "/dashboard",
		ok:       "Appointment canceled successfully!",
		failed:   "Error canceling appointment",
		call: func(r *http.Request, s *model.Session) error {
			return h.api.Cancel(r.Context(), s.Token, ps.ByName("id"))
		},
	})
}

type profilePage struct {
	view.Base
	User  model.User
	Error string
}

func (h *Handler) ProfileForm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s := session.FromContext(r.Context())
	var page profilePage
	u, err := h.api.Profile(r.Context(), s.Token, s.UserID)
	switch {
	case err == nil:
		page.User = *u
	case h.expired(w, r, s, err):
		return
	default:
		page.Error = api.Message(err, "Failed to load profile")
	}
	page.Base = h.base(r, "Edit Profile")
	h.view.Render(w, http.StatusOK, "profile", page)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseMultipartForm(maxPictureSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	s, ok := h.form(w, r)
	if !ok {
		return
	}
	upd := api.ProfileUpdate{
		Name:      strings.TrimSpace(r.PostFormValue("name")),
		Address:   strings.TrimSpace(r.PostFormValue("address")),
		Telephone: strings.TrimSpace(r.PostFormValue("telephone")),
	}
	err := h.updateProfile(r, s, &upd)
	var inv invalid
	switch {
	case err == nil:
		h.sessions.Flash(r.Context(), s, model.FlashSuccess, "Profile updated successfully!")
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	case errors.As(err, &inv):
		h.sessions.Flash(r.Context(), s, model.FlashError, inv.Error())
	case h.expired(w, r, s, err):
		return
	default:
		log.Printf("update profile %s: %v", s.UserID, err)
		h.sessions.Flash(r.Context(), s, model.FlashError, api.Message(err, "Failed to update profile"))
	}
	http.Redirect(w, r, "/dashboard/profile", http.StatusSeeOther)
}

func (h *Handler) updateProfile(r *http.Request, s *model.Session, upd *api.ProfileUpdate) error {
	if upd.Name == "" {
		return invalid("Name is required")
	}
	f, _, err := r.FormFile("profile_picture")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		return err
	default:
		defer f.Close()
		if upd.Picture, err = fitPicture(f); err != nil {
			return err
		}
	}
	return h.api.UpdateProfile(r.Context(), s.Token, s.UserID, *upd)
}
