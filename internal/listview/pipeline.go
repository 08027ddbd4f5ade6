package listview

import (
	"slices"
	"strings"
	"time"

	"appointment-booking-web/internal/model"
)

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// matches is a case-insensitive substring test against any of the fields.
func matches(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

func contains(field, term string) bool {
	return matches(term, field)
}

// newestFirst orders by date descending; undated records sink to the end
// and ties keep their fetched order.
func newestFirst(items []model.Appointment, loc *time.Location) {
	slices.SortStableFunc(items, func(a, b model.Appointment) int {
		switch {
		case a.Date.IsZero() && b.Date.IsZero():
			return 0
		case a.Date.IsZero():
			return 1
		case b.Date.IsZero():
			return -1
		}
		return b.Date.Instant(loc).Compare(a.Date.Instant(loc))
	})
}

func upcoming(a model.Appointment, now time.Time, loc *time.Location) bool {
	return !a.Date.IsZero() && !a.Date.Instant(loc).Before(now)
}

func onDay(a model.Appointment, day string, loc *time.Location) bool {
	return day == "" || a.Date.Civil(loc) == day
}

func (t AppointmentTab) keep(a model.Appointment, now time.Time, loc *time.Location) bool {
	switch t {
	case TabPaid:
		return a.Status == model.StatusPaid
	case TabPending:
		return a.Status == model.StatusPending
	case TabCompleted:
		return a.Status == model.StatusCompleted
	case TabCanceled:
		return a.Status == model.StatusCanceled
	case TabUpcoming:
		return upcoming(a, now, loc)
	case TabOld:
		return !a.Date.IsZero() && !upcoming(a, now, loc)
	}
	return true
}

// Appointments runs a user's own list through search, tab, date, sort and
// pagination. The input slice is not modified.
func Appointments(items []model.Appointment, q AppointmentQuery, now time.Time, loc *time.Location) Page[model.Appointment] {
	out := filter(items, func(a model.Appointment) bool {
		return matches(q.Search, a.Name, a.Email, a.TimeSlot)
	})
	out = filter(out, func(a model.Appointment) bool { return q.Tab.keep(a, now, loc) })
	out = filter(out, func(a model.Appointment) bool { return onDay(a, q.Date, loc) })
	newestFirst(out, loc)
	return Paginate(out, q.Page, AppointmentPageSize)
}

// AdminAppointments is the admin console variant: name and email fields
// and a status select instead of the free text search.
func AdminAppointments(items []model.Appointment, q AdminAppointmentQuery, now time.Time, loc *time.Location) Page[model.Appointment] {
	out := filter(items, func(a model.Appointment) bool {
		return contains(a.Name, q.Name) && contains(a.Email, q.Email)
	})
	out = filter(out, func(a model.Appointment) bool {
		if q.Status != "" && a.Status != q.Status {
			return false
		}
		if q.Window == WindowPast {
			return !a.Date.IsZero() && !upcoming(a, now, loc)
		}
		return upcoming(a, now, loc)
	})
	out = filter(out, func(a model.Appointment) bool { return onDay(a, q.Date, loc) })
	newestFirst(out, loc)
	return Paginate(out, q.Page, AppointmentPageSize)
}

func (t UserTab) keep(u model.User) bool {
	switch t {
	case UserActive:
		return bool(u.Active)
	case UserInactive:
		return !bool(u.Active)
	case UserVerified:
		return bool(u.EmailVerified)
	case UserNotVerified:
		return !bool(u.EmailVerified)
	case UserAdmins:
		return u.Role == model.RoleAdmin
	case UserRegular:
		return u.Role == model.RoleUser
	}
	return true
}

// Users keeps the fetched order; users carry no date.
func Users(items []model.User, q UserQuery) Page[model.User] {
	out := filter(items, func(u model.User) bool {
		return matches(q.Search, u.Name, u.Email) && q.Tab.keep(u)
	})
	return Paginate(out, q.Page, UserPageSize)
}

func (t SlotTab) keep(s model.Slot) bool {
	switch t {
	case SlotActive:
		return bool(s.Active)
	case SlotInactive:
		return !bool(s.Active)
	}
	return true
}

func Slots(items []model.Slot, q SlotQuery) Page[model.Slot] {
	out := filter(items, func(s model.Slot) bool {
		return matches(q.Search, s.TimeSlot) && q.Tab.keep(s)
	})
	return Paginate(out, q.Page, SlotPageSize)
}
