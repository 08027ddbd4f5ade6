package listview

import (
	"fmt"
	"hash/fnv"
	"net/url"
	"strconv"
	"strings"
	"time"

	"appointment-booking-web/internal/model"
)

// Pagination links carry the page number together with a fingerprint of the
// filters that produced it. A page number arriving with a different (or no)
// fingerprint belongs to other filters and falls back to page 1.
const (
	pageParam        = "page"
	fingerprintParam = "f"
)

func fingerprint(v url.Values) string {
	h := fnv.New32a()
	h.Write([]byte(v.Encode()))
	return strconv.FormatUint(uint64(h.Sum32()), 36)
}

func pageFrom(v url.Values, filters url.Values) int {
	if v.Get(fingerprintParam) != fingerprint(filters) {
		return 1
	}
	n, err := strconv.Atoi(v.Get(pageParam))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func withPage(filters url.Values, n int) string {
	v := url.Values{}
	for k, vals := range filters {
		v[k] = vals
	}
	v.Set(pageParam, strconv.Itoa(n))
	v.Set(fingerprintParam, fingerprint(filters))
	return "?" + v.Encode()
}

func parseDay(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrBadDate, s)
	}
	return s, nil
}

func setIf(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

// AppointmentQuery is the filter state of a user's own appointment list.
type AppointmentQuery struct {
	Search string
	Tab    AppointmentTab
	Date   string
	Page   int
}

func ParseAppointmentQuery(v url.Values) (AppointmentQuery, error) {
	tab, err := ParseAppointmentTab(v.Get("tab"))
	if err != nil {
		return AppointmentQuery{}, err
	}
	day, err := parseDay(v.Get("date"))
	if err != nil {
		return AppointmentQuery{}, err
	}
	q := AppointmentQuery{Search: strings.TrimSpace(v.Get("q")), Tab: tab, Date: day}
	q.Page = pageFrom(v, q.Values())
	return q, nil
}

// Values encodes the filters, without the page.
func (q AppointmentQuery) Values() url.Values {
	v := url.Values{}
	setIf(v, "q", q.Search)
	if q.Tab != TabAll {
		v.Set("tab", q.Tab.String())
	}
	setIf(v, "date", q.Date)
	return v
}

func (q AppointmentQuery) PageURL(n int) string { return withPage(q.Values(), n) }

// WithTab is the query a tab button links to; the page starts over.
func (q AppointmentQuery) WithTab(t AppointmentTab) string {
	q.Tab = t
	return withPage(q.Values(), 1)
}

// AdminAppointmentQuery is the filter state of the admin appointment list.
type AdminAppointmentQuery struct {
	Window Window
	Status model.Status
	Name   string
	Email  string
	Date   string
	Page   int
}

func ParseAdminAppointmentQuery(v url.Values) (AdminAppointmentQuery, error) {
	w, err := ParseWindow(v.Get("tab"))
	if err != nil {
		return AdminAppointmentQuery{}, err
	}
	st, err := ParseStatusFilter(v.Get("status"))
	if err != nil {
		return AdminAppointmentQuery{}, err
	}
	day, err := parseDay(v.Get("date"))
	if err != nil {
		return AdminAppointmentQuery{}, err
	}
	q := AdminAppointmentQuery{
		Window: w,
		Status: st,
		Name:   strings.TrimSpace(v.Get("name")),
		Email:  strings.TrimSpace(v.Get("email")),
		Date:   day,
	}
	q.Page = pageFrom(v, q.Values())
	return q, nil
}

func (q AdminAppointmentQuery) Values() url.Values {
	v := url.Values{}
	if q.Window != WindowUpcoming {
		v.Set("tab", q.Window.String())
	}
	setIf(v, "status", string(q.Status))
	setIf(v, "name", q.Name)
	setIf(v, "email", q.Email)
	setIf(v, "date", q.Date)
	return v
}

// Backend is the subset of filters the admin endpoint understands.
func (q AdminAppointmentQuery) Backend() url.Values {
	v := url.Values{}
	if q.Status == "" {
		v.Set("status", "All")
	} else {
		v.Set("status", string(q.Status))
	}
	v.Set("name", q.Name)
	v.Set("email", q.Email)
	v.Set("date", q.Date)
	return v
}

func (q AdminAppointmentQuery) PageURL(n int) string { return withPage(q.Values(), n) }

func (q AdminAppointmentQuery) WithWindow(w Window) string {
	q.Window = w
	return withPage(q.Values(), 1)
}

type UserQuery struct {
	Search string
	Tab    UserTab
	Page   int
}

func ParseUserQuery(v url.Values) (UserQuery, error) {
	tab, err := ParseUserTab(v.Get("tab"))
	if err != nil {
		return UserQuery{}, err
	}
	q := UserQuery{Search: strings.TrimSpace(v.Get("q")), Tab: tab}
	q.Page = pageFrom(v, q.Values())
	return q, nil
}

func (q UserQuery) Values() url.Values {
	v := url.Values{}
	setIf(v, "q", q.Search)
	if q.Tab != UserAll {
		v.Set("tab", q.Tab.String())
	}
	return v
}

func (q UserQuery) PageURL(n int) string { return withPage(q.Values(), n) }

func (q UserQuery) WithTab(t UserTab) string {
	q.Tab = t
	return withPage(q.Values(), 1)
}

type SlotQuery struct {
	Search string
	Tab    SlotTab
	Page   int
}

func ParseSlotQuery(v url.Values) (SlotQuery, error) {
	tab, err := ParseSlotTab(v.Get("tab"))
	if err != nil {
		return SlotQuery{}, err
	}
	q := SlotQuery{Search: strings.TrimSpace(v.Get("q")), Tab: tab}
	q.Page = pageFrom(v, q.Values())
	return q, nil
}

func (q SlotQuery) Values() url.Values {
	v := url.Values{}
	setIf(v, "q", q.Search)
	if q.Tab != SlotAll {
		v.Set("tab", q.Tab.String())
	}
	return v
}

func (q SlotQuery) PageURL(n int) string { return withPage(q.Values(), n) }

func (q SlotQuery) WithTab(t SlotTab) string {
	q.Tab = t
	return withPage(q.Values(), 1)
}
