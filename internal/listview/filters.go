package listview

import (
	"errors"
	"fmt"
	"strings"

	"appointment-booking-web/internal/model"
)

var (
	ErrUnknownFilter = errors.New("unknown filter value")
	ErrBadDate       = errors.New("date must be YYYY-MM-DD")
)

// normalize folds case and separators so "Not Verified", "not-verified"
// and "notverified" name the same tab.
func normalize(s string) string {
	r := strings.NewReplacer(" ", "", "-", "", "_", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}

func parseEnum[T ~int](kind, s string, names []string) (T, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	n := normalize(s)
	for i, name := range names {
		if normalize(name) == n {
			return T(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %s %q", ErrUnknownFilter, kind, s)
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("invalid(%d)", i)
	}
	return names[i]
}

// AppointmentTab is the mutually exclusive preset on a user's own list.
type AppointmentTab int

const (
	TabAll AppointmentTab = iota
	TabPaid
	TabPending
	TabCompleted
	TabCanceled
	TabUpcoming
	TabOld
)

var appointmentTabNames = []string{"All", "Paid", "Pending", "Completed", "Canceled", "Upcoming", "Old"}

func AppointmentTabs() []AppointmentTab {
	return []AppointmentTab{TabAll, TabPaid, TabPending, TabCompleted, TabCanceled, TabUpcoming, TabOld}
}

func ParseAppointmentTab(s string) (AppointmentTab, error) {
	if normalize(s) == "cancelled" {
		return TabCanceled, nil
	}
	return parseEnum[AppointmentTab]("tab", s, appointmentTabNames)
}

func (t AppointmentTab) String() string { return enumName(appointmentTabNames, int(t)) }

// Window splits appointments around the current instant.
type Window int

const (
	WindowUpcoming Window = iota
	WindowPast
)

var windowNames = []string{"Upcoming", "Old"}

func Windows() []Window { return []Window{WindowUpcoming, WindowPast} }

func ParseWindow(s string) (Window, error) {
	if normalize(s) == "past" {
		return WindowPast, nil
	}
	return parseEnum[Window]("window", s, windowNames)
}

func (w Window) String() string { return enumName(windowNames, int(w)) }

// ParseStatusFilter maps the status select to a status; the zero Status
// means every status.
func ParseStatusFilter(s string) (model.Status, error) {
	switch normalize(s) {
	case "", "all":
		return "", nil
	}
	st, err := model.ParseStatus(s)
	if err != nil {
		return "", fmt.Errorf("%w: status %q", ErrUnknownFilter, s)
	}
	return st, nil
}

type UserTab int

const (
	UserAll UserTab = iota
	UserActive
	UserInactive
	UserVerified
	UserNotVerified
	UserAdmins
	UserRegular
)

var userTabNames = []string{"All", "Active", "Inactive", "Verified", "Not Verified", "Admin", "User"}

func UserTabs() []UserTab {
	return []UserTab{UserAll, UserActive, UserInactive, UserVerified, UserNotVerified, UserAdmins, UserRegular}
}

func ParseUserTab(s string) (UserTab, error) { return parseEnum[UserTab]("tab", s, userTabNames) }

func (t UserTab) String() string { return enumName(userTabNames, int(t)) }

type SlotTab int

const (
	SlotAll SlotTab = iota
	SlotActive
	SlotInactive
)

var slotTabNames = []string{"All", "Active", "Inactive"}

func SlotTabs() []SlotTab { return []SlotTab{SlotAll, SlotActive, SlotInactive} }

func ParseSlotTab(s string) (SlotTab, error) { return parseEnum[SlotTab]("tab", s, slotTabNames) }

func (t SlotTab) String() string { return enumName(slotTabNames, int(t)) }
