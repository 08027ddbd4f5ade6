package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownRole   = errors.New("unknown role")
	ErrUnknownStatus = errors.New("unknown status")
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "user":
		return RoleUser, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// HomePath is where a freshly authenticated session of this role lands.
func (r Role) HomePath() string {
	if r == RoleAdmin {
		return "/admin"
	}
	return "/booking"
}

type Status string

const (
	StatusPending   Status = "Pending"
	StatusPaid      Status = "Paid"
	StatusCompleted Status = "Completed"
	StatusCanceled  Status = "Canceled"
)

var Statuses = []Status{StatusPending, StatusPaid, StatusCompleted, StatusCanceled}

func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, nil
	case "paid":
		return StatusPaid, nil
	case "completed":
		return StatusCompleted, nil
	case "canceled", "cancelled":
		return StatusCanceled, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// Final reports whether no further admin action applies.
func (s Status) Final() bool {
	return s == StatusCanceled || s == StatusCompleted
}

// NextStatuses lists the values an admin may move an appointment to.
func (s Status) NextStatuses() []Status {
	switch s {
	case StatusPending:
		return []Status{StatusPending, StatusPaid}
	case StatusPaid:
		return []Status{StatusPaid, StatusCompleted}
	case StatusCompleted, StatusCanceled:
		return nil
	}
	return []Status{StatusPending, StatusPaid, StatusCompleted}
}

type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Role      Role      `json:"role"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CSRF      string    `json:"csrf"`
	Flashes   []Flash   `json:"flashes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type FlashLevel string

const (
	FlashSuccess FlashLevel = "success"
	FlashError   FlashLevel = "error"
	FlashInfo    FlashLevel = "info"
)

type Flash struct {
	Level   FlashLevel `json:"level"`
	Message string     `json:"message"`
}

type Appointment struct {
	ID       ID     `json:"id"`
	UserID   ID     `json:"user_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Date     Date   `json:"date"`
	TimeSlot string `json:"time_slot"`
	Status   Status `json:"status"`
}

type Slot struct {
	ID       ID     `json:"id"`
	TimeSlot string `json:"time_slot"`
	Active   Flag   `json:"status"`
}

// SpecificSlot is a slot offered on one date only.
type SpecificSlot struct {
	ID       ID     `json:"id,omitempty"`
	Date     Date   `json:"date"`
	TimeSlot string `json:"time_slot"`
}

type User struct {
	ID             ID     `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
	Active         Flag   `json:"active"`
	EmailVerified  Flag   `json:"email_verified"`
	Address        string `json:"address,omitempty"`
	Telephone      string `json:"telephone,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

type TrendPoint struct {
	Date  Date `json:"date"`
	Count int  `json:"count"`
}

type SlotCount struct {
	TimeSlot string `json:"time_slot"`
	Count    int    `json:"count"`
}

type UserCounts struct {
	TotalUsers        int `json:"totalUsers"`
	VerifiedUsers     int `json:"emailVerifiedUsers"`
	NotVerifiedUsers  int `json:"emailNotVerifiedUsers"`
	NewUsersLast7Days int `json:"newUsers"`
}

type AppointmentInsights struct {
	Total     int `json:"totalAppointments"`
	Upcoming  int `json:"upcomingAppointments"`
	Pending   int `json:"pendingAppointments"`
	Paid      int `json:"paidAppointments"`
	Completed int `json:"completedAppointments"`
	Canceled  int `json:"canceledAppointments"`
}
