package handler

import (
	"regexp"
	"strings"
	"time"

	"appointment-booking-web/internal/api"
	"appointment-booking-web/internal/model"
)

// invalid is a form problem caught before any backend call.
type invalid string

func (e invalid) Error() string { return string(e) }

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// fieldErrors maps a form field to the first problem found with it.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) Any() bool { return len(f) > 0 }

func checkEmail(f fieldErrors, email string) {
	switch {
	case email == "":
		f.add("email", "Email is required")
	case !emailRe.MatchString(email):
		f.add("email", "Invalid email address")
	}
}

func checkPassword(f fieldErrors, field, pw string) {
	switch {
	case pw == "":
		f.add(field, "Password is required")
	case len(pw) < 6:
		f.add(field, "Password must be at least 6 characters")
	}
}

func validateLogin(email, password string) fieldErrors {
	f := fieldErrors{}
	checkEmail(f, email)
	checkPassword(f, "password", password)
	return f
}

func validateRegister(r api.Registration) fieldErrors {
	f := fieldErrors{}
	switch name := strings.TrimSpace(r.Name); {
	case name == "":
		f.add("full_name", "Full Name is required")
	case len([]rune(name)) < 3:
		f.add("full_name", "Name must be at least 3 characters")
	}
	checkEmail(f, r.Email)
	checkPassword(f, "password", r.Password)
	return f
}

func validateReset(token, pw, confirm string) fieldErrors {
	f := fieldErrors{}
	if token == "" {
		f.add("token", "Invalid or missing token.")
	}
	checkPassword(f, "newPassword", pw)
	if pw != confirm {
		f.add("confirmPassword", "Passwords do not match")
	}
	return f
}

// validateUser checks the admin add/edit form. editing is the id of the
// user being edited, empty when adding; existing is the fetched user list.
func validateUser(u api.UserForm, editing string, existing []model.User) error {
	if strings.TrimSpace(u.Name) == "" || strings.TrimSpace(u.Email) == "" {
		return invalid("Please fill in all required fields")
	}
	if !emailRe.MatchString(u.Email) {
		return invalid("Invalid email format")
	}
	if editing == "" && len(u.Password) < 6 {
		return invalid("Password must be at least 6 characters")
	}
	if editing != "" && u.Password != "" && len(u.Password) < 6 {
		return invalid("Password must be at least 6 characters")
	}
	for _, e := range existing {
		if strings.EqualFold(e.Email, u.Email) && e.ID.String() != editing {
			return invalid("A user with this email already exists")
		}
	}
	return nil
}

// validDay reports whether s is a YYYY-MM-DD calendar date.
func validDay(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
