package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	"appointment-booking-web/internal/model"
)

// Slots lists the bookable slots for a calendar day (YYYY-MM-DD).
func (c *Client) Slots(ctx context.Context, token, day string) ([]model.Slot, error) {
	var out struct {
		Slots []model.Slot `json:"slots"`
	}
	if err := c.do(ctx, http.MethodPost, "/slots", token, nil, map[string]string{"date": day}, &out); err != nil {
		return nil, err
	}
	return out.Slots, nil
}

type Booking struct {
	UserID string `json:"user_id,omitempty"`
	SlotID string `json:"slot_id"`
	Date   string `json:"date"`
	Email  string `json:"email"`
}

func (c *Client) Book(ctx context.Context, token string, b Booking) error {
	return c.do(ctx, http.MethodPost, "/appointments", token, nil, b, nil)
}

func (c *Client) Appointments(ctx context.Context, token, userID string) ([]model.Appointment, error) {
	var out struct {
		Appointments []model.Appointment `json:"appointments"`
	}
	q := url.Values{"user_id": {userID}}
	if err := c.do(ctx, http.MethodGet, "/appointments", token, q, nil, &out); err != nil {
		return nil, err
	}
	return out.Appointments, nil
}

// Cancel cancels one of the caller's own appointments.
func (c *Client) Cancel(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodPut, "/appointments/"+url.PathEscape(id), token, nil, nil, nil)
}

func (c *Client) Profile(ctx context.Context, token, userID string) (*model.User, error) {
	var out struct {
		User model.User `json:"user"`
	}
	q := url.Values{"user_id": {userID}}
	if err := c.do(ctx, http.MethodGet, "/user/profile", token, q, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

type ProfileUpdate struct {
	Name      string
	Address   string
	Telephone string
	// Picture is an encoded JPEG; nil keeps the current picture.
	Picture []byte
}

// UpdateProfile sends the profile form as multipart, the only non-JSON call.
func (c *Client) UpdateProfile(ctx context.Context, token, userID string, p ProfileUpdate) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{{"name", p.Name}, {"address", p.Address}, {"telephone", p.Telephone}}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("profile form: %w", err)
		}
	}
	if p.Picture != nil {
		fw, err := mw.CreateFormFile("profile_picture", "profile.jpg")
		if err != nil {
			return fmt.Errorf("profile form: %w", err)
		}
		if _, err := fw.Write(p.Picture); err != nil {
			return fmt.Errorf("profile form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("profile form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/user/profile/"+url.PathEscape(userID), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req, token, nil)
}
