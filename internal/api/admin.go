package api

import (
	"context"
	"net/http"
	"net/url"

	"appointment-booking-web/internal/model"
)

func (c *Client) Users(ctx context.Context, token string) ([]model.User, error) {
	var out []model.User
	if err := c.do(ctx, http.MethodGet, "/admin/users", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserForm is the admin add/edit payload. An empty password on edit keeps
// the current one.
type UserForm struct {
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Password  string     `json:"password,omitempty"`
	Role      model.Role `json:"role,omitempty"`
	Address   string     `json:"address,omitempty"`
	Telephone string     `json:"telephone,omitempty"`
}

func (c *Client) AddUser(ctx context.Context, token string, u UserForm) error {
	return c.do(ctx, http.MethodPost, "/admin/users", token, nil, u, nil)
}

func (c *Client) UpdateUser(ctx context.Context, token, id string, u UserForm) error {
	return c.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(id), token, nil, u, nil)
}

func (c *Client) SetUserActive(ctx context.Context, token, id string, active model.Flag) error {
	in := map[string]model.Flag{"active": active}
	return c.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(id)+"/active", token, nil, in, nil)
}

func (c *Client) SetUserRole(ctx context.Context, token, id string, role model.Role) error {
	in := map[string]model.Role{"role": role}
	return c.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(id)+"/role", token, nil, in, nil)
}

func (c *Client) DefaultSlots(ctx context.Context, token string) ([]model.Slot, error) {
	var out []model.Slot
	if err := c.do(ctx, http.MethodGet, "/admin/slots", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddDefaultSlot(ctx context.Context, token, timeSlot string) error {
	in := map[string]string{"time_slot": timeSlot}
	return c.do(ctx, http.MethodPost, "/admin/slots", token, nil, in, nil)
}

func (c *Client) DeleteDefaultSlot(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/slots/"+url.PathEscape(id), token, nil, nil, nil)
}

func (c *Client) SetSlotActive(ctx context.Context, token, id string, active model.Flag) error {
	in := map[string]model.Flag{"active": active}
	return c.do(ctx, http.MethodPut, "/admin/slots/"+url.PathEscape(id)+"/active", token, nil, in, nil)
}

func (c *Client) AddSpecificSlot(ctx context.Context, token string, s model.SpecificSlot) error {
	return c.do(ctx, http.MethodPost, "/admin/slots/specific", token, nil, s, nil)
}

func (c *Client) DeleteSpecificSlot(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/slots/specific/"+url.PathEscape(id), token, nil, nil, nil)
}

// AllAppointments fetches every appointment matching the backend-side
// filters (status, name, email, date).
func (c *Client) AllAppointments(ctx context.Context, token string, filters url.Values) ([]model.Appointment, error) {
	var out struct {
		Appointments []model.Appointment `json:"appointments"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/appointments", token, filters, nil, &out); err != nil {
		return nil, err
	}
	return out.Appointments, nil
}

func (c *Client) AdminCancel(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodPut, "/admin/appointments/"+url.PathEscape(id)+"/cancel", token, nil, nil, nil)
}

func (c *Client) SetStatus(ctx context.Context, token, id string, st model.Status) error {
	in := map[string]model.Status{"status": st}
	return c.do(ctx, http.MethodPut, "/admin/appointments/"+url.PathEscape(id)+"/status", token, nil, in, nil)
}

// AdminBook books on behalf of a user.
func (c *Client) AdminBook(ctx context.Context, token string, b Booking) error {
	return c.do(ctx, http.MethodPost, "/admin/appointments/book", token, nil, b, nil)
}

func (c *Client) BookingTrends(ctx context.Context, token string) ([]model.TrendPoint, error) {
	var out struct {
		Data []model.TrendPoint `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/analytics/booking-trends", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) PopularTimeSlots(ctx context.Context, token string) ([]model.SlotCount, error) {
	var out struct {
		Data []model.SlotCount `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/analytics/popular-time-slots", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) UserCounts(ctx context.Context, token string) (model.UserCounts, error) {
	var out model.UserCounts
	err := c.do(ctx, http.MethodGet, "/admin/analytics/user-counts", token, nil, nil, &out)
	return out, err
}

func (c *Client) AppointmentInsights(ctx context.Context, token string) (model.AppointmentInsights, error) {
	var out struct {
		Data model.AppointmentInsights `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, "/admin/appointment-insights", token, nil, nil, &out)
	return out.Data, err
}
