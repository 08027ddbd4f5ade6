package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"appointment-booking-web/internal/middleware"
	"appointment-booking-web/internal/model"
	"appointment-booking-web/internal/view"
)

// Routes builds the router. Session loading, rate limiting and the other
// cross-cutting middleware wrap the returned handler in main.
func (h *Handler) Routes() *httprouter.Router {
	admin := middleware.RequireRole(model.RoleAdmin)
	user := middleware.RequireRole(model.RoleUser)
	anyone := middleware.RequireRole(model.RoleUser, model.RoleAdmin)
	guest := middleware.RedirectIfAuthenticated

	router := httprouter.New()
	router.HandlerFunc(http.MethodGet, "/health", h.Health)
	router.Handler(http.MethodGet, "/static/*filepath", view.Static())
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.fail(w, r, http.StatusNotFound, "Page not found")
	})

	router.GET("/", h.Home)

	// auth
	router.GET("/auth/login", guest(h.authForm(false)))
	router.POST("/auth/login", h.Login)
	router.GET("/auth/register", guest(h.authForm(true)))
	router.POST("/auth/register", h.Register)
	router.POST("/logout", h.Logout)
	router.GET("/forgot-password", h.ForgotForm)
	router.POST("/forgot-password", h.Forgot)
	router.GET("/reset-password", h.ResetForm)
	router.POST("/reset-password", h.Reset)
	router.GET("/verify-email", h.VerifyEmail)

	// session state for scripts
	router.GET("/api/session", h.SessionState)
	router.GET("/ws/session", h.SessionEvents)

	// user
	router.GET("/booking", user(h.BookingPage))
	router.POST("/booking", user(h.Book))
	router.GET("/dashboard", anyone(h.Dashboard))
	router.POST("/appointments/:id/cancel", anyone(h.CancelAppointment))
	router.GET("/dashboard/profile", anyone(h.ProfileForm))
	router.POST("/dashboard/profile", anyone(h.UpdateProfile))

	// admin
	router.GET("/admin", admin(h.AdminHome))
	router.GET("/admin/users", admin(h.Users))
	router.POST("/admin/users", admin(h.SaveUser))
	router.POST("/admin/users/:id/role", admin(h.SetUserRole))
	router.POST("/admin/users/:id/active", admin(h.SetUserActive))
	router.GET("/admin/slots", admin(h.Slots))
	router.POST("/admin/slots", admin(h.AddSlot))
	router.POST("/admin/slots/:id/active", admin(h.SetSlotActive))
	router.POST("/admin/slots/:id/delete", admin(h.DeleteSlot))
	router.POST("/admin/specific-slots", admin(h.AddSpecificSlot))
	router.POST("/admin/specific-slots/:id/delete", admin(h.DeleteSpecificSlot))
	router.GET("/admin/appointments", admin(h.AdminAppointments))
	router.POST("/admin/appointments/:id/cancel", admin(h.AdminCancel))
	router.POST("/admin/appointments/:id/status", admin(h.SetStatus))
	router.GET("/admin/bookings", admin(h.AdminBookingPage))
	router.POST("/admin/bookings", admin(h.AdminBook))
	router.GET("/admin/analytics", admin(h.Analytics))

	return router
}
