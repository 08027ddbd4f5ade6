package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"appointment-booking-web/internal/api"
	"appointment-booking-web/internal/model"
	"appointment-booking-web/internal/session"
	"appointment-booking-web/internal/view"
)

type authPage struct {
	view.Base
	Register bool
	Name     string
	Email    string
	Errors   fieldErrors
	Error    string
	Notice   string
}

func (h *Handler) authForm(register bool) httprouter.Handle {
	title := "Login"
	if register {
		title = "Register"
	}
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.view.Render(w, http.StatusOK, "auth", authPage{Base: h.base(r, title), Register: register})
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	page := authPage{Base: h.base(r, "Login"), Email: email}

	if page.Errors = validateLogin(email, password); page.Errors.Any() {
		h.view.Render(w, http.StatusUnprocessableEntity, "auth", page)
		return
	}
	out, err := h.api.Login(r.Context(), email, password)
	if err != nil {
		log.Printf("login %s: %v", email, err)
		page.Error = api.Message(err, "Something went wrong!")
		h.view.Render(w, http.StatusUnprocessableEntity, "auth", page)
		return
	}
	if old := session.FromContext(r.Context()); old != nil {
		if err := h.sessions.End(r.Context(), w, old); err != nil {
			log.Printf("end previous session: %v", err)
		}
	}
	s, err := h.sessions.Begin(r.Context(), w, out.Token, out.User)
	if err != nil {
		log.Printf("begin session: %v", err)
		page.Error = "Something went wrong!"
		h.view.Render(w, http.StatusUnprocessableEntity, "auth", page)
		return
	}
	h.sessions.Flash(r.Context(), s, model.FlashSuccess, "Login successful!")
	http.Redirect(w, r, s.Role.HomePath(), http.StatusSeeOther)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	reg := api.Registration{
		Name:     strings.TrimSpace(r.PostFormValue("full_name")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	page := authPage{Base: h.base(r, "Register"), Register: true, Name: reg.Name, Email: reg.Email}

	if page.Errors = validateRegister(reg); page.Errors.Any() {
		h.view.Render(w, http.StatusUnprocessableEntity, "auth", page)
		return
	}
	if _, err := h.api.Register(r.Context(), reg); err != nil {
		log.Printf("register %s: %v", reg.Email, err)
		page.Error = api.Message(err, "Something went wrong!")
		h.view.Render(w, http.StatusUnprocessableEntity, "auth", page)
		return
	}
	page.Name, page.Email = "", ""
	page.Notice = "Registration successful! Check your email for verification."
	h.view.Render(w, http.StatusOK, "auth", page)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s, ok := h.form(w, r)
	if !ok {
		return
	}
	if err := h.sessions.End(r.Context(), w, s); err != nil {
		log.Printf("logout: %v", err)
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

type passwordPage struct {
	view.Base
	Email  string
	Token  string
	Errors fieldErrors
	Error  string
	Notice string
}

func (h *Handler) ForgotForm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.view.Render(w, http.StatusOK, "forgot", passwordPage{Base: h.base(r, "Forgot Password")})
}

func (h *Handler) Forgot(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	page := passwordPage{Base: h.base(r, "Forgot Password"), Email: strings.TrimSpace(r.PostFormValue("email")), Errors: fieldErrors{}}
	if checkEmail(page.Errors, page.Email); page.Errors.Any() {
		h.view.Render(w, http.StatusUnprocessableEntity, "forgot", page)
		return
	}
	msg, err := h.api.ForgotPassword(r.Context(), page.Email)
	if err != nil {
		page.Error = api.Message(err, "Something went wrong!")
		h.view.Render(w, http.StatusUnprocessableEntity, "forgot", page)
		return
	}
	if msg == "" {
		msg = "Password reset link sent!"
	}
	page.Email, page.Notice = "", msg
	h.view.Render(w, http.StatusOK, "forgot", page)
}

func (h *Handler) ResetForm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	page := passwordPage{Base: h.base(r, "Reset Password"), Token: r.URL.Query().Get("token")}
	if page.Token == "" {
		page.Error = "Invalid or missing token."
	}
	h.view.Render(w, http.StatusOK, "reset", page)
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	page := passwordPage{Base: h.base(r, "Reset Password"), Token: r.PostFormValue("token")}
	pw, confirm := r.PostFormValue("newPassword"), r.PostFormValue("confirmPassword")
	if page.Errors = validateReset(page.Token, pw, confirm); page.Errors.Any() {
		h.view.Render(w, http.StatusUnprocessableEntity, "reset", page)
		return
	}
	msg, err := h.api.ResetPassword(r.Context(), page.Token, pw)
	if err != nil {
		page.Error = api.Message(err, "Something went wrong!")
		h.view.Render(w, http.StatusUnprocessableEntity, "reset", page)
		return
	}
	if msg == "" {
		msg = "Password reset successful!"
	}
	page.Token, page.Notice = "", msg
	h.view.Render(w, http.StatusOK, "reset", page)
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	page := passwordPage{Base: h.base(r, "Verify Email")}
	token := r.URL.Query().Get("token")
	if token == "" {
		page.Error = "Invalid or missing token."
		h.view.Render(w, http.StatusBadRequest, "verify", page)
		return
	}
	if _, err := h.api.VerifyEmail(r.Context(), token); err != nil {
		page.Error = api.Message(err, "Email verification failed.")
		h.view.Render(w, http.StatusOK, "verify", page)
		return
	}
	page.Notice = "Email verified successfully!"
	h.view.Render(w, http.StatusOK, "verify", page)
}
