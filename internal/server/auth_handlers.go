package server

import (
	"errors"
	"net/http"

	"highrise/internal/auth"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if currentUser(r) != nil {
		http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login", map[string]any{"Next": next})
}

func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	next := r.FormValue("next")
	user, err := s.auth.Login(r.Context(), email, r.FormValue("password"))
	if err != nil {
		data := map[string]any{"Email": email, "Next": next}
		var verrs auth.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			data["Errors"] = verrs
			s.render(w, r, http.StatusUnprocessableEntity, "login", data)
		case errors.Is(err, auth.ErrInvalidCredentials):
			data["FormError"] = "Invalid email or password"
			s.render(w, r, http.StatusUnauthorized, "login", data)
		default:
			s.serverError(w, r, err)
		}
		return
	}
	s.signIn(w, r, user)
	s.flash(w, r, Flash{Kind: flashSuccess, Title: "Welcome back", Message: "You have successfully logged in."})
	http.Redirect(w, r, safeNext(next), http.StatusSeeOther)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if currentUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "register", nil)
}

func (s *Server) handleRegisterSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	user, err := s.auth.Register(r.Context(), email, r.FormValue("password"), r.FormValue("confirm_password"))
	if err != nil {
		data := map[string]any{"Email": email}
		var verrs auth.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			data["Errors"] = verrs
			s.render(w, r, http.StatusUnprocessableEntity, "register", data)
		case errors.Is(err, auth.ErrEmailAlreadyRegistered):
			data["FormError"] = "An account with this email already exists"
			s.render(w, r, http.StatusConflict, "register", data)
		default:
			s.serverError(w, r, err)
		}
		return
	}
	s.signIn(w, r, user)
	s.flash(w, r, Flash{Kind: flashSuccess, Title: "Account created", Message: "Your account has been created successfully."})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "forgot_password", nil)
}

func (s *Server) handleForgotPasswordSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	err := s.auth.RequestPasswordReset(r.Context(), email)
	var verrs auth.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		s.render(w, r, http.StatusUnprocessableEntity, "forgot_password", map[string]any{"Email": email, "Errors": verrs})
		return
	case err != nil:
		s.serverError(w, r, err)
		return
	}
	s.flash(w, r, Flash{Kind: flashSuccess, Title: "Email sent", Message: "Check your inbox for password reset instructions."})
	s.render(w, r, http.StatusOK, "forgot_password", map[string]any{"Email": email, "Submitted": true})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.signOut(w, r)
	s.flash(w, r, Flash{Kind: flashInfo, Title: "Signed out", Message: "See you soon."})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
