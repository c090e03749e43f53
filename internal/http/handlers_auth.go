package http

import (
	"net/http"

	"deductible/internal/auth"
	"deductible/internal/log"
)

const (
	msgLoggedIn           = "Logged in."
	msgInvalidCredentials = "Invalid credentials."
	msgLoggedOut          = "Logged out."
)

type loginPage struct {
	page
	Next string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "login.html", loginPage{
		page: s.newPage(w, r, "Sign in", "login"),
		Next: r.URL.Query().Get("next"),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	next := r.URL.Query().Get("next")
	if v := r.PostForm.Get("next"); v != "" {
		next = v
	}

	if !s.auth.Authenticate(r.PostForm.Get("username"), r.PostForm.Get("password")) {
		logger.WarnContext(r.Context(), "Login failed", log.FieldOperation, log.OpLogin)
		p := s.newPage(w, r, "Sign in", "login")
		p.Flashes = append(p.Flashes, msgInvalidCredentials)
		s.render(w, r, http.StatusUnauthorized, "login.html", loginPage{page: p, Next: next})
		return
	}

	if err := s.auth.Login(w); err != nil {
		s.serverError(w, r, "Session issue failed", err)
		return
	}
	logger.InfoContext(r.Context(), "Login succeeded", log.FieldOperation, log.OpLogin)

	setFlash(w, msgLoggedIn)
	http.Redirect(w, r, auth.SafeNext(next), http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Logout(w)
	setFlash(w, msgLoggedOut)
	http.Redirect(w, r, auth.LoginPath, http.StatusFound)
}
