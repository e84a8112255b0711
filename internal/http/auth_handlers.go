package httpapp

import (
	"net/http"
	"strings"
)

// handleRegister godoc
//
//	@Summary		Register a user
//	@Description	Create an account and receive a token. The avatar is derived from the email's gravatar.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			user	body		registerRequest	true	"Account details"
//	@Success		200		{object}	tokenResponse
//	@Failure		400		{object}	errorsResponse	"Validation failed or user already exists"
//	@Failure		429		{object}	rateLimitResponse
//	@Router			/api/users [post]
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.allowRateLimit(w, "register", clientIP(r), s.cfg.RateLimits.LoginPerMinute) {
		return
	}
	var req registerRequest
	if !s.decodeAndCheck(w, r, &req, func() {
		req.Name = strings.TrimSpace(req.Name)
		req.Email = strings.TrimSpace(req.Email)
	}) {
		return
	}

	token, err := s.auth.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// handleMe godoc
//
//	@Summary		Current user
//	@Description	Return the user behind the token, without the password.
//	@Tags			Auth
//	@Produce		json
//	@Security		TokenAuth
//	@Success		200	{object}	model.User
//	@Failure		401	{object}	msgResponse	"Missing or invalid token, or user no longer exists"
//	@Router			/api/auth [get]
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.Me(r.Context(), currentUser(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleLogin godoc
//
//	@Summary		Log in
//	@Description	Exchange email and password for a token. Unknown email and wrong password give the same answer.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			credentials	body		loginRequest	true	"Credentials"
//	@Success		200			{object}	tokenResponse
//	@Failure		400			{object}	errorsResponse	"Validation failed or invalid credentials"
//	@Failure		429			{object}	rateLimitResponse
//	@Router			/api/auth [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.allowRateLimit(w, "login", clientIP(r), s.cfg.RateLimits.LoginPerMinute) {
		return
	}
	var req loginRequest
	if !s.decodeAndCheck(w, r, &req, func() {
		req.Email = strings.TrimSpace(req.Email)
	}) {
		return
	}

	token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}
