package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/budgetnest/internal/auth"
	"github.com/MrJamesThe3rd/budgetnest/internal/http/respond"
)

type Handler struct {
	svc *auth.Service
}

func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/register", h.register)

	r.Group(func(r chi.Router) {
		r.Use(RequireUser(h.svc))
		r.Post("/logout", h.logout)
		r.Get("/me", h.me)
		r.Post("/welcome/dismiss", h.dismissWelcome)
	})
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	IsNew bool   `json:"isNew"`
}

type sessionResponse struct {
	User      userResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

func toUserResponse(u auth.User) userResponse {
	return userResponse(u)
}

func toSessionResponse(s auth.Session) sessionResponse {
	return sessionResponse{User: toUserResponse(s.User), Token: s.Token, ExpiresAt: s.ExpiresAt}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toSessionResponse(sess))
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sess, err := h.svc.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context()); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Current(r.Context())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	// a token outlives a logout or a switch to another account
	if tok, ok := UserFrom(r.Context()); !ok || !strings.EqualFold(tok.Email, u.Email) {
		http.Error(w, "session no longer valid", http.StatusUnauthorized)
		return
	}

	respond.JSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) dismissWelcome(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DismissWelcome(r.Context()); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
