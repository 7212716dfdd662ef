package handler

import (
	"net/http"

	"github.com/mcoot/pokearena/internal/api/middleware"
	"github.com/mcoot/pokearena/internal/api/request"
	"github.com/mcoot/pokearena/internal/api/response"
	"github.com/mcoot/pokearena/internal/presence"
	"github.com/mcoot/pokearena/internal/services/auth"
	"github.com/mcoot/pokearena/internal/storage"
)

// PlayerHandler handles registration, sessions and the online list
type PlayerHandler struct {
	authService *auth.Service
	presence    *presence.Service
	storage     storage.Storage
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(authService *auth.Service, presence *presence.Service, storage storage.Storage) *PlayerHandler {
	return &PlayerHandler{
		authService: authService,
		presence:    presence,
		storage:     storage,
	}
}

// Register handles POST /api/v1/players/register
func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	session, user, err := h.authService.Register(r.Context(), req.FirstName, req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	setSessionCookie(w, session)
	response.JSON(w, http.StatusCreated, response.AuthResponseFrom(session, user))
}

// Login handles POST /api/v1/players/login
func (h *PlayerHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, err)
		return
	}

	session, user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	setSessionCookie(w, session)
	response.JSON(w, http.StatusOK, response.AuthResponseFrom(session, user))
}

// Logout handles POST /api/v1/players/logout
func (h *PlayerHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.MustGetSession(r.Context())
	if err := h.authService.Logout(r.Context(), session.Token); err != nil {
		WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	response.NoContent(w)
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.storage.GetUser(r.Context(), middleware.MustGetUserID(r.Context()))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.UserFromModel(user))
}

// Online handles GET /api/v1/players/online
func (h *PlayerHandler) Online(w http.ResponseWriter, r *http.Request) {
	users, err := h.presence.OnlineOthers(r.Context(), middleware.MustGetUserID(r.Context()))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.OnlineUsers{Users: users})
}

func setSessionCookie(w http.ResponseWriter, s *auth.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
