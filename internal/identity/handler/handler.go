// Package handler exposes the identity endpoints: auth, profiles, and role
// administration.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"taskboard/internal/identity"
	identityservice "taskboard/internal/identity/service"
	"taskboard/internal/platform/middleware"
	"taskboard/internal/transport/http/shared"
	dErrors "taskboard/pkg/domain-errors"
	"taskboard/pkg/platform/httputil"
)

type Handler struct {
	logger       *slog.Logger
	identity     *identityservice.Service
	jwtValidator middleware.JWTValidator
}

func New(identity *identityservice.Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		identity:     identity,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the identity routes. Signup and login are public;
// everything else requires authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/signup", h.handleSignup)
	r.Post("/auth/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Get("/auth/me", h.handleMe)
		r.Post("/auth/logout", h.handleLogout)

		r.Get("/profiles", h.handleListProfiles)
		r.Get("/profiles/{profileID}", h.handleGetProfile)
		r.Put("/profiles/{profileID}", h.handleUpdateProfile)

		r.Get("/users", h.handleListUsers)
		r.Put("/users/{userID}/role", h.handleAssignRole)
	})
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req identity.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	resp, err := h.identity.Signup(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "signup rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req identity.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	resp, err := h.identity.Login(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed",
			"request_id", middleware.GetRequestID(ctx),
			"client_ip", middleware.GetClientIP(ctx),
			"device", middleware.GetDeviceName(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := h.identity.Me(ctx, middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.identity.Logout(ctx, middleware.GetTokenID(ctx)); err != nil {
		h.logger.ErrorContext(ctx, "logout failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.identity.ListProfiles(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if profiles == nil {
		profiles = []identity.Profile{}
	}
	httputil.WriteJSON(w, http.StatusOK, profiles)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profileID, err := shared.PathID(r, "profileID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	profile, err := h.identity.GetProfile(r.Context(), profileID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profileID, err := shared.PathID(r, "profileID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	profile, err := h.identity.UpdateUsername(ctx, middleware.GetUserID(ctx), profileID, req.Username)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.identity.ListUsersWithRoles(ctx, middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if users == nil {
		users = []identity.UserWithRole{}
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) handleAssignRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := shared.PathID(r, "userID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req identity.AssignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.identity.AssignRole(ctx, middleware.GetUserID(ctx), userID, req.Role); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"role": req.Role})
}

