// Package handler exposes the project endpoints.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"taskboard/internal/platform/middleware"
	"taskboard/internal/project"
	projectservice "taskboard/internal/project/service"
	"taskboard/internal/transport/http/shared"
	dErrors "taskboard/pkg/domain-errors"
	"taskboard/pkg/platform/httputil"
)

type Handler struct {
	logger       *slog.Logger
	projects     *projectservice.Service
	jwtValidator middleware.JWTValidator
}

func New(projects *projectservice.Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		projects:     projects,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the project routes. All of them require authentication.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Get("/projects", h.handleList)
		r.Post("/projects", h.handleCreate)
		r.Get("/projects/{projectID}", h.handleGet)
		r.Put("/projects/{projectID}", h.handleUpdate)
		r.Delete("/projects/{projectID}", h.handleDelete)
		r.Post("/projects/{projectID}/members", h.handleAddMember)
		r.Delete("/projects/{projectID}/members/{userID}", h.handleRemoveMember)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if projects == nil {
		projects = []project.Project{}
	}
	httputil.WriteJSON(w, http.StatusOK, projects)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req project.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.projects.Create(ctx, middleware.GetUserID(ctx), req)
	if err != nil {
		h.logger.WarnContext(ctx, "project create rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	projectID, err := shared.PathID(r, "projectID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.projects.Get(r.Context(), projectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, err := shared.PathID(r, "projectID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req project.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	updated, err := h.projects.Update(ctx, projectID, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	projectID, err := shared.PathID(r, "projectID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.projects.Delete(r.Context(), projectID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "project deleted")
}

func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, err := shared.PathID(r, "projectID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req project.AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.UserID <= 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "user_id is required"))
		return
	}

	if err := h.projects.AddMember(ctx, projectID, req.UserID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "member added")
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	projectID, err := shared.PathID(r, "projectID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	userID, err := shared.PathID(r, "userID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.projects.RemoveMember(r.Context(), projectID, userID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "member removed")
}
