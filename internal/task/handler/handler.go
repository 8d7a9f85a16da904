// Package handler exposes the task endpoints.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"taskboard/internal/platform/middleware"
	"taskboard/internal/task"
	taskservice "taskboard/internal/task/service"
	"taskboard/internal/transport/http/shared"
	dErrors "taskboard/pkg/domain-errors"
	"taskboard/pkg/platform/httputil"
)

type Handler struct {
	logger       *slog.Logger
	tasks        *taskservice.Service
	jwtValidator middleware.JWTValidator
}

func New(tasks *taskservice.Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		tasks:        tasks,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the task routes. All of them require authentication.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Get("/tasks", h.handleList)
		r.Post("/tasks", h.handleCreate)
		r.Get("/tasks/{taskID}", h.handleGet)
		r.Put("/tasks/{taskID}", h.handleUpdate)
		r.Delete("/tasks/{taskID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var projectID *int64
	if id, ok, err := shared.QueryInt(r, "project_id"); err != nil {
		httputil.WriteError(w, err)
		return
	} else if ok {
		projectID = &id
	}

	tasks, err := h.tasks.List(ctx, middleware.GetUserID(ctx), projectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if tasks == nil {
		tasks = []task.Response{}
	}
	httputil.WriteJSON(w, http.StatusOK, tasks)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req task.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.tasks.Create(ctx, middleware.GetUserID(ctx), req)
	if err != nil {
		h.logger.WarnContext(ctx, "task create rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskID, err := shared.PathID(r, "taskID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	t, err := h.tasks.Get(ctx, middleware.GetUserID(ctx), taskID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskID, err := shared.PathID(r, "taskID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req task.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	updated, err := h.tasks.Update(ctx, middleware.GetUserID(ctx), taskID, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskID, err := shared.PathID(r, "taskID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.tasks.Delete(ctx, middleware.GetUserID(ctx), taskID); err != nil {
		h.logger.WarnContext(ctx, "task delete rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "task deleted successfully")
}
