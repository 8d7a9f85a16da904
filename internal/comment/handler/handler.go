// Package handler exposes the comment endpoints.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"taskboard/internal/comment"
	commentservice "taskboard/internal/comment/service"
	"taskboard/internal/platform/middleware"
	"taskboard/internal/transport/http/shared"
	dErrors "taskboard/pkg/domain-errors"
	"taskboard/pkg/platform/httputil"
)

type Handler struct {
	logger       *slog.Logger
	comments     *commentservice.Service
	jwtValidator middleware.JWTValidator
}

func New(comments *commentservice.Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		comments:     comments,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the comment routes. All of them require authentication.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Get("/tasks/{taskID}/comments", h.handleList)
		r.Post("/tasks/{taskID}/comments", h.handleCreate)
		r.Delete("/comments/{commentID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	taskID, err := shared.PathID(r, "taskID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	comments, err := h.comments.ListByTask(r.Context(), taskID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if comments == nil {
		comments = []comment.Response{}
	}
	httputil.WriteJSON(w, http.StatusOK, comments)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskID, err := shared.PathID(r, "taskID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req comment.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	created, err := h.comments.Create(ctx, middleware.GetUserID(ctx), taskID, req)
	if err != nil {
		h.logger.WarnContext(ctx, "comment create rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	commentID, err := shared.PathID(r, "commentID")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.comments.Delete(ctx, middleware.GetUserID(ctx), commentID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "comment deleted")
}
