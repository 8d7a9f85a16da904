// Package handler exposes the audit trail endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"taskboard/internal/audit"
	"taskboard/internal/platform/middleware"
	"taskboard/internal/transport/http/shared"
	"taskboard/pkg/platform/httputil"
)

// AdminChecker gates the endpoint to administrators.
type AdminChecker interface {
	RequireAdmin(ctx context.Context, userID int64) error
}

type Handler struct {
	logger       *slog.Logger
	trail        *audit.Reconstructor
	admins       AdminChecker
	jwtValidator middleware.JWTValidator
}

func New(trail *audit.Reconstructor, admins AdminChecker, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		trail:        trail,
		admins:       admins,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the audit routes. Reading the trail is admin only.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Get("/audit-logs", h.handleList)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.admins.RequireAdmin(ctx, middleware.GetUserID(ctx)); err != nil {
		h.logger.WarnContext(ctx, "audit listing denied",
			"request_id", middleware.GetRequestID(ctx),
			"user_id", middleware.GetUserID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}

	var filter audit.Filter
	if limit, ok, err := shared.QueryInt(r, "limit"); err != nil {
		httputil.WriteError(w, err)
		return
	} else if ok {
		filter.Limit = int(limit)
	}
	if taskID, ok, err := shared.QueryInt(r, "task_id"); err != nil {
		httputil.WriteError(w, err)
		return
	} else if ok {
		filter.TaskID = &taskID
	}

	entries, err := h.trail.List(ctx, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}
