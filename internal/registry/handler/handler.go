package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"custodia/internal/platform/metrics"
	"custodia/internal/platform/middleware"
	"custodia/internal/registry"
	"custodia/internal/transport/http/shared"
	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// Handler exposes the participant registries over HTTP. Each registry kind is
// addressed by its path segment.
type Handler struct {
	logger       *slog.Logger
	registries   map[string]*registry.Registry
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a registry Handler. The registries map binds path segments such
// as "vendors" and "producers" to their registry instances.
func New(
	registries map[string]*registry.Registry,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		registries:   registries,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the registry routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	registryRouter := chi.NewRouter()
	registryRouter.Use(middleware.Recovery(h.logger))
	registryRouter.Use(middleware.RequestID)
	registryRouter.Use(middleware.RequestTime)
	registryRouter.Use(middleware.Logger(h.logger))
	registryRouter.Use(middleware.Timeout(15 * time.Second))
	registryRouter.Use(middleware.ContentTypeJSON)
	registryRouter.Use(middleware.LatencyMiddleware(h.metrics))
	registryRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	registryRouter.Put("/{kind}/participants/{identity}", h.handleRegister)
	registryRouter.Delete("/{kind}/participants/{identity}", h.handleDeregister)
	registryRouter.Get("/{kind}/participants/{identity}", h.handleStatus)

	r.Mount("/registries", registryRouter)
}

type statusResponse struct {
	Identity string `json:"identity"`
	Active   bool   `json:"active"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	reg, identity, ok := h.target(w, r)
	if !ok {
		return
	}
	caller := middleware.GetCallerIdentity(r.Context())

	if err := reg.Register(r.Context(), caller, identity); err != nil {
		h.writeServiceError(w, r, "failed to register participant", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeregister(w http.ResponseWriter, r *http.Request) {
	reg, identity, ok := h.target(w, r)
	if !ok {
		return
	}
	caller := middleware.GetCallerIdentity(r.Context())

	if err := reg.Deregister(r.Context(), caller, identity); err != nil {
		h.writeServiceError(w, r, "failed to deregister participant", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	reg, identity, ok := h.target(w, r)
	if !ok {
		return
	}

	active, err := reg.IsActive(r.Context(), identity)
	if err != nil {
		h.writeServiceError(w, r, "failed to read participant status", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, statusResponse{
		Identity: identity.String(),
		Active:   active,
	})
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (*registry.Registry, domain.Identity, bool) {
	reg, ok := h.registries[chi.URLParam(r, "kind")]
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown registry kind"))
		return nil, domain.NoIdentity, false
	}
	identity, err := domain.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		shared.WriteError(w, err)
		return nil, domain.NoIdentity, false
	}
	return reg, identity, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg,
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, msg))
		return
	}
	h.logger.WarnContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
	shared.WriteError(w, err)
}
