package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"custodia/internal/ledger"
	"custodia/internal/platform/metrics"
	"custodia/internal/platform/middleware"
	"custodia/internal/purchasability"
	"custodia/internal/supplychain"
	"custodia/internal/transport/http/shared"
	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// Service defines the interface for custody chain operations.
type Service interface {
	RegisterInitialHandover(ctx context.Context, caller domain.Identity, variant ledger.Variant, assetID domain.AssetID, to domain.Identity, category domain.ParticipantCategory) (*ledger.Ledger, error)
	RegisterHandover(ctx context.Context, caller domain.Identity, assetID domain.AssetID, to domain.Identity, category domain.ParticipantCategory, cond *ledger.TransitConditions) error
	RecordConditions(ctx context.Context, caller domain.Identity, assetID domain.AssetID, from, to domain.Identity, at int64, temperature int64, category domain.CarrierCategory) error
	IsPurchasable(ctx context.Context, assetID domain.AssetID) (purchasability.Verdict, error)
	Lookup(ctx context.Context, assetID domain.AssetID) (*ledger.Ledger, error)
	Info(ctx context.Context, assetID domain.AssetID) (supplychain.AssetInfo, error)
}

// Handler handles asset custody endpoints.
type Handler struct {
	logger       *slog.Logger
	chain        Service
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a new custody Handler.
func New(
	chain Service,
	logger *slog.Logger,
	metrics *metrics.Metrics,
	jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		chain:        chain,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the asset routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	assetRouter := chi.NewRouter()
	assetRouter.Use(middleware.Recovery(h.logger))
	assetRouter.Use(middleware.RequestID)
	assetRouter.Use(middleware.RequestTime)
	assetRouter.Use(middleware.Logger(h.logger))
	assetRouter.Use(middleware.Timeout(30 * time.Second))
	assetRouter.Use(middleware.ContentTypeJSON)
	assetRouter.Use(middleware.LatencyMiddleware(h.metrics))
	assetRouter.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
	assetRouter.Post("/", h.handleRegisterAsset)
	assetRouter.Post("/{assetID}/handovers", h.handleRegisterHandover)
	assetRouter.Post("/{assetID}/conditions", h.handleRecordConditions)
	assetRouter.Get("/{assetID}/purchasability", h.handlePurchasability)
	assetRouter.Get("/{assetID}/handovers/{index}", h.handleGetHandover)
	assetRouter.Get("/{assetID}", h.handleGetAsset)

	r.Mount("/assets", assetRouter)
}

type registerAssetRequest struct {
	Variant    string `json:"variant"`
	AssetID    string `json:"asset_id"`
	To         string `json:"to"`
	ToCategory string `json:"to_category"`
}

type conditionsBody struct {
	Temperature     int64  `json:"temperature"`
	CarrierCategory string `json:"carrier_category"`
}

type registerHandoverRequest struct {
	To         string          `json:"to"`
	ToCategory string          `json:"to_category"`
	Conditions *conditionsBody `json:"conditions,omitempty"`
}

type recordConditionsRequest struct {
	From            string `json:"from"`
	To              string `json:"to"`
	At              int64  `json:"at"`
	Temperature     int64  `json:"temperature"`
	CarrierCategory string `json:"carrier_category"`
}

type participantResponse struct {
	ID       string `json:"id"`
	Category string `json:"category"`
}

type handoverResponse struct {
	From participantResponse `json:"from"`
	To   participantResponse `json:"to"`
	At   int64               `json:"at"`
}

type assetResponse struct {
	AssetID        string              `json:"asset_id"`
	Variant        string              `json:"variant"`
	Origin         participantResponse `json:"origin"`
	CurrentHolder  participantResponse `json:"current_holder"`
	HandoverCount  int                 `json:"handover_count"`
	LastHandoverAt int64               `json:"last_handover_at"`
}

type purchasabilityResponse struct {
	AssetID string   `json:"asset_id"`
	Codes   []uint16 `json:"codes"`
}

func toParticipantResponse(p ledger.Participant) participantResponse {
	return participantResponse{ID: p.ID.String(), Category: p.Category.String()}
}

func (h *Handler) handleRegisterAsset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req registerAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid register asset request", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	variant := ledger.Variant(req.Variant)
	if !variant.IsValid() {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown asset variant"))
		return
	}
	assetID, err := domain.ParseAssetID(req.AssetID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	to, err := domain.ParseIdentity(req.To)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	category, err := domain.ParseParticipantCategory(req.ToCategory)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	l, err := h.chain.RegisterInitialHandover(ctx, caller, variant, assetID, to, category)
	if err != nil {
		h.writeServiceError(w, r, "failed to register asset", err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, assetResponseFrom(l))
}

func (h *Handler) handleRegisterHandover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	assetID, ok := h.assetID(w, r)
	if !ok {
		return
	}

	var req registerHandoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid register handover request", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	to, err := domain.ParseIdentity(req.To)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	category, err := domain.ParseParticipantCategory(req.ToCategory)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var cond *ledger.TransitConditions
	if req.Conditions != nil {
		carrierCategory, err := domain.ParseCarrierCategory(req.Conditions.CarrierCategory)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		cond = &ledger.TransitConditions{
			Temperature: req.Conditions.Temperature,
			Category:    carrierCategory,
		}
	}

	if err := h.chain.RegisterHandover(ctx, caller, assetID, to, category, cond); err != nil {
		h.writeServiceError(w, r, "failed to register handover", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRecordConditions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	assetID, ok := h.assetID(w, r)
	if !ok {
		return
	}

	var req recordConditionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warn(ctx, "invalid record conditions request", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	from, err := domain.ParseIdentity(req.From)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	to, err := domain.ParseIdentity(req.To)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	category, err := domain.ParseCarrierCategory(req.CarrierCategory)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.chain.RecordConditions(ctx, caller, assetID, from, to, req.At, req.Temperature, category); err != nil {
		h.writeServiceError(w, r, "failed to record conditions", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePurchasability(w http.ResponseWriter, r *http.Request) {
	assetID, ok := h.assetID(w, r)
	if !ok {
		return
	}

	verdict, err := h.chain.IsPurchasable(r.Context(), assetID)
	if err != nil {
		h.writeServiceError(w, r, "failed to evaluate purchasability", err)
		return
	}

	codes := make([]uint16, 0, len(verdict))
	for _, code := range verdict {
		codes = append(codes, uint16(code))
	}
	shared.WriteJSON(w, http.StatusOK, purchasabilityResponse{
		AssetID: assetID.Hex(),
		Codes:   codes,
	})
}

func (h *Handler) handleGetHandover(w http.ResponseWriter, r *http.Request) {
	assetID, ok := h.assetID(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "handover index must be an integer"))
		return
	}

	l, err := h.chain.Lookup(r.Context(), assetID)
	if err != nil {
		h.writeServiceError(w, r, "failed to look up asset", err)
		return
	}
	ho, err := l.HandoverAt(index)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, handoverResponse{
		From: toParticipantResponse(ho.From),
		To:   toParticipantResponse(ho.To),
		At:   ho.At,
	})
}

func (h *Handler) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	assetID, ok := h.assetID(w, r)
	if !ok {
		return
	}

	info, err := h.chain.Info(r.Context(), assetID)
	if err != nil {
		h.writeServiceError(w, r, "failed to look up asset", err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, assetResponse{
		AssetID:        info.AssetID.Hex(),
		Variant:        string(info.Variant),
		Origin:         toParticipantResponse(info.Origin),
		CurrentHolder:  toParticipantResponse(info.CurrentHolder),
		HandoverCount:  info.HandoverCount,
		LastHandoverAt: info.LastHandoverAt,
	})
}

func assetResponseFrom(l *ledger.Ledger) assetResponse {
	holder := l.CurrentHolder()
	return assetResponse{
		AssetID:        l.AssetID().Hex(),
		Variant:        string(l.Variant()),
		Origin:         toParticipantResponse(l.Origin()),
		CurrentHolder:  toParticipantResponse(holder),
		HandoverCount:  l.HandoverCount(),
		LastHandoverAt: l.LastHandover().At,
	}
}

// caller pulls the authenticated identity set by RequireAuth.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	ctx := r.Context()
	caller := middleware.GetCallerIdentity(ctx)
	if caller.IsZero() {
		h.logger.ErrorContext(ctx, "caller identity missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return domain.NoIdentity, false
	}
	return caller, true
}

func (h *Handler) assetID(w http.ResponseWriter, r *http.Request) (domain.AssetID, bool) {
	assetID, err := domain.ParseAssetID(chi.URLParam(r, "assetID"))
	if err != nil {
		shared.WriteError(w, err)
		return "", false
	}
	return assetID, true
}

func (h *Handler) warn(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
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
	h.warn(ctx, msg, err)
	shared.WriteError(w, err)
}
